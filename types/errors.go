package types

import (
	"errors"
	"fmt"
)

var (
	// schema errors
	ErrUnknownViewType   = errors.New("unknown view type")
	ErrDuplicateViewType = errors.New("duplicate view type")
	ErrSchemaViolation   = errors.New("schema violation")

	// parse errors
	ErrNoJSONFound   = errors.New("no json object found")
	ErrMalformedJSON = errors.New("malformed json")
	ErrMissingKeys   = errors.New("missing component or props key")

	// agent collaborator errors
	ErrTimeout   = errors.New("agent timeout")
	ErrTransport = errors.New("agent transport error")

	ErrViewNotImplemented = errors.New("view not implemented")
	ErrRenderFailed       = errors.New("render failed")

	ErrTurnInProgress  = errors.New("turn in progress")
	ErrEmptyInput      = errors.New("empty input")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// SchemaViolation reports the first prop of a descriptor that does not match
// its view schema.
type SchemaViolation struct {
	ViewType ViewTypeID
	Field    string
	Expected string
	Actual   string
}

func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("schema violation in %s.%s: expected %s, got %s", e.ViewType, e.Field, e.Expected, e.Actual)
}

func (e *SchemaViolation) Unwrap() error {
	return ErrSchemaViolation
}

func IsSchemaError(err error) bool {
	return errors.Is(err, ErrUnknownViewType) ||
		errors.Is(err, ErrDuplicateViewType) ||
		errors.Is(err, ErrSchemaViolation)
}

func IsParseError(err error) bool {
	return errors.Is(err, ErrNoJSONFound) ||
		errors.Is(err, ErrMalformedJSON) ||
		errors.Is(err, ErrMissingKeys)
}
