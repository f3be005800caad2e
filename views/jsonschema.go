package views

import (
	"fmt"
	"reflect"

	"github.com/bytedance/sonic"
	"github.com/eino-contrib/jsonschema"
	"github.com/tbxark/viewagent/types"
)

// JSONSchema returns the JSON Schema document for a view's props. The
// additionalProperties policy follows strict.
func (r *Registry) JSONSchema(id types.ViewTypeID, strict bool) (*jsonschema.Schema, error) {
	schema, err := r.Lookup(id)
	if err != nil {
		return nil, err
	}
	if schema.proto == nil {
		return nil, fmt.Errorf("view %s has no typed props", id)
	}
	reflector := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: !strict,
	}
	typ := reflect.TypeOf(schema.proto)
	s := reflector.Reflect(reflect.New(typ).Interface())
	s.Title = string(id)
	s.Description = schema.Description
	return s, nil
}

// JSONSchemaString is JSONSchema marshalled with sonic.
func (r *Registry) JSONSchemaString(id types.ViewTypeID, strict bool) (string, error) {
	s, err := r.JSONSchema(id, strict)
	if err != nil {
		return "", err
	}
	out, err := sonic.MarshalString(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON schema: %w", err)
	}
	return out, nil
}
