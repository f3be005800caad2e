package interpret

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/tbxark/viewagent/types"
	"github.com/tbxark/viewagent/views"
)

const (
	FallbackTitle = "Tell Me About Yourself"

	componentKey      = "component"
	componentAliasKey = "type"
	propsKey          = "props"
	nestedViewKey     = "view"
	nestedUIKey       = "ui"
	contextUpdateKey  = "contextUpdate"
	fallbackFieldType = "textarea"
)

// Result is the outcome of interpreting one agent reply. Descriptor is always
// valid against the registry.
type Result struct {
	Descriptor types.ViewDescriptor
	Update     *types.ContextUpdate
	Fallback   bool
	// Err is the cause that triggered the fallback, kept for logging.
	Err error
}

type Interpreter struct {
	registry *views.Registry
	strict   bool
	fallback types.ViewDescriptor
}

type Option func(*options)

type options struct {
	strict       bool
	fallbackType types.ViewTypeID
	fallback     *types.ViewDescriptor
}

// WithStrictUnknownProps controls whether props the schema does not declare
// are rejected. Defaults to true.
func WithStrictUnknownProps(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithFallbackViewType sets the view used when a reply cannot be accepted.
// The view receives the default background and goal fields; if it does not
// accept them, InfoGatheringForm is used instead.
func WithFallbackViewType(id types.ViewTypeID) Option {
	return func(o *options) {
		o.fallbackType = id
	}
}

// WithFallbackDescriptor replaces the fallback view entirely. It must validate
// against the registry.
func WithFallbackDescriptor(desc types.ViewDescriptor) Option {
	return func(o *options) {
		d := desc.Clone()
		o.fallback = &d
	}
}

func New(registry *views.Registry, opts ...Option) *Interpreter {
	o := options{strict: true, fallbackType: types.InfoGatheringForm}
	for _, opt := range opts {
		opt(&o)
	}
	it := &Interpreter{
		registry: registry,
		strict:   o.strict,
	}
	candidate := DefaultFallback()
	if o.fallback != nil {
		candidate = o.fallback.Clone()
	} else if o.fallbackType != "" {
		candidate.Type = o.fallbackType
	}
	if err := it.validate(candidate); err != nil {
		slog.Warn("Configured fallback view is not valid, using default", "type", candidate.Type, "error", err)
		candidate = DefaultFallback()
	}
	it.fallback = candidate
	return it
}

// DefaultFallback is the information gathering view shown whenever the agent
// reply cannot be used.
func DefaultFallback() types.ViewDescriptor {
	return types.ViewDescriptor{
		Type: types.InfoGatheringForm,
		Props: map[string]any{
			"title": FallbackTitle,
			"fields": []any{
				map[string]any{
					"name":     "background",
					"label":    "What's your background?",
					"type":     fallbackFieldType,
					"required": true,
				},
				map[string]any{
					"name":     "goal",
					"label":    "What are you trying to achieve?",
					"type":     fallbackFieldType,
					"required": true,
				},
			},
		},
	}
}

// Fallback returns a copy of the fallback descriptor.
func (it *Interpreter) Fallback() types.ViewDescriptor {
	return it.fallback.Clone()
}

// Interpret never fails: any extraction, parse or schema error yields the
// fallback descriptor with Result.Err set.
func (it *Interpreter) Interpret(raw string) Result {
	desc, update, err := it.Parse(raw)
	if err == nil {
		err = it.validate(desc)
	}
	if err != nil {
		slog.Debug("Agent reply rejected, using fallback view", "error", err)
		return Result{
			Descriptor: it.Fallback(),
			Fallback:   true,
			Err:        err,
		}
	}
	return Result{Descriptor: desc, Update: update}
}

// Parse extracts and normalizes the view selection without validating it
// against the registry.
func (it *Interpreter) Parse(raw string) (types.ViewDescriptor, *types.ContextUpdate, error) {
	obj, err := firstParsedObject(raw)
	if err != nil {
		return types.ViewDescriptor{}, nil, err
	}
	desc, container, err := normalize(obj)
	if err != nil {
		return types.ViewDescriptor{}, nil, err
	}
	update := decodeUpdate(obj, container)
	return desc, update, nil
}

// firstParsedObject returns the first candidate object of raw that parses as
// JSON. When candidates exist but none parses, the error of the first one is
// returned.
func firstParsedObject(raw string) (map[string]any, error) {
	var firstErr error
	for from := 0; ; {
		start, end, ok := nextObject(raw, from)
		if !ok {
			break
		}
		var obj map[string]any
		err := sonic.UnmarshalString(raw[start:end], &obj)
		if err == nil {
			return obj, nil
		}
		if firstErr == nil {
			firstErr = fmt.Errorf("%w: %w", types.ErrMalformedJSON, err)
		}
		from = start + 1
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, types.ErrNoJSONFound
}

func (it *Interpreter) validate(desc types.ViewDescriptor) error {
	if it.strict {
		return it.registry.Validate(desc)
	}
	return it.registry.Validate(desc, views.AllowUnknownProps())
}

// normalize accepts {component|type, props} either at the top level or nested
// under "view" or "ui". It returns the object the selection was found in.
func normalize(obj map[string]any) (types.ViewDescriptor, map[string]any, error) {
	container := obj
	if _, ok := selectorOf(obj); !ok {
		for _, key := range []string{nestedViewKey, nestedUIKey} {
			if nested, isMap := obj[key].(map[string]any); isMap {
				container = nested
				break
			}
		}
	}
	id, ok := selectorOf(container)
	if !ok {
		return types.ViewDescriptor{}, nil, fmt.Errorf("%w: no %s or %s", types.ErrMissingKeys, componentKey, componentAliasKey)
	}
	rawProps, ok := container[propsKey]
	if !ok {
		return types.ViewDescriptor{}, nil, fmt.Errorf("%w: no %s", types.ErrMissingKeys, propsKey)
	}
	props, ok := rawProps.(map[string]any)
	if !ok {
		return types.ViewDescriptor{}, nil, &types.SchemaViolation{
			ViewType: types.ViewTypeID(id),
			Field:    propsKey,
			Expected: string(views.KindObject),
			Actual:   string(views.KindOf(rawProps)),
		}
	}
	return types.ViewDescriptor{Type: types.ViewTypeID(id), Props: props}, container, nil
}

func selectorOf(obj map[string]any) (string, bool) {
	for _, key := range []string{componentKey, componentAliasKey} {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}

func decodeUpdate(outer, container map[string]any) *types.ContextUpdate {
	raw, ok := outer[contextUpdateKey]
	if !ok {
		raw, ok = container[contextUpdateKey]
	}
	if !ok || raw == nil {
		return nil
	}
	data, err := sonic.Marshal(raw)
	if err != nil {
		return nil
	}
	var update types.ContextUpdate
	if err := sonic.Unmarshal(data, &update); err != nil {
		slog.Debug("Ignoring malformed context update", "error", err)
		return nil
	}
	if update.IsEmpty() {
		return nil
	}
	return &update
}
