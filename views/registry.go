package views

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/tbxark/viewagent/types"
)

// Registry maps view type identifiers to their schemas. It is filled once at
// startup and only read afterwards.
type Registry struct {
	mu      sync.RWMutex
	schemas map[types.ViewTypeID]ViewSchema
	order   []types.ViewTypeID
}

func NewRegistry() *Registry {
	return &Registry{schemas: map[types.ViewTypeID]ViewSchema{}}
}

func (r *Registry) Register(schema ViewSchema) error {
	if schema.TypeID == "" {
		return fmt.Errorf("register view: empty type id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schemas[schema.TypeID]; exists {
		return fmt.Errorf("%w: %s", types.ErrDuplicateViewType, schema.TypeID)
	}
	if schema.Required == nil {
		schema.Required = map[string]struct{}{}
	}
	if schema.Optional == nil {
		schema.Optional = map[string]struct{}{}
	}
	if schema.PropTypes == nil {
		schema.PropTypes = map[string]PropType{}
	}
	r.schemas[schema.TypeID] = schema
	r.order = append(r.order, schema.TypeID)
	return nil
}

func (r *Registry) Lookup(id types.ViewTypeID) (ViewSchema, error) {
	r.mu.RLock()
	schema, ok := r.schemas[id]
	r.mu.RUnlock()
	if !ok {
		return ViewSchema{}, fmt.Errorf("%w: %q", types.ErrUnknownViewType, id)
	}
	return schema, nil
}

// Types returns the registered view types in registration order.
func (r *Registry) Types() []types.ViewTypeID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]types.ViewTypeID{}, r.order...)
}

// Schemas returns the registered schemas in registration order.
func (r *Registry) Schemas() []ViewSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ViewSchema, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.schemas[id])
	}
	return out
}

type validateOptions struct {
	allowUnknown bool
}

type ValidateOption func(*validateOptions)

// AllowUnknownProps makes Validate ignore props the schema does not declare.
func AllowUnknownProps() ValidateOption {
	return func(o *validateOptions) {
		o.allowUnknown = true
	}
}

// Validate checks a descriptor against its schema: every required prop is
// present, no undeclared prop is present (unless AllowUnknownProps), and each
// present prop has the declared shallow shape. Props are checked in sorted
// order so the reported violation is stable.
func (r *Registry) Validate(desc types.ViewDescriptor, opts ...ValidateOption) error {
	var o validateOptions
	for _, opt := range opts {
		opt(&o)
	}
	schema, err := r.Lookup(desc.Type)
	if err != nil {
		return err
	}
	for _, name := range sortedKeys(schema.Required) {
		if _, ok := desc.Props[name]; !ok {
			return &types.SchemaViolation{
				ViewType: desc.Type,
				Field:    name,
				Expected: schema.PropTypes[name].String(),
				Actual:   "missing",
			}
		}
	}
	keys := make([]string, 0, len(desc.Props))
	for k := range desc.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, name := range keys {
		value := desc.Props[name]
		pt, known := schema.PropTypes[name]
		if !known {
			if o.allowUnknown {
				continue
			}
			return &types.SchemaViolation{
				ViewType: desc.Type,
				Field:    name,
				Expected: "no such prop",
				Actual:   string(KindOf(value)),
			}
		}
		if !pt.Matches(value) {
			return &types.SchemaViolation{
				ViewType: desc.Type,
				Field:    name,
				Expected: pt.String(),
				Actual:   describe(value),
			}
		}
	}
	return nil
}

// Decode converts a descriptor's props into the typed record of its view.
// Only schemas derived with SchemaFor can be decoded.
func (r *Registry) Decode(desc types.ViewDescriptor) (Props, error) {
	schema, err := r.Lookup(desc.Type)
	if err != nil {
		return nil, err
	}
	if schema.proto == nil {
		return nil, fmt.Errorf("view %s has no typed props", desc.Type)
	}
	typ := reflect.TypeOf(schema.proto)
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	ptr := reflect.New(typ)
	data, err := sonic.Marshal(desc.Props)
	if err != nil {
		return nil, fmt.Errorf("marshal %s props: %w", desc.Type, err)
	}
	if err := sonic.Unmarshal(data, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("decode %s props: %w", desc.Type, err)
	}
	props, ok := ptr.Elem().Interface().(Props)
	if !ok {
		return nil, fmt.Errorf("view %s props do not implement Props", desc.Type)
	}
	return props, nil
}

func describe(v any) string {
	kind := KindOf(v)
	if kind != KindArray {
		return string(kind)
	}
	rv := reflect.ValueOf(v)
	for i := 0; i < rv.Len(); i++ {
		if elem := KindOf(rv.Index(i).Interface()); elem != KindOf(rv.Index(0).Interface()) {
			return "array<mixed>"
		}
	}
	if rv.Len() == 0 {
		return "array"
	}
	return "array<" + string(KindOf(rv.Index(0).Interface())) + ">"
}
