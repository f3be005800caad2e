package views

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/tbxark/viewagent/types"
)

type PropKind string

const (
	KindString  PropKind = "string"
	KindNumber  PropKind = "number"
	KindBoolean PropKind = "boolean"
	KindObject  PropKind = "object"
	KindArray   PropKind = "array"
	KindAny     PropKind = "any"
	KindNull    PropKind = "null"
)

// PropType is a shallow structural type: a primitive kind, an object, or an
// array whose elements share one kind.
type PropType struct {
	Kind PropKind
	Elem PropKind
}

func (t PropType) String() string {
	if t.Kind == KindArray {
		if t.Elem == "" || t.Elem == KindAny {
			return "array"
		}
		return "array<" + string(t.Elem) + ">"
	}
	return string(t.Kind)
}

// Matches reports whether v has this shape. Array elements are checked one
// level deep; objects are not inspected.
func (t PropType) Matches(v any) bool {
	kind := KindOf(v)
	if t.Kind == KindAny {
		return kind != KindNull
	}
	if kind != t.Kind {
		return false
	}
	if t.Kind != KindArray || t.Elem == "" || t.Elem == KindAny {
		return true
	}
	rv := reflect.ValueOf(v)
	for i := 0; i < rv.Len(); i++ {
		if KindOf(rv.Index(i).Interface()) != t.Elem {
			return false
		}
	}
	return true
}

// KindOf classifies a JSON-shaped value.
func KindOf(v any) PropKind {
	switch v.(type) {
	case nil:
		return KindNull
	case string:
		return KindString
	case bool:
		return KindBoolean
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindNumber
	case map[string]any:
		return KindObject
	case []any:
		return KindArray
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return KindNull
		}
		rv = rv.Elem()
	}
	return kindOfType(rv.Type())
}

func kindOfType(typ reflect.Type) PropKind {
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	switch typ.Kind() {
	case reflect.String:
		return KindString
	case reflect.Bool:
		return KindBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return KindNumber
	case reflect.Struct, reflect.Map:
		return KindObject
	case reflect.Slice, reflect.Array:
		return KindArray
	default:
		return KindAny
	}
}

// ViewSchema is the accepted prop shape of one view type.
type ViewSchema struct {
	TypeID      types.ViewTypeID
	Description string
	Required    map[string]struct{}
	Optional    map[string]struct{}
	PropTypes   map[string]PropType

	proto Props
}

func (s ViewSchema) IsRequired(name string) bool {
	_, ok := s.Required[name]
	return ok
}

func (s ViewSchema) RequiredProps() []string {
	return sortedKeys(s.Required)
}

func (s ViewSchema) OptionalProps() []string {
	return sortedKeys(s.Optional)
}

// PropNames returns required props then optional props, each sorted.
func (s ViewSchema) PropNames() []string {
	names := sortedKeys(s.Required)
	return append(names, sortedKeys(s.Optional)...)
}

// Shape renders the response format line the agent is expected to follow,
// e.g. {"component":"ActionPlan","props":{"goal":"string","steps":"array<object>"}}.
// Optional props carry a trailing "?" on the key.
func (s ViewSchema) Shape() string {
	var sb strings.Builder
	sb.WriteString(`{"component":"`)
	sb.WriteString(string(s.TypeID))
	sb.WriteString(`","props":{`)
	for i, name := range s.PropNames() {
		if i > 0 {
			sb.WriteString(",")
		}
		key := name
		if !s.IsRequired(name) {
			key += "?"
		}
		fmt.Fprintf(&sb, "%q:%q", key, s.PropTypes[name].String())
	}
	sb.WriteString("}}")
	return sb.String()
}

// SchemaFor derives a ViewSchema from a typed prop record. Field names come
// from json tags; fields tagged omitempty are optional.
func SchemaFor(p Props, description string) ViewSchema {
	schema := ViewSchema{
		TypeID:      p.ViewType(),
		Description: description,
		Required:    map[string]struct{}{},
		Optional:    map[string]struct{}{},
		PropTypes:   map[string]PropType{},
		proto:       p,
	}
	typ := reflect.TypeOf(p)
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, optional := jsonFieldName(field)
		if name == "" || name == "-" {
			continue
		}
		schema.PropTypes[name] = propTypeOf(field.Type)
		if optional {
			schema.Optional[name] = struct{}{}
		} else {
			schema.Required[name] = struct{}{}
		}
	}
	return schema
}

func propTypeOf(typ reflect.Type) PropType {
	for typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	kind := kindOfType(typ)
	if kind != KindArray {
		return PropType{Kind: kind}
	}
	return PropType{Kind: KindArray, Elem: kindOfType(typ.Elem())}
}

func jsonFieldName(field reflect.StructField) (string, bool) {
	jsonTag := field.Tag.Get("json")
	if jsonTag == "" {
		return field.Name, false
	}
	parts := strings.Split(jsonTag, ",")
	name := parts[0]
	if name == "" {
		name = field.Name
	}
	optional := false
	for _, opt := range parts[1:] {
		if opt == "omitempty" || opt == "omitzero" {
			optional = true
		}
	}
	return name, optional
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
