// Package content discovers the content tree, parses frontmatter, and
// builds the Page/Section model, grounded on the teacher's
// pkg/plugins/frontmatter.go and pkg/models/post.go.
package content

import "strconv"

// ValueKind tags a Value's variant, per spec.md §9's tagged-union design
// note: frontmatter values are dynamically typed in the source documents
// (YAML/TOML/JSON all decode into interface{}), so rather than threading
// interface{} through the whole model, every frontmatter/config field is
// wrapped in a Value with an explicit kind tag and typed accessors.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

// Value is a sum type over the scalar/sequence/mapping shapes YAML, TOML,
// and JSON frontmatter decode into.
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	m    map[string]Value
}

func NewNull() Value  { return Value{kind: KindNull} }
func NewBool(b bool) Value   { return Value{kind: KindBool, b: b} }
func NewInt(i int64) Value   { return Value{kind: KindInt, i: i} }
func NewFloat(f float64) Value { return Value{kind: KindFloat, f: f} }
func NewString(s string) Value { return Value{kind: KindString, s: s} }
func NewList(v []Value) Value  { return Value{kind: KindList, list: v} }
func NewMap(v map[string]Value) Value { return Value{kind: KindMap, m: v} }

func (v Value) Kind() ValueKind { return v.kind }

// FromInterface recursively wraps a decoded-YAML/TOML/JSON value (as
// produced by yaml.v3, BurntSushi/toml, or encoding/json) into a Value.
func FromInterface(raw interface{}) Value {
	switch t := raw.(type) {
	case nil:
		return NewNull()
	case bool:
		return NewBool(t)
	case int:
		return NewInt(int64(t))
	case int64:
		return NewInt(t)
	case float64:
		if t == float64(int64(t)) {
			return NewInt(int64(t))
		}
		return NewFloat(t)
	case string:
		return NewString(t)
	case []interface{}:
		out := make([]Value, len(t))
		for i, item := range t {
			out[i] = FromInterface(item)
		}
		return NewList(out)
	case []string:
		out := make([]Value, len(t))
		for i, item := range t {
			out[i] = NewString(item)
		}
		return NewList(out)
	case map[string]interface{}:
		out := make(map[string]Value, len(t))
		for k, item := range t {
			out[k] = FromInterface(item)
		}
		return NewMap(out)
	case map[interface{}]interface{}:
		out := make(map[string]Value, len(t))
		for k, item := range t {
			if ks, ok := k.(string); ok {
				out[ks] = FromInterface(item)
			}
		}
		return NewMap(out)
	default:
		return NewNull()
	}
}

// AsStringOr returns the string value, or def if v is not a string (or is
// an int/float/bool coerced to its textual form for convenience).
func (v Value) AsStringOr(def string) string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return def
	}
}

// AsBoolOr returns the bool value, or def otherwise.
func (v Value) AsBoolOr(def bool) bool {
	if v.kind == KindBool {
		return v.b
	}
	return def
}

// AsIntOr returns the int value, or def otherwise.
func (v Value) AsIntOr(def int64) int64 {
	if v.kind == KindInt {
		return v.i
	}
	return def
}

// AsListOfStringsOr returns the list's string elements, skipping every
// non-string element (numbers and bools are not converted), or def if v
// isn't a list.
func (v Value) AsListOfStringsOr(def []string) []string {
	if v.kind != KindList {
		return def
	}
	out := make([]string, 0, len(v.list))
	for _, item := range v.list {
		if item.kind == KindString {
			out = append(out, item.s)
		}
	}
	return out
}

// AsMap returns the underlying map and whether v is a KindMap.
func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// Metadata is a frontmatter/config document: top-level string keys mapping
// to tagged Values.
type Metadata map[string]Value

// Get returns the Value at key, or NewNull() if absent.
func (m Metadata) Get(key string) Value {
	if v, ok := m[key]; ok {
		return v
	}
	return NewNull()
}

// MetadataFromInterface wraps a decoded map[string]interface{} (or
// map[interface{}]interface{}) document into Metadata.
func MetadataFromInterface(raw interface{}) Metadata {
	v := FromInterface(raw)
	m, ok := v.AsMap()
	if !ok {
		return Metadata{}
	}
	return Metadata(m)
}
