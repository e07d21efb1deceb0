package dataset

import (
	"bytes"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/arloliu/keysplit/keys"
)

// Kind identifies a Metadata variant.
type Kind int

const (
	KindField Kind = iota
	KindArray
	KindList
	KindMap
	KindKeyRef
)

// String returns the lowercase variant name.
func (k Kind) String() string {
	switch k {
	case KindField:
		return "field"
	case KindArray:
		return "array"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindKeyRef:
		return "keyref"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// PrimitiveType is the value type of a Field or Array.
type PrimitiveType int

const (
	TypeBool PrimitiveType = iota
	TypeInt
	TypeFloat
	TypeString
	TypeBytes
)

// Metadata is a node of a metadata tree.
//
// The variant set is closed: Field, Array, List, Map and KeyRef are the only
// implementations.
type Metadata interface {
	Kind() Kind
	String() string
	sealed()
}

// Field is a single scalar value.
type Field struct {
	typ   PrimitiveType
	value any
}

// BoolField creates a boolean field.
func BoolField(v bool) Field { return Field{typ: TypeBool, value: v} }

// IntField creates an integer field.
func IntField(v int64) Field { return Field{typ: TypeInt, value: v} }

// FloatField creates a floating point field.
func FloatField(v float64) Field { return Field{typ: TypeFloat, value: v} }

// StringField creates a string field.
func StringField(v string) Field { return Field{typ: TypeString, value: v} }

// BytesField creates a raw bytes field.
func BytesField(v []byte) Field { return Field{typ: TypeBytes, value: slices.Clone(v)} }

// Type returns the primitive type.
func (f Field) Type() PrimitiveType { return f.typ }

// Value returns the value as bool, int64, float64, string or []byte.
func (f Field) Value() any { return f.value }

func (Field) Kind() Kind { return KindField }
func (Field) sealed() {}

func (f Field) String() string {
	return fmt.Sprintf("%v", f.value)
}

func (f Field) equal(o Field) bool {
	if f.typ != o.typ {
		return false
	}
	if f.typ == TypeBytes {
		return bytes.Equal(f.value.([]byte), o.value.([]byte))
	}

	return scalarEqual(f.value, o.value)
}

// scalarEqual compares two scalars of the same type. Floats compare by bit
// pattern, so NaN equals itself and 0.0 differs from -0.0.
func scalarEqual(a, b any) bool {
	if af, ok := a.(float64); ok {
		bf, ok := b.(float64)
		return ok && math.Float64bits(af) == math.Float64bits(bf)
	}

	return a == b
}

// Primitive constrains the element types of a typed Array.
type Primitive interface {
	bool | int64 | float64 | string
}

// Array is a homogeneous sequence of scalars.
type Array struct {
	typ    PrimitiveType
	values []any
}

// NewArray creates an array of values. The element type is taken from T.
func NewArray[T Primitive](values ...T) Array {
	var zero T
	var typ PrimitiveType
	switch any(zero).(type) {
	case bool:
		typ = TypeBool
	case int64:
		typ = TypeInt
	case float64:
		typ = TypeFloat
	default:
		typ = TypeString
	}

	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}

	return Array{typ: typ, values: out}
}

// Type returns the element type.
func (a Array) Type() PrimitiveType { return a.typ }

// Len returns the number of elements.
func (a Array) Len() int { return len(a.values) }

// At returns the i-th element.
func (a Array) At(i int) any { return a.values[i] }

func (Array) Kind() Kind { return KindArray }
func (Array) sealed() {}

func (a Array) String() string {
	return fmt.Sprintf("%v", a.values)
}

// List is an ordered sequence of nested metadata.
type List []Metadata

func (List) Kind() Kind { return KindList }
func (List) sealed() {}

func (l List) String() string {
	parts := make([]string, len(l))
	for i, m := range l {
		parts[i] = metadataString(m)
	}

	return "[" + strings.Join(parts, " ") + "]"
}

// Map is a string-keyed collection of nested metadata.
type Map map[string]Metadata

func (Map) Kind() Kind { return KindMap }
func (Map) sealed() {}

func (m Map) String() string {
	names := slices.Sorted(maps.Keys(m))
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + ":" + metadataString(m[n])
	}

	return "{" + strings.Join(parts, " ") + "}"
}

func metadataString(m Metadata) string {
	if m == nil {
		return "<nil>"
	}

	return m.String()
}

// KeyRef points at the data stored under another key. The zero value
// refers to no key.
type KeyRef struct {
	Key keys.Key
}

func (KeyRef) Kind() Kind { return KindKeyRef }
func (KeyRef) sealed() {}

func (r KeyRef) String() string {
	if r.Key == nil {
		return "&[]"
	}

	return "&" + r.Key.String()
}

func (r KeyRef) equal(o KeyRef) bool {
	if r.Key == nil || o.Key == nil {
		return r.Key == nil && o.Key == nil
	}

	return keys.EqualKeys(r.Key, o.Key)
}

// MetadataEqual reports whether a and b are structurally equal.
//
// Fields and arrays compare by type and value. Lists and maps compare their
// children recursively. A KeyRef equals another KeyRef to the same key; the
// referenced data is never resolved, so cyclic graphs are safe.
func MetadataEqual(a, b Metadata) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch av := a.(type) {
	case Field:
		return av.equal(b.(Field))
	case Array:
		bv := b.(Array)
		if av.typ != bv.typ || len(av.values) != len(bv.values) {
			return false
		}
		for i := range av.values {
			if !scalarEqual(av.values[i], bv.values[i]) {
				return false
			}
		}

		return true
	case List:
		bv := b.(List)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !MetadataEqual(av[i], bv[i]) {
				return false
			}
		}

		return true
	case Map:
		bv := b.(Map)
		if len(av) != len(bv) {
			return false
		}
		for name, am := range av {
			bm, ok := bv[name]
			if !ok || !MetadataEqual(am, bm) {
				return false
			}
		}

		return true
	case KeyRef:
		return av.equal(b.(KeyRef))
	default:
		panic(fmt.Sprintf("dataset: unexpected metadata variant %T", a))
	}
}
