// Package fieldvalue implements the tagged union of scalar and array
// values used for record fields: null, bool, int64, double, string,
// bytes, and ordered arrays of field values.
package fieldvalue

import (
	"encoding/json"
	"fmt"

	"github.com/aman-cerp/fdblayer/internal/tuple"
)

// Kind identifies a FieldValue's tag.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt64
	KindDouble
	KindString
	KindBytes
	KindArray
)

// Value is a tagged union field value. The zero Value is KindNull.
type Value struct {
	kind  Kind
	b     bool
	i     int64
	f     float64
	s     string
	bs    []byte
	array []Value
}

// Null returns the null field value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a bool.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Int64 wraps an int64.
func Int64(v int64) Value { return Value{kind: KindInt64, i: v} }

// Double wraps a float64.
func Double(v float64) Value { return Value{kind: KindDouble, f: v} }

// String wraps a string.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Bytes wraps a byte slice.
func Bytes(v []byte) Value { return Value{kind: KindBytes, bs: v} }

// Array wraps an ordered list of field values.
func Array(v []Value) Value { return Value{kind: KindArray, array: v} }

// Kind returns the value's tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value. This is deliberately kept
// distinct from a kind's zero value: "absent" and "zero" are different
// states and this type never collapses them.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the underlying bool, or false if v is not KindBool.
func (v Value) AsBool() bool { return v.b }

// AsInt64 returns the underlying int64, or 0 if v is not KindInt64.
func (v Value) AsInt64() int64 { return v.i }

// AsDouble returns the underlying float64, or 0 if v is not KindDouble.
func (v Value) AsDouble() float64 { return v.f }

// AsString returns the underlying string, or "" if v is not KindString.
func (v Value) AsString() string { return v.s }

// AsBytes returns the underlying byte slice, or nil if v is not KindBytes.
func (v Value) AsBytes() []byte { return v.bs }

// AsArray returns the underlying element slice, or nil if v is not KindArray.
func (v Value) AsArray() []Value { return v.array }

// Zero returns the zero value for v's kind. Each kind knows its own
// zero, so no reflection is needed to reset a field to its default.
func (v Value) Zero() Value {
	switch v.kind {
	case KindBool:
		return Bool(false)
	case KindInt64:
		return Int64(0)
	case KindDouble:
		return Double(0)
	case KindString:
		return String("")
	case KindBytes:
		return Bytes(nil)
	case KindArray:
		return Array(nil)
	default:
		return Null()
	}
}

// Equal reports whether v and other have the same kind and value.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt64:
		return v.i == other.i
	case KindDouble:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindBytes:
		return string(v.bs) == string(other.bs)
	case KindArray:
		if len(v.array) != len(other.array) {
			return false
		}
		for i := range v.array {
			if !v.array[i].Equal(other.array[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// jsonKindNames maps each Kind to its wire name for MarshalJSON/
// UnmarshalJSON, used by tooling (such as the admin CLI's generic
// record codec) that needs to serialize a Value without knowing a
// field's declared type ahead of time.
var jsonKindNames = [...]string{"null", "bool", "int64", "double", "string", "bytes", "array"}

type jsonValue struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON encodes v as {"kind": ..., "value": ...}, tagging the kind
// explicitly since JSON numbers alone cannot distinguish int64 from
// double.
func (v Value) MarshalJSON() ([]byte, error) {
	if int(v.kind) < 0 || int(v.kind) >= len(jsonKindNames) {
		return nil, fmt.Errorf("fieldvalue: unknown kind %d", v.kind)
	}
	var raw any
	switch v.kind {
	case KindNull:
		return json.Marshal(jsonValue{Kind: jsonKindNames[v.kind]})
	case KindBool:
		raw = v.b
	case KindInt64:
		raw = v.i
	case KindDouble:
		raw = v.f
	case KindString:
		raw = v.s
	case KindBytes:
		raw = v.bs
	case KindArray:
		raw = v.array
	}
	payload, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonValue{Kind: jsonKindNames[v.kind], Value: payload})
}

// UnmarshalJSON decodes the wire shape MarshalJSON produces.
func (v *Value) UnmarshalJSON(data []byte) error {
	var jv jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return err
	}
	switch jv.Kind {
	case "null", "":
		*v = Null()
	case "bool":
		var b bool
		if err := json.Unmarshal(jv.Value, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case "int64":
		var i int64
		if err := json.Unmarshal(jv.Value, &i); err != nil {
			return err
		}
		*v = Int64(i)
	case "double":
		var f float64
		if err := json.Unmarshal(jv.Value, &f); err != nil {
			return err
		}
		*v = Double(f)
	case "string":
		var s string
		if err := json.Unmarshal(jv.Value, &s); err != nil {
			return err
		}
		*v = String(s)
	case "bytes":
		var bs []byte
		if err := json.Unmarshal(jv.Value, &bs); err != nil {
			return err
		}
		*v = Bytes(bs)
	case "array":
		var els []Value
		if err := json.Unmarshal(jv.Value, &els); err != nil {
			return err
		}
		*v = Array(els)
	default:
		return fmt.Errorf("fieldvalue: unknown JSON kind %q", jv.Kind)
	}
	return nil
}

// ToTuple converts v into its canonical tuple.Tuple encoding element, the
// way internal/tuple expects to see it (nil/int64/float64/string/[]byte/
// tuple.Tuple).
func ToTuple(v Value) any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		if v.b {
			return int64(1)
		}
		return int64(0)
	case KindInt64:
		return v.i
	case KindDouble:
		return v.f
	case KindString:
		return v.s
	case KindBytes:
		return v.bs
	case KindArray:
		t := make(tuple.Tuple, len(v.array))
		for i, el := range v.array {
			t[i] = ToTuple(el)
		}
		return t
	default:
		panic(fmt.Sprintf("fieldvalue: unknown kind %d", v.kind))
	}
}

// FromTuple converts a decoded tuple element back into a Value. Because
// the tuple codec alone cannot distinguish KindBool from KindInt64 (both
// pack as int64), FromTuple always reconstructs KindInt64 for integers;
// callers that need bool semantics back must consult the field's declared
// type in the schema and call AsInt64 != 0 themselves.
func FromTuple(el any) (Value, error) {
	switch x := el.(type) {
	case nil:
		return Null(), nil
	case int64:
		return Int64(x), nil
	case float64:
		return Double(x), nil
	case string:
		return String(x), nil
	case []byte:
		return Bytes(x), nil
	case tuple.Tuple:
		values := make([]Value, len(x))
		for i, inner := range x {
			v, err := FromTuple(inner)
			if err != nil {
				return Value{}, err
			}
			values[i] = v
		}
		return Array(values), nil
	default:
		return Value{}, fmt.Errorf("fieldvalue: cannot convert %T from tuple", el)
	}
}
