package entity

import "github.com/aman-cerp/fdblayer/internal/fieldvalue"

// FieldRef is a typed, reusable reference to a named field on entities of
// type E, so callers building index descriptors or query predicates get
// compile-time checked field access instead of passing bare strings
// through the rest of the layer.
type FieldRef[E Entity, V any] struct {
	name string
	to   func(V) fieldvalue.Value
	from func(fieldvalue.Value) V
}

// NewFieldRef builds a FieldRef for field name, given the conversions
// between the field's Go type V and the wire-level fieldvalue.Value.
func NewFieldRef[E Entity, V any](name string, to func(V) fieldvalue.Value, from func(fieldvalue.Value) V) FieldRef[E, V] {
	return FieldRef[E, V]{name: name, to: to, from: from}
}

// Name returns the underlying field name.
func (r FieldRef[E, V]) Name() string { return r.name }

// Get reads the field from e, decoding it to V. It returns the zero V if
// the field is absent.
func (r FieldRef[E, V]) Get(e E) V {
	v, ok := e.Field(r.name)
	if !ok {
		var zero V
		return zero
	}
	return r.from(v)
}

// Value encodes val as a fieldvalue.Value, e.g. for building an index
// seek key or a query predicate without going through an Entity.
func (r FieldRef[E, V]) Value(val V) fieldvalue.Value {
	return r.to(val)
}

// Int64Field is the common case of a FieldRef over a plain int64 field.
func Int64Field[E Entity](name string) FieldRef[E, int64] {
	return NewFieldRef[E, int64](name,
		func(v int64) fieldvalue.Value { return fieldvalue.Int64(v) },
		func(v fieldvalue.Value) int64 { return v.AsInt64() },
	)
}

// StringField is the common case of a FieldRef over a plain string field.
func StringField[E Entity](name string) FieldRef[E, string] {
	return NewFieldRef[E, string](name,
		func(v string) fieldvalue.Value { return fieldvalue.String(v) },
		func(v fieldvalue.Value) string { return v.AsString() },
	)
}

// DoubleField is the common case of a FieldRef over a plain float64 field.
func DoubleField[E Entity](name string) FieldRef[E, float64] {
	return NewFieldRef[E, float64](name,
		func(v float64) fieldvalue.Value { return fieldvalue.Double(v) },
		func(v fieldvalue.Value) float64 { return v.AsDouble() },
	)
}

// BoolField is the common case of a FieldRef over a plain bool field.
func BoolField[E Entity](name string) FieldRef[E, bool] {
	return NewFieldRef[E, bool](name,
		func(v bool) fieldvalue.Value { return fieldvalue.Bool(v) },
		func(v fieldvalue.Value) bool { return v.AsBool() },
	)
}
