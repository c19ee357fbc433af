// Package entity defines the record-layer's typed schema surface: the
// Entity interface application types implement, restricted-field access
// policies, and the descriptors that tie entity types to their indexes.
package entity

import "github.com/aman-cerp/fdblayer/internal/fieldvalue"

// TypeName identifies an entity type within a Schema.
type TypeName string

// Entity is implemented by application-defined record values. Rather than
// reflecting over struct tags, an Entity exposes its own field map; this
// keeps field access, and the cost of computing it, entirely in the
// application's hands.
type Entity interface {
	// TypeName returns the entity's stable type name, matching an
	// EntityDescriptor.Name in the owning Schema.
	TypeName() TypeName

	// ID returns the primary identifier's tuple-encodable elements, in
	// the order they form the primary key.
	ID() []any

	// Fields returns every field's current value, keyed by field name.
	Fields() map[string]fieldvalue.Value

	// Field returns a single field's value and whether it exists.
	Field(name string) (fieldvalue.Value, bool)
}

// AccessPolicy controls read/write access to a restricted field.
type AccessPolicy int

const (
	// AccessReadWrite permits both reading and writing the field.
	AccessReadWrite AccessPolicy = iota
	// AccessReadOnly permits reading the field but masks it on write.
	AccessReadOnly
	// AccessHidden masks the field on both read and write.
	AccessHidden
)

// RestrictedFields maps field name to its access policy. A field absent
// from the map is treated as AccessReadWrite.
type RestrictedFields map[string]AccessPolicy

// Mask returns a copy of fields with every field masked to its kind's
// zero value where the policy denies the requested access (numeric
// fields to 0, strings to "", and so on, via fieldvalue.Value.Zero, not
// collapsed to null). policy is indexed per field name; forWrite selects
// whether read or write access rules apply.
func Mask(fields map[string]fieldvalue.Value, restricted RestrictedFields, forWrite bool) map[string]fieldvalue.Value {
	out := make(map[string]fieldvalue.Value, len(fields))
	for name, v := range fields {
		policy, ok := restricted[name]
		if !ok {
			out[name] = v
			continue
		}
		switch policy {
		case AccessHidden:
			out[name] = v.Zero()
		case AccessReadOnly:
			if forWrite {
				out[name] = v.Zero()
			} else {
				out[name] = v
			}
		default:
			out[name] = v
		}
	}
	return out
}
