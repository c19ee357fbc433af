package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aman-cerp/fdblayer/internal/fieldvalue"
)

type fakeEntity struct {
	id     int64
	fields map[string]fieldvalue.Value
}

func (f fakeEntity) TypeName() TypeName                       { return "fake" }
func (f fakeEntity) ID() []any                                { return []any{f.id} }
func (f fakeEntity) Fields() map[string]fieldvalue.Value      { return f.fields }
func (f fakeEntity) Field(name string) (fieldvalue.Value, bool) {
	v, ok := f.fields[name]
	return v, ok
}

func newFake() fakeEntity {
	return fakeEntity{
		id: 1,
		fields: map[string]fieldvalue.Value{
			"name":   fieldvalue.String("alice"),
			"ssn":    fieldvalue.String("000-00-0000"),
			"salary": fieldvalue.Int64(100000),
		},
	}
}

func TestMask_ReadOnlyFieldVisibleOnReadMaskedOnWrite(t *testing.T) {
	restricted := RestrictedFields{"ssn": AccessReadOnly}
	e := newFake()

	read := Mask(e.Fields(), restricted, false)
	assert.Equal(t, fieldvalue.String("000-00-0000"), read["ssn"])

	write := Mask(e.Fields(), restricted, true)
	assert.Equal(t, fieldvalue.String(""), write["ssn"])
}

func TestMask_HiddenFieldMaskedBothWays(t *testing.T) {
	restricted := RestrictedFields{"salary": AccessHidden}
	e := newFake()

	read := Mask(e.Fields(), restricted, false)
	write := Mask(e.Fields(), restricted, true)

	assert.Equal(t, fieldvalue.Int64(0), read["salary"])
	assert.Equal(t, fieldvalue.Int64(0), write["salary"])
}

func TestMask_UnlistedFieldPassesThrough(t *testing.T) {
	e := newFake()
	out := Mask(e.Fields(), RestrictedFields{}, false)
	assert.Equal(t, fieldvalue.String("alice"), out["name"])
}

func TestFieldRef_GetReadsTypedValue(t *testing.T) {
	nameRef := StringField[fakeEntity]("name")
	salaryRef := Int64Field[fakeEntity]("salary")

	e := newFake()
	assert.Equal(t, "alice", nameRef.Get(e))
	assert.Equal(t, int64(100000), salaryRef.Get(e))
}

func TestFieldRef_GetMissingFieldReturnsZero(t *testing.T) {
	ref := StringField[fakeEntity]("missing")
	assert.Equal(t, "", ref.Get(newFake()))
}

func TestSchema_IndexLookup(t *testing.T) {
	schema := NewSchema(EntityDescriptor{
		Name: "fake",
		Indexes: []IndexDescriptor{
			{Name: "by_name", Kind: IndexKindScalar, Fields: []string{"name"}},
		},
	})

	idx, ok := schema.Index("fake", "by_name")
	assert.True(t, ok)
	assert.Equal(t, IndexKindScalar, idx.Kind)

	_, ok = schema.Index("fake", "missing")
	assert.False(t, ok)
}
