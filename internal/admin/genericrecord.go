package admin

import (
	"encoding/json"
	"fmt"

	"github.com/aman-cerp/fdblayer/internal/entity"
	"github.com/aman-cerp/fdblayer/internal/fieldvalue"
	"github.com/aman-cerp/fdblayer/internal/recordstore"
)

// GenericRecord is a schema-described, codec-agnostic entity.Entity:
// cmd/fdbctl administers stores for applications whose Go types it has
// no way to import, so it reads and writes records through this generic
// shape instead. Applications that want their store administrable this
// way should write records with GenericCodec rather than a bespoke one.
type GenericRecord struct {
	typeName entity.TypeName
	id       []any
	fields   map[string]fieldvalue.Value
}

// NewGenericRecord builds a GenericRecord.
func NewGenericRecord(typeName entity.TypeName, id []any, fields map[string]fieldvalue.Value) GenericRecord {
	return GenericRecord{typeName: typeName, id: id, fields: fields}
}

func (r GenericRecord) TypeName() entity.TypeName            { return r.typeName }
func (r GenericRecord) ID() []any                             { return r.id }
func (r GenericRecord) Fields() map[string]fieldvalue.Value   { return r.fields }
func (r GenericRecord) Field(name string) (fieldvalue.Value, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// GenericCodec encodes/decodes GenericRecord values (and any other
// entity.Entity) as a JSON envelope of tagged field values, so it does
// not need to know an entity's concrete Go type ahead of time the way
// an application's own codec would.
type GenericCodec struct{}

type genericWire struct {
	ID     []json.RawMessage           `json:"id"`
	Fields map[string]fieldvalue.Value `json:"fields"`
}

// Encode implements recordstore.Codec.
func (GenericCodec) Encode(e entity.Entity) ([]byte, error) {
	idParts := make([]json.RawMessage, len(e.ID()))
	for i, el := range e.ID() {
		raw, err := json.Marshal(el)
		if err != nil {
			return nil, fmt.Errorf("admin: encode id element %d: %w", i, err)
		}
		idParts[i] = raw
	}
	return json.Marshal(genericWire{ID: idParts, Fields: e.Fields()})
}

// Decode implements recordstore.Codec, reconstructing a GenericRecord.
func (GenericCodec) Decode(typeName entity.TypeName, payload []byte) (entity.Entity, error) {
	var wire genericWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("admin: decode record: %w", err)
	}
	id := make([]any, len(wire.ID))
	for i, raw := range wire.ID {
		var el any
		if err := json.Unmarshal(raw, &el); err != nil {
			return nil, fmt.Errorf("admin: decode id element %d: %w", i, err)
		}
		id[i] = el
	}
	return NewGenericRecord(typeName, id, wire.Fields), nil
}

var _ recordstore.Codec = GenericCodec{}
