package recordstore

import "github.com/aman-cerp/fdblayer/internal/entity"

// Codec serializes and deserializes entity values to and from the
// record store's payload bytes. Applications supply one Codec per
// Schema; the record store never inspects payload contents itself.
type Codec interface {
	Encode(e entity.Entity) ([]byte, error)
	Decode(typeName entity.TypeName, payload []byte) (entity.Entity, error)
}
