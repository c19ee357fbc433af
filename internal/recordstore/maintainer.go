package recordstore

import (
	"github.com/aman-cerp/fdblayer/internal/entity"
	"github.com/aman-cerp/fdblayer/internal/fieldvalue"
	"github.com/aman-cerp/fdblayer/internal/kvstore"
)

// IndexMaintainer applies index deltas inside the same transaction as a
// record mutation. old is nil on insert; new is nil on delete. Concrete
// index kinds (internal/scalarindex, internal/vectorindex, ...) each
// implement one IndexMaintainer and the record store fans out to every
// index declared on the entity's descriptor.
type IndexMaintainer interface {
	Kind() entity.IndexKind
	Maintain(txn *kvstore.Txn, idx entity.IndexDescriptor, idTuple []byte, old, new map[string]fieldvalue.Value) error
}

// MaintainerSet dispatches to the registered IndexMaintainer for each
// index kind referenced by a schema's index descriptors.
type MaintainerSet map[entity.IndexKind]IndexMaintainer

func (m MaintainerSet) maintain(txn *kvstore.Txn, idx entity.IndexDescriptor, idTuple []byte, old, new map[string]fieldvalue.Value) error {
	maintainer, ok := m[idx.Kind]
	if !ok {
		return nil
	}
	return maintainer.Maintain(txn, idx, idTuple, old, new)
}
