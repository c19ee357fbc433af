package scalarindex

import (
	"bytes"

	"github.com/aman-cerp/fdblayer/internal/entity"
	"github.com/aman-cerp/fdblayer/internal/fieldvalue"
	"github.com/aman-cerp/fdblayer/internal/kvstore"
	"github.com/aman-cerp/fdblayer/internal/tuple"
)

// Maintainer keeps scalar index entries in sync with record mutations.
// It implements recordstore.IndexMaintainer.
type Maintainer struct{}

func (Maintainer) Kind() entity.IndexKind { return entity.IndexKindScalar }

// Maintain clears the old index entry and writes the new one inside the
// same transaction as the record mutation, skipping entries whose keyed
// fields are not all non-null (invariant 2's null-handling clause).
func (Maintainer) Maintain(txn *kvstore.Txn, idx entity.IndexDescriptor, idTuple []byte, old, new map[string]fieldvalue.Value) error {
	oldKey, oldOK := indexKeyFor(idx, old, idTuple)
	newKey, newOK := indexKeyFor(idx, new, idTuple)

	if oldOK && (!newOK || !bytes.Equal(oldKey, newKey)) {
		if err := txn.Clear(oldKey); err != nil {
			return err
		}
	}
	if newOK && (!oldOK || !bytes.Equal(oldKey, newKey)) {
		if err := txn.Set(newKey, []byte{}); err != nil {
			return err
		}
	}
	return nil
}

// indexKeyFor builds the index entry key for fields, or ok=false if
// fields is nil or any keyed field is null.
func indexKeyFor(idx entity.IndexDescriptor, fields map[string]fieldvalue.Value, idTuple []byte) ([]byte, bool) {
	if fields == nil {
		return nil, false
	}
	keyTuple := make(tuple.Tuple, len(idx.Fields))
	for i, name := range idx.Fields {
		v, ok := fields[name]
		if !ok || v.IsNull() {
			return nil, false
		}
		keyTuple[i] = fieldvalue.ToTuple(v)
	}
	keyFieldsPacked := tuple.Pack(keyTuple)
	return kvstore.IndexEntryKey(string(idx.Name), keyFieldsPacked, idTuple), true
}
