// Package recordstore implements the CRUD surface over the ordered KV
// store: insert/save/delete/fetch, inline-vs-chunked payload placement,
// and transactional index-delta maintenance.
package recordstore

import (
	"context"

	"github.com/aman-cerp/fdblayer/internal/entity"
	"github.com/aman-cerp/fdblayer/internal/fdberr"
	"github.com/aman-cerp/fdblayer/internal/fieldvalue"
	"github.com/aman-cerp/fdblayer/internal/kvstore"
	"github.com/aman-cerp/fdblayer/internal/tuple"
)

// Options configures the inline/chunked payload policy.
type Options struct {
	InlineThresholdBytes int
	ChunkSizeBytes       int
	RetryConfig          fdberr.RetryConfig
}

// DefaultOptions matches the default chunking policy: a 90 KiB inline
// threshold and 80 KiB chunks.
func DefaultOptions() Options {
	return Options{
		InlineThresholdBytes: 90 * 1024,
		ChunkSizeBytes:       80 * 1024,
		RetryConfig:          fdberr.DefaultRetryConfig(),
	}
}

// Store is the record store over one KV-store handle and schema.
type Store struct {
	kv          *kvstore.Store
	schema      entity.Schema
	codec       Codec
	maintainers MaintainerSet
	opts        Options
}

// New builds a Store. maintainers may be nil if no indexes are declared.
func New(kv *kvstore.Store, schema entity.Schema, codec Codec, maintainers MaintainerSet, opts Options) *Store {
	if maintainers == nil {
		maintainers = MaintainerSet{}
	}
	return &Store{kv: kv, schema: schema, codec: codec, maintainers: maintainers, opts: opts}
}

func idTupleOf(e entity.Entity) []byte {
	return tuple.Pack(tuple.Tuple(e.ID()))
}

// Insert writes e's envelope, fails with CodeDuplicateKey if the primary
// key already exists, and maintains every declared index.
func (s *Store) Insert(ctx context.Context, e entity.Entity) error {
	return s.kv.Transact(ctx, s.opts.RetryConfig, func(txn *kvstore.Txn) error {
		key := kvstore.RecordsKey(string(e.TypeName()), idTupleOf(e))

		existing, err := txn.Get(key)
		if err != nil {
			return err
		}
		if existing != nil {
			return fdberr.New(fdberr.CodeDuplicateKey, "primary key already exists", nil).
				WithDetail("typeName", string(e.TypeName()))
		}

		if err := s.writeEnvelope(txn, key, e); err != nil {
			return err
		}
		return s.maintainIndexes(txn, e.TypeName(), idTupleOf(e), nil, e.Fields())
	})
}

// Save upserts e, computing the index delta against any prior state.
func (s *Store) Save(ctx context.Context, e entity.Entity) error {
	return s.kv.Transact(ctx, s.opts.RetryConfig, func(txn *kvstore.Txn) error {
		key := kvstore.RecordsKey(string(e.TypeName()), idTupleOf(e))

		old, err := s.readFields(txn, e.TypeName(), key)
		if err != nil {
			return err
		}

		if err := s.clearChunks(txn, key); err != nil {
			return err
		}
		if err := s.writeEnvelope(txn, key, e); err != nil {
			return err
		}
		return s.maintainIndexes(txn, e.TypeName(), idTupleOf(e), old, e.Fields())
	})
}

// Delete is idempotent: it clears the envelope, every blob chunk, and
// every index entry for (typeName, idTuple).
func (s *Store) Delete(ctx context.Context, typeName entity.TypeName, idTuple []byte) error {
	return s.kv.Transact(ctx, s.opts.RetryConfig, func(txn *kvstore.Txn) error {
		key := kvstore.RecordsKey(string(typeName), idTuple)

		old, err := s.readFields(txn, typeName, key)
		if err != nil {
			return err
		}
		if old == nil {
			return nil // already absent: idempotent no-op
		}

		if err := s.clearChunks(txn, key); err != nil {
			return err
		}
		if err := txn.Clear(key); err != nil {
			return err
		}
		return s.maintainIndexes(txn, typeName, idTuple, old, nil)
	})
}

// FetchByID reconstructs a single entity directly by primary key,
// transparently reassembling chunks if the envelope is a placeholder.
func (s *Store) FetchByID(ctx context.Context, typeName entity.TypeName, idTuple []byte) (entity.Entity, error) {
	var result entity.Entity
	err := s.kv.View(ctx, func(txn *kvstore.Txn) error {
		key := kvstore.RecordsKey(string(typeName), idTuple)
		payload, err := s.readPayload(txn, key)
		if err != nil {
			return err
		}
		if payload == nil {
			return fdberr.New(fdberr.CodeEntityNotFound, "entity not found", nil)
		}
		e, err := s.codec.Decode(typeName, payload)
		if err != nil {
			return err
		}
		result = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FetchMany point-fetches every id in ids. It is the "point-fetch by id"
// half of fetch(query): index scans resolved by internal/planner and
// internal/scalarindex produce the id list this consumes.
func (s *Store) FetchMany(ctx context.Context, typeName entity.TypeName, idTuples [][]byte) ([]entity.Entity, error) {
	out := make([]entity.Entity, 0, len(idTuples))
	err := s.kv.View(ctx, func(txn *kvstore.Txn) error {
		for _, idTuple := range idTuples {
			key := kvstore.RecordsKey(string(typeName), idTuple)
			payload, err := s.readPayload(txn, key)
			if err != nil {
				return err
			}
			if payload == nil {
				continue
			}
			e, err := s.codec.Decode(typeName, payload)
			if err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ScanFields walks every record of typeName in primary-key order under a
// single snapshot read, invoking fn with each record's id tuple and
// decoded field map. fn returning false stops the scan early. This is
// the read side of index rebuild: internal/index.Coordinator re-derives
// keyed fields from here rather than re-deriving the envelope format
// itself.
func (s *Store) ScanFields(ctx context.Context, typeName entity.TypeName, fn func(idTuple []byte, fields map[string]fieldvalue.Value) (bool, error)) error {
	prefix := kvstore.RecordsPrefix(string(typeName))
	end := tuple.Increment(prefix)
	return s.kv.View(ctx, func(txn *kvstore.Txn) error {
		var outerErr error
		scanErr := txn.RangeScan(prefix, end, func(row kvstore.KeyValue) (bool, error) {
			if len(row.Key) <= len(prefix) {
				return true, nil
			}
			idTuple := row.Key[len(prefix):]
			payload, err := s.readPayload(txn, row.Key)
			if err != nil {
				return false, err
			}
			if payload == nil {
				return true, nil
			}
			e, err := s.codec.Decode(typeName, payload)
			if err != nil {
				return false, err
			}
			cont, err := fn(idTuple, e.Fields())
			if err != nil {
				outerErr = err
				return false, nil
			}
			return cont, nil
		})
		if outerErr != nil {
			return outerErr
		}
		return scanErr
	})
}

func (s *Store) maintainIndexes(txn *kvstore.Txn, typeName entity.TypeName, idTuple []byte, old, new map[string]fieldvalue.Value) error {
	ed, ok := s.schema.Entities[typeName]
	if !ok {
		return nil
	}
	for _, idx := range ed.Indexes {
		if err := s.maintainers.maintain(txn, idx, idTuple, old, new); err != nil {
			return err
		}
	}
	return nil
}

// writeEnvelope encodes e, places it inline or chunked per the size
// policy, and writes the primary key.
func (s *Store) writeEnvelope(txn *kvstore.Txn, key []byte, e entity.Entity) error {
	payload, err := s.codec.Encode(e)
	if err != nil {
		return err
	}
	if len(payload) <= s.opts.InlineThresholdBytes {
		return txn.Set(key, inlineEnvelope(payload))
	}

	chunks := chunkPayload(payload, s.opts.ChunkSizeBytes)
	for i, chunk := range chunks {
		chunkKey := kvstore.BlobChunkKey(key, uint32(i))
		if err := txn.Set(chunkKey, chunk); err != nil {
			return err
		}
	}
	return txn.Set(key, chunkedEnvelope(payload, s.opts.ChunkSizeBytes))
}

// readPayload reads key's envelope and, if chunked, reassembles it from
// the blob subspace, verifying the checksum. Returns nil if key is absent.
func (s *Store) readPayload(txn *kvstore.Txn, key []byte) ([]byte, error) {
	raw, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	env, err := decodeEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if !env.chunked {
		return env.payload, nil
	}

	reassembled := make([]byte, 0, env.totalLen)
	for i := uint32(0); i < env.chunkCount; i++ {
		chunkKey := kvstore.BlobChunkKey(key, i)
		chunk, err := txn.Get(chunkKey)
		if err != nil {
			return nil, err
		}
		if chunk == nil {
			return nil, fdberr.New(fdberr.CodeSchemaMismatch, "missing blob chunk", nil)
		}
		reassembled = append(reassembled, chunk...)
	}
	if !verifyChecksum(reassembled, env.checksum) {
		return nil, fdberr.New(fdberr.CodeSchemaMismatch, "chunk checksum mismatch", nil)
	}
	return reassembled, nil
}

// readFields reads and decodes the entity currently stored under key,
// returning its field map, or nil if absent.
func (s *Store) readFields(txn *kvstore.Txn, typeName entity.TypeName, key []byte) (map[string]fieldvalue.Value, error) {
	payload, err := s.readPayload(txn, key)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}
	e, err := s.codec.Decode(typeName, payload)
	if err != nil {
		return nil, err
	}
	return e.Fields(), nil
}

// clearChunks deletes every blob chunk associated with key, if the
// current envelope is chunked.
func (s *Store) clearChunks(txn *kvstore.Txn, key []byte) error {
	raw, err := txn.Get(key)
	if err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	env, err := decodeEnvelope(raw)
	if err != nil {
		return err
	}
	if !env.chunked {
		return nil
	}
	for i := uint32(0); i < env.chunkCount; i++ {
		if err := txn.Clear(kvstore.BlobChunkKey(key, i)); err != nil {
			return err
		}
	}
	return nil
}
