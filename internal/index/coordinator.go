// Package index drives index rebuilds: a full re-derivation of an
// index's entries from the record store, used when an index is created
// against existing data or after its build state is marked failed.
package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aman-cerp/fdblayer/internal/entity"
	"github.com/aman-cerp/fdblayer/internal/fdberr"
	"github.com/aman-cerp/fdblayer/internal/fieldvalue"
	"github.com/aman-cerp/fdblayer/internal/kvstore"
	"github.com/aman-cerp/fdblayer/internal/recordstore"
)

// DefaultBatchSize bounds how many records one rebuild transaction
// writes before committing, keeping individual transactions small on a
// large backlog.
const DefaultBatchSize = 500

// CoordinatorConfig configures a Coordinator.
type CoordinatorConfig struct {
	KV          *kvstore.Store
	Store       *recordstore.Store
	Schema      entity.Schema
	Maintainers recordstore.MaintainerSet
	RetryConfig fdberr.RetryConfig
	BatchSize   int
	Logger      *slog.Logger
}

// Coordinator rebuilds one index at a time from the record store's
// current contents. Concurrent rebuilds of different indexes are safe;
// rebuilding the same index concurrently from two callers is not
// guarded here and is the caller's responsibility to serialize.
type Coordinator struct {
	cfg CoordinatorConfig
}

// NewCoordinator builds a Coordinator. A zero BatchSize defaults to
// DefaultBatchSize and a nil Logger defaults to slog.Default().
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Coordinator{cfg: cfg}
}

// Rebuild re-derives every entry of (typeName, indexName) from the
// record store's current contents: it marks the index building at the
// store's current commit version, walks every record deriving the
// index's keyed fields via the maintainer that already handles live
// writes, and transitions the index to ready once builtThroughVersion
// passes the version recorded at the start of the rebuild. A failure
// midway leaves the index marked failed rather than ready, so a caller
// never observes a partially rebuilt index as usable.
func (c *Coordinator) Rebuild(ctx context.Context, typeName entity.TypeName, indexName entity.IndexDescriptorName) error {
	idx, ok := c.cfg.Schema.Index(typeName, indexName)
	if !ok {
		return fdberr.New(fdberr.CodeIndexNotFound, "index not declared in schema", nil).
			WithDetail("indexName", string(indexName))
	}
	maintainer, ok := c.cfg.Maintainers[idx.Kind]
	if !ok {
		return fdberr.New(fdberr.CodeIndexNotFound, "no maintainer registered for index kind", nil).
			WithDetail("indexName", string(indexName)).
			WithDetail("kind", string(idx.Kind))
	}

	startVersion := c.cfg.KV.CommitVersion()
	if err := c.setState(ctx, indexName, entity.IndexStatusBuilding, 0); err != nil {
		return err
	}
	c.cfg.Logger.Info("index rebuild started",
		slog.String("index", string(indexName)),
		slog.String("entity", string(typeName)),
		slog.Uint64("startVersion", startVersion))

	rebuilt, err := c.rebuildEntries(ctx, typeName, idx, maintainer)
	if err != nil {
		_ = c.setState(ctx, indexName, entity.IndexStatusFailed, 0)
		c.cfg.Logger.Error("index rebuild failed",
			slog.String("index", string(indexName)),
			slog.String("error", err.Error()))
		return err
	}

	endVersion := c.cfg.KV.CommitVersion()
	if err := c.setState(ctx, indexName, entity.IndexStatusReady, endVersion); err != nil {
		return err
	}
	c.cfg.Logger.Info("index rebuild complete",
		slog.String("index", string(indexName)),
		slog.Int("records", rebuilt),
		slog.Uint64("builtThroughVersion", endVersion))
	return nil
}

// rebuildEntries scans typeName's records and writes idx's entries in
// batches of cfg.BatchSize, returning the number of records processed.
func (c *Coordinator) rebuildEntries(ctx context.Context, typeName entity.TypeName, idx entity.IndexDescriptor, maintainer recordstore.IndexMaintainer) (int, error) {
	type pending struct {
		idTuple []byte
		fields  map[string]fieldvalue.Value
	}

	var batch []pending
	total := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := c.cfg.KV.Transact(ctx, c.cfg.RetryConfig, func(txn *kvstore.Txn) error {
			for _, p := range batch {
				if err := maintainer.Maintain(txn, idx, p.idTuple, nil, p.fields); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	scanErr := c.cfg.Store.ScanFields(ctx, typeName, func(idTuple []byte, fields map[string]fieldvalue.Value) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		idCopy := append([]byte(nil), idTuple...)
		batch = append(batch, pending{idTuple: idCopy, fields: fields})
		if len(batch) >= c.cfg.BatchSize {
			if err := flush(); err != nil {
				return false, err
			}
		}
		return true, nil
	})
	if scanErr != nil {
		return total, scanErr
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

func (c *Coordinator) setState(ctx context.Context, indexName entity.IndexDescriptorName, status entity.IndexStatus, builtThroughVersion uint64) error {
	return c.cfg.KV.Transact(ctx, c.cfg.RetryConfig, func(txn *kvstore.Txn) error {
		return txn.Set(kvstore.IndexStateKey(string(indexName)), encodeIndexState(entity.IndexState{
			Status:              status,
			BuiltThroughVersion: builtThroughVersion,
		}))
	})
}

// State reads the persisted build state for indexName, returning the
// zero IndexState if it has never been written.
func (c *Coordinator) State(ctx context.Context, indexName entity.IndexDescriptorName) (entity.IndexState, error) {
	var state entity.IndexState
	err := c.cfg.KV.View(ctx, func(txn *kvstore.Txn) error {
		raw, err := txn.Get(kvstore.IndexStateKey(string(indexName)))
		if err != nil {
			return err
		}
		if raw == nil {
			return nil
		}
		decoded, err := decodeIndexState(raw)
		if err != nil {
			return err
		}
		state = decoded
		return nil
	})
	return state, err
}

// encodeIndexState/decodeIndexState use a trivial fixed layout: one
// status byte followed by an 8-byte big-endian builtThroughVersion.
// There is no versioning concern here the way there is for the PQ
// codebook blob, since IndexState is wholly internal and never crosses
// a process boundary other than this store.
func encodeIndexState(s entity.IndexState) []byte {
	out := make([]byte, 9)
	switch s.Status {
	case entity.IndexStatusBuilding:
		out[0] = 1
	case entity.IndexStatusReady:
		out[0] = 2
	case entity.IndexStatusFailed:
		out[0] = 3
	}
	for i := 0; i < 8; i++ {
		out[1+i] = byte(s.BuiltThroughVersion >> (56 - 8*i))
	}
	return out
}

func decodeIndexState(raw []byte) (entity.IndexState, error) {
	if len(raw) != 9 {
		return entity.IndexState{}, fmt.Errorf("index state: expected 9 bytes, got %d", len(raw))
	}
	var status entity.IndexStatus
	switch raw[0] {
	case 1:
		status = entity.IndexStatusBuilding
	case 2:
		status = entity.IndexStatusReady
	case 3:
		status = entity.IndexStatusFailed
	}
	var version uint64
	for i := 0; i < 8; i++ {
		version = version<<8 | uint64(raw[1+i])
	}
	return entity.IndexState{Status: status, BuiltThroughVersion: version}, nil
}
