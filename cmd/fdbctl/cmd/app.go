package cmd

import (
	"github.com/aman-cerp/fdblayer/internal/admin"
	"github.com/aman-cerp/fdblayer/internal/entity"
	"github.com/aman-cerp/fdblayer/internal/fdberr"
	"github.com/aman-cerp/fdblayer/internal/index"
	"github.com/aman-cerp/fdblayer/internal/kvstore"
	"github.com/aman-cerp/fdblayer/internal/recordstore"
	"github.com/aman-cerp/fdblayer/internal/scalarindex"
)

// app bundles the handles every subcommand needs, opened once from the
// loaded config and closed by the caller when done.
//
// fdbctl has no embedding application to supply a Go entity type or a
// Codec, so it reads and writes records through admin.GenericCodec: this
// means rebuild-index only works for scalar indexes (the only
// recordstore.IndexMaintainer this package can register without
// application code) and requires records to have been written with
// admin.GenericCodec in the first place. Vector and text indexes are
// maintained by the embedding application directly and are out of
// fdbctl's rebuild scope; stats/watch apply to any index regardless of
// codec since they only read KV bytes, not decoded fields.
type app struct {
	kv      *kvstore.Store
	schema  entity.Schema
	store   *recordstore.Store
	stats   *admin.StatsService
	history *admin.HistoryStore
	watches *admin.WatchRegistry
	retry   fdberr.RetryConfig
}

func openApp() (*app, error) {
	kv, err := kvstore.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	schema := cfg.BuildSchema()
	retry := fdberr.DefaultRetryConfig()
	if cfg.Store.MaxConflictRetries > 0 {
		retry.MaxRetries = cfg.Store.MaxConflictRetries
	}

	maintainers := recordstore.MaintainerSet{entity.IndexKindScalar: scalarindex.Maintainer{}}
	opts := recordstore.DefaultOptions()
	opts.InlineThresholdBytes = cfg.Chunk.InlineThresholdBytes
	opts.ChunkSizeBytes = cfg.Chunk.ChunkSizeBytes
	opts.RetryConfig = retry
	store := recordstore.New(kv, schema, admin.GenericCodec{}, maintainers, opts)

	history, err := admin.OpenHistoryStore(historyPath)
	if err != nil {
		kv.Close()
		return nil, err
	}

	return &app{
		kv:      kv,
		schema:  schema,
		store:   store,
		stats:   admin.NewStatsService(kv, schema, retry, logger),
		history: history,
		watches: admin.NewWatchRegistry(kv),
		retry:   retry,
	}, nil
}

func (a *app) Close() {
	_ = a.history.Close()
	_ = a.kv.Close()
}

// coordinator builds an index.Coordinator scoped to scalar indexes.
func (a *app) coordinator() *index.Coordinator {
	return index.NewCoordinator(index.CoordinatorConfig{
		KV:          a.kv,
		Store:       a.store,
		Schema:      a.schema,
		Maintainers: recordstore.MaintainerSet{entity.IndexKindScalar: scalarindex.Maintainer{}},
		RetryConfig: a.retry,
		Logger:      logger,
	})
}

func (a *app) entity(typeName string) (entity.EntityDescriptor, error) {
	ed, ok := a.schema.Entities[entity.TypeName(typeName)]
	if !ok {
		return entity.EntityDescriptor{}, fdberr.New(fdberr.CodeEntityNotFound, "entity type not declared in schema", nil).
			WithDetail("type", typeName)
	}
	return ed, nil
}
