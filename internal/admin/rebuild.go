package admin

import (
	"context"

	"github.com/aman-cerp/fdblayer/internal/entity"
	"github.com/aman-cerp/fdblayer/internal/index"
)

// RebuildIndex drives internal/index.Coordinator.Rebuild for the
// rebuild-index CLI command and appends the outcome to build history,
// whether it succeeds or fails, so failed attempts are recorded as well
// (HistoryStore.RecentBuilds reads them back).
func RebuildIndex(ctx context.Context, coord *index.Coordinator, history *HistoryStore, typeName entity.TypeName, indexName entity.IndexDescriptorName) error {
	rebuildErr := coord.Rebuild(ctx, typeName, indexName)

	state, stateErr := coord.State(ctx, indexName)
	rec := BuildRecord{IndexName: indexName, Status: state.Status, BuiltThroughVersion: state.BuiltThroughVersion}
	if rebuildErr != nil {
		rec.Err = rebuildErr.Error()
	}
	if stateErr == nil && history != nil {
		_ = history.RecordBuild(ctx, rec) // best-effort; history is diagnostic, never load-bearing
	}
	return rebuildErr
}
