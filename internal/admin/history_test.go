package admin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/fdblayer/internal/entity"
)

func openTestHistory(t *testing.T) *HistoryStore {
	t.Helper()
	h, err := OpenHistoryStore("")
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestRecordExplain_ThenRecentExplains_ReturnsNewestFirst(t *testing.T) {
	h := openTestHistory(t)
	ctx := context.Background()

	require.NoError(t, h.RecordExplain(ctx, ExplainRecord{EntityType: "widget", QuerySignature: "q1", PlanDescription: "TableScan", EstimatedCost: 100}))
	require.NoError(t, h.RecordExplain(ctx, ExplainRecord{EntityType: "widget", QuerySignature: "q2", PlanDescription: "IndexSeek(by_category)", EstimatedCost: 1}))

	recs, err := h.RecentExplains(ctx, "widget", 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "q2", recs[0].QuerySignature)
	assert.Equal(t, "q1", recs[1].QuerySignature)
}

func TestRecentExplains_FiltersByEntityType(t *testing.T) {
	h := openTestHistory(t)
	ctx := context.Background()

	require.NoError(t, h.RecordExplain(ctx, ExplainRecord{EntityType: "widget", QuerySignature: "q1", PlanDescription: "TableScan"}))
	require.NoError(t, h.RecordExplain(ctx, ExplainRecord{EntityType: "gadget", QuerySignature: "q2", PlanDescription: "TableScan"}))

	recs, err := h.RecentExplains(ctx, "widget", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, entity.TypeName("widget"), recs[0].EntityType)
}

func TestRecordBuild_ThenRecentBuilds_CarriesErrorText(t *testing.T) {
	h := openTestHistory(t)
	ctx := context.Background()

	require.NoError(t, h.RecordBuild(ctx, BuildRecord{IndexName: "by_category", Status: entity.IndexStatusFailed, Err: "boom"}))
	require.NoError(t, h.RecordBuild(ctx, BuildRecord{IndexName: "by_category", Status: entity.IndexStatusReady, RecordsProcessed: 10, BuiltThroughVersion: 7}))

	recs, err := h.RecentBuilds(ctx, "by_category", 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, entity.IndexStatusReady, recs[0].Status)
	assert.Empty(t, recs[0].Err)
	assert.Equal(t, entity.IndexStatusFailed, recs[1].Status)
	assert.Equal(t, "boom", recs[1].Err)
}
