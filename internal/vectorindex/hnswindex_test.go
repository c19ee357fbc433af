package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/fdblayer/internal/fusion"
)

func TestHNSWIndex_SearchEmptyGraphReturnsNil(t *testing.T) {
	idx := NewHNSWIndex(HNSWConfig{Dimension: 4})
	out, err := idx.Search(context.Background(), []float32{1, 0, 0, 0}, 5)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestHNSWIndex_AddThenSearch_FindsExactMatch(t *testing.T) {
	idx := NewHNSWIndex(HNSWConfig{Dimension: 4})
	ctx := context.Background()

	ids := []fusion.ID{"a", "b", "c"}
	vectors := [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
	}
	require.NoError(t, idx.Add(ctx, ids, vectors))

	out, err := idx.Search(ctx, []float32{1, 0, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, fusion.ID("a"), out[0].ID)
}

func TestHNSWIndex_Delete_OrphansNodeAndHidesFromSearch(t *testing.T) {
	idx := NewHNSWIndex(HNSWConfig{Dimension: 4})
	ctx := context.Background()

	ids := []fusion.ID{"a", "b"}
	vectors := [][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}}
	require.NoError(t, idx.Add(ctx, ids, vectors))
	require.NoError(t, idx.Delete(ctx, []fusion.ID{"a"}))

	stats := idx.Stats()
	assert.Equal(t, 1, stats.Live)
	assert.Equal(t, 1, stats.Orphans)

	out, err := idx.Search(ctx, []float32{1, 0, 0, 0}, 2)
	require.NoError(t, err)
	for _, r := range out {
		assert.NotEqual(t, fusion.ID("a"), r.ID)
	}
}

func TestHNSWIndex_AddReplacesExistingID(t *testing.T) {
	idx := NewHNSWIndex(HNSWConfig{Dimension: 4})
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, []fusion.ID{"a"}, [][]float32{{1, 0, 0, 0}}))
	require.NoError(t, idx.Add(ctx, []fusion.ID{"a"}, [][]float32{{0, 1, 0, 0}}))

	assert.Equal(t, 1, idx.Stats().Live)

	out, err := idx.Search(ctx, []float32{0, 1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, fusion.ID("a"), out[0].ID)
}

func TestHNSWIndex_DimensionMismatchFails(t *testing.T) {
	idx := NewHNSWIndex(HNSWConfig{Dimension: 4})
	ctx := context.Background()
	err := idx.Add(ctx, []fusion.ID{"a"}, [][]float32{{1, 0}})
	assert.Error(t, err)
}
