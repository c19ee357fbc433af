package pq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDistanceTable_BeforeTrainFails(t *testing.T) {
	c, err := NewCodec(2, 8, 0)
	require.NoError(t, err)
	_, err = c.BuildDistanceTable(make([]float32, 8))
	assert.Error(t, err)
}

func TestBuildDistanceTable_WrongDimensionFails(t *testing.T) {
	c := trainedCodec(t, 2, 8, 64)
	_, err := c.BuildDistanceTable(make([]float32, 4))
	assert.Error(t, err)
}

func TestScore_RanksExactMatchClosest(t *testing.T) {
	c := trainedCodec(t, 2, 8, 64)

	query := randomVector(8)
	queryCode, err := c.Encode(query)
	require.NoError(t, err)

	table, err := c.BuildDistanceTable(query)
	require.NoError(t, err)

	farCode, err := c.Encode(randomVector(8))
	require.NoError(t, err)

	exactScore := table.Score(queryCode)
	farScore := table.Score(farCode)

	// query's own code must score itself at or below an unrelated code.
	assert.LessOrEqual(t, exactScore, farScore+1e-6)
}

func TestTopK_ReturnsAscendingByDistanceAndRespectsK(t *testing.T) {
	c := trainedCodec(t, 2, 8, 64)

	query := randomVector(8)
	table, err := c.BuildDistanceTable(query)
	require.NoError(t, err)

	items := []string{"a", "b", "c", "d", "e"}
	codes := make([][]byte, len(items))
	for i := range items {
		code, err := c.Encode(randomVector(8))
		require.NoError(t, err)
		codes[i] = code
	}

	top := TopK(table, items, codes, 3)
	require.Len(t, top, 3)
	for i := 1; i < len(top); i++ {
		assert.LessOrEqual(t, top[i-1].Distance, top[i].Distance)
	}
}

func TestTopK_NegativeKReturnsAll(t *testing.T) {
	c := trainedCodec(t, 2, 8, 64)
	query := randomVector(8)
	table, err := c.BuildDistanceTable(query)
	require.NoError(t, err)

	items := []string{"a", "b"}
	codes := make([][]byte, 2)
	for i := range items {
		code, err := c.Encode(randomVector(8))
		require.NoError(t, err)
		codes[i] = code
	}

	top := TopK(table, items, codes, -1)
	assert.Len(t, top, 2)
}
