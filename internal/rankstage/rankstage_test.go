package rankstage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/fdblayer/internal/fieldvalue"
	"github.com/aman-cerp/fdblayer/internal/fusion"
)

func fakeFetch(values map[fusion.ID]fieldvalue.Value) FieldFetcher {
	return func(ctx context.Context, ids []fusion.ID) (map[fusion.ID]fieldvalue.Value, error) {
		return values, nil
	}
}

func TestExecute_RequiresNonNilCandidates(t *testing.T) {
	s := Stage{Field: "score", Fetch: fakeFetch(nil)}
	_, err := s.Execute(context.Background(), nil)
	assert.Error(t, err)
}

func TestExecute_EmptyCandidatesReturnsEmpty(t *testing.T) {
	s := Stage{Field: "score", Fetch: fakeFetch(nil)}
	out, err := s.Execute(context.Background(), fusion.Candidates{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestExecute_DropsMissingAndNonNumericFields(t *testing.T) {
	values := map[fusion.ID]fieldvalue.Value{
		"a": fieldvalue.Int64(10),
		"b": fieldvalue.String("not a number"),
	}
	s := Stage{Field: "score", Fetch: fakeFetch(values)}
	candidates := fusion.Candidates{"a": {}, "b": {}, "c": {}}
	out, err := s.Execute(context.Background(), candidates)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, fusion.ID("a"), out[0].ID)
	assert.Equal(t, 1.0, out[0].Score) // single survivor: n=1 -> score 1.0
}

func TestExecute_AscendingRankToScoreMapping(t *testing.T) {
	values := map[fusion.ID]fieldvalue.Value{
		"a": fieldvalue.Int64(30),
		"b": fieldvalue.Int64(10),
		"c": fieldvalue.Int64(20),
	}
	s := Stage{Field: "price", Fetch: fakeFetch(values)}
	candidates := fusion.Candidates{"a": {}, "b": {}, "c": {}}
	out, err := s.Execute(context.Background(), candidates)
	require.NoError(t, err)
	require.Len(t, out, 3)

	// Ascending sort: b(10) rank0 score1.0, c(20) rank1 score0.5, a(30) rank2 score0.0
	assert.Equal(t, fusion.ID("b"), out[0].ID)
	assert.Equal(t, 1.0, out[0].Score)
	assert.Equal(t, fusion.ID("c"), out[1].ID)
	assert.InDelta(t, 0.5, out[1].Score, 1e-9)
	assert.Equal(t, fusion.ID("a"), out[2].ID)
	assert.Equal(t, 0.0, out[2].Score)
}

func TestExecute_DescendingRankToScoreMapping(t *testing.T) {
	values := map[fusion.ID]fieldvalue.Value{
		"a": fieldvalue.Int64(30),
		"b": fieldvalue.Int64(10),
	}
	s := Stage{Field: "price", Descending: true, Fetch: fakeFetch(values)}
	candidates := fusion.Candidates{"a": {}, "b": {}}
	out, err := s.Execute(context.Background(), candidates)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, fusion.ID("a"), out[0].ID)
	assert.Equal(t, 1.0, out[0].Score)
	assert.Equal(t, fusion.ID("b"), out[1].ID)
	assert.Equal(t, 0.0, out[1].Score)
}
