// Package rankstage implements rank-by-field scoring over a non-empty
// candidate set: it reads a designated numeric field, sorts, and maps
// rank position to a score.
package rankstage

import (
	"context"
	"sort"

	"github.com/aman-cerp/fdblayer/internal/fdberr"
	"github.com/aman-cerp/fdblayer/internal/fieldvalue"
	"github.com/aman-cerp/fdblayer/internal/fusion"
)

// FieldFetcher resolves the designated field's value for each candidate
// id. Implementations typically wrap recordstore.Store.FetchMany.
type FieldFetcher func(ctx context.Context, ids []fusion.ID) (map[fusion.ID]fieldvalue.Value, error)

// Stage scores candidates by sorting them on Field and mapping rank
// position i in [0, n) to score 1 - i/(n-1) (or 1.0 when n=1). It must
// never run as stage 0: RequiresCandidates is always true.
type Stage struct {
	Field      string
	Descending bool
	Fetch      FieldFetcher
}

var _ fusion.Stage[fusion.ID] = Stage{}

func (s Stage) RequiresCandidates() bool { return true }

// Execute fetches candidates' Field values, drops any candidate missing
// the field or holding a non-numeric value, sorts the rest, and assigns
// rank-position scores.
func (s Stage) Execute(ctx context.Context, candidates fusion.Candidates) ([]fusion.ScoredResult[fusion.ID], error) {
	if candidates == nil {
		return nil, fdberr.New(fdberr.CodeSchemaMismatch, "rank stage requires a non-nil candidate set", nil)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]fusion.ID, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}

	values, err := s.Fetch(ctx, ids)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		id    fusion.ID
		value float64
	}
	list := make([]ranked, 0, len(ids))
	for _, id := range ids {
		v, ok := values[id]
		if !ok {
			continue
		}
		numeric, ok := asNumeric(v)
		if !ok {
			continue
		}
		list = append(list, ranked{id: id, value: numeric})
	}

	sort.Slice(list, func(i, j int) bool {
		if s.Descending {
			return list[i].value > list[j].value
		}
		return list[i].value < list[j].value
	})

	n := len(list)
	out := make([]fusion.ScoredResult[fusion.ID], 0, n)
	for i, r := range list {
		score := 1.0
		if n > 1 {
			score = 1.0 - float64(i)/float64(n-1)
		}
		out = append(out, fusion.ScoredResult[fusion.ID]{ID: r.id, Item: r.id, Score: score})
	}
	return out, nil
}

func asNumeric(v fieldvalue.Value) (float64, bool) {
	switch v.Kind() {
	case fieldvalue.KindInt64:
		return float64(v.AsInt64()), true
	case fieldvalue.KindDouble:
		return v.AsDouble(), true
	default:
		return 0, false
	}
}
