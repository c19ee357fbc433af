package scalarindex

import (
	"context"

	"github.com/aman-cerp/fdblayer/internal/entity"
	"github.com/aman-cerp/fdblayer/internal/fieldvalue"
	"github.com/aman-cerp/fdblayer/internal/fusion"
	"github.com/aman-cerp/fdblayer/internal/kvstore"
	"github.com/aman-cerp/fdblayer/internal/tuple"
)

var _ fusion.Stage[fusion.ID] = Stage{}

// Stage evaluates one Predicate against one scalar index and implements
// fusion.Stage[fusion.ID]. Results always score 1.0: a scalar index
// expresses filter semantics, not ranking.
type Stage struct {
	KV    *kvstore.Store
	Index entity.IndexDescriptor
	Pred  Predicate
}

// RequiresCandidates is always false: a scalar scan can run unbounded as
// stage 0.
func (s Stage) RequiresCandidates() bool { return false }

// Execute runs s.Pred against the index and intersects the matches with
// candidates when non-nil.
func (s Stage) Execute(ctx context.Context, candidates fusion.Candidates) ([]fusion.ScoredResult[fusion.ID], error) {
	pred := s.Pred
	if !pred.Matches(s.Index.Fields) {
		return nil, nil
	}

	var ids []fusion.ID
	var err error
	switch {
	case pred.In != nil:
		ids, err = s.scanIn(ctx, pred)
	case pred.Range != nil:
		ids, err = s.scanRange(ctx, pred)
	default:
		ids, err = s.scanEquality(ctx, pred.Equalities)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[fusion.ID]struct{}, len(ids))
	out := make([]fusion.ScoredResult[fusion.ID], 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if candidates != nil {
			if _, ok := candidates[id]; !ok {
				continue
			}
		}
		out = append(out, fusion.ScoredResult[fusion.ID]{ID: id, Item: id, Score: 1.0})
	}
	return out, nil
}

func (s Stage) scanEquality(ctx context.Context, values []fieldvalue.Value) ([]fusion.ID, error) {
	prefix := keyFieldsPrefix(s.Index.Name, values)
	return s.scanKeyRange(ctx, prefix, tuple.Increment(prefix), len(s.Index.Fields))
}

func (s Stage) scanIn(ctx context.Context, pred Predicate) ([]fusion.ID, error) {
	var all []fusion.ID
	for _, v := range pred.In {
		ids, err := s.scanEquality(ctx, append(append([]fieldvalue.Value{}, pred.Equalities...), v))
		if err != nil {
			return nil, err
		}
		all = append(all, ids...)
	}
	return all, nil
}

func (s Stage) scanRange(ctx context.Context, pred Predicate) ([]fusion.ID, error) {
	r := pred.Range
	base := equalitiesTuple(pred.Equalities)

	var begin, end []byte
	if r.HasMin {
		lower := tuple.Pack(append(append(tuple.Tuple{}, base...), fieldvalue.ToTuple(r.Min)))
		if r.MinInclusive {
			begin = lower
		} else {
			begin = tuple.Increment(lower)
		}
	} else {
		begin = tuple.Pack(base)
	}

	if r.HasMax {
		upper := tuple.Pack(append(append(tuple.Tuple{}, base...), fieldvalue.ToTuple(r.Max)))
		if r.MaxInclusive {
			end = tuple.Increment(upper)
		} else {
			end = upper
		}
	} else {
		end = tuple.Increment(tuple.Pack(base))
	}

	begin = withIndexPrefix(s.Index.Name, begin)
	if end != nil {
		end = withIndexPrefix(s.Index.Name, end)
	}
	return s.scanKeyRange(ctx, begin, end, len(s.Index.Fields))
}

func equalitiesTuple(values []fieldvalue.Value) tuple.Tuple {
	t := make(tuple.Tuple, len(values))
	for i, v := range values {
		t[i] = fieldvalue.ToTuple(v)
	}
	return t
}

func keyFieldsPrefix(indexName entity.IndexDescriptorName, values []fieldvalue.Value) []byte {
	packed := tuple.Pack(equalitiesTuple(values))
	return withIndexPrefix(indexName, packed)
}

func withIndexPrefix(indexName entity.IndexDescriptorName, packedKeyFields []byte) []byte {
	return kvstore.IndexSubspaceKey(string(indexName), packedKeyFields)
}

func (s Stage) scanKeyRange(ctx context.Context, begin, end []byte, numKeyFields int) ([]fusion.ID, error) {
	var ids []fusion.ID
	err := s.KV.View(ctx, func(txn *kvstore.Txn) error {
		return txn.RangeScan(begin, end, func(kv kvstore.KeyValue) (bool, error) {
			id, err := extractID(kv.Key, len(withIndexPrefix(s.Index.Name, nil)), numKeyFields)
			if err != nil {
				return false, err
			}
			ids = append(ids, id)
			return true, nil
		})
	})
	return ids, err
}

// extractID unpacks the tuple suffix after the index-name prefix and
// returns the id elements (everything after numKeyFields).
func extractID(key []byte, prefixLen, numKeyFields int) (fusion.ID, error) {
	suffix := key[prefixLen:]
	elements, err := tuple.Unpack(suffix)
	if err != nil {
		return "", err
	}
	idElements := elements[numKeyFields:]
	return fusion.ID(tuple.Pack(idElements)), nil
}
