package fusion

import "sort"

// DefaultRRFConstant is the standard reciprocal-rank-fusion smoothing
// constant (k=60, the value used by Azure AI Search, OpenSearch, and
// most hybrid-search implementations).
const DefaultRRFConstant = 60

// rrfAggregate computes each surviving id's final score as the sum,
// over every stage in which the id appeared, of 1/(k+rank) — rank being
// the id's 1-indexed position in that stage's own (already-scored)
// output order. Only ids present in `surviving` are scored; ids a stage
// produced but a later stage filtered out contribute nothing, matching
// the pipeline's sequential-narrowing semantics.
func rrfAggregate[T any](perStage [][]ScoredResult[T], surviving Candidates, k int, itemOf func(ID) (T, bool)) []ScoredResult[T] {
	if k <= 0 {
		k = DefaultRRFConstant
	}

	scores := make(map[ID]float64, len(surviving))
	for _, stage := range perStage {
		for rank, r := range stage {
			if _, ok := surviving[r.ID]; !ok {
				continue
			}
			scores[r.ID] += 1.0 / float64(k+rank+1)
		}
	}

	out := make([]ScoredResult[T], 0, len(scores))
	for id, score := range scores {
		item, ok := itemOf(id)
		if !ok {
			continue
		}
		out = append(out, ScoredResult[T]{ID: id, Item: item, Score: score})
	}

	sort.Slice(out, func(i, j int) bool {
		return rrfLess(out[i], out[j])
	})
	return out
}

// rrfLess implements the deterministic tie-break: higher score first,
// then ascending lexicographic id on ties.
func rrfLess[T any](a, b ScoredResult[T]) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ID < b.ID
}
