// Package fusion implements the stage-composition query engine: an
// ordered pipeline of Stage[T] implementations, each narrowing or
// scoring the candidate set the previous stage produced, aggregated by
// reciprocal rank fusion.
package fusion

import "context"

// ID is the canonical candidate identity used across stages: the
// tuple-packed primary key, as a comparable map key.
type ID string

// Candidates is the set of ids a stage may restrict its work to. A nil
// Candidates passed to stage 0 means "no prior restriction" (the full
// universe); every later stage always receives a non-nil set, even if
// empty.
type Candidates map[ID]struct{}

// ScoredResult pairs a stage's output item with its per-stage score.
type ScoredResult[T any] struct {
	ID    ID
	Item  T
	Score float64
}

// Stage is one step of a fusion pipeline. RequiresCandidates reports
// whether the stage can run unbounded against the full universe (false)
// or must be given a non-empty candidate set from a prior stage (true).
// Rank stages and custom-predicate filter stages set this true.
type Stage[T any] interface {
	RequiresCandidates() bool
	Execute(ctx context.Context, candidates Candidates) ([]ScoredResult[T], error)
}

// IDsOf collects the ids of a result slice into a Candidates set.
func IDsOf[T any](results []ScoredResult[T]) Candidates {
	out := make(Candidates, len(results))
	for _, r := range results {
		out[r.ID] = struct{}{}
	}
	return out
}
