// Package vectorindex implements k-NN search over entity vector fields.
// Two backends satisfy the same VectorIndex interface: PQIndex, the
// mandated exact path (asymmetric distance computation over product-
// quantized codes persisted in the record store), and HNSWIndex, an
// optional in-memory approximate backend. No index descriptor field
// selects HNSWIndex; callers construct it directly.
package vectorindex

import (
	"context"

	"github.com/aman-cerp/fdblayer/internal/fusion"
)

// Result pairs a candidate id with its distance to the query vector
// (lower is closer) under the index's chosen metric.
type Result struct {
	ID       fusion.ID
	Distance float64
}

// VectorIndex is a k-NN search backend over vectors keyed by fusion.ID.
// Implementations are safe for concurrent Search calls but serialize
// their own Add/Delete/Train mutations internally.
type VectorIndex interface {
	// Train fits any backend-specific model (PQ codebooks, graph
	// parameters) from a representative sample of vectors. Train must
	// run before the first Add call that relies on it; backends that
	// need no training treat Train as a no-op.
	Train(ctx context.Context, sample [][]float32) error

	// Add inserts or replaces the vector for each id.
	Add(ctx context.Context, ids []fusion.ID, vectors [][]float32) error

	// Delete removes ids from the index. Deleting an absent id is not
	// an error.
	Delete(ctx context.Context, ids []fusion.ID) error

	// Search returns up to k nearest neighbors of query, ascending by
	// distance.
	Search(ctx context.Context, query []float32, k int) ([]Result, error)
}

// stageAdapter wraps a VectorIndex as a fusion stage that never requires
// candidates (it is always valid as stage 0) and converts distances to
// the [0,1] similarity scores the fusion engine expects.
type stageAdapter struct {
	Index VectorIndex
	Query []float32
	K     int
}

// NewStage builds a fusion.Stage[fusion.ID] that runs a k-NN search
// against idx and reports 1/(1+distance) as each result's score, so
// closer neighbors rank higher.
func NewStage(idx VectorIndex, query []float32, k int) fusion.Stage[fusion.ID] {
	return stageAdapter{Index: idx, Query: query, K: k}
}

func (s stageAdapter) RequiresCandidates() bool { return false }

func (s stageAdapter) Execute(ctx context.Context, candidates fusion.Candidates) ([]fusion.ScoredResult[fusion.ID], error) {
	results, err := s.Index.Search(ctx, s.Query, s.K)
	if err != nil {
		return nil, err
	}

	out := make([]fusion.ScoredResult[fusion.ID], 0, len(results))
	for _, r := range results {
		if candidates != nil {
			if _, ok := candidates[r.ID]; !ok {
				continue
			}
		}
		out = append(out, fusion.ScoredResult[fusion.ID]{
			ID:    r.ID,
			Item:  r.ID,
			Score: 1.0 / (1.0 + r.Distance),
		})
	}
	return out, nil
}
