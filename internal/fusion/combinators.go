package fusion

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// UnionStage runs every sub-stage concurrently against the same
// candidates and returns the union of their ids, scored by the maximum
// score any sub-stage assigned. It implements the planner's Union plan
// node for OR over disjoint field sets.
type UnionStage[T any] struct {
	Stages []Stage[T]
}

func (u UnionStage[T]) RequiresCandidates() bool {
	for _, s := range u.Stages {
		if s.RequiresCandidates() {
			return true
		}
	}
	return false
}

func (u UnionStage[T]) Execute(ctx context.Context, candidates Candidates) ([]ScoredResult[T], error) {
	perStage, err := fanOut(ctx, u.Stages, candidates)
	if err != nil {
		return nil, err
	}

	best := make(map[ID]ScoredResult[T])
	for _, results := range perStage {
		for _, r := range results {
			if existing, ok := best[r.ID]; !ok || r.Score > existing.Score {
				best[r.ID] = r
			}
		}
	}
	out := make([]ScoredResult[T], 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	sortByScoreThenID(out)
	return out, nil
}

// IntersectionStage runs every sub-stage concurrently and returns only
// ids every sub-stage produced, scored by the sum of their per-stage
// scores. It implements the planner's Intersection plan node for AND
// over disjoint field sets.
type IntersectionStage[T any] struct {
	Stages []Stage[T]
}

func (x IntersectionStage[T]) RequiresCandidates() bool {
	for _, s := range x.Stages {
		if s.RequiresCandidates() {
			return true
		}
	}
	return false
}

func (x IntersectionStage[T]) Execute(ctx context.Context, candidates Candidates) ([]ScoredResult[T], error) {
	perStage, err := fanOut(ctx, x.Stages, candidates)
	if err != nil {
		return nil, err
	}
	if len(perStage) == 0 {
		return nil, nil
	}

	counts := make(map[ID]int)
	sums := make(map[ID]float64)
	items := make(map[ID]T)
	for _, results := range perStage {
		for _, r := range results {
			counts[r.ID]++
			sums[r.ID] += r.Score
			items[r.ID] = r.Item
		}
	}

	out := make([]ScoredResult[T], 0, len(counts))
	for id, count := range counts {
		if count != len(perStage) {
			continue
		}
		out = append(out, ScoredResult[T]{ID: id, Item: items[id], Score: sums[id]})
	}
	sortByScoreThenID(out)
	return out, nil
}

// fanOut executes every stage concurrently against the same candidates,
// bounding the failure of one sub-stage to abort the whole group.
func fanOut[T any](ctx context.Context, stages []Stage[T], candidates Candidates) ([][]ScoredResult[T], error) {
	perStage := make([][]ScoredResult[T], len(stages))
	g, gctx := errgroup.WithContext(ctx)
	for i, stage := range stages {
		i, stage := i, stage
		g.Go(func() error {
			out, err := stage.Execute(gctx, candidates)
			if err != nil {
				return err
			}
			perStage[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return perStage, nil
}

func sortByScoreThenID[T any](results []ScoredResult[T]) {
	sort.Slice(results, func(i, j int) bool {
		return rrfLess(results[i], results[j])
	})
}
