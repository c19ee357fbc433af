package fusion

import (
	"context"

	"github.com/aman-cerp/fdblayer/internal/fdberr"
)

// Pipeline is an ordered list of stages. Every stage shares the same
// item type T.
type Pipeline[T any] []Stage[T]

// Run executes pipeline sequentially. Stage i receives the ids stage
// i-1 returned (nil for stage 0, meaning no restriction). If any stage
// returns an empty result set, Run returns immediately without invoking
// later stages or aggregating. Run rejects pipelines whose first stage
// requires candidates against the unbounded universe.
//
// The final score is reciprocal rank fusion (rrfConstant <= 0 selects
// the default k=60) over every stage in which a surviving id appeared,
// using that stage's own rank position; ids later stages filtered out
// contribute nothing.
func Run[T any](ctx context.Context, pipeline Pipeline[T], rrfConstant int) ([]ScoredResult[T], error) {
	if len(pipeline) == 0 {
		return nil, nil
	}
	if pipeline[0].RequiresCandidates() {
		return nil, fdberr.New(fdberr.CodeSchemaMismatch,
			"fusion: stage 0 requires candidates but no prior stage supplies them", nil)
	}

	var candidates Candidates // nil for stage 0
	perStage := make([][]ScoredResult[T], 0, len(pipeline))

	for i, stage := range pipeline {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := stage.Execute(ctx, candidates)
		if err != nil {
			return nil, err
		}
		perStage = append(perStage, out)

		if len(out) == 0 {
			return out, nil
		}
		if i < len(pipeline)-1 {
			candidates = IDsOf(out)
		}
	}

	final := perStage[len(perStage)-1]
	surviving := IDsOf(final)
	itemByID := make(map[ID]T, len(final))
	for _, r := range final {
		itemByID[r.ID] = r.Item
	}

	return rrfAggregate(perStage, surviving, rrfConstant, func(id ID) (T, bool) {
		item, ok := itemByID[id]
		return item, ok
	}), nil
}
