package planner

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aman-cerp/fdblayer/internal/entity"
	"github.com/aman-cerp/fdblayer/internal/fieldvalue"
)

// DefaultPlanCacheSize bounds the planner's memoization cache.
const DefaultPlanCacheSize = 1000

// Planner chooses the cheapest plan for a query over a fixed cost
// model, memoizing by (query, index set, hints) signature. Plan itself
// performs no I/O; the cache only avoids recomputing the same
// enumeration repeatedly for a hot query shape.
type Planner struct {
	cost  CostModel
	cache *lru.Cache[string, PlanNode]
}

// New builds a Planner with the given cost model and an LRU plan cache
// of DefaultPlanCacheSize entries.
func New(cost CostModel) *Planner {
	cache, _ := lru.New[string, PlanNode](DefaultPlanCacheSize)
	return &Planner{cost: cost, cache: cache}
}

// Plan enumerates a TableScan plus one candidate plan per scalar index
// in indexes, costs each under the planner's cost model, and returns
// the cheapest. Ties are broken by node-kind priority:
// IndexOnlyScan > IndexSeek > IndexScan > TableScan.
func (p *Planner) Plan(query Query, indexes []entity.IndexDescriptor, hints CardinalityHints) PlanNode {
	key := signature(query, indexes, hints)
	if cached, ok := p.cache.Get(key); ok {
		return cached
	}

	best := p.tableScan(query, hints)
	for _, idx := range indexes {
		if idx.Kind != entity.IndexKindScalar {
			continue // only scalar indexes participate in this planner subset
		}
		if candidate := p.planIndex(query, idx, hints); candidate != nil {
			best = p.betterOf(best, candidate)
		}
	}

	p.cache.Add(key, best)
	return best
}

func (p *Planner) betterOf(a, b PlanNode) PlanNode {
	if b.Cost() < a.Cost() {
		return b
	}
	if b.Cost() == a.Cost() && b.priority() < a.priority() {
		return b
	}
	return a
}

func (p *Planner) tableScan(query Query, hints CardinalityHints) PlanNode {
	rows := hints.EstimatedRows
	return TableScan{
		Filter:        query.Predicates,
		EstimatedRows: rows,
		cost:          float64(rows) * p.cost.RowCost,
	}
}

// planIndex matches query's predicates against idx's leading fields
// (the left-prefix rule) and returns the cheapest node this index can
// offer, or nil if the index matches nothing useful.
func (p *Planner) planIndex(query Query, idx entity.IndexDescriptor, hints CardinalityHints) PlanNode {
	equalities := 0
	var equalityKey []fieldvalue.Value
	for _, field := range idx.Fields {
		pred, ok := query.predicateFor(field)
		if !ok || pred.Kind != PredicateEquality {
			break
		}
		equalities++
		equalityKey = append(equalityKey, pred.EqualityValue)
	}

	if equalities == len(idx.Fields) && equalities > 0 {
		return p.indexSeekOrOnly(query, idx, equalityKey)
	}

	var terminal FieldPredicate
	hasTerminal := false
	if equalities < len(idx.Fields) {
		terminal, hasTerminal = query.predicateFor(idx.Fields[equalities])
		if hasTerminal && terminal.Kind != PredicateIn && terminal.Kind != PredicateRange {
			hasTerminal = false
		}
	}

	if equalities == 0 && !hasTerminal {
		return nil // this index matches none of the query's leading fields
	}

	satisfied := make([]FieldPredicate, 0, equalities+1)
	for i := 0; i < equalities; i++ {
		pred, _ := query.predicateFor(idx.Fields[i])
		satisfied = append(satisfied, pred)
	}
	selectivity := p.cost.EqualitySelectivity
	if equalities > 0 {
		for i := 1; i < equalities; i++ {
			selectivity *= p.cost.EqualitySelectivity
		}
	} else {
		selectivity = 1.0
	}
	if hasTerminal {
		satisfied = append(satisfied, terminal)
		selectivity *= p.cost.selectivityFor(terminal.Kind)
	}

	residual := residualPredicates(query, satisfied)
	rows := float64(hints.EstimatedRows) * selectivity
	cost := rows*p.cost.IndexRowCost + float64(len(residual))*rows*p.cost.ResidualRowCost

	sortRequired := query.SortField != "" && !isIndexOrdered(idx, query.SortField)

	return IndexScan{
		IndexName:           idx.Name,
		SatisfiedConditions: satisfied,
		ResidualFilter:      residual,
		SortRequired:        sortRequired,
		cost:                cost,
	}
}

// indexSeekOrOnly builds an IndexSeek, upgraded to IndexOnlyScan when
// every projected field is already part of the index key.
func (p *Planner) indexSeekOrOnly(query Query, idx entity.IndexDescriptor, equalityKey []fieldvalue.Value) PlanNode {
	if query.projectionSatisfiedBy(idx.Fields) {
		return IndexOnlyScan{IndexName: idx.Name, cost: p.cost.LookupCost}
	}
	return IndexSeek{IndexName: idx.Name, EqualityKey: equalityKey, cost: p.cost.LookupCost}
}

// residualPredicates returns query predicates not already covered by
// satisfied.
func residualPredicates(query Query, satisfied []FieldPredicate) []FieldPredicate {
	covered := make(map[string]struct{}, len(satisfied))
	for _, s := range satisfied {
		covered[s.Field] = struct{}{}
	}
	var residual []FieldPredicate
	for _, p := range query.Predicates {
		if _, ok := covered[p.Field]; !ok {
			residual = append(residual, p)
		}
	}
	return residual
}

// isIndexOrdered reports whether idx's key order already satisfies
// sortField without a separate sort step: true only when sortField is
// idx's leading field.
func isIndexOrdered(idx entity.IndexDescriptor, sortField string) bool {
	return len(idx.Fields) > 0 && idx.Fields[0] == sortField
}

// signature builds a cache key capturing everything Plan's output
// depends on.
func signature(query Query, indexes []entity.IndexDescriptor, hints CardinalityHints) string {
	var b strings.Builder
	fmt.Fprintf(&b, "entity=%s;rows=%d;sort=%s;desc=%t;proj=%v;preds=", query.EntityType, hints.EstimatedRows, query.SortField, query.SortDescending, query.Projection)
	for _, pred := range query.Predicates {
		fmt.Fprintf(&b, "%s:%s,", pred.Field, pred.Kind)
	}
	b.WriteString(";idx=")
	for _, idx := range indexes {
		fmt.Fprintf(&b, "%s:%s:%v,", idx.Name, idx.Kind, idx.Fields)
	}
	return b.String()
}
