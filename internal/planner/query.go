// Package planner chooses a query execution plan over an entity's
// index descriptors. It is a pure function of its inputs: given a
// query shape, the candidate indexes, and cardinality hints, it
// enumerates plan nodes, costs them, and returns the cheapest — no I/O,
// no transaction, no side effects.
package planner

import (
	"github.com/aman-cerp/fdblayer/internal/entity"
	"github.com/aman-cerp/fdblayer/internal/fieldvalue"
)

// PredicateKind classifies how a query binds one field.
type PredicateKind string

const (
	PredicateEquality PredicateKind = "equality"
	PredicateIn       PredicateKind = "in"
	PredicateRange    PredicateKind = "range"
	PredicateCustom   PredicateKind = "custom"
)

// FieldPredicate is one field-level condition in a query. EqualityValue
// is only meaningful when Kind is PredicateEquality; it lets the
// planner build an IndexSeek's equality key without re-deriving it
// from the caller.
type FieldPredicate struct {
	Field         string
	Kind          PredicateKind
	EqualityValue fieldvalue.Value
}

// Query describes the shape the planner must satisfy: which fields are
// predicated and how, which fields the caller wants projected back
// (for IndexOnlyScan eligibility), and an optional sort requirement.
type Query struct {
	EntityType     entity.TypeName
	Predicates     []FieldPredicate
	Projection     []string
	SortField      string
	SortDescending bool
}

// CardinalityHints gives the planner rough size estimates it has no
// other way to know, since it performs no I/O of its own.
type CardinalityHints struct {
	// EstimatedRows is the approximate total row count for the entity
	// type, used by TableScan's cost and as an IndexScan fallback base
	// when no better estimate applies.
	EstimatedRows int64
}

// predicateFor returns the query's predicate on field, if any.
func (q Query) predicateFor(field string) (FieldPredicate, bool) {
	for _, p := range q.Predicates {
		if p.Field == field {
			return p, true
		}
	}
	return FieldPredicate{}, false
}

// projectionSatisfiedBy reports whether every projected field appears
// in fields (making an IndexOnlyScan possible).
func (q Query) projectionSatisfiedBy(fields []string) bool {
	if len(q.Projection) == 0 {
		return false
	}
	have := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		have[f] = struct{}{}
	}
	for _, p := range q.Projection {
		if _, ok := have[p]; !ok {
			return false
		}
	}
	return true
}
