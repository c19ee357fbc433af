// Package scalarindex implements the scalar index: equality, IN, and
// range queries over a composite key, subject to the left-prefix rule,
// plus the transactional maintenance that keeps index entries in sync
// with record mutations.
package scalarindex

import "github.com/aman-cerp/fdblayer/internal/fieldvalue"

// Predicate describes one scalar-index query. Equalities bind a prefix
// of the index's ordered fields; at most one of In or Range may follow,
// binding the next field. Fields after that are left unevaluated by the
// index and must be applied as a residual filter by the caller.
type Predicate struct {
	Equalities []fieldvalue.Value

	// In, if non-nil, is a set of candidate values for the field
	// immediately following Equalities.
	In []fieldvalue.Value

	// Range, if non-nil, bounds the field immediately following
	// Equalities. Min/Max may be the zero Value (meaning unbounded) when
	// their corresponding Inclusive flag is unused.
	Range *RangeBound
}

// RangeBound bounds a single field.
type RangeBound struct {
	Min          fieldvalue.Value
	HasMin       bool
	MinInclusive bool
	Max          fieldvalue.Value
	HasMax       bool
	MaxInclusive bool
}

// LeftPrefixDepth reports how many leading index fields this predicate
// can bind: len(Equalities), plus one more if In or Range is also set.
// A predicate whose leading fields don't match the index's ordered field
// list at all must fall back to a table scan.
func (p Predicate) LeftPrefixDepth() int {
	d := len(p.Equalities)
	if p.In != nil || p.Range != nil {
		d++
	}
	return d
}

// Matches reports whether this predicate can be answered by an index
// with these fields under the left-prefix rule: Equalities must bind an
// exact prefix, and In/Range (if present) must bind the very next field.
func (p Predicate) Matches(fields []string) bool {
	return p.LeftPrefixDepth() <= len(fields)
}
