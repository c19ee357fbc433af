package planner

// CostModel holds the configurable constants the planner's cost
// estimates are built from. All costs are in abstract "row-touch"
// units; only relative ordering between plans matters.
type CostModel struct {
	// RowCost is the per-row cost of a full table scan.
	RowCost float64
	// IndexRowCost is the per-row cost of reading an index entry.
	IndexRowCost float64
	// LookupCost is the fixed cost of a single index point lookup.
	LookupCost float64
	// ResidualRowCost is the per-row cost of evaluating a residual
	// filter against a fetched record.
	ResidualRowCost float64

	// EqualitySelectivity, RangeSelectivity, and UnknownSelectivity are
	// the fractions of an index's rows an equality/range/uncharacterized
	// predicate is assumed to retain.
	EqualitySelectivity float64
	RangeSelectivity    float64
	UnknownSelectivity  float64
}

// DefaultCostModel returns the standard constants: selectivity 0.01 for
// equality, 0.33 for range, 1.0 when nothing is known.
func DefaultCostModel() CostModel {
	return CostModel{
		RowCost:             1.0,
		IndexRowCost:        0.2,
		LookupCost:          1.0,
		ResidualRowCost:     1.0,
		EqualitySelectivity: 0.01,
		RangeSelectivity:    0.33,
		UnknownSelectivity:  1.0,
	}
}

// selectivityFor returns the fraction of rows a predicate kind is
// expected to retain.
func (c CostModel) selectivityFor(kind PredicateKind) float64 {
	switch kind {
	case PredicateEquality:
		return c.EqualitySelectivity
	case PredicateRange:
		return c.RangeSelectivity
	default:
		return c.UnknownSelectivity
	}
}
