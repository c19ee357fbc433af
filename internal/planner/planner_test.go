package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-cerp/fdblayer/internal/entity"
	"github.com/aman-cerp/fdblayer/internal/fieldvalue"
)

var byCategory = entity.IndexDescriptor{
	Name: "by_category", Kind: entity.IndexKindScalar, Fields: []string{"category"},
}

var byCategoryAndPrice = entity.IndexDescriptor{
	Name: "by_category_and_price", Kind: entity.IndexKindScalar, Fields: []string{"category", "price"},
}

func TestPlan_NoMatchingIndex_FallsBackToTableScan(t *testing.T) {
	p := New(DefaultCostModel())
	query := Query{EntityType: "widget", Predicates: []FieldPredicate{{Field: "color", Kind: PredicateEquality}}}

	plan := p.Plan(query, []entity.IndexDescriptor{byCategory}, CardinalityHints{EstimatedRows: 1000})
	_, ok := plan.(TableScan)
	assert.True(t, ok, "expected TableScan, got %T", plan)
}

func TestPlan_SingleEqualityOnFullKey_ProducesIndexSeek(t *testing.T) {
	p := New(DefaultCostModel())
	query := Query{
		EntityType: "widget",
		Predicates: []FieldPredicate{{Field: "category", Kind: PredicateEquality, EqualityValue: fieldvalue.String("tools")}},
	}

	plan := p.Plan(query, []entity.IndexDescriptor{byCategory}, CardinalityHints{EstimatedRows: 1000})
	seek, ok := plan.(IndexSeek)
	require.True(t, ok, "expected IndexSeek, got %T", plan)
	assert.Equal(t, byCategory.Name, seek.IndexName)
	require.Len(t, seek.EqualityKey, 1)
	assert.Equal(t, fieldvalue.String("tools"), seek.EqualityKey[0])
}

func TestPlan_ProjectionCoveredByIndex_UpgradesToIndexOnlyScan(t *testing.T) {
	p := New(DefaultCostModel())
	query := Query{
		EntityType: "widget",
		Predicates: []FieldPredicate{{Field: "category", Kind: PredicateEquality, EqualityValue: fieldvalue.String("tools")}},
		Projection: []string{"category"},
	}

	plan := p.Plan(query, []entity.IndexDescriptor{byCategory}, CardinalityHints{EstimatedRows: 1000})
	_, ok := plan.(IndexOnlyScan)
	assert.True(t, ok, "expected IndexOnlyScan, got %T", plan)
}

func TestPlan_PartialEqualityPrefixPlusRange_ProducesIndexScanWithResidual(t *testing.T) {
	p := New(DefaultCostModel())
	query := Query{
		EntityType: "widget",
		Predicates: []FieldPredicate{
			{Field: "category", Kind: PredicateEquality, EqualityValue: fieldvalue.String("tools")},
			{Field: "price", Kind: PredicateRange},
			{Field: "weight", Kind: PredicateEquality, EqualityValue: fieldvalue.Int64(5)},
		},
	}

	plan := p.Plan(query, []entity.IndexDescriptor{byCategoryAndPrice}, CardinalityHints{EstimatedRows: 1000})
	scan, ok := plan.(IndexScan)
	require.True(t, ok, "expected IndexScan, got %T", plan)
	require.Len(t, scan.SatisfiedConditions, 2)
	require.Len(t, scan.ResidualFilter, 1)
	assert.Equal(t, "weight", scan.ResidualFilter[0].Field)
}

func TestPlan_CheaperIndexWinsOverTableScan(t *testing.T) {
	p := New(DefaultCostModel())
	query := Query{
		EntityType: "widget",
		Predicates: []FieldPredicate{{Field: "category", Kind: PredicateEquality, EqualityValue: fieldvalue.String("tools")}},
	}

	plan := p.Plan(query, []entity.IndexDescriptor{byCategory}, CardinalityHints{EstimatedRows: 1_000_000})
	assert.Less(t, plan.Cost(), TableScan{EstimatedRows: 1_000_000, cost: 1_000_000 * DefaultCostModel().RowCost}.Cost())
}

func TestPlan_ResultIsMemoizedForIdenticalInputs(t *testing.T) {
	p := New(DefaultCostModel())
	query := Query{
		EntityType: "widget",
		Predicates: []FieldPredicate{{Field: "category", Kind: PredicateEquality, EqualityValue: fieldvalue.String("tools")}},
	}
	hints := CardinalityHints{EstimatedRows: 1000}

	first := p.Plan(query, []entity.IndexDescriptor{byCategory}, hints)
	second := p.Plan(query, []entity.IndexDescriptor{byCategory}, hints)
	assert.Equal(t, first, second)
}

func TestPlan_SortOnIndexLeadingField_DoesNotRequireSort(t *testing.T) {
	p := New(DefaultCostModel())
	query := Query{
		EntityType: "widget",
		Predicates: []FieldPredicate{
			{Field: "category", Kind: PredicateEquality, EqualityValue: fieldvalue.String("tools")},
			{Field: "price", Kind: PredicateRange},
		},
		SortField: "category",
	}

	plan := p.Plan(query, []entity.IndexDescriptor{byCategoryAndPrice}, CardinalityHints{EstimatedRows: 1000})
	scan, ok := plan.(IndexScan)
	require.True(t, ok, "expected IndexScan, got %T", plan)
	assert.False(t, scan.SortRequired)
}
