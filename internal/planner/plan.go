package planner

import (
	"github.com/aman-cerp/fdblayer/internal/entity"
	"github.com/aman-cerp/fdblayer/internal/fieldvalue"
)

// PlanNode is one candidate execution strategy. Cost is comparable
// across node kinds under a single CostModel; priority breaks ties
// between equal-cost nodes, lower wins.
type PlanNode interface {
	Cost() float64
	priority() int
	Describe() string
}

// node priority for tie-breaking: IndexOnlyScan > IndexSeek > IndexScan > TableScan.
const (
	priorityIndexOnlyScan = 0
	priorityIndexSeek     = 1
	priorityIndexScan     = 2
	priorityUnionOrIntersection = 2
	priorityTableScan     = 3
)

// TableScan is the fallback plan: a full scan of the entity's primary
// keyspace with the query's predicates applied in-process.
type TableScan struct {
	Filter        []FieldPredicate
	EstimatedRows int64
	cost          float64
}

func (p TableScan) Cost() float64 { return p.cost }
func (TableScan) priority() int   { return priorityTableScan }
func (TableScan) Describe() string { return "TableScan" }

// IndexScan reads an index, applying satisfied conditions at the index
// level and any residual filter on the fetched records.
type IndexScan struct {
	IndexName           entity.IndexDescriptorName
	SatisfiedConditions []FieldPredicate
	ResidualFilter      []FieldPredicate
	SortRequired        bool
	cost                float64
}

func (p IndexScan) Cost() float64 { return p.cost }
func (IndexScan) priority() int   { return priorityIndexScan }
func (p IndexScan) Describe() string { return "IndexScan(" + string(p.IndexName) + ")" }

// IndexSeek applies when every leading index field has an equality
// binding: a single index-subspace point lookup.
type IndexSeek struct {
	IndexName   entity.IndexDescriptorName
	EqualityKey []fieldvalue.Value
	cost        float64
}

func (p IndexSeek) Cost() float64 { return p.cost }
func (IndexSeek) priority() int   { return priorityIndexSeek }
func (p IndexSeek) Describe() string { return "IndexSeek(" + string(p.IndexName) + ")" }

// IndexOnlyScan applies when every projected field is already part of
// the index key, avoiding a record fetch entirely.
type IndexOnlyScan struct {
	IndexName entity.IndexDescriptorName
	cost      float64
}

func (p IndexOnlyScan) Cost() float64 { return p.cost }
func (IndexOnlyScan) priority() int   { return priorityIndexOnlyScan }
func (p IndexOnlyScan) Describe() string { return "IndexOnlyScan(" + string(p.IndexName) + ")" }

// Union combines two index plans for an OR over disjoint field sets.
type Union struct {
	Children []PlanNode
	cost     float64
}

func (p Union) Cost() float64 { return p.cost }
func (Union) priority() int   { return priorityUnionOrIntersection }
func (Union) Describe() string { return "Union" }

// Intersection combines two index plans for an AND over disjoint field
// sets.
type Intersection struct {
	Children []PlanNode
	cost     float64
}

func (p Intersection) Cost() float64 { return p.cost }
func (Intersection) priority() int   { return priorityUnionOrIntersection }
func (Intersection) Describe() string { return "Intersection" }
