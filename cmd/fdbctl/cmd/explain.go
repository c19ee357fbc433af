package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aman-cerp/fdblayer/internal/admin"
	"github.com/aman-cerp/fdblayer/internal/fieldvalue"
	"github.com/aman-cerp/fdblayer/internal/planner"
)

func newExplainCmd() *cobra.Command {
	var sortField string
	var sortDescending bool
	var projection []string

	explainCmd := &cobra.Command{
		Use:   "explain <type> [field=value ...]",
		Short: "Show the plan the query planner would choose for an equality query",
		Long: `explain prints the plan node the query planner would pick for a query
over <type> with the given equality predicates, costed under the cost
constants from the config file's planner section and the entity's
current row-count statistics. Every call is also recorded to the explain history.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runExplain(c, args[0], args[1:], sortField, sortDescending, projection)
		},
	}
	explainCmd.Flags().StringVar(&sortField, "sort", "", "field the query requests results sorted by")
	explainCmd.Flags().BoolVar(&sortDescending, "desc", false, "sort descending")
	explainCmd.Flags().StringSliceVar(&projection, "project", nil, "fields the query projects back")
	return explainCmd
}

func runExplain(c *cobra.Command, typeName string, rawPredicates []string, sortField string, sortDescending bool, projection []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ed, err := a.entity(typeName)
	if err != nil {
		return err
	}

	predicates, err := parsePredicates(rawPredicates)
	if err != nil {
		return usageErrorf("explain: %w", err)
	}

	ctx := c.Context()
	var estimatedRows int64
	if stats, err := a.stats.AllIndexStatistics(ctx, ed.Name); err == nil {
		for _, s := range stats {
			if s.EstimatedRows > estimatedRows {
				estimatedRows = s.EstimatedRows
			}
		}
	}

	query := planner.Query{
		EntityType:     ed.Name,
		Predicates:     predicates,
		Projection:     projection,
		SortField:      sortField,
		SortDescending: sortDescending,
	}
	p := planner.New(planner.CostModel{
		RowCost:             cfg.Planner.RowCost,
		IndexRowCost:        cfg.Planner.IndexRowCost,
		LookupCost:          cfg.Planner.LookupCost,
		ResidualRowCost:     1.0,
		EqualitySelectivity: cfg.Planner.SelectivityEq,
		RangeSelectivity:    cfg.Planner.SelectivityRng,
		UnknownSelectivity:  cfg.Planner.SelectivityUnk,
	})
	plan := p.Plan(query, ed.Indexes, planner.CardinalityHints{EstimatedRows: estimatedRows})

	fmt.Fprintf(c.OutOrStdout(), "%s  cost=%.3f\n", plan.Describe(), plan.Cost())

	_ = a.history.RecordExplain(ctx, admin.ExplainRecord{
		EntityType:        ed.Name,
		QuerySignature:    explainSignature(query),
		PlanDescription:   plan.Describe(),
		EstimatedCost:     plan.Cost(),
		RecordedAtVersion: a.kv.CommitVersion(),
	})
	return nil
}

func parsePredicates(raw []string) ([]planner.FieldPredicate, error) {
	predicates := make([]planner.FieldPredicate, 0, len(raw))
	for _, term := range raw {
		field, value, ok := strings.Cut(term, "=")
		if !ok {
			return nil, fmt.Errorf("predicate %q must be field=value", term)
		}
		predicates = append(predicates, planner.FieldPredicate{
			Field:         field,
			Kind:          planner.PredicateEquality,
			EqualityValue: fieldvalue.String(value),
		})
	}
	return predicates, nil
}

func explainSignature(q planner.Query) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(", q.EntityType)
	for i, p := range q.Predicates {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s", p.Field)
	}
	b.WriteByte(')')
	return b.String()
}
