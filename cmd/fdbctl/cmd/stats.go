package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aman-cerp/fdblayer/internal/entity"
)

func newStatsCmd() *cobra.Command {
	var refresh bool

	statsCmd := &cobra.Command{
		Use:   "stats <type>",
		Short: "Show per-index statistics for an entity type",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runStats(c, args[0], refresh)
		},
	}
	statsCmd.Flags().BoolVar(&refresh, "refresh", false, "walk each index's subspace and recompute statistics before printing")
	return statsCmd
}

func runStats(c *cobra.Command, typeName string, refresh bool) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := c.Context()
	ed, err := a.entity(typeName)
	if err != nil {
		return err
	}

	if refresh {
		for _, idx := range ed.Indexes {
			if _, err := a.stats.RefreshStatistics(ctx, idx); err != nil {
				return err
			}
		}
	}

	all, err := a.stats.AllIndexStatistics(ctx, entity.TypeName(typeName))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tROWS\tSIZE\tREFRESHED_AT_VERSION")
	for _, s := range all {
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\n", s.IndexName, s.EstimatedRows, s.HumanSize(), s.RefreshedAtVersion)
	}
	return w.Flush()
}
