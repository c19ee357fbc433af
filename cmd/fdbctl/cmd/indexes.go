package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "List every declared index across all entity types and its build state",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runIndexes(c)
		},
	}
}

func runIndexes(c *cobra.Command) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	coord := a.coordinator()
	w := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tINDEX\tKIND\tFIELDS\tSTATUS\tBUILT_THROUGH_VERSION")
	for typeName, ed := range a.schema.Entities {
		for _, idx := range ed.Indexes {
			state, err := coord.State(c.Context(), idx.Name)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\t%d\n", typeName, idx.Name, idx.Kind, idx.Fields, state.Status, state.BuiltThroughVersion)
		}
	}
	return w.Flush()
}
