package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aman-cerp/fdblayer/internal/admin"
	"github.com/aman-cerp/fdblayer/internal/entity"
)

func newRebuildIndexCmd() *cobra.Command {
	var typeName string

	rebuildCmd := &cobra.Command{
		Use:   "rebuild-index <name>",
		Short: "Re-derive an index's entries from its entity type's current records",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runRebuildIndex(c, typeName, args[0])
		},
	}
	rebuildCmd.Flags().StringVar(&typeName, "type", "", "entity type the index belongs to (required)")
	return rebuildCmd
}

func runRebuildIndex(c *cobra.Command, typeName, indexName string) error {
	if typeName == "" {
		return usageErrorf("rebuild-index: --type is required")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	coord := a.coordinator()
	err = admin.RebuildIndex(c.Context(), coord, a.history, entity.TypeName(typeName), entity.IndexDescriptorName(indexName))
	if err != nil {
		return err
	}

	fmt.Fprintf(c.OutOrStdout(), "rebuilt %s.%s\n", typeName, indexName)
	return nil
}
