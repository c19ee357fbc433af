package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aman-cerp/fdblayer/internal/entity"
	"github.com/aman-cerp/fdblayer/internal/tuple"
)

func newWatchCmd() *cobra.Command {
	watchCmd := &cobra.Command{
		Use:   "watch <type> <id>",
		Short: "Block until a single record's key is next touched by a committed write",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			return runWatch(c, args[0], args[1])
		},
	}
	return watchCmd
}

func runWatch(c *cobra.Command, typeName, idArg string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.entity(typeName); err != nil {
		return err
	}

	idTuple := tuple.Pack(tuple.Tuple{idElement(idArg)})
	session := a.watches.Start(entity.TypeName(typeName), idTuple)
	defer a.watches.Release(session.Token)

	fmt.Fprintf(c.OutOrStdout(), "watching %s id=%s (token %s)\n", typeName, idArg, session.Token)
	changed, err := session.Wait(c.Context())
	if err != nil {
		return err
	}
	if changed {
		fmt.Fprintln(c.OutOrStdout(), "record changed")
	}
	return nil
}

// idElement parses a CLI id argument as an int64 when it looks
// numeric, falling back to a plain string otherwise, matching how
// primary keys are most often shaped in this record layer.
func idElement(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	return raw
}
