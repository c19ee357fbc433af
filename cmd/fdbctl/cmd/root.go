// Package cmd provides the fdbctl CLI commands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aman-cerp/fdblayer/internal/config"
	"github.com/aman-cerp/fdblayer/internal/fdberr"
	"github.com/aman-cerp/fdblayer/internal/logging"
)

// Exit codes, per the admin CLI surface's documented contract.
const (
	ExitOK               = 0
	ExitUsage            = 2
	ExitStoreUnavailable = 3
	ExitLogicalError     = 4
)

var (
	cfgPath     string
	historyPath string
	cfg         config.Config
	logger      *slog.Logger
)

// NewRootCmd creates the root command for the fdbctl CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fdbctl",
		Short: "Administer a record layer store: statistics, explain, index rebuilds, watches",
		Long: `fdbctl is the administrative CLI for a record layer store. It never
writes records directly; rebuild-index is the only command that mutates
index state, and it does so through the same maintainers live writes use.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			cfg = loaded

			lvl := logging.LevelFromString(cfg.Logging.Level)
			handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
			logger = slog.New(handler)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "fdblayer.yaml", "path to the record layer config file")
	root.PersistentFlags().StringVar(&historyPath, "history", "", "path to the explain/build history database (default: in-memory)")

	root.AddCommand(newStatsCmd())
	root.AddCommand(newIndexesCmd())
	root.AddCommand(newExplainCmd())
	root.AddCommand(newRebuildIndexCmd())
	root.AddCommand(newWatchCmd())

	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// ExitCodeFor maps an error returned from Execute to the CLI's documented
// exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	switch fdberr.Code(err) {
	case fdberr.CodeStoreUnavailable, fdberr.CodeTransactionConflict:
		return ExitStoreUnavailable
	case "":
		return ExitUsage
	default:
		return ExitLogicalError
	}
}

// usageErrorf returns a plain (non-fdberr) error so ExitCodeFor maps it to
// ExitUsage rather than treating it as a store/logical failure.
func usageErrorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
