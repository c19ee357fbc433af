// Command fdbctl is the administrative CLI for the record layer: index
// statistics, explain traces, index rebuilds, and record-change watches.
// It is a thin wrapper over internal/admin and internal/index — it never
// mutates record or index data itself, aside from rebuild-index.
package main

import (
	"fmt"
	"os"

	"github.com/aman-cerp/fdblayer/cmd/fdbctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fdbctl:", err)
		os.Exit(cmd.ExitCodeFor(err))
	}
}
