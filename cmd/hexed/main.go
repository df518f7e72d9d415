// Command hexed is a small driver over the editing core: hex dumps,
// byte patches, journal snapshots and external-change watching.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hexed/cmd/hexed/cli"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "hexed",
		Short:         "Byte-level file editing without loading files into memory",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().Bool("verbose", false, "log component activity to stderr")
	root.PersistentFlags().Uint64("start", 0, "absolute offset of session position 0")
	root.PersistentFlags().Int64("end", -1, "absolute window end (-1 for none)")
	root.PersistentFlags().Uint64("chunk-size", 1024, "cache page size in bytes")
	root.PersistentFlags().Uint64("max-memory", 10*1024, "chunk cache budget in bytes")

	root.AddCommand(
		cli.NewDumpCommand(),
		cli.NewPatchCommand(),
		cli.NewStatsCommand(),
		cli.NewSnapshotCommand(),
		cli.NewWatchCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
