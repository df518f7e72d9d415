package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hexed/internal/watch"
)

// NewWatchCommand returns the "watch" command: report external
// modifications to a file and drop the session's stale chunks as they
// happen.
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file>",
		Short: "Watch a file for external modification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sessionConfig(cmd, args[0], false)
			if err != nil {
				return err
			}
			e, err := openSession(cfg, "")
			if err != nil {
				return err
			}
			defer e.CloseFile()

			w, err := watch.New(args[0], loggerFromCmd(cmd))
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "watching %s\n", args[0])
			for {
				select {
				case <-ctx.Done():
					return nil
				case op, ok := <-w.Events():
					if !ok {
						return nil
					}
					e.InvalidateChunks()
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, cache invalidated\n", args[0], op)
				}
			}
		},
	}
}
