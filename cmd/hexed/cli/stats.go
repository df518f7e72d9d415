package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewStatsCommand returns the "stats" command: journal and session
// statistics, optionally for a restored snapshot.
func NewStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <file>",
		Short: "Show session and journal statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			restore, _ := cmd.Flags().GetString("restore")

			cfg, err := sessionConfig(cmd, args[0], false)
			if err != nil {
				return err
			}
			e, err := openSession(cfg, restore)
			if err != nil {
				return err
			}
			defer e.CloseFile()

			size, err := e.FileSize()
			if err != nil {
				return err
			}
			end, err := e.FileEnd()
			if err != nil {
				return err
			}

			j := e.Journal()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "file\t%s\n", e.Filename())
			fmt.Fprintf(w, "file size\t%d\n", size)
			fmt.Fprintf(w, "session start\t%d\n", e.StartPosition())
			fmt.Fprintf(w, "session end\t%d\n", end)
			fmt.Fprintf(w, "entries\t%d\n", j.EntryCount())
			fmt.Fprintf(w, "entries past\t%d\n", j.PastEntryCount())
			fmt.Fprintf(w, "entries future\t%d\n", j.FutureEntryCount())
			fmt.Fprintf(w, "bytes stored\t%d\n", j.BytesStored())
			fmt.Fprintf(w, "bytes written\t%d\n", j.BytesWritten())
			fmt.Fprintf(w, "bytes written alltime\t%d\n", j.BytesWrittenAlltime())
			fmt.Fprintf(w, "positions filled in\t%d\n", j.BytesFilledIn())
			fmt.Fprintf(w, "unsaved edits\t%v\n", e.HasUnsavedEdits())
			return w.Flush()
		},
	}

	cmd.Flags().String("restore", "", "journal snapshot to load first")
	return cmd
}
