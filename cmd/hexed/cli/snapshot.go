package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"hexed/internal/snapshot"
)

// NewSnapshotCommand returns the "snapshot" command tree for working
// with banked journal snapshots.
func NewSnapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect banked journal snapshots",
	}
	cmd.AddCommand(newSnapshotInspectCmd())
	return cmd
}

func newSnapshotInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <snapshot>",
		Short: "Show a snapshot's identity and journal shape",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := snapshot.Read(args[0])
			if err != nil {
				return err
			}

			st := snap.State
			var stored uint64
			for _, e := range st.Entries {
				stored += uint64(len(e.Data))
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "snapshot\t%s\n", snap.ID)
			fmt.Fprintf(w, "saved at\t%s\n", snap.SavedAt.Format("2006-01-02 15:04:05 MST"))
			fmt.Fprintf(w, "entries\t%d\n", len(st.Entries))
			fmt.Fprintf(w, "cursor\t%d\n", st.Cursor)
			fmt.Fprintf(w, "undo limit\t%d\n", st.Limit)
			fmt.Fprintf(w, "bytes stored\t%d\n", stored)
			fmt.Fprintf(w, "bytes written alltime\t%d\n", st.BytesWrittenAlltime)
			return w.Flush()
		},
	}
}
