package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hexed/internal/editor"
	"hexed/internal/snapshot"
)

// openSession opens an editing session and applies the snapshot at
// restorePath to its journal when given.
func openSession(cfg editor.Config, restorePath string) (*editor.Editor, error) {
	e, err := editor.Open(cfg)
	if err != nil {
		return nil, err
	}
	if restorePath != "" {
		snap, err := snapshot.Read(restorePath)
		if err != nil {
			e.CloseFile()
			return nil, fmt.Errorf("restore journal: %w", err)
		}
		e.Journal().Restore(snap.State)
	}
	return e, nil
}

// NewPatchCommand returns the "patch" command: record byte edits and
// either flush them into a file or bank them in a journal snapshot.
func NewPatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch <file> <pos=hexbytes>...",
		Short: "Apply byte edits to a file",
		Long: `Record positioned byte writes and flush them destructively.

With --in-place the file itself is rewritten. With --output the file is
copied first and the edits land in the copy. With --journal the file is
left alone and the edit history is banked in a snapshot for a later
session; combine with --restore to keep extending one session.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inPlace, _ := cmd.Flags().GetBool("in-place")
			output, _ := cmd.Flags().GetString("output")
			journalPath, _ := cmd.Flags().GetString("journal")
			restore, _ := cmd.Flags().GetString("restore")

			modes := 0
			for _, on := range []bool{inPlace, output != "", journalPath != ""} {
				if on {
					modes++
				}
			}
			if modes != 1 {
				return errors.New("pick exactly one of --in-place, --output or --journal")
			}

			cfg, err := sessionConfig(cmd, args[0], inPlace)
			if err != nil {
				return err
			}
			e, err := openSession(cfg, restore)
			if err != nil {
				return err
			}
			defer e.CloseFile()

			for _, spec := range args[1:] {
				pos, data, err := parseEditSpec(spec)
				if err != nil {
					return err
				}
				e.EditMultiple(pos, data)
			}

			switch {
			case inPlace:
				if err := e.SaveHistoryDestructive(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "patched %s\n", args[0])
			case output != "":
				if err := e.SaveAsHistoryDestructive(output); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "patched copy %s\n", output)
			default:
				id, err := snapshot.Write(journalPath, e.Journal().State(), time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "banked %d entries in %s (snapshot %s)\n",
					e.Journal().EntryCount(), journalPath, id)
			}
			return nil
		},
	}

	cmd.Flags().Bool("in-place", false, "rewrite the file itself")
	cmd.Flags().String("output", "", "copy the file and patch the copy")
	cmd.Flags().String("journal", "", "bank edits in a journal snapshot instead of saving")
	cmd.Flags().String("restore", "", "journal snapshot to load before editing")
	return cmd
}
