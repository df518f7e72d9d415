package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hexed/internal/types"
)

// NewDumpCommand returns the "dump" command: a hex dump of a file
// window through the edited view.
func NewDumpCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Hex-dump a region of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, _ := cmd.Flags().GetUint64("offset")
			length, _ := cmd.Flags().GetInt("length")
			width, _ := cmd.Flags().GetInt("width")
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

			data, err := e.ReadMultipleCutoff(offset, length)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatDump(offset, data, width))
			return nil
		},
	}

	cmd.Flags().Uint64("offset", 0, "session-relative offset to dump from")
	cmd.Flags().Int("length", 256, "number of bytes to dump")
	cmd.Flags().Int("width", 16, "bytes per row")
	cmd.Flags().String("restore", "", "journal snapshot to apply before dumping")
	return cmd
}

// formatDump renders rows of "offset  hex bytes  |ascii|".
func formatDump(offset types.FilePosition, data types.Buffer, width int) string {
	if width <= 0 {
		width = 16
	}
	var sb strings.Builder
	for row := 0; row < len(data); row += width {
		end := row + width
		if end > len(data) {
			end = len(data)
		}

		fmt.Fprintf(&sb, "%08x  ", offset+uint64(row))
		for i := row; i < row+width; i++ {
			if i < end {
				fmt.Fprintf(&sb, "%02x ", data[i])
			} else {
				sb.WriteString("   ")
			}
		}
		sb.WriteString(" |")
		for i := row; i < end; i++ {
			if data[i] >= 0x20 && data[i] < 0x7f {
				sb.WriteByte(data[i])
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString("|\n")
	}
	return sb.String()
}
