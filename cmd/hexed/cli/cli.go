// Package cli implements the hexed subcommands. Every command except
// snapshot inspect opens an editing session from the shared persistent
// flags, does its work, and closes the session; snapshot inspect only
// reads a snapshot file. There is no long-lived server to talk to.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"hexed/internal/editor"
	"hexed/internal/types"
)

// sessionConfig builds an editor Config from the persistent flags.
func sessionConfig(cmd *cobra.Command, filename string, writable bool) (editor.Config, error) {
	start, err := cmd.Flags().GetUint64("start")
	if err != nil {
		return editor.Config{}, err
	}
	end, err := cmd.Flags().GetInt64("end")
	if err != nil {
		return editor.Config{}, err
	}
	chunkSize, err := cmd.Flags().GetUint64("chunk-size")
	if err != nil {
		return editor.Config{}, err
	}
	maxMemory, err := cmd.Flags().GetUint64("max-memory")
	if err != nil {
		return editor.Config{}, err
	}

	cfg := editor.Config{
		Filename:       filename,
		AllowWriting:   writable,
		StartPosition:  start,
		ChunkSize:      chunkSize,
		MaxChunkMemory: maxMemory,
		Logger:         loggerFromCmd(cmd),
	}
	if end >= 0 {
		e := types.AbsoluteFilePosition(end)
		cfg.EndPosition = &e
	}
	return cfg, nil
}

// loggerFromCmd returns a stderr text logger when --verbose is set,
// otherwise nil (components fall back to a discard logger).
func loggerFromCmd(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// parseEditSpec parses a "pos=hexbytes" argument, e.g. "16=deadbeef" or
// "0x10=00ff". Positions use Go integer literal syntax: decimal,
// 0x-prefixed hex, 0o/0b prefixes, and a leading 0 means octal. The
// value is an even-length hex string; spaces in it are ignored.
func parseEditSpec(spec string) (types.FilePosition, types.Buffer, error) {
	posStr, hexStr, found := strings.Cut(spec, "=")
	if !found || posStr == "" || hexStr == "" {
		return 0, nil, fmt.Errorf("malformed edit %q, expected pos=hexbytes", spec)
	}

	pos, err := strconv.ParseUint(posStr, 0, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("malformed position in %q: %w", spec, err)
	}

	hexStr = strings.ReplaceAll(hexStr, " ", "")
	if len(hexStr)%2 != 0 {
		return 0, nil, fmt.Errorf("odd-length hex value in %q", spec)
	}
	data := make(types.Buffer, 0, len(hexStr)/2)
	for i := 0; i < len(hexStr); i += 2 {
		b, err := strconv.ParseUint(hexStr[i:i+2], 16, 8)
		if err != nil {
			return 0, nil, fmt.Errorf("malformed hex value in %q: %w", spec, err)
		}
		data = append(data, byte(b))
	}
	return pos, data, nil
}
