// Package logging provides the shared logging helpers.
//
// Loggers are dependency-injected, never global: each component takes an
// optional *slog.Logger in its Config and scopes it once at construction
// with slog.With. Global configuration (format, level, destination)
// belongs only in main. Logging is sparse by intent; lifecycle
// boundaries are the log points, never per-byte read paths.
package logging

import (
	"context"
	"log/slog"
)

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Discard returns a logger that drops all output.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// Default returns logger if non-nil, otherwise a discard logger.
// The standard pattern for optional logger parameters:
//
//	logger = logging.Default(cfg.Logger).With("component", "chunk-cache")
func Default(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return Discard()
}
