// Package logging holds the process-wide slog setup for the migration tool.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// New returns a JSON logger writing to w. Verbose lowers the level to debug,
// which makes the runner log every statement batch it executes.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Default is the logger used when a caller passes none.
var Default = New(os.Stderr, false)

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
