package glyph_grid

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// discard is a slog.Handler that drops every record; Enabled returning false lets
// callers skip formatting entirely.
type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool  { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (discard) WithAttrs([]slog.Attr) slog.Handler        { return discard{} }
func (discard) WithGroup(string) slog.Handler             { return discard{} }

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(discard{}))
}

// SetLogger sets the logger used by sessions. The default logs nothing; nil restores it.
// Safe for concurrent use.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(discard{})
	}
	logger.Store(l)
}

// Logger returns the package logger.
func Logger() *slog.Logger {
	return logger.Load()
}
