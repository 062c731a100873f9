// Package logger builds the slog.Logger used by every component of a run.
//
// Output goes to stdout, as text (default) or JSON, filtered by level
// (debug, info, warn, error). Unknown values fall back to text and info.
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/fulldump/waveset/configuration"
)

func New(c *configuration.Configuration) *slog.Logger {
	return NewWithWriter(c, os.Stdout)
}

func NewWithWriter(c *configuration.Configuration, w io.Writer) *slog.Logger {

	opts := &slog.HandlerOptions{Level: parseLevel(c.LogLevel)}

	var handler slog.Handler
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
