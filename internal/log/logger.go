// Package log builds the structured logger used across mici.
package log

import (
	"io"
	"log/slog"
)

// New creates a logger from the given configuration
func New(config Config) *slog.Logger {
	output := config.Output
	if output == nil {
		output = DefaultConfig().Output
	}

	opts := &slog.HandlerOptions{Level: config.Level.ToSlogLevel()}

	var handler slog.Handler
	switch config.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}

// Discard returns a logger that drops every record
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
