// Package logging configures slog: JSON to stdout plus ERROR records persisted to system_logs.
package logging

import (
	"log/slog"
	"os"
)

// StdoutHandler returns the JSON handler used for process output.
func StdoutHandler() slog.Handler {
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
}

// Setup initializes the global slog logger with JSON output to stdout.
func Setup() {
	slog.SetDefault(slog.New(StdoutHandler()))
}

// WithDatabase makes the default logger also persist ERROR+ records through pg.
func WithDatabase(pg *PGHandler) {
	slog.SetDefault(slog.New(NewMultiHandler(StdoutHandler(), pg)))
}
