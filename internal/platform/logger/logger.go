package logger

import (
	"log/slog"
	"os"
)

// New returns a structured text logger writing to stderr at the given level.
// The SDK takes a *slog.Logger everywhere so hosts can inject their own.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// Discard returns a logger that drops everything. Used as the default when a
// host passes nil, and in tests that do not assert on log output.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
