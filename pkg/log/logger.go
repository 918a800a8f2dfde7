package log

import (
	"log/slog"
	"os"
)

// New constructs the JSON slog.Logger weft components share, tagged
// with the application name and version
func New(name, version string) *slog.Logger {
	return NewWithLevel(name, version, slog.LevelInfo)
}

// NewWithLevel constructs a shared logger at the provided level
func NewWithLevel(name, version string, lvl slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})

	return slog.New(handler).With(
		slog.String("app", name),
		slog.String("version", version))
}
