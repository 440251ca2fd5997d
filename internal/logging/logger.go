package logging

import (
	"io"
	"log/slog"
	"os"
)

// New creates the configured application logger.
// JSON output on stderr so stdout stays free for tooling; the "service"
// attribute is attached once here instead of at every call site.
func New(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("service", "sendcore")
}

// NewNop returns a no-op logger for tests and optional dependencies.
func NewNop() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
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
