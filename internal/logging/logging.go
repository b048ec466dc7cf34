// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Config selects level and output format.
type Config struct {
	Level  slog.Level
	Format string // "text" or "json"
}

// DefaultConfig logs warnings and above as text.
func DefaultConfig() Config {
	return Config{
		Level:  slog.LevelWarn,
		Format: "text",
	}
}

// ParseFormat validates a --log-format value.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", "text":
		return "text", nil
	case "json":
		return f, nil
	default:
		return "", fmt.Errorf("invalid log format %q (valid: text|json)", s)
	}
}

// New creates a logger writing to w and installs it as the slog default.
func New(w io.Writer, cfg Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: cfg.Level,
	}

	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
