package logging

import (
	"github.com/myrjola/faqforge/internal/errors"
	"io"
	"log/slog"
	"strings"
)

var ErrUnknownLevel = errors.NewSentinel("unknown log level")

// ParseLevel maps debug, info, warn, and error to their [slog.Level].
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.Wrap(ErrUnknownLevel, "parse level", slog.String("level", level))
	}
}

// NewLogger creates a text logger writing to w that is enriched with context attributes.
func NewLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(NewContextHandler(slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource:   false,
		Level:       level,
		ReplaceAttr: nil,
	})))
}
