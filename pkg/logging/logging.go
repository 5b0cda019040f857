// Package logging configures colored structured logging with tint.
//
// Usage:
//
//	logger := logging.New(os.Stderr, logging.ParseLevel(cfg.LogLevel))
//	slog.SetDefault(logger)
//
// Levels: debug, info, warn, error (default: info).
package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// New returns a tint logger writing to w at level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  level == slog.LevelDebug,
	}))
}

// Setup installs a tint logger on w as the slog default and returns it.
func Setup(w io.Writer, level string) *slog.Logger {
	logger := New(w, ParseLevel(level))
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to a slog.Level, defaulting to INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
