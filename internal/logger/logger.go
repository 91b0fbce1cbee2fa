// Package logger configures the application logger and the per-request loggers used by the HTTP handlers.
//
// dev and test environments log with tint (coloured, human readable), other environments log JSON.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// LevelNone disables logging
const LevelNone = slog.Level(12)

// InitLogger creates the application logger (writing to stdout) and installs it as the slog default
func InitLogger(level slog.Level, environment string) *slog.Logger {
	logger := NewLogger(os.Stdout, level, environment)
	slog.SetDefault(logger)
	return logger
}

// NewLogger creates a logger writing to w. walletctl logs to stderr so that stdout only carries command output.
func NewLogger(w io.Writer, level slog.Level, environment string) *slog.Logger {
	var handler slog.Handler

	switch environment {
	case "dev", "test":
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			AddSource:  level == slog.LevelDebug,
		})
	default:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// ParseLogLevel converts a LOG_LEVEL value to a slog level (info when not recognised)
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "none", "off":
		return LevelNone
	default:
		return slog.LevelInfo
	}
}
