// ABOUTME: This file provides the shared slog-based JSON logger
// ABOUTME: Level comes from LOG_LEVEL; the service name is pre-bound on every record
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const serviceName = "reddit-listener"

// Init builds the process-wide logger. Level is read from LOG_LEVEL
// (debug/info/warn/error, default info).
func Init() *slog.Logger {
	return New(os.Stdout, os.Getenv("LOG_LEVEL"))
}

// New builds a JSON logger writing to output at the given level.
func New(output io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: parseLevel(level),
	})

	return slog.New(handler).With("service", serviceName)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
