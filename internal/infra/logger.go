// README: Structured JSON logger shared by the API process and the bench runner.
package infra

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

func NewLogger(w io.Writer, level, service string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	host, _ := os.Hostname()
	return slog.New(handler).With("service", service, "host", host)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
