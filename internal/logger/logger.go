// Package logger builds the process-wide structured logger. Every binary
// logs JSON to stdout; the collector keys on the service attribute.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/streamcart/finance-ledger/internal/config"
)

// NewLogger creates the slog root logger for a binary. The service name and
// environment ride on every record so the two binaries can share one stream.
func NewLogger(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.Logging.Level)

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
		// Source locations are only worth the volume when debugging
		AddSource: level == slog.LevelDebug,
	})

	log := slog.New(handler).With(
		"service", cfg.Application.Name,
		"env", cfg.Application.Env,
	)
	log.Info("logger initialized", "level", level.String())
	return log
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
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
