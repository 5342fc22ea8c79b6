// Package logger configures the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/san-kum/planets/internal/config"
)

// Init installs a text or JSON handler writing to stderr as the default
// logger and returns it.
func Init(cfg config.LoggingConfig) *slog.Logger {
	return InitWriter(os.Stderr, cfg)
}

func InitWriter(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	slog.SetDefault(l)

	l.With("component", "logger").Debug("logger initialized",
		"level", cfg.Level,
		"json_format", cfg.JSON,
	)
	return l
}

// Discard returns a logger that drops everything. The live viewer uses it so
// log lines do not corrupt the terminal.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ParseLevel(level string) slog.Level {
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
