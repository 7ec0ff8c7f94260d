package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/crop-trade-ledger/internal/config"
	"github.com/crop-trade-ledger/internal/domain/shared"
)

// NewLogger creates a JSON slog.Logger on stdout tagged with the service name
func NewLogger(cfg *config.Config) *slog.Logger {
	return New(cfg, os.Stdout)
}

// New writes JSON logs to w at the configured level
func New(cfg *config.Config, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.Logging.Level)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	logger := slog.New(slog.NewJSONHandler(w, opts))
	if cfg.Application.Name != "" {
		logger = logger.With("service", cfg.Application.Name, "env", cfg.Application.Env)
	}

	logger.Info("logger initialized", "level", level)

	return logger
}

// ParseLevel maps a config string to a slog level, defaulting to info
func ParseLevel(raw string) slog.Level {
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

// FromContext decorates logger with the request metadata carried by ctx
func FromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	md := shared.MetadataFrom(ctx)
	attrs := []any{"actor", md.Actor}
	if md.CorrelationID != "" {
		attrs = append(attrs, "correlation_id", md.CorrelationID)
	}
	if md.RequestID != "" {
		attrs = append(attrs, "request_id", md.RequestID)
	}
	return logger.With(attrs...)
}
