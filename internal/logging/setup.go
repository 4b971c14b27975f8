// Package logging configures the process-wide slog logger: a console handler
// in text or JSON, optionally fanned out to Loki.
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/BinaryAlley/Lyrida-sub002/internal/config"
)

// ParseLevel maps a configured level name to slog, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
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

// New builds the logger described by conf, writing the console output to w.
// The returned closer flushes Loki and must be called on shutdown.
func New(conf config.LoggingConfig, production bool, w io.Writer) (*slog.Logger, io.Closer) {
	level := ParseLevel(conf.Level)

	var console slog.Handler
	if strings.ToLower(conf.Format) == "json" {
		console = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: production,
		})
	} else {
		console = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}

	if !conf.LokiEnabled {
		return slog.New(console), nopCloser{}
	}

	loki := NewLokiHandler(LokiOptions{
		URL:       conf.LokiURL,
		Labels:    conf.LokiLabels,
		BatchSize: conf.LokiBatchSize,
		Level:     level,
	})
	return slog.New(&multiHandler{handlers: []slog.Handler{console, loki}}), loki
}

// Setup installs the configured logger as the slog default / Installe le logger par défaut
func Setup(conf config.LoggingConfig, production bool, w io.Writer) io.Closer {
	logger, closer := New(conf, production, w)
	slog.SetDefault(logger)

	slog.Info("📊 Logging configured",
		"level", ParseLevel(conf.Level).String(),
		"format", conf.Format,
		"loki_enabled", conf.LokiEnabled,
	)
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// multiHandler fans records out to every handler enabled for their level.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, inner := range h.handlers {
		if inner.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, inner := range h.handlers {
		if inner.Enabled(ctx, record.Level) {
			errs = append(errs, inner.Handle(ctx, record.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(h.handlers))
	for i, inner := range h.handlers {
		out[i] = inner.WithAttrs(attrs)
	}
	return &multiHandler{handlers: out}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(h.handlers))
	for i, inner := range h.handlers {
		out[i] = inner.WithGroup(name)
	}
	return &multiHandler{handlers: out}
}
