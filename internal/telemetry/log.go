// Package telemetry wires the ambient logging and tracing stack: a
// structured log/slog logger writing to a lumberjack-rotated file and
// bridged to OpenTelemetry via otelslog, plus a tracer the reactor's
// dispatch loop spans every event with (SPEC_FULL §2).
//
// The teacher's cmd/fx.go references ProvideLogger/ProvideWatermillLogger
// constructors whose bodies were not present in the retrieved pack;
// this package supplies them in the same log/slog + lumberjack +
// otelslog idiom the teacher's go.mod commits to.
package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/webitel/go-reactor/config"
)

// fanoutHandler forwards every record to each of its handlers, so a
// single *slog.Logger can write structured JSON to a rotating file
// (operational logs) while also exporting through the otelslog bridge
// (trace-correlated log records) without callers juggling two loggers.
type fanoutHandler struct {
	handlers []slog.Handler
}

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		out[i] = h.WithAttrs(attrs)
	}
	return fanoutHandler{handlers: out}
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		out[i] = h.WithGroup(name)
	}
	return fanoutHandler{handlers: out}
}

// NewLogger builds the application's slog.Logger: structured JSON to
// stderr (and, when configured, a lumberjack-rotated file) fanned out
// alongside the otelslog bridge, so every log record both lands on
// stderr (and on disk, when a file is configured) and carries the
// active span's trace ID into the OpenTelemetry logs pipeline.
func NewLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Log.Level)}

	var sink io.Writer = os.Stderr
	if cfg.Log.File != "" {
		sink = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
		})
	}

	handler := fanoutHandler{handlers: []slog.Handler{
		slog.NewJSONHandler(sink, opts),
		otelslog.NewHandler("github.com/webitel/go-reactor"),
	}}

	return slog.New(handler)
}

// NewWatermillLogger adapts the application logger to watermill's
// LoggerAdapter interface (watermill.NewSlogLogger), the same pairing
// the teacher's cmd/fx.go wires as ProvideWatermillLogger.
func NewWatermillLogger(logger *slog.Logger) watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logger)
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
