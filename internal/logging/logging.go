// Package logging sets up the process-wide slog handler. Records are JSON on
// the given writer and carry the active trace and span IDs.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"
)

// ParseLevel maps a level name to a slog.Level. An empty name is info.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// LevelFromEnv reads <prefix>_LOG_LEVEL, then LOG_LEVEL
func LevelFromEnv(prefix string) slog.Level {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()

	name := v.GetString("log_level")
	if name == "" {
		name = os.Getenv("LOG_LEVEL")
	}

	level, ok := ParseLevel(name)
	if !ok {
		slog.Warn("Invalid LOG_LEVEL, using INFO", "value", name)
	}
	return level
}

// NewHandler returns a JSON handler on w with trace correlation
func NewHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return &traceHandler{Handler: slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})}
}

// Setup installs NewHandler on w as the default logger
func Setup(w io.Writer, prefix string) {
	slog.SetDefault(slog.New(NewHandler(w, LevelFromEnv(prefix))))
}

// traceHandler adds trace_id and span_id when ctx holds a valid span
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}
