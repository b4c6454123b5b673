// Package logger provides structured logging using slog, in the style used
// throughout the trustgraph core: every service wraps a *slog.Logger tagged
// with its component name and enriches it with request-scoped fields.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// RequestIDKey is the context key for a request/ingestion-attempt id.
	RequestIDKey contextKey = "request_id"
	// SbomIDKey is the context key for the SBOM an operation is scoped to.
	SbomIDKey contextKey = "sbom_id"
)

// Logger wraps slog.Logger with trustgraph-specific context plumbing.
type Logger struct {
	*slog.Logger
}

// New creates a new logger with the given level ("debug"|"info"|"warn"|"error")
// and format ("json"|"text").
func New(level, format string) *Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(level),
		AddSource: level == "debug",
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	l := slog.New(handler)
	return &Logger{Logger: l}
}

// Default wraps slog.Default without touching the process-wide default logger.
func Default() *Logger {
	return &Logger{Logger: slog.Default()}
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

// WithComponent returns a logger tagged with the given component name, e.g.
// "graphcache" or "ingest".
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.With(slog.String("component", component))}
}

// WithContext returns a logger enriched with request-scoped fields found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	var attrs []any

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok && reqID != "" {
		attrs = append(attrs, slog.String("request_id", reqID))
	}
	if sbomID, ok := ctx.Value(SbomIDKey).(string); ok && sbomID != "" {
		attrs = append(attrs, slog.String("sbom_id", sbomID))
	}

	if len(attrs) == 0 {
		return l
	}
	return &Logger{Logger: l.With(attrs...)}
}

// WithError returns a logger with the error attached, or l unchanged if err is nil.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return &Logger{Logger: l.With(slog.String("error", err.Error()))}
}

// InfoContext logs at info level with context-scoped fields attached.
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Info(msg, args...)
}

// WarnContext logs at warn level with context-scoped fields attached.
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Warn(msg, args...)
}

// ErrorContext logs at error level with context-scoped fields attached.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Error(msg, args...)
}

// DebugContext logs at debug level with context-scoped fields attached.
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Debug(msg, args...)
}

// SetContextValue returns a derived context carrying the given value under key.
func SetContextValue(ctx context.Context, key contextKey, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// WithRequestID is a convenience wrapper around SetContextValue for RequestIDKey.
func WithRequestID(ctx context.Context, id string) context.Context {
	return SetContextValue(ctx, RequestIDKey, id)
}

// WithSbomID is a convenience wrapper around SetContextValue for SbomIDKey.
func WithSbomID(ctx context.Context, id string) context.Context {
	return SetContextValue(ctx, SbomIDKey, id)
}
