package logger

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// TraceIDKey is the attribute name used for request trace identifiers.
const TraceIDKey = "trace_id"

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in ctx, or slog.Default() if none.
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOrDefault(ctx, slog.Default())
}

// FromContextOrDefault returns the logger stored in ctx, or fallback if none.
// A request-scoped logger carries the trace ID, so prefer it over a
// component logger when both exist.
func FromContextOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	if fallback == nil {
		return slog.Default()
	}
	return fallback
}

// WithTraceID stores a logger annotated with traceID in ctx, derived from
// whatever logger ctx already carries.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return WithLogger(ctx, FromContext(ctx).With(slog.String(TraceIDKey, traceID)))
}
