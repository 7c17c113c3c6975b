package middleware

import (
	"log/slog"
	"net/http"

	"github.com/shabelingo/shabelingo-api/internal/api/shared"
	"github.com/shabelingo/shabelingo-api/internal/platform/logger"
)

// TraceMiddleware assigns every request a trace ID, reusing the one an
// upstream proxy sent in X-Request-ID, and stores a logger annotated with it
// in the request context. It should run before any handler that logs.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context(), r.Header.Get(shared.TraceIDHeader))
		traceID := shared.GetTraceID(ctx)
		ctx = logger.WithTraceID(ctx, traceID)

		w.Header().Set(shared.TraceIDHeader, traceID)

		logger.FromContext(ctx).Debug("request started",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
