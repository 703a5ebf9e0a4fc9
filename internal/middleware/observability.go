package middleware

import (
	"blogpress/internal/telemetry"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Observability traces and measures every request and hands a logger tagged
// with the trace id down the chain.
func Observability(tracer trace.Tracer, metrics *telemetry.Metrics, logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := uuid.Must(uuid.NewV7()).String()

			ctx, span := tracer.Start(r.Context(), r.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("url.path", r.URL.Path),
					attribute.String("http.user_agent", r.Header.Get("User-Agent")),
					attribute.String("trace.id", traceID),
				),
			)
			defer span.End()

			w.Header().Set("X-Trace-ID", traceID)

			logger := logger.With("trace_id", traceID, "span_id", span.SpanContext().SpanID().String())
			ctx = WithLogger(ctx, logger)

			metrics.HTTPActiveRequests.Add(ctx, 1)
			defer metrics.HTTPActiveRequests.Add(ctx, -1)

			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			r = r.WithContext(ctx)
			next.ServeHTTP(wrapped, r)

			if wrapped.statusCode >= 500 {
				span.SetStatus(codes.Error, http.StatusText(wrapped.statusCode))
			} else {
				span.SetStatus(codes.Ok, "OK")
			}

			// the mux fills the pattern in on the request it was given
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			span.SetName(r.Method + " " + route)

			duration := float64(time.Since(start).Microseconds()) / 1000
			attrs := []attribute.KeyValue{
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.Int("http.status_code", wrapped.statusCode),
			}
			metrics.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
			metrics.HTTPRequestDuration.Record(ctx, duration, metric.WithAttributes(attrs...))

			span.SetAttributes(
				attribute.String("http.route", route),
				attribute.Int("http.status_code", wrapped.statusCode),
				attribute.Float64("http.duration_ms", duration),
			)
		})
	}
}
