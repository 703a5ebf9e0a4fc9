package router

import (
	"blogpress/internal/blog"
	"blogpress/internal/config"
	"blogpress/internal/handlers"
	"blogpress/internal/middleware"
	"blogpress/internal/storage"
	"blogpress/internal/telemetry"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofrs/uuid/v5"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/crypto/bcrypt"
)

type stubService struct{ handlers.BlogService }

func (stubService) List(context.Context, int64, int64) ([]*storage.BlogSummary, error) {
	return []*storage.BlogSummary{}, nil
}

func (stubService) Create(context.Context, blog.Input) (*storage.Blog, error) {
	return &storage.Blog{ID: uuid.Must(uuid.NewV4())}, nil
}

func newTestRouter(t *testing.T, telemetryOn bool, ping func(context.Context) error) http.Handler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	metrics, err := telemetry.NewMetrics(metricnoop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := config.DefaultConfig()
	cfg.Auth.AdminTokenHash = string(hash)
	cfg.Metrics.EnableTelemetry = telemetryOn
	cfg.HTTP.MaxBodyBytes = 64

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(RouterDependencies{
		Cfg:          cfg,
		Logger:       logger,
		BlogHandler:  handlers.NewBlogHandler(stubService{}, nil, logger),
		Limiter:      middleware.NewIPRateLimiter(ctx, "api", 100, 100, false, metrics),
		AdminLimiter: middleware.NewIPRateLimiter(ctx, "admin", 100, 100, false, metrics),
		Tracer:       tracenoop.NewTracerProvider().Tracer("test"),
		Metrics:      metrics,
		Ping:         ping,
	})
}

func TestRouter(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		telemetry  bool
		method     string
		path       string
		body       string
		token      string
		wantStatus int
	}{
		{name: "public list", method: "GET", path: "/blogs", wantStatus: http.StatusOK},
		{name: "public list with telemetry", telemetry: true, method: "GET", path: "/blogs", wantStatus: http.StatusOK},
		{name: "admin without token", method: "POST", path: "/blogs", body: `{"content":"# T\n\nx"}`, wantStatus: http.StatusUnauthorized},
		{name: "admin with wrong token", method: "POST", path: "/blogs", body: `{"content":"# T\n\nx"}`, token: "nope", wantStatus: http.StatusUnauthorized},
		{name: "admin with token", method: "POST", path: "/blogs", body: `{"content":"# T\n\nx"}`, token: "s3cret", wantStatus: http.StatusCreated},
		{name: "recompile is admin", method: "POST", path: "/admin/recompile", wantStatus: http.StatusUnauthorized},
		{name: "compile is admin", method: "POST", path: "/compile", wantStatus: http.StatusUnauthorized},
		{name: "body over limit", method: "POST", path: "/blogs", body: `{"content":"` + strings.Repeat("a", 100) + `"}`, token: "s3cret", wantStatus: http.StatusRequestEntityTooLarge},
		{name: "no code stylesheet", method: "GET", path: "/assets/code.css", wantStatus: http.StatusNotFound},
		{name: "unknown route", method: "GET", path: "/wp-admin", wantStatus: http.StatusNotFound},
		{name: "health", method: "GET", path: "/healthz", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := newTestRouter(t, tt.telemetry, nil)

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.RemoteAddr = "20.55.20.55:1000"
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %q)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.telemetry && rec.Header().Get("X-Trace-ID") == "" {
				t.Error("missing X-Trace-ID header")
			}
		})
	}
}

func TestHealthzStoreDown(t *testing.T) {
	t.Parallel()
	r := newTestRouter(t, false, func(context.Context) error { return errors.New("db gone") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
