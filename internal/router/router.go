package router

import (
	"blogpress/internal/config"
	"blogpress/internal/handlers"
	"blogpress/internal/middleware"
	"blogpress/internal/telemetry"
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const adminDelay = 500 * time.Millisecond

// RouterDependencies holds everything needed to register routes.
type RouterDependencies struct {
	Cfg          *config.Config
	Logger       *slog.Logger
	BlogHandler  *handlers.BlogHandler
	Limiter      *middleware.IPRateLimiter
	AdminLimiter *middleware.IPRateLimiter
	Tracer       trace.Tracer
	Metrics      *telemetry.Metrics
	// Ping reports whether the store is reachable. Nil skips the check.
	Ping func(ctx context.Context) error
}

func NewRouter(deps RouterDependencies) http.Handler {
	h := deps.BlogHandler
	appMux := http.NewServeMux()

	admin := func(next http.Handler) http.Handler {
		return middleware.Chain(next,
			deps.AdminLimiter.Middleware(deps.Logger),
			middleware.AdminAuth(deps.Cfg.Auth.AdminTokenHash, adminDelay, deps.Metrics, deps.Logger),
		)
	}

	// public
	appMux.Handle("GET /blogs", h.HandleList())
	appMux.Handle("GET /blogs/{id}", h.HandleGet())
	appMux.Handle("GET /blogs/{id}/content", h.HandleGetContent())
	appMux.Handle("GET /assets/code.css", h.HandleCodeCSS())

	// admin
	appMux.Handle("POST /blogs", admin(h.HandleCreate()))
	appMux.Handle("PUT /blogs/{id}", admin(h.HandleUpdate()))
	appMux.Handle("PUT /blogs/{id}/content", admin(h.HandleSetContent()))
	appMux.Handle("DELETE /blogs/{id}", admin(h.HandleDelete()))
	appMux.Handle("POST /compile", admin(h.HandleCompile()))
	appMux.Handle("POST /admin/recompile", admin(h.HandleRecompile()))

	appMux.HandleFunc("/", h.NotFound)

	middlewareStack := []middleware.Middleware{
		middleware.Recover(deps.Logger),
	}

	// order matters so don't append blindly
	if deps.Cfg.Metrics.EnableTelemetry {
		middlewareStack = append(middlewareStack, middleware.Observability(deps.Tracer, deps.Metrics, deps.Logger))
	} else {
		middlewareStack = append(middlewareStack, middleware.Logger(deps.Logger))
	}

	middlewareStack = append(middlewareStack,
		deps.Limiter.Middleware(deps.Logger),
		middleware.MaxBody(deps.Cfg.HTTP.MaxBodyBytes),
	)

	appHandler := middleware.Chain(appMux, middlewareStack...)

	rootMux := http.NewServeMux()

	// lightweight for docker keepalive
	rootMux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		if deps.Ping != nil {
			if err := deps.Ping(r.Context()); err != nil {
				deps.Logger.Error("health check failed", "err", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("DOWN"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	rootMux.Handle("/", appHandler)

	return rootMux
}
