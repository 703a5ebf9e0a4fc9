package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"blogpress/internal/blog"
	"blogpress/internal/config"
	"blogpress/internal/handlers"
	"blogpress/internal/middleware"
	"blogpress/internal/router"
	"blogpress/internal/storage/sqlite"
	"blogpress/internal/telemetry"
)

const version = "0.1.0"

type App struct {
	Server *http.Server
	Logger *slog.Logger
	Config *config.Config
}

func NewApp(cfg *config.Config, logger *slog.Logger, handler http.Handler) *App {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.Timeouts.Read,
		WriteTimeout: cfg.HTTP.Timeouts.Write,
		IdleTimeout:  cfg.HTTP.Timeouts.Idle,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	return &App{
		Server: server,
		Logger: logger,
		Config: cfg,
	}
}

func (a *App) Run(ctx context.Context) error {
	srvErrChan := make(chan error, 1)

	go func() {
		a.Logger.Info("server starting", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErrChan <- err
		}
	}()

	select {
	case err := <-srvErrChan:
		return fmt.Errorf("server startup failed: %w", err)
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.HTTP.Timeouts.Shutdown)
	defer cancel()

	a.Logger.Info("draining connections...")
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		if closeErr := a.Server.Close(); closeErr != nil {
			return fmt.Errorf("graceful shutdown failed: %w", errors.Join(err, closeErr))
		}
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	a.Logger.Info("server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("application failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.LoadWithDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Logger.Level})
	logger := slog.New(logHandler).With("app", cfg.App.Name)

	logger.Info("application starting", "pid", os.Getpid(), "version", version)
	logger.Info("configuration loaded",
		"name", cfg.App.Name,
		"env", cfg.App.Environment,
		"port", cfg.HTTP.Port,
		"db", cfg.DB.Path,
		"server_address", cfg.App.ServerAddress,
		"code_style", cfg.Markdown.CodeStyle,
		"sanitize", cfg.Markdown.Sanitize,
		"rate_limit_rps", cfg.Limiter.RPS,
		"trusted_proxy", cfg.Proxy.Trusted,
		"telemetry", cfg.Metrics.EnableTelemetry,
	)
	if cfg.Auth.AdminTokenHash == "" {
		logger.Warn("ADMIN_TOKEN_HASH is empty, admin routes are locked")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Init(rootCtx, cfg.App.Name, version, cfg.App.Environment, cfg.Metrics.OtelEndpoint, cfg.Metrics.EnableTelemetry, logger)
	if err != nil {
		return fmt.Errorf("telemetry init: %w", err)
	}
	defer tel.Shutdown(context.Background())

	metrics, err := telemetry.NewMetrics(tel.Meter)
	if err != nil {
		return fmt.Errorf("metrics init: %w", err)
	}

	store, err := sqlite.NewStore(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(cfg.DB.MigrationsPath); err != nil {
		return err
	}
	logger.Info("database ready", "path", cfg.DB.Path)

	svc, codeCSS := blog.FromConfig(cfg, store, metrics, logger)

	if cfg.Recompile.OnStart {
		go func() {
			if _, err := svc.RecompileAll(rootCtx); err != nil {
				logger.Error("startup recompile failed", "err", err)
			}
		}()
	}

	limiter := middleware.NewIPRateLimiter(rootCtx, "api", cfg.Limiter.RPS, cfg.Limiter.Burst, cfg.Proxy.Trusted, metrics)
	// admin calls pay for bcrypt, keep them scarce
	adminLimiter := middleware.NewIPRateLimiter(rootCtx, "admin", 1, 5, cfg.Proxy.Trusted, metrics)

	handler := router.NewRouter(router.RouterDependencies{
		Cfg:          cfg,
		Logger:       logger,
		BlogHandler:  handlers.NewBlogHandler(svc, codeCSS, logger),
		Limiter:      limiter,
		AdminLimiter: adminLimiter,
		Tracer:       tel.Tracer,
		Metrics:      metrics,
		Ping:         store.Ping,
	})

	if err := NewApp(cfg, logger, handler).Run(rootCtx); err != nil {
		return fmt.Errorf("server crashed: %w", err)
	}

	logger.Info("application exited successfully")
	return nil
}
