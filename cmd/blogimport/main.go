// Command blogimport loads markdown sources into the blog database without
// going through the HTTP API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"blogpress/internal/blog"
	"blogpress/internal/config"
	"blogpress/internal/content"
	"blogpress/internal/storage"
	"blogpress/internal/storage/sqlite"
	"blogpress/internal/telemetry"

	"github.com/gofrs/uuid/v5"
)

func main() {
	var (
		sync      = flag.Bool("sync", false, "upload local sources missing from the S3 bucket before importing")
		skip      = flag.Bool("no-import", false, "skip the import step")
		recompile = flag.Bool("recompile", false, "recompile every stored blog after importing")
	)
	flag.Parse()

	if err := run(*sync, !*skip, *recompile); err != nil {
		slog.Error("import failed", "err", err)
		os.Exit(1)
	}
}

func run(sync, doImport, recompile bool) error {
	cfg := config.LoadWithDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Logger.Level})).
		With("app", cfg.App.Name+"-import")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Init(ctx, cfg.App.Name+"-import", "0.1.0", cfg.App.Environment, cfg.Metrics.OtelEndpoint, cfg.Metrics.EnableTelemetry, logger)
	if err != nil {
		return err
	}
	defer tel.Shutdown(context.Background())

	metrics, err := telemetry.NewMetrics(tel.Meter)
	if err != nil {
		return err
	}

	store, err := sqlite.NewStore(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(cfg.DB.MigrationsPath); err != nil {
		return err
	}

	svc, _ := blog.FromConfig(cfg, store, metrics, logger)
	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")

	if sync {
		if cfg.Storage.Provider != "s3" {
			return fmt.Errorf("-sync needs STORAGE_PROVIDER=s3, got %q", cfg.Storage.Provider)
		}
		bucket, err := storage.NewS3Store(cfg.Storage.S3)
		if err != nil {
			return err
		}
		n, err := content.SyncSources(ctx, bucket, cfg.App.SourcesDir, logger)
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		logger.Info("sync done", "uploaded", n)
	}

	if doImport {
		provider, err := storage.NewProvider(cfg.Storage, cfg.App.SourcesDir)
		if err != nil {
			return err
		}
		// validated by cfg.Validate
		namespace := uuid.Must(uuid.FromString(cfg.App.SourceNamespace))

		report, err := content.NewImporter(provider, svc, namespace, metrics, logger).Import(ctx)
		if err != nil {
			return err
		}
		out.Encode(report)
	}

	if recompile {
		report, err := svc.RecompileAll(ctx)
		if err != nil {
			return err
		}
		out.Encode(report)
	}
	return nil
}
