package blog

import (
	"blogpress/internal/storage"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type RecompileReport struct {
	Total    int64 `json:"total"`
	Compiled int64 `json:"compiled"`
	Failed   int64 `json:"failed"`
}

// RecompileAll compiles every stored blog again with the current compiler
// and refreshes its html and images. A blog that fails keeps its previous
// output.
func (s *Service) RecompileAll(ctx context.Context) (RecompileReport, error) {
	ctx, span := s.tracer.Start(ctx, "Blog.RecompileAll")
	defer span.End()

	sources, err := s.store.ListBlogSources(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list sources")
		return RecompileReport{}, fmt.Errorf("cannot recompile: %w", err)
	}

	var (
		wg       sync.WaitGroup
		compiled atomic.Int64
		failed   atomic.Int64
		jobs     = make(chan *storage.BlogSource, s.workers)
		start    = time.Now()
		parent   = span.SpanContext()
	)

	for i := range s.workers {
		wg.Go(func() {
			for src := range jobs {
				if err := s.recompile(ctx, parent, src); err != nil {
					failed.Add(1)
					s.logger.Error("recompile failed", "worker_id", i, "id", src.ID, "err", err)
					continue
				}
				compiled.Add(1)
			}
		})
	}

feed:
	for _, src := range sources {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- src:
		}
	}
	close(jobs)
	wg.Wait()

	report := RecompileReport{
		Total:    int64(len(sources)),
		Compiled: compiled.Load(),
		Failed:   failed.Load(),
	}
	s.metrics.RecompileRuns.Add(ctx, 1)
	span.SetAttributes(
		attribute.Int64("recompile.total", report.Total),
		attribute.Int64("recompile.failed", report.Failed),
	)
	s.logger.Info("recompile done",
		"total", report.Total,
		"compiled", report.Compiled,
		"failed", report.Failed,
		"duration", time.Since(start),
	)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("recompile interrupted: %w", err)
	}
	return report, nil
}

func (s *Service) recompile(ctx context.Context, parent trace.SpanContext, src *storage.BlogSource) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, span := s.tracer.Start(ctx, "Blog.Recompile",
		trace.WithAttributes(attribute.String("blog.id", src.ID.String())),
		trace.WithLinks(trace.Link{SpanContext: parent}),
	)
	defer span.End()

	injector := s.injectors.For(src.ID)
	out, err := s.compiler.Compile(src.Content, injector)
	if err != nil {
		s.compileFailed(ctx, span, "content", err)
		return err
	}
	s.metrics.BlogsCompiledTotal.Add(ctx, 1)
	s.metrics.ImagesInjectedTotal.Add(ctx, int64(len(out.Images)))

	html := out.HTML
	if s.sanitizer != nil {
		html = s.sanitizer.Sanitize(html)
	}

	var main *string
	if len(out.Images) > 0 {
		m := injector.Inject(out.Images[0])
		main = &m
	}

	return s.store.UpdateBlogHTML(ctx, src.ID, html, main, out.Images)
}
