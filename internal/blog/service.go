// Package blog compiles submitted markdown and keeps the results in a store.
package blog

import (
	"blogpress/internal/images"
	"blogpress/internal/markdown"
	"blogpress/internal/storage"
	"blogpress/internal/telemetry"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Dependencies struct {
	Store     storage.BlogStore
	Compiler  *markdown.Compiler
	Injectors *images.InjectorFactory
	// Sanitizer is applied to every compiled fragment when set.
	Sanitizer *bluemonday.Policy
	Metrics   *telemetry.Metrics
	Logger    *slog.Logger
	// Workers bounds RecompileAll concurrency.
	Workers int
}

type Service struct {
	store     storage.BlogStore
	compiler  *markdown.Compiler
	injectors *images.InjectorFactory
	sanitizer *bluemonday.Policy
	metrics   *telemetry.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
	workers   int
}

func NewService(deps Dependencies) *Service {
	workers := deps.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Service{
		store:     deps.Store,
		compiler:  deps.Compiler,
		injectors: deps.Injectors,
		sanitizer: deps.Sanitizer,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		tracer:    otel.Tracer("blogpress/blog"),
		workers:   workers,
	}
}

// SanitizePolicy is the user generated content policy extended with the
// markup produced for code blocks and footnotes.
func SanitizePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("button")
	p.AllowAttrs("class").OnElements("div", "span", "pre", "code", "button", "a", "sup", "li")
	p.AllowAttrs("type", "aria-label").OnElements("button")
	p.AllowAttrs("id").OnElements("li", "sup", "h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("role").OnElements("div", "a")
	return p
}

// Compiled is the full output for one blog, ready to be stored.
type Compiled struct {
	Title       string   `json:"title"`
	HTML        string   `json:"html"`
	Images      []string `json:"images"`
	MainImage   *string  `json:"main_image,omitempty"`
	Preview     string   `json:"preview"`
	Description string   `json:"description"`
}

// Compile runs the whole pipeline for the blog identified by id without
// storing anything.
func (s *Service) Compile(ctx context.Context, id uuid.UUID, in Input) (*Compiled, error) {
	ctx, span := s.tracer.Start(ctx, "Blog.Compile", trace.WithAttributes(attribute.String("blog.id", id.String())))
	defer span.End()

	if err := in.Validate(); err != nil {
		s.compileFailed(ctx, span, "input", err)
		return nil, err
	}

	start := time.Now()
	injector := s.injectors.For(id)

	compiled, err := s.compiler.Compile(in.Content, injector)
	if err != nil {
		s.compileFailed(ctx, span, "content", err)
		return nil, err
	}

	preview, ok := s.compiler.ExtractPreview(in.previewSource())
	if !ok {
		s.compileFailed(ctx, span, "preview", ErrNoPreview)
		return nil, ErrNoPreview
	}

	out := &Compiled{
		Title:       compiled.Title,
		HTML:        compiled.HTML,
		Images:      compiled.Images,
		Preview:     preview.HTML,
		Description: preview.Description,
	}
	if len(compiled.Images) > 0 {
		main := injector.Inject(compiled.Images[0])
		out.MainImage = &main
	}
	if s.sanitizer != nil {
		out.HTML = s.sanitizer.Sanitize(out.HTML)
		out.Preview = s.sanitizer.Sanitize(out.Preview)
	}

	s.metrics.CompileDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000)
	s.metrics.BlogsCompiledTotal.Add(ctx, 1)
	s.metrics.ImagesInjectedTotal.Add(ctx, int64(len(out.Images)))
	span.SetAttributes(
		attribute.String("blog.title", out.Title),
		attribute.Int("blog.images", len(out.Images)),
	)
	return out, nil
}

func (s *Service) compileFailed(ctx context.Context, span trace.Span, stage string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, stage)
	s.metrics.CompileFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

func (c *Compiled) blog(id uuid.UUID, in Input) *storage.Blog {
	return &storage.Blog{
		ID:            id,
		Title:         c.Title,
		Content:       in.Content,
		PreviewSource: in.Preview,
		HTML:          c.HTML,
		Preview:       c.Preview,
		Description:   c.Description,
		MainImage:     c.MainImage,
		Images:        c.Images,
	}
}

func (s *Service) Create(ctx context.Context, in Input) (*storage.Blog, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("cannot generate blog id: %w", err)
	}
	return s.create(ctx, id, in)
}

func (s *Service) create(ctx context.Context, id uuid.UUID, in Input) (*storage.Blog, error) {
	compiled, err := s.Compile(ctx, id, in)
	if err != nil {
		return nil, err
	}

	blog, err := s.store.CreateBlog(ctx, compiled.blog(id, in))
	if err != nil {
		return nil, err
	}

	s.logger.Info("blog created", "id", id, "title", blog.Title, "images", len(blog.Images))
	return blog, nil
}

// Update replaces the sources of an existing blog.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*storage.Blog, error) {
	compiled, err := s.Compile(ctx, id, in)
	if err != nil {
		return nil, err
	}

	blog, err := s.store.UpdateBlog(ctx, compiled.blog(id, in))
	if err != nil {
		return nil, err
	}

	s.logger.Info("blog updated", "id", id, "title", blog.Title)
	return blog, nil
}

// Put creates the blog under id, or updates it when it already exists. It
// reports whether the blog was created.
func (s *Service) Put(ctx context.Context, id uuid.UUID, in Input) (*storage.Blog, bool, error) {
	_, err := s.store.GetBlog(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		blog, err := s.create(ctx, id, in)
		return blog, err == nil, err
	case err != nil:
		return nil, false, err
	}

	blog, err := s.Update(ctx, id, in)
	return blog, false, err
}

// SetContent swaps the markdown of a blog and keeps its hand written
// preview, if any.
func (s *Service) SetContent(ctx context.Context, id uuid.UUID, content string) (*storage.Blog, error) {
	current, err := s.store.GetBlog(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, id, Input{Content: content, Preview: current.PreviewSource})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*storage.Blog, error) {
	return s.store.GetBlog(ctx, id)
}

// GetContent returns the markdown a blog was compiled from.
func (s *Service) GetContent(ctx context.Context, id uuid.UUID) (string, error) {
	blog, err := s.store.GetBlog(ctx, id)
	if err != nil {
		return "", err
	}
	return blog.Content, nil
}

func (s *Service) List(ctx context.Context, offset, limit int64) ([]*storage.BlogSummary, error) {
	return s.store.ListBlogs(ctx, offset, limit)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteBlog(ctx, id); err != nil {
		return err
	}
	s.logger.Info("blog deleted", "id", id)
	return nil
}
