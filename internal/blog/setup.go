package blog

import (
	"blogpress/internal/config"
	"blogpress/internal/highlight"
	"blogpress/internal/images"
	"blogpress/internal/markdown"
	"blogpress/internal/storage"
	"blogpress/internal/telemetry"
	"io"
	"log/slog"
)

// NoHighlight as code style renders code blocks as plain escaped text.
const NoHighlight = "none"

// FromConfig wires a Service the way the binaries run it. The returned func
// writes the stylesheet of highlighted code blocks and is nil without
// highlighting.
func FromConfig(cfg *config.Config, store storage.BlogStore, metrics *telemetry.Metrics, logger *slog.Logger) (*Service, func(io.Writer) error) {
	opts := []markdown.Option{markdown.WithUnsafeHTML(cfg.Markdown.UnsafeHTML)}

	var css func(io.Writer) error
	if cfg.Markdown.CodeStyle != NoHighlight {
		code := highlight.New(cfg.Markdown.CodeStyle)
		opts = append(opts, markdown.WithCodeBlockRenderer(code))
		css = code.CSS
	}

	deps := Dependencies{
		Store:     store,
		Compiler:  markdown.NewCompiler(opts...),
		Injectors: images.NewInjectorFactory(cfg.App.ServerAddress),
		Metrics:   metrics,
		Logger:    logger,
		Workers:   cfg.Recompile.Workers,
	}
	if cfg.Markdown.Sanitize {
		deps.Sanitizer = SanitizePolicy()
	}
	return NewService(deps), css
}
