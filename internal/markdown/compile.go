package markdown

import (
	"blogpress/internal/orderedset"
	"bytes"
	"fmt"
	"iter"
	"slices"
	"sync"

	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// CompiledBlog is the result of compiling one document.
type CompiledBlog struct {
	Title string
	HTML  string
	// Images are the original URLs of the rewritten images, first seen first.
	Images []string
}

// Compiler turns blog markdown into HTML. It is safe for concurrent use.
type Compiler struct {
	parser   parser.Parser
	renderer *eventRenderer
	code     CodeBlockRenderer

	unsafe     bool
	extensions []goldmark.Extender
}

type Option func(*Compiler)

// WithCodeBlockRenderer sets what fenced code blocks are replaced with.
func WithCodeBlockRenderer(r CodeBlockRenderer) Option {
	return func(c *Compiler) {
		if r != nil {
			c.code = r
		}
	}
}

// WithUnsafeHTML lets raw HTML in the source through to the output.
func WithUnsafeHTML(unsafe bool) Option {
	return func(c *Compiler) {
		c.unsafe = unsafe
	}
}

// WithExtensions replaces the default goldmark extensions.
func WithExtensions(ext ...goldmark.Extender) Option {
	return func(c *Compiler) {
		c.extensions = ext
	}
}

func DefaultExtensions() []goldmark.Extender {
	return []goldmark.Extender{
		extension.Table,
		extension.Strikethrough,
		extension.Linkify,
		extension.TaskList,
		extension.Footnote,
		emoji.Emoji,
	}
}

func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		code:       PlainCodeBlock,
		extensions: DefaultExtensions(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.renderer = newEventRenderer()
	gopts := []goldmark.Option{
		goldmark.WithRenderer(c.renderer),
		goldmark.WithExtensions(c.extensions...),
	}
	if c.unsafe {
		gopts = append(gopts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}
	c.parser = goldmark.New(gopts...).Parser()
	return c
}

// Compile renders markdown to HTML. The document must open with a level 1
// heading made of plain text, which becomes the title. Inline images accepted
// by injector are rewritten and reported; a nil injector leaves all images
// alone.
func (c *Compiler) Compile(markdown string, injector ImageInjector) (CompiledBlog, error) {
	doc := parse(c.parser, []byte(markdown))

	next, stop := iter.Pull(doc.events())
	defer stop()

	title, head, err := extractTitle(next)
	if err != nil {
		return CompiledBlog{}, err
	}

	var found orderedset.Set[string]
	body := collectImages(remaining(next), doc, injector, &found)

	var buf bytes.Buffer
	buf.Grow(len(markdown) + len(markdown)/2)
	for _, events := range []iter.Seq[Event]{slices.Values(head), body} {
		if err := c.renderer.RenderEvents(&buf, doc.source, transduce(events, doc.source, c.code)); err != nil {
			return CompiledBlog{}, fmt.Errorf("compile %q: %w", title, err)
		}
	}

	return CompiledBlog{
		Title:  title,
		HTML:   buf.String(),
		Images: found.IntoSlice(),
	}, nil
}

func remaining(next func() (Event, bool)) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for {
			e, ok := next()
			if !ok || !yield(e) {
				return
			}
		}
	}
}

var defaultCompiler = sync.OnceValue(func() *Compiler {
	return NewCompiler()
})

// Compile uses a compiler with the default options.
func Compile(markdown string, injector ImageInjector) (CompiledBlog, error) {
	return defaultCompiler().Compile(markdown, injector)
}

// ExtractPreview uses a compiler with the default options.
func ExtractPreview(markdown string) (PreviewResult, bool) {
	return defaultCompiler().ExtractPreview(markdown)
}
