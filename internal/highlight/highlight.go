// Package highlight renders fenced code blocks as syntax highlighted HTML.
package highlight

import (
	"html"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

const DefaultStyle = "monokai"

// Renderer wraps highlighted code in the blog's code block markup. Output
// carries CSS classes only; see CSS for the matching stylesheet.
type Renderer struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// New returns a renderer for the named chroma style. Unknown names fall back
// to chroma's default style.
func New(style string) *Renderer {
	return &Renderer{
		style: styles.Get(style),
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.PreventSurroundingPre(true),
		),
	}
}

func (r *Renderer) RenderCodeBlock(language, code string) string {
	var b strings.Builder
	b.WriteString(`<div class="code-block"><div class="code-header">`)
	if language != "" {
		b.WriteString(`<span class="code-lang">`)
		b.WriteString(html.EscapeString(language))
		b.WriteString(`</span>`)
	}
	b.WriteString(`<button class="copy-btn" type="button" aria-label="Copy code"></button></div>`)
	b.WriteString(`<pre class="code"><code>`)

	var body strings.Builder
	if err := r.highlight(&body, language, code); err != nil {
		b.WriteString(html.EscapeString(code))
	} else {
		b.WriteString(body.String())
	}

	b.WriteString("</code></pre></div>\n")
	return b.String()
}

func (r *Renderer) highlight(w io.Writer, language, code string) error {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return err
	}
	return r.formatter.Format(w, r.style, it)
}

// CSS writes the stylesheet for the renderer's style.
func (r *Renderer) CSS(w io.Writer) error {
	return r.formatter.WriteCSS(w, r.style)
}
