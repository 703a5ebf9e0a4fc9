package markdown

import (
	"html"
	"strings"
)

// CodeBlockRenderer turns a fenced code block into the HTML that replaces it.
// An empty language means the fence carried none.
type CodeBlockRenderer interface {
	RenderCodeBlock(language, code string) string
}

type CodeBlockRendererFunc func(language, code string) string

func (f CodeBlockRendererFunc) RenderCodeBlock(language, code string) string {
	return f(language, code)
}

// PlainCodeBlock renders escaped code without highlighting.
var PlainCodeBlock CodeBlockRenderer = CodeBlockRendererFunc(func(language, code string) string {
	var b strings.Builder
	b.WriteString("<pre><code")
	if language != "" {
		b.WriteString(` class="language-`)
		b.WriteString(html.EscapeString(language))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	b.WriteString(html.EscapeString(code))
	b.WriteString("</code></pre>\n")
	return b.String()
})
