package markdown

import (
	"iter"
	"strings"

	"github.com/yuin/goldmark/ast"
)

const fence = "```"

// transduce holds back each top-level block until it closes and replays it
// unchanged, except that every fenced code block inside it collapses into a
// single literal HTML event written by code. Events outside any block pass
// straight through.
func transduce(events iter.Seq[Event], source []byte, code CodeBlockRenderer) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		var (
			buf   []Event
			depth int
			// Buffer index of the open fenced block's Start, or -1.
			fenceAt = -1
		)

		flush := func() bool {
			for _, e := range buf {
				if !yield(e) {
					return false
				}
			}
			buf = buf[:0]
			return true
		}

		for e := range events {
			if depth == 0 && !e.IsBlock() {
				if !yield(e) {
					return
				}
				continue
			}

			buf = append(buf, e)
			if !e.IsBlock() {
				continue
			}

			switch e.Kind {
			case EventStart:
				depth++
				if fenceAt < 0 && e.Is(ast.KindFencedCodeBlock) {
					fenceAt = len(buf) - 1
				}
			case EventEnd:
				depth--
				if fenceAt >= 0 && buf[fenceAt].Node == e.Node {
					buf = append(buf[:fenceAt], substitute(buf[fenceAt:], source, code))
					fenceAt = -1
				}
				if depth == 0 && !flush() {
					return
				}
			}
		}
		flush()
	}
}

// substitute renders the events of one fenced code block, Start through End,
// as a literal HTML event.
func substitute(block []Event, source []byte, code CodeBlockRenderer) Event {
	var language string
	if fcb, ok := block[0].Node.(*ast.FencedCodeBlock); ok {
		language = string(fcb.Language(source))
	}

	var b strings.Builder
	for _, e := range block {
		if e.Kind == EventText {
			b.WriteString(e.Text)
		}
	}

	body := strings.TrimSpace(b.String())
	for strings.HasSuffix(body, fence) {
		body = strings.TrimSuffix(body, fence)
	}

	return Event{Kind: EventHTML, Text: code.RenderCodeBlock(language, body)}
}
