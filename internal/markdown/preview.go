package markdown

import (
	"bytes"
	"iter"
	"slices"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	// previewScanEvents is how many events of a line must be readable for
	// the line to start a preview.
	previewScanEvents = 40
	previewWordBudget = 30
)

type PreviewResult struct {
	HTML        string
	Description string
}

// ExtractPreview finds the first line of prose in markdown and renders a
// short excerpt starting there. It reports false when no such line exists.
func (c *Compiler) ExtractPreview(markdown string) (PreviewResult, bool) {
	origin, ok := c.previewOrigin(markdown)
	if !ok {
		return PreviewResult{}, false
	}

	doc := parse(c.parser, []byte(markdown[origin:]))
	kept := boundPreview(doc.source, doc.events())
	description := describe(kept)
	// a paragraph cut before its first word is no preview
	if strings.TrimSpace(description) == "" {
		return PreviewResult{}, false
	}

	var buf bytes.Buffer
	if err := c.renderer.RenderEvents(&buf, doc.source, slices.Values(kept)); err != nil {
		return PreviewResult{}, false
	}

	return PreviewResult{
		HTML:        buf.String(),
		Description: description,
	}, true
}

func (c *Compiler) previewOrigin(markdown string) (int, bool) {
	for offset, line := range lines(markdown) {
		if readableLine(parse(c.parser, []byte(line)).events()) {
			return offset, true
		}
	}
	return 0, false
}

func readableLine(events iter.Seq[Event]) bool {
	n := 0
	for e := range events {
		if n == previewScanEvents {
			break
		}
		if !isReadable(e) {
			return false
		}
		n++
	}
	return n > 0
}

func isReadable(e Event) bool {
	switch e.Kind {
	case EventText, EventCode, EventSoftBreak:
		return true
	case EventStart, EventEnd:
		return isProseNode(e.Node)
	}
	return false
}

func isProseNode(n ast.Node) bool {
	switch n.Kind() {
	case ast.KindParagraph, ast.KindEmphasis, ast.KindLink, ast.KindAutoLink:
		return true
	}
	return false
}

// previewAllowed is the set of events a preview may continue with.
func previewAllowed(e Event) bool {
	switch e.Kind {
	case EventText, EventCode, EventSoftBreak:
		return true
	case EventStart:
		switch e.Node.Kind() {
		case ast.KindEmphasis, ast.KindLink, ast.KindAutoLink:
			return true
		}
	case EventEnd:
		return isProseNode(e.Node)
	}
	return false
}

// boundPreview keeps the leading run of prose events under the word budget
// and closes whatever containers the cut leaves open.
func boundPreview(source []byte, events iter.Seq[Event]) []Event {
	b := &previewBound{source: source}
	complete := true
	for e := range events {
		if b.extendsRun(e) {
			b.run = append(b.run, e)
			continue
		}
		if !b.flushRun() || (len(b.kept) > 0 && !previewAllowed(e)) {
			complete = false
			break
		}
		if e.Kind == EventText || e.Kind == EventCode {
			b.run = append(b.run, e)
			continue
		}
		b.keep(e)
	}
	if complete {
		b.flushRun()
	}

	for _, n := range slices.Backward(b.open) {
		b.kept = append(b.kept, Event{Kind: EventEnd, Node: n})
	}
	return b.kept
}

// previewBound is the state of boundPreview. Text goldmark split into
// adjacent nodes is held in run and weighed as a whole, so the budget never
// divides a word.
type previewBound struct {
	source []byte
	kept   []Event
	open   []ast.Node
	run    []Event
	words  int
	inWord bool
}

func (b *previewBound) extendsRun(e Event) bool {
	if len(b.run) == 0 || e.Kind != EventText {
		return false
	}
	prev, ok := b.run[len(b.run)-1].Node.(*ast.Text)
	if !ok || prev.SoftLineBreak() || prev.HardLineBreak() {
		return false
	}
	cur, ok := e.Node.(*ast.Text)
	return ok && prev.Segment.Stop == cur.Segment.Start
}

// flushRun keeps the pending run and reports whether the budget has room
// for more.
func (b *previewBound) flushRun() bool {
	run := b.run
	b.run = nil
	if len(run) == 0 {
		return true
	}

	words, inWord := b.words, b.inWord
	for _, e := range run {
		words, inWord = countWords(e.Text, words, inWord)
	}
	if len(b.kept) > 0 && words >= previewWordBudget {
		if b.words == 0 {
			// a long first line still gives a preview
			b.kept = append(b.kept, b.truncate(run)...)
		}
		return false
	}

	b.kept = append(b.kept, run...)
	b.words, b.inWord = words, inWord
	return true
}

// truncate returns the part of run that fits the budget, ending on a word
// boundary.
func (b *previewBound) truncate(run []Event) []Event {
	words, inWord := b.words, b.inWord
	for i, e := range run {
		next, nextInWord := countWords(e.Text, words, inWord)
		if next < previewWordBudget {
			words, inWord = next, nextInWord
			continue
		}
		kept := run[:i:i]
		if t, ok := e.Node.(*ast.Text); ok {
			if cut, ok := cutText(t, b.source, previewWordBudget-1-words, inWord); ok {
				kept = append(kept, cut)
			}
		}
		return kept
	}
	return run
}

func (b *previewBound) keep(e Event) {
	b.kept = append(b.kept, e)
	switch e.Kind {
	case EventStart:
		b.open = append(b.open, e.Node)
	case EventEnd:
		if n := len(b.open); n > 0 && b.open[n-1] == e.Node {
			b.open = b.open[:n-1]
		}
	case EventSoftBreak, EventHardBreak:
		b.inWord = false
	}
	if e.IsBlock() {
		b.inWord = false
	}
}

// countWords adds the words of s that start outside a word to count.
func countWords(s string, count int, inWord bool) (int, bool) {
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			inWord = false
		case !inWord:
			count++
			inWord = true
		}
	}
	return count, inWord
}

// cutText keeps the text of t up to where word number words+1 would start.
func cutText(t *ast.Text, source []byte, words int, inWord bool) (Event, bool) {
	value := t.Segment.Value(source)
	stop := len(value)
	for i, r := range string(value) {
		switch {
		case unicode.IsSpace(r):
			inWord = false
			continue
		case inWord:
			continue
		}
		if words == 0 {
			stop = i
			break
		}
		words--
		inWord = true
	}

	stop = len(bytes.TrimRightFunc(value[:stop], unicode.IsSpace))
	if stop == 0 {
		return Event{}, false
	}
	n := ast.NewTextSegment(text.NewSegment(t.Segment.Start, t.Segment.Start+stop))
	n.SetRaw(t.IsRaw())
	return Event{Kind: EventText, Node: n, Text: textValue(n, source)}, true
}

func describe(events []Event) string {
	var b strings.Builder
	for _, e := range events {
		switch e.Kind {
		case EventText, EventCode, EventFootnoteReference:
			b.WriteString(e.Text)
		case EventSoftBreak:
			b.WriteString("  ")
		}
	}
	return b.String()
}
