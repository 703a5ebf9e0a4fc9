package markdown

import (
	"bytes"
	"iter"
	"strconv"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

type EventKind uint8

const (
	EventStart EventKind = iota + 1
	EventEnd
	EventText
	EventCode
	EventSoftBreak
	EventHardBreak
	EventHTML
	EventFootnoteReference
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventEnd:
		return "end"
	case EventText:
		return "text"
	case EventCode:
		return "code"
	case EventSoftBreak:
		return "softbreak"
	case EventHardBreak:
		return "hardbreak"
	case EventHTML:
		return "html"
	case EventFootnoteReference:
		return "footnote"
	}
	return "unknown"
}

// Event is one step of the pre-order walk over a parsed document.
//
// Start and End wrap container nodes. Text, Code, HTML and FootnoteReference
// are leaves. A nil Node marks content owned by its container (code block
// lines, autolink labels) which the container renders itself, or literal HTML
// that replaces a subtree.
type Event struct {
	Kind EventKind
	Node ast.Node
	Text string
}

// IsBlock reports whether e opens or closes a block-level node.
func (e Event) IsBlock() bool {
	if e.Kind != EventStart && e.Kind != EventEnd {
		return false
	}
	return e.Node != nil && e.Node.Type() == ast.TypeBlock
}

// Is reports whether e belongs to a node of the given kind.
func (e Event) Is(kind ast.NodeKind) bool {
	return e.Node != nil && e.Node.Kind() == kind
}

// document is a parsed source.
type document struct {
	source []byte
	root   ast.Node
}

func parse(p parser.Parser, source []byte) *document {
	return &document{
		source: source,
		root:   p.Parse(text.NewReader(source)),
	}
}

// events flattens the tree. The walk stops as soon as the consumer does.
func (d *document) events() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		emit := func(events ...Event) ast.WalkStatus {
			for _, e := range events {
				if !yield(e) {
					return ast.WalkStop
				}
			}
			return ast.WalkContinue
		}

		_ = ast.Walk(d.root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
			if n.Kind() == ast.KindDocument {
				return ast.WalkContinue, nil
			}

			switch n := n.(type) {
			case *ast.Text:
				if !entering {
					return ast.WalkContinue, nil
				}
				events := []Event{{Kind: EventText, Node: n, Text: textValue(n, d.source)}}
				switch {
				case n.IsRaw():
					// goldmark writes no break after raw text
				case n.HardLineBreak():
					events = append(events, Event{Kind: EventHardBreak})
				case n.SoftLineBreak():
					events = append(events, Event{Kind: EventSoftBreak})
				}
				return emit(events...), nil

			case *ast.String:
				if !entering {
					return ast.WalkContinue, nil
				}
				return emit(Event{Kind: EventText, Node: n, Text: string(n.Value)}), nil

			case *ast.CodeSpan:
				if !entering {
					return ast.WalkContinue, nil
				}
				if emit(Event{Kind: EventCode, Node: n, Text: inlineText(n, d.source)}) == ast.WalkStop {
					return ast.WalkStop, nil
				}
				return ast.WalkSkipChildren, nil

			case *ast.RawHTML:
				if !entering {
					return ast.WalkContinue, nil
				}
				var buf bytes.Buffer
				for i := 0; i < n.Segments.Len(); i++ {
					seg := n.Segments.At(i)
					buf.Write(seg.Value(d.source))
				}
				return emit(Event{Kind: EventHTML, Node: n, Text: buf.String()}), nil

			case *east.FootnoteLink:
				if !entering {
					return ast.WalkContinue, nil
				}
				return emit(Event{Kind: EventFootnoteReference, Node: n, Text: strconv.Itoa(n.Index)}), nil
			}

			if !entering {
				return emit(Event{Kind: EventEnd, Node: n}), nil
			}

			events := []Event{{Kind: EventStart, Node: n}}
			events = append(events, d.ownedText(n)...)
			return emit(events...), nil
		})
	}
}

// ownedText returns the content events of nodes that render their own body.
func (d *document) ownedText(n ast.Node) []Event {
	var events []Event
	appendLines := func(lines *text.Segments) {
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			events = append(events, Event{Kind: EventText, Text: string(line.Value(d.source))})
		}
	}

	switch n := n.(type) {
	case *ast.FencedCodeBlock:
		appendLines(n.Lines())
	case *ast.CodeBlock:
		appendLines(n.Lines())
	case *ast.HTMLBlock:
		appendLines(n.Lines())
		if n.HasClosure() {
			events = append(events, Event{Kind: EventText, Text: string(n.ClosureLine.Value(d.source))})
		}
	case *ast.AutoLink:
		events = append(events, Event{Kind: EventText, Text: string(n.Label(d.source))})
	}
	return events
}

// textValue is the literal text of t with escapes and entity references
// resolved.
func textValue(t *ast.Text, source []byte) string {
	value := t.Segment.Value(source)
	if t.IsRaw() {
		return string(value)
	}
	return string(util.UnescapePunctuations(util.ResolveNumericReferences(util.ResolveEntityNames(value))))
}

func inlineText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			buf.Write(c.Segment.Value(source))
		case *ast.String:
			buf.Write(c.Value)
		}
	}
	return buf.String()
}
