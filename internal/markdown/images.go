package markdown

import (
	"blogpress/internal/orderedset"
	"bytes"
	"iter"

	"github.com/yuin/goldmark/ast"
)

// ImageInjector decides which image URLs are rewritten and how.
type ImageInjector interface {
	IsValid(url string) bool
	Inject(url string) string
}

// collectImages rewrites the destination of every inline image accepted by
// injector and records its original URL in found.
func collectImages(events iter.Seq[Event], doc *document, injector ImageInjector, found *orderedset.Set[string]) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		scan := imageScanner{source: doc.source}
		for e := range events {
			scan.observe(e)
			if injector != nil && e.Kind == EventStart {
				if img, ok := e.Node.(*ast.Image); ok && scan.isInline(img) {
					url := string(img.Destination)
					if injector.IsValid(url) {
						found.Insert(url)
						img.Destination = []byte(injector.Inject(url))
					}
				}
			}
			if !yield(e) {
				return
			}
		}
	}
}

// imageScanner tells ![alt](dest) images apart from ones resolved through a
// link reference definition. It has to see the events in document order.
type imageScanner struct {
	source []byte
	// cursor is a source offset no later than the next image's "![".
	cursor int
}

func (s *imageScanner) observe(e Event) {
	switch {
	case e.Kind == EventStart && e.IsBlock():
		if lines := e.Node.Lines(); lines.Len() > 0 {
			s.cursor = lines.At(0).Start
		}
	case e.Kind == EventText:
		if t, ok := e.Node.(*ast.Text); ok {
			s.cursor = t.Segment.Stop
		}
	}
}

func (s *imageScanner) isInline(img *ast.Image) bool {
	label, ok := altStop(img)
	if !ok {
		// empty alt, so the label closes right after the opener
		if s.cursor > len(s.source) {
			return false
		}
		i := bytes.Index(s.source[s.cursor:], []byte("!["))
		if i < 0 {
			return false
		}
		label = s.cursor + i + len("![")
		s.cursor = label
	}

	i := bytes.IndexByte(s.source[label:], ']')
	if i < 0 {
		return false
	}
	next := label + i + 1
	return next < len(s.source) && s.source[next] == '('
}

// altStop is the source offset right after the last alt text segment.
func altStop(img *ast.Image) (int, bool) {
	var n ast.Node = img
	for n.LastChild() != nil {
		n = n.LastChild()
	}
	if t, ok := n.(*ast.Text); ok {
		return t.Segment.Stop, true
	}
	return 0, false
}
