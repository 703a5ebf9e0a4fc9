package markdown

import (
	"strings"

	"github.com/yuin/goldmark/ast"
)

// extractTitle consumes the opening heading from next. It returns the
// heading text together with the events it consumed so they can be
// rendered.
func extractTitle(next func() (Event, bool)) (string, []Event, error) {
	first, ok := next()
	if !ok || first.Kind != EventStart {
		return "", nil, ErrInvalidTitle
	}
	if h, ok := first.Node.(*ast.Heading); !ok || h.Level != 1 {
		return "", nil, ErrInvalidTitle
	}

	consumed := []Event{first}
	var title strings.Builder
	for {
		e, ok := next()
		if !ok {
			return "", nil, ErrInvalidTitle
		}
		consumed = append(consumed, e)

		switch {
		case e.Kind == EventEnd && e.Node == first.Node:
			if title.Len() == 0 {
				return "", nil, ErrInvalidTitle
			}
			return title.String(), consumed, nil
		case e.Kind == EventText:
			title.WriteString(e.Text)
		default:
			return "", nil, ErrInvalidTitle
		}
	}
}
