package markdown

import "errors"

var (
	// ErrInvalidTitle is returned when a document does not open with a
	// plain-text level 1 heading.
	ErrInvalidTitle = errors.New("document must start with a plain text h1 title")
	ErrRender       = errors.New("render failed")
)
