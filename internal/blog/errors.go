package blog

import (
	"blogpress/internal/markdown"
	"errors"
)

var (
	ErrInvalidTitle   = markdown.ErrInvalidTitle
	ErrNoPreview      = errors.New("no readable text to build a preview from")
	ErrEmptyContent   = errors.New("content must not be empty")
	ErrEmptyPreview   = errors.New("preview must not be empty")
	ErrPreviewTooLong = errors.New("preview is too long")
)

// IsInvalidInput reports whether err is caused by the submitted markdown
// rather than by the service.
func IsInvalidInput(err error) bool {
	for _, target := range []error{ErrInvalidTitle, ErrNoPreview, ErrEmptyContent, ErrEmptyPreview, ErrPreviewTooLong} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
