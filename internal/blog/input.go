package blog

import (
	"fmt"
	"strings"
)

// MaxPreviewBytes bounds a hand written preview.
const MaxPreviewBytes = 400

// Input is the markdown submitted for one blog. A nil Preview means the
// preview is extracted from Content.
type Input struct {
	Content string  `json:"content"`
	Preview *string `json:"preview,omitempty"`
}

func (in Input) Validate() error {
	if strings.TrimSpace(in.Content) == "" {
		return ErrEmptyContent
	}
	if in.Preview == nil {
		return nil
	}
	if strings.TrimSpace(*in.Preview) == "" {
		return ErrEmptyPreview
	}
	if n := len(*in.Preview); n > MaxPreviewBytes {
		return fmt.Errorf("%w: %d bytes, at most %d allowed", ErrPreviewTooLong, n, MaxPreviewBytes)
	}
	return nil
}

func (in Input) previewSource() string {
	if in.Preview != nil {
		return *in.Preview
	}
	return in.Content
}
