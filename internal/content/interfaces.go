package content

import (
	"blogpress/internal/blog"
	"blogpress/internal/storage"
	"context"
	"io"

	"github.com/gofrs/uuid/v5"
)

// BlogSink receives imported sources.
type BlogSink interface {
	Put(ctx context.Context, id uuid.UUID, in blog.Input) (*storage.Blog, bool, error)
}

// Uploader is a writable source provider.
type Uploader interface {
	Exists(ctx context.Context, key string) bool
	Save(ctx context.Context, key string, body io.ReadSeeker) error
}
