package storage

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
)

type BlogStore interface {
	CreateBlog(ctx context.Context, blog *Blog) (*Blog, error)
	UpdateBlog(ctx context.Context, blog *Blog) (*Blog, error)
	// UpdateBlogHTML replaces the compiled output of a blog and leaves its
	// sources alone.
	UpdateBlogHTML(ctx context.Context, id uuid.UUID, html string, mainImage *string, images []string) error
	GetBlog(ctx context.Context, id uuid.UUID) (*Blog, error)
	ListBlogs(ctx context.Context, offset, limit int64) ([]*BlogSummary, error)
	ListBlogSources(ctx context.Context) ([]*BlogSource, error)
	DeleteBlog(ctx context.Context, id uuid.UUID) error

	Close() error
}

var (
	ErrNotFound        = errors.New("record not found")
	ErrUniqueViolation = errors.New("unique constraint violation")
	ErrCheckViolation  = errors.New("check constraint violation")
)

type Blog struct {
	ID      uuid.UUID `db:"id" json:"id"`
	Title   string    `db:"title" json:"title"`
	Content string    `db:"content" json:"-"`
	// PreviewSource is the markdown the preview was extracted from when it
	// was written by hand. Nil means the preview comes from Content.
	PreviewSource *string    `db:"preview_source" json:"-"`
	HTML          string     `db:"html" json:"html"`
	Preview       string     `db:"preview" json:"preview"`
	Description   string     `db:"description" json:"description"`
	MainImage     *string    `db:"main_image" json:"main_image,omitempty"`
	Images        []string   `db:"-" json:"images"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

type BlogSummary struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Preview     string    `db:"preview" json:"preview"`
	Description string    `db:"description" json:"description"`
	MainImage   *string   `db:"main_image" json:"main_image,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// BlogSource is what recompiling a blog needs.
type BlogSource struct {
	ID      uuid.UUID `db:"id"`
	Content string    `db:"content"`
}
