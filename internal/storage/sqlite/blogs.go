package sqlite

import (
	"blogpress/internal/storage"
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jmoiron/sqlx"
)

const blogColumns = `id, title, content, preview_source, html, preview, description, main_image, created_at, updated_at`

func (s *Store) CreateBlog(ctx context.Context, blog *storage.Blog) (*storage.Blog, error) {
	query := `INSERT INTO blogs (id, title, content, preview_source, html, preview, description, main_image)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, query,
			blog.ID, blog.Title, blog.Content, blog.PreviewSource,
			blog.HTML, blog.Preview, blog.Description, blog.MainImage,
		); err != nil {
			return err
		}
		return insertImages(ctx, tx, blog.ID, blog.Images)
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create blog %q: %w", blog.Title, mapSqlError(err))
	}

	return s.GetBlog(ctx, blog.ID)
}

func (s *Store) UpdateBlog(ctx context.Context, blog *storage.Blog) (*storage.Blog, error) {
	query := `UPDATE blogs SET title = ?, content = ?, preview_source = ?, html = ?,
			preview = ?, description = ?, main_image = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL`

	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			blog.Title, blog.Content, blog.PreviewSource, blog.HTML,
			blog.Preview, blog.Description, blog.MainImage, blog.ID,
		)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return storage.ErrNotFound
		}
		return replaceImages(ctx, tx, blog.ID, blog.Images)
	})
	if err != nil {
		return nil, fmt.Errorf("cannot update blog %s: %w", blog.ID, mapSqlError(err))
	}

	return s.GetBlog(ctx, blog.ID)
}

func (s *Store) UpdateBlogHTML(ctx context.Context, id uuid.UUID, html string, mainImage *string, images []string) error {
	query := `UPDATE blogs SET html = ?, main_image = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL`

	err := s.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query, html, mainImage, id)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return storage.ErrNotFound
		}
		return replaceImages(ctx, tx, id, images)
	})
	if err != nil {
		return fmt.Errorf("cannot update html of blog %s: %w", id, mapSqlError(err))
	}
	return nil
}

func (s *Store) GetBlog(ctx context.Context, id uuid.UUID) (*storage.Blog, error) {
	query := `SELECT ` + blogColumns + ` FROM blogs
		WHERE id = ? AND deleted_at IS NULL
		LIMIT 1`

	var blog storage.Blog
	if err := s.db.GetContext(ctx, &blog, query, id); err != nil {
		return nil, fmt.Errorf("cannot find blog %s: %w", id, mapSqlError(err))
	}

	images := []string{}
	if err := s.db.SelectContext(ctx, &images, `SELECT url FROM blog_images WHERE blog_id = ? ORDER BY position`, id); err != nil {
		return nil, fmt.Errorf("cannot load images of blog %s: %w", id, mapSqlError(err))
	}
	blog.Images = images

	return &blog, nil
}

func (s *Store) ListBlogs(ctx context.Context, offset, limit int64) ([]*storage.BlogSummary, error) {
	query := `SELECT id, title, preview, description, main_image, created_at
		FROM blogs
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC, id
		LIMIT ?
		OFFSET ?`

	blogs := []*storage.BlogSummary{}
	if err := s.db.SelectContext(ctx, &blogs, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list blogs: %w", mapSqlError(err))
	}
	return blogs, nil
}

func (s *Store) ListBlogSources(ctx context.Context) ([]*storage.BlogSource, error) {
	var sources []*storage.BlogSource
	if err := s.db.SelectContext(ctx, &sources, `SELECT id, content FROM blogs WHERE deleted_at IS NULL ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list blog sources: %w", mapSqlError(err))
	}
	return sources, nil
}

func (s *Store) DeleteBlog(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE blogs SET deleted_at = CURRENT_TIMESTAMP
		WHERE id = ? AND deleted_at IS NULL`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("could not delete blog: %w", mapSqlError(err))
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func replaceImages(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, images []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM blog_images WHERE blog_id = ?`, id); err != nil {
		return err
	}
	return insertImages(ctx, tx, id, images)
}

func insertImages(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, images []string) error {
	for i, url := range images {
		if _, err := tx.ExecContext(ctx, `INSERT INTO blog_images (blog_id, position, url) VALUES (?, ?, ?)`, id, i, url); err != nil {
			return err
		}
	}
	return nil
}
