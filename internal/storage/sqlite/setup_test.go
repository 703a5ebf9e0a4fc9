package sqlite

import (
	"blogpress/internal/storage"
	"path/filepath"
	"testing"

	"github.com/gofrs/uuid/v5"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test_blog.db")
	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate("../../../migrations"); err != nil {
		t.Fatalf("migration failed: %v", err)
	}
	return store
}

func newTestBlog(title string, images ...string) *storage.Blog {
	blog := &storage.Blog{
		ID:          uuid.Must(uuid.NewV4()),
		Title:       title,
		Content:     "# " + title + "\n\nbody",
		HTML:        "<h1>" + title + "</h1>\n<p>body</p>\n",
		Preview:     "<p>body</p>\n",
		Description: "body",
		Images:      images,
	}
	if len(images) > 0 {
		main := "http://localhost:3000/blogs/" + blog.ID.String() + "/public/" + images[0]
		blog.MainImage = &main
	}
	return blog
}
