package sqlite

import (
	"blogpress/internal/storage"
	"context"
	"net/url"
	"strings"
	"testing"
)

func TestStoreImplementsInterface(t *testing.T) {
	t.Parallel()
	var _ storage.BlogStore = (*Store)(nil)
}

func TestNewStore(t *testing.T) {
	t.Parallel()
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()
	store := setupTestStore(t)

	if err := store.Migrate("../../../migrations"); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

func TestDSN(t *testing.T) {
	t.Parallel()
	tests := []struct {
		path     string
		wantBase string
	}{
		{path: "blogpress.db", wantBase: "blogpress.db"},
		{path: ":memory:", wantBase: ":memory:"},
		{path: "file:data.db?mode=rwc", wantBase: "file:data.db"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			base, query, ok := strings.Cut(dsn(tt.path), "?")
			if !ok || base != tt.wantBase {
				t.Fatalf("dsn(%q) = %q", tt.path, dsn(tt.path))
			}
			values, err := url.ParseQuery(query)
			if err != nil {
				t.Fatal(err)
			}
			if got := values["_pragma"]; len(got) != len(pragmas) || got[0] != "foreign_keys(1)" {
				t.Errorf("pragmas = %v", got)
			}
		})
	}
}
