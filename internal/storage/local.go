package storage

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

type LocalStore struct {
	basePath string
}

var _ Provider = (*LocalStore)(nil)

func NewLocalStorage(basePath string) *LocalStore {
	return &LocalStore{basePath: basePath}
}

// Open refuses keys that escape the base directory.
func (l *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	return os.OpenInRoot(l.basePath, filepath.FromSlash(key))
}

// Exists takes a key and returns true if the file exists and can be opened
func (l *LocalStore) Exists(ctx context.Context, key string) bool {
	f, err := l.Open(ctx, filepath.Clean(key))
	if err != nil {
		return false
	}
	defer f.Close()
	return true
}

func (l *LocalStore) List(ctx context.Context, suffix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(l.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
			return nil
		}
		rel, err := filepath.Rel(l.basePath, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(keys)
	return keys, nil
}
