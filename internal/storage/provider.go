package storage

import (
	"context"
	"io"
)

// Provider serves markdown sources by key.
type Provider interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) bool
	// List returns every key ending in suffix, sorted.
	List(ctx context.Context, suffix string) ([]string, error)
}
