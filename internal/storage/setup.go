package storage

import (
	"blogpress/internal/config"
	"fmt"
)

// NewProvider returns the markdown source provider named by cfg.
func NewProvider(cfg config.StorageConfig, sourcesDir string) (Provider, error) {
	switch cfg.Provider {
	case "local":
		return NewLocalStorage(sourcesDir), nil
	case "s3":
		s3, err := NewS3Store(cfg.S3)
		if err != nil {
			return nil, err
		}
		return s3, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}
