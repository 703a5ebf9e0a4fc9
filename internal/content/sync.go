package content

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// SyncSources walks the local sources directory and uploads markdown files
// the remote store is missing. It returns how many files were uploaded.
func SyncSources(ctx context.Context, store Uploader, sourceDir string, logger *slog.Logger) (int, error) {
	logger.Info("starting source sync", "dir", sourceDir)

	root, err := os.OpenRoot(sourceDir)
	if err != nil {
		return 0, fmt.Errorf("could not open directory %s: %w", sourceDir, err)
	}
	defer root.Close()

	uploaded := 0
	err = fs.WalkDir(root.FS(), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(path), sourceSuffix) {
			return nil
		}

		key := filepath.ToSlash(path)
		if store.Exists(ctx, key) {
			return nil
		}

		logger.Info("syncing missing source to bucket", "key", key)

		file, err := root.Open(path)
		if err != nil {
			logger.Error("failed to open local file", "path", path, "err", err)
			return nil
		}
		defer file.Close()

		if err := store.Save(ctx, key, file); err != nil {
			logger.Error("failed to upload to bucket", "key", key, "err", err)
			return nil
		}
		uploaded++
		return nil
	})
	return uploaded, err
}
