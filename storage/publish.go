package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Publish uploads every regular file under dir. Keys are paths relative to
// dir prefixed with prefix. Number of uploaded files is returned.
func Publish(ctx context.Context, a Adapter, dir, prefix string, log *zap.Logger) (int, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("unable to publish %s: %w", dir, err)
	}
	return PublishFiles(ctx, a, dir, files, prefix, log)
}

// PublishFiles uploads listed files, all of them must be located under dir.
// Used when dir is shared with output of other books.
func PublishFiles(ctx context.Context, a Adapter, dir string, files []string, prefix string, log *zap.Logger) (int, error) {
	prefix = strings.Trim(strings.ReplaceAll(prefix, "\\", "/"), "/")

	var count int
	for _, p := range files {
		if err := ctx.Err(); err != nil {
			return count, fmt.Errorf("unable to publish %s: %w", dir, err)
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return count, fmt.Errorf("unable to publish %s: %w", dir, err)
		}
		key := filepath.ToSlash(rel)
		if key == ".." || strings.HasPrefix(key, "../") {
			return count, fmt.Errorf("unable to publish %s: %s is outside", dir, p)
		}
		if len(prefix) > 0 {
			key = path.Join(prefix, key)
		}
		if err := putFile(ctx, a, key, p); err != nil {
			return count, fmt.Errorf("unable to publish %s: %w", dir, err)
		}
		log.Debug("Published", zap.String("file", p), zap.String("key", key))
		count++
	}
	return count, nil
}

func putFile(ctx context.Context, a Adapter, key, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return a.Put(ctx, key, f)
}
