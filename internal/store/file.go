package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileKV stores each key as its own file under a directory.
type FileKV struct {
	dir string
}

// NewFileKV creates a file-backed store rooted at dir. The directory is
// created on first write.
func NewFileKV(dir string) *FileKV {
	return &FileKV{dir: dir}
}

func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, filepath.Base(key)+".json")
}

func (f *FileKV) Get(_ context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key)) // #nosec G304 -- key is sanitized with filepath.Base
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return string(data), true, nil
}

func (f *FileKV) Set(_ context.Context, key, value string) error {
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, filepath.Base(key)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache entry: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return fmt.Errorf("failed to replace cache entry: %w", err)
	}
	return nil
}

func (f *FileKV) Close() error { return nil }
