package database

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"fitsync/internal/fit"
)

// FileStore is a fit.LocalStore that keeps one JSON file per key:
//
//	<dir>/
//	  <escaped key>.json
type FileStore struct {
	dir string
}

var _ fit.LocalStore = (*FileStore)(nil)

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+".json")
}

func (f *FileStore) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("key %s: %w", key, fit.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading key %s: %w: %v", key, fit.ErrPersistence, err)
	}
	return data, nil
}

// Set replaces the file for key atomically (temp file + rename).
func (f *FileStore) Set(key string, value []byte) error {
	if err := writeFileAtomic(f.path(key), bytes.NewReader(value), int64(len(value))); err != nil {
		return fmt.Errorf("writing key %s: %w: %v", key, fit.ErrPersistence, err)
	}
	return nil
}

func (f *FileStore) Close() error {
	return nil
}

func writeFileAtomic(destPath string, r io.Reader, size int64) error {
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	done := false
	defer func() {
		if !done {
			os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if n != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, n)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	done = true
	return nil
}
