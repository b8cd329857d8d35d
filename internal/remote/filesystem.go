package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fitsync/internal/fit"
)

// FileSystemRecordStore keeps one file per record:
//
//	<root>/
//	  <collection>/
//	    <key>.json     (key segments become directories)
//
// It is useful for a remote on a mounted network share or a synced folder.
type FileSystemRecordStore struct {
	root string
}

var _ RecordStore = (*FileSystemRecordStore)(nil)

// NewFileSystemRecordStore creates the collection directories under root.
func NewFileSystemRecordStore(root string) (*FileSystemRecordStore, error) {
	for _, c := range []string{CollectionProfiles, CollectionWeights, CollectionWorkouts} {
		if err := os.MkdirAll(filepath.Join(root, c), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", c, err)
		}
	}
	return &FileSystemRecordStore{root: root}, nil
}

func (f *FileSystemRecordStore) path(collection, key string) string {
	return filepath.Join(f.root, collection, filepath.FromSlash(key)+".json")
}

func (f *FileSystemRecordStore) Put(ctx context.Context, collection, key string, body []byte) error {
	if !validKey(key) {
		return fmt.Errorf("invalid record key %q: %w", key, fit.ErrRemoteFailure)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("put %s/%s: %w: %v", collection, key, fit.ErrUnreachable, err)
	}

	// Never recreate a root that has gone away.
	if err := f.Ping(ctx); err != nil {
		return err
	}

	dest := f.path(collection, key)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return f.classify("put", collection, key, err)
	}
	if err := writeFile(dest, bytes.NewReader(body), int64(len(body))); err != nil {
		return f.classify("put", collection, key, err)
	}
	return nil
}

func (f *FileSystemRecordStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	if !validKey(key) {
		return nil, fmt.Errorf("invalid record key %q: %w", key, fit.ErrRemoteFailure)
	}
	var buf bytes.Buffer
	if err := readFile(f.path(collection, key), &buf); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("record %s/%s: %w", collection, key, fit.ErrNotFound)
		}
		return nil, f.classify("get", collection, key, err)
	}
	return buf.Bytes(), nil
}

func (f *FileSystemRecordStore) List(ctx context.Context, collection, prefix string) ([]string, error) {
	base := filepath.Join(f.root, collection)
	var keys []string
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".json") {
			return nil
		}
		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		key := strings.TrimSuffix(filepath.ToSlash(rel), ".json")
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, f.classify("list", collection, prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *FileSystemRecordStore) Delete(ctx context.Context, collection, key string) error {
	if !validKey(key) {
		return fmt.Errorf("invalid record key %q: %w", key, fit.ErrRemoteFailure)
	}
	err := os.Remove(f.path(collection, key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return f.classify("delete", collection, key, err)
	}
	return nil
}

// Ping verifies the root is still an accessible directory. A share that
// has been unmounted reports as unreachable.
func (f *FileSystemRecordStore) Ping(ctx context.Context) error {
	info, err := os.Stat(f.root)
	if err != nil {
		return fmt.Errorf("record store root: %w: %v", fit.ErrUnreachable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("record store root is not a directory: %s: %w", f.root, fit.ErrRemoteFailure)
	}
	return nil
}

func (f *FileSystemRecordStore) classify(op, collection, key string, err error) error {
	if _, statErr := os.Stat(f.root); statErr != nil {
		return fmt.Errorf("%s %s/%s: %w: %v", op, collection, key, fit.ErrUnreachable, err)
	}
	return fmt.Errorf("%s %s/%s: %w: %v", op, collection, key, fit.ErrRemoteFailure, err)
}

// writeFile writes r to destPath via a temp file in the same directory and
// a rename, so readers never see a partial record.
func writeFile(destPath string, r io.Reader, expectedSize int64) error {
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

func readFile(srcPath string, w io.Writer) error {
	file, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := io.Copy(w, file); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return nil
}
