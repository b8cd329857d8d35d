package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fitsync/internal/fit"
)

func newStores(t *testing.T) map[string]fit.LocalStore {
	t.Helper()

	sqlite, err := NewSQLiteStore(":memory:", nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	file, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	return map[string]fit.LocalStore{
		"sqlite": sqlite,
		"file":   file,
		"memory": NewMemoryStore(),
	}
}

func TestLocalStore_GetMissing(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(fit.KeyCurrentWeight)
			if !errors.Is(err, fit.ErrNotFound) {
				t.Errorf("Get() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestLocalStore_SetGet(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Set(fit.KeyCurrentWeight, []byte("104.5")); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := s.Set(fit.KeyCurrentWeight, []byte("104")); err != nil {
				t.Fatalf("second Set() error = %v", err)
			}

			got, err := s.Get(fit.KeyCurrentWeight)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(got) != "104" {
				t.Errorf("Get() = %q, want %q", got, "104")
			}
		})
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "user.db")

	s, err := NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := s.Set(fit.KeyWorkoutData, []byte(`{}`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	s.Close()

	reopened, err := NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(fit.KeyWorkoutData)
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if string(got) != `{}` {
		t.Errorf("Get() = %q, want %q", got, `{}`)
	}
}

func TestSQLiteStore_KeysAndUpdatedAt(t *testing.T) {
	clock := &stepClock{now: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)}
	s, err := NewSQLiteStore(":memory:", clock)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()

	missing, err := s.UpdatedAt("nope")
	if err != nil || missing != nil {
		t.Errorf("UpdatedAt(missing) = %v, %v; want nil, nil", missing, err)
	}

	s.Set(fit.KeyWeightHistory, []byte(`[]`))
	clock.now = clock.now.Add(time.Hour)
	s.Set(fit.KeyCurrentWeight, []byte(`105`))

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 2 || keys[0] != fit.KeyCurrentWeight || keys[1] != fit.KeyWeightHistory {
		t.Errorf("Keys() = %v", keys)
	}

	at, err := s.UpdatedAt(fit.KeyCurrentWeight)
	if err != nil {
		t.Fatalf("UpdatedAt() error = %v", err)
	}
	if at == nil || !at.Equal(clock.Now()) {
		t.Errorf("UpdatedAt() = %v, want %v", at, clock.Now())
	}
}

func TestFileStore_EscapesKeys(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	if err := s.Set("a/b", []byte("1")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a%2Fb.json")); err != nil {
		t.Errorf("expected escaped file name: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			t.Errorf("leftover file %s", e.Name())
		}
	}
}

func TestMemoryStore_FailWrites(t *testing.T) {
	s := NewMemoryStore()
	s.FailWrites = true

	err := s.Set("k", []byte("v"))
	if !errors.Is(err, fit.ErrPersistence) {
		t.Errorf("Set() error = %v, want ErrPersistence", err)
	}
}

// stepClock is a settable fit.Clock. testutil cannot be imported here
// because it depends on this package.
type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }
