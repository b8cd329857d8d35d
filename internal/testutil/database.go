package testutil

import (
	"testing"

	"fitsync/internal/database"
	"fitsync/internal/fit"
)

// NewTestLocalStore creates a new in-memory SQLite store with migrations applied.
// The store is automatically closed when the test completes.
func NewTestLocalStore(t *testing.T) *database.SQLiteStore {
	t.Helper()

	store, err := database.NewSQLiteStore(":memory:", FixedClock())
	if err != nil {
		t.Fatalf("failed to open local store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

// NewTestCache wraps a fresh in-memory SQLite store.
func NewTestCache(t *testing.T) *fit.LocalCache {
	t.Helper()
	return fit.NewLocalCache(NewTestLocalStore(t), nil)
}
