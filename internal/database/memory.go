package database

import (
	"fmt"
	"sync"

	"fitsync/internal/fit"
)

// MemoryStore is a fit.LocalStore held in memory. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte

	// FailWrites makes every Set fail, to simulate a full or broken disk.
	FailWrites bool
}

var _ fit.LocalStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.entries[key]
	if !ok {
		return nil, fmt.Errorf("key %s: %w", key, fit.ErrNotFound)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return fmt.Errorf("writing key %s: %w", key, fit.ErrPersistence)
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.entries[key] = v
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
