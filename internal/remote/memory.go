package remote

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"fitsync/internal/fit"
)

// MemoryRecordStore keeps records in memory. Safe for concurrent use.
type MemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string]map[string][]byte // collection -> key -> body
}

var _ RecordStore = (*MemoryRecordStore)(nil)

func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{records: make(map[string]map[string][]byte)}
}

func (m *MemoryRecordStore) Put(ctx context.Context, collection, key string, body []byte) error {
	if !validKey(key) {
		return fmt.Errorf("invalid record key %q: %w", key, fit.ErrRemoteFailure)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.records[collection]
	if !ok {
		c = make(map[string][]byte)
		m.records[collection] = c
	}
	data := make([]byte, len(body))
	copy(data, body)
	c[key] = data
	return nil
}

func (m *MemoryRecordStore) Get(ctx context.Context, collection, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.records[collection][key]
	if !ok {
		return nil, fmt.Errorf("record %s/%s: %w", collection, key, fit.ErrNotFound)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemoryRecordStore) List(ctx context.Context, collection, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.records[collection] {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryRecordStore) Delete(ctx context.Context, collection, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records[collection], key)
	return nil
}

func (m *MemoryRecordStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len returns the number of records in collection.
func (m *MemoryRecordStore) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records[collection])
}
