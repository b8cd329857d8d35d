package fit

import (
	"errors"
	"fmt"
	"testing"
)

// mapStore is a LocalStore whose reads and writes can be made to fail.
type mapStore struct {
	data       map[string][]byte
	failReads  bool
	failWrites bool
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string][]byte)}
}

func (m *mapStore) Get(key string) ([]byte, error) {
	if m.failReads {
		return nil, fmt.Errorf("read %s: %w", key, ErrPersistence)
	}
	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return v, nil
}

func (m *mapStore) Set(key string, value []byte) error {
	if m.failWrites {
		return fmt.Errorf("write %s: %w", key, ErrPersistence)
	}
	m.data[key] = value
	return nil
}

func (m *mapStore) Close() error { return nil }

func TestLocalCache_Defaults(t *testing.T) {
	c := NewLocalCache(newMapStore(), nil)

	if got := c.CurrentWeight(DefaultWeight); got != 105.0 {
		t.Errorf("CurrentWeight() = %v, want 105.0", got)
	}
	if got := c.WeightHistory(); len(got) != 0 {
		t.Errorf("WeightHistory() = %v, want empty", got)
	}
	if got := c.Workouts(); got == nil || len(got) != 0 {
		t.Errorf("Workouts() = %v, want empty map", got)
	}
}

func TestLocalCache_UnreadableValueFallsBack(t *testing.T) {
	store := newMapStore()
	store.data[KeyCurrentWeight] = []byte("not json")
	c := NewLocalCache(store, nil)

	if got := c.CurrentWeight(99); got != 99 {
		t.Errorf("CurrentWeight() = %v, want default 99", got)
	}
}

func TestLocalCache_WriteFailureKeepsSessionValue(t *testing.T) {
	store := newMapStore()
	store.failWrites = true
	c := NewLocalCache(store, nil)

	c.SetCurrentWeight(104.5)
	if got := c.CurrentWeight(DefaultWeight); got != 104.5 {
		t.Errorf("CurrentWeight() = %v, want 104.5", got)
	}

	store.failReads = true
	if got := c.CurrentWeight(DefaultWeight); got != 104.5 {
		t.Errorf("CurrentWeight() with failing reads = %v, want 104.5", got)
	}
}

func TestLocalCache_WriteFailureShadowsStoredValue(t *testing.T) {
	store := newMapStore()
	c := NewLocalCache(store, nil)
	c.SetCurrentWeight(101)
	c.SetWeightHistory([]WeightEntry{{Date: "2024-01-14", Weight: 101}})

	store.failWrites = true
	c.SetCurrentWeight(104.5)
	c.SetWeightHistory(upsertWeight(c.WeightHistory(), WeightEntry{Date: "2024-01-15", Weight: 104.5}))

	if got := c.CurrentWeight(DefaultWeight); got != 104.5 {
		t.Errorf("CurrentWeight() = %v, want 104.5", got)
	}
	history := c.WeightHistory()
	if len(history) != 2 || history[1] != (WeightEntry{Date: "2024-01-15", Weight: 104.5}) {
		t.Errorf("WeightHistory() = %v", history)
	}

	// Once writes succeed again the store becomes authoritative.
	store.failWrites = false
	c.SetCurrentWeight(103)
	store.data[KeyCurrentWeight] = []byte("102")
	if got := c.CurrentWeight(DefaultWeight); got != 102 {
		t.Errorf("CurrentWeight() after recovery = %v, want 102", got)
	}
}

func TestLocalCache_WeightHistorySorted(t *testing.T) {
	c := NewLocalCache(newMapStore(), nil)
	c.SetWeightHistory([]WeightEntry{
		{Date: "2024-01-15", Weight: 104},
		{Date: "2024-01-10", Weight: 106},
	})

	got := c.WeightHistory()
	if len(got) != 2 || got[0].Date != "2024-01-10" || got[1].Date != "2024-01-15" {
		t.Errorf("WeightHistory() = %v", got)
	}
}

func TestUpsertWeight(t *testing.T) {
	history := []WeightEntry{{Date: "2024-01-10", Weight: 106}, {Date: "2024-01-15", Weight: 104}}

	got := upsertWeight(history, WeightEntry{Date: "2024-01-10", Weight: 105})
	want := []WeightEntry{{Date: "2024-01-10", Weight: 105}, {Date: "2024-01-15", Weight: 104}}
	if len(got) != len(want) {
		t.Fatalf("upsertWeight() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("upsertWeight()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	got = upsertWeight(history, WeightEntry{Date: "2024-01-12", Weight: 105.5})
	if len(got) != 3 || got[1].Date != "2024-01-12" {
		t.Errorf("upsertWeight(new date) = %v", got)
	}
}

func TestIsOffline(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{fmt.Errorf("get: %w", ErrUnreachable), true},
		{fmt.Errorf("get: %w", ErrRemoteFailure), false},
		{errors.New("other"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsOffline(tt.err); got != tt.want {
			t.Errorf("IsOffline(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
