package fit

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"sync"
)

// Local store keys. Values are JSON documents.
const (
	KeyCurrentWeight  = "currentWeight"
	KeyWeightHistory  = "weightHistory"
	KeyWorkoutData    = "workoutData"
	KeyFitnessGoals   = "fitnessGoals"
	KeyPendingChanges = "pendingChanges"
)

// LocalStore is durable key/value persistence on the device.
// Get returns an error wrapping ErrNotFound for a missing key.
// Each key is independently consistent; there are no cross-key transactions.
type LocalStore interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Close() error
}

// LocalCache is the total, non-throwing view of a LocalStore used by the rest
// of the application. Persistence failures are logged and degrade to the
// caller's default (or to the last value written this session); they never
// reach the caller.
type LocalCache struct {
	store  LocalStore
	logger Logger

	mu      sync.Mutex
	written map[string][]byte
}

// NewLocalCache wraps store. A nil logger discards warnings.
func NewLocalCache(store LocalStore, logger Logger) *LocalCache {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &LocalCache{
		store:   store,
		logger:  logger,
		written: make(map[string][]byte),
	}
}

// Get decodes the value stored at key, or returns def when the key is
// missing or cannot be read.
func Get[T any](c *LocalCache, key string, def T) T {
	data, ok := c.load(key)
	if !ok {
		return def
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("local value unreadable, using default", "key", key, "error", err)
		return def
	}
	return v
}

// Set encodes value and writes it to key. Failures are logged only.
func (c *LocalCache) Set(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("encoding local value", "key", key, "error", err)
		return
	}

	c.mu.Lock()
	c.written[key] = data
	c.mu.Unlock()

	if err := c.store.Set(key, data); err != nil {
		c.logger.Warn("saving local value", "key", key, "error", err)
		return
	}

	// Persisted; the store is authoritative again unless a newer write
	// landed in between.
	c.mu.Lock()
	if bytes.Equal(c.written[key], data) {
		delete(c.written, key)
	}
	c.mu.Unlock()
}

// load prefers a value written this session that the store failed to keep
// over whatever the store still holds.
func (c *LocalCache) load(key string) ([]byte, bool) {
	c.mu.Lock()
	data, ok := c.written[key]
	c.mu.Unlock()
	if ok {
		return data, true
	}

	data, err := c.store.Get(key)
	if err == nil {
		return data, true
	}
	if !errors.Is(err, ErrNotFound) {
		c.logger.Warn("reading local value", "key", key, "error", err)
	}
	return nil, false
}

// CurrentWeight returns the last known current weight, or def.
func (c *LocalCache) CurrentWeight(def float64) float64 {
	return Get(c, KeyCurrentWeight, def)
}

func (c *LocalCache) SetCurrentWeight(weight float64) {
	c.Set(KeyCurrentWeight, weight)
}

// WeightHistory returns the stored weight entries ordered by date.
func (c *LocalCache) WeightHistory() []WeightEntry {
	history := Get(c, KeyWeightHistory, []WeightEntry{})
	sortWeights(history)
	return history
}

func (c *LocalCache) SetWeightHistory(history []WeightEntry) {
	sortWeights(history)
	c.Set(KeyWeightHistory, history)
}

// Workouts returns the stored workouts keyed by date.
func (c *LocalCache) Workouts() map[string]WorkoutEntry {
	workouts := Get(c, KeyWorkoutData, map[string]WorkoutEntry{})
	if workouts == nil {
		workouts = map[string]WorkoutEntry{}
	}
	return workouts
}

func (c *LocalCache) SetWorkouts(workouts map[string]WorkoutEntry) {
	c.Set(KeyWorkoutData, workouts)
}

// Close closes the underlying store.
func (c *LocalCache) Close() error {
	return c.store.Close()
}

// upsertWeight replaces or appends the entry for entry.Date.
func upsertWeight(history []WeightEntry, entry WeightEntry) []WeightEntry {
	out := make([]WeightEntry, 0, len(history)+1)
	for _, e := range history {
		if e.Date != entry.Date {
			out = append(out, e)
		}
	}
	out = append(out, entry)
	sortWeights(out)
	return out
}

func sortWeights(history []WeightEntry) {
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date < history[j].Date
	})
}
