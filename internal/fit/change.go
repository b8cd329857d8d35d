package fit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ChangeType identifies which collection a pending change targets.
type ChangeType string

const (
	ChangeWeight  ChangeType = "weight"
	ChangeWorkout ChangeType = "workout"
)

// ChangeOp is the kind of mutation to replay.
type ChangeOp string

const (
	OpUpsert ChangeOp = "upsert"
	OpDelete ChangeOp = "delete"
)

// PendingChange is a mutation applied locally but not yet confirmed by the
// remote service. At most one exists per (Type, Date).
type PendingChange struct {
	Type     ChangeType      `json:"type"`
	Date     string          `json:"date"`
	Op       ChangeOp        `json:"op"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Seq      uint64          `json:"seq"`
	QueuedAt time.Time       `json:"queued_at"`
}

// ChangeKey is the coalescing key of a pending change.
type ChangeKey struct {
	Type ChangeType
	Date string
}

func (c PendingChange) Key() ChangeKey {
	return ChangeKey{Type: c.Type, Date: c.Date}
}

// NewWeightChange builds an upsert change for a weight entry.
func NewWeightChange(entry WeightEntry) (PendingChange, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return PendingChange{}, fmt.Errorf("encoding weight change: %w", err)
	}
	return PendingChange{Type: ChangeWeight, Date: entry.Date, Op: OpUpsert, Payload: payload}, nil
}

// NewWorkoutChange builds an upsert change for a workout entry.
func NewWorkoutChange(entry WorkoutEntry) (PendingChange, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return PendingChange{}, fmt.Errorf("encoding workout change: %w", err)
	}
	return PendingChange{Type: ChangeWorkout, Date: entry.Date, Op: OpUpsert, Payload: payload}, nil
}

// NewWorkoutDelete builds a delete change for the workout on date.
func NewWorkoutDelete(date string) PendingChange {
	return PendingChange{Type: ChangeWorkout, Date: date, Op: OpDelete}
}

// WeightEntry decodes the payload of a weight change.
func (c PendingChange) WeightEntry() (WeightEntry, error) {
	var e WeightEntry
	if err := json.Unmarshal(c.Payload, &e); err != nil {
		return WeightEntry{}, fmt.Errorf("decoding weight change for %s: %w", c.Date, err)
	}
	return e, nil
}

// WorkoutEntry decodes the payload of a workout upsert.
func (c PendingChange) WorkoutEntry() (WorkoutEntry, error) {
	var e WorkoutEntry
	if err := json.Unmarshal(c.Payload, &e); err != nil {
		return WorkoutEntry{}, fmt.Errorf("decoding workout change for %s: %w", c.Date, err)
	}
	return e, nil
}

// ReplayFunc replays one change against the remote service.
// Returning nil confirms the change.
type ReplayFunc func(ctx context.Context, change PendingChange) error

// PendingQueue is the ordered, coalescing queue of unconfirmed mutations.
type PendingQueue interface {
	// Enqueue removes any change with the same key and appends change.
	Enqueue(change PendingChange) error

	// Drain replays every queued change in order. Changes whose replay
	// succeeds are removed unless a newer change for the same key was
	// enqueued meanwhile; failed changes stay queued. It returns the number
	// of changes left in the queue.
	Drain(ctx context.Context, fn ReplayFunc) (int, error)

	// Remove drops the queued change for key, if any.
	Remove(key ChangeKey) error

	// Changes returns a copy of the queued changes in replay order.
	Changes() ([]PendingChange, error)

	// Len returns the number of queued changes.
	Len() (int, error)
}
