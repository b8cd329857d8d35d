package queue

import (
	"context"
	"fmt"
	"sync"

	"fitsync/internal/fit"
)

// Queue implements fit.PendingQueue on top of a pluggable queueStore.
// All coalescing and replay logic lives here.
type Queue struct {
	store queueStore
	mu    sync.Mutex
	seq   uint64
}

var _ fit.PendingQueue = (*Queue)(nil)

func newQueue(store queueStore) *Queue {
	q := &Queue{store: store}
	// Continue numbering after any restored changes.
	if changes, err := store.List(); err == nil {
		for _, c := range changes {
			q.seq = max(q.seq, c.Seq)
		}
	}
	return q
}

// Enqueue replaces any queued change for the same (type, date) with change.
func (q *Queue) Enqueue(change fit.PendingChange) error {
	if change.Type == "" || change.Date == "" {
		return fmt.Errorf("pending change requires a type and a date")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, err := q.store.RemoveKey(change.Key()); err != nil {
		return fmt.Errorf("removing superseded change: %w", err)
	}

	q.seq++
	change.Seq = q.seq
	if err := q.store.Append(change); err != nil {
		return fmt.Errorf("appending change: %w", err)
	}
	return nil
}

// Drain replays queued changes in order. fn is called outside the lock.
// A change is removed after fn succeeds unless a newer change for the same
// key was enqueued while fn ran; a failed change stays queued.
func (q *Queue) Drain(ctx context.Context, fn fit.ReplayFunc) (int, error) {
	q.mu.Lock()
	changes, err := q.store.List()
	q.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("listing changes: %w", err)
	}

	for _, c := range changes {
		if err := ctx.Err(); err != nil {
			break
		}
		if !q.current(c) {
			continue
		}
		if err := fn(ctx, c); err != nil {
			continue
		}

		q.mu.Lock()
		_, err := q.store.RemoveSeq(c.Key(), c.Seq)
		q.mu.Unlock()
		if err != nil {
			return 0, fmt.Errorf("removing replayed change: %w", err)
		}
	}

	remaining, err := q.Len()
	if err != nil {
		return 0, err
	}
	return remaining, ctx.Err()
}

// current reports whether c is still the queued change for its key.
func (q *Queue) current(c fit.PendingChange) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	changes, err := q.store.List()
	if err != nil {
		return false
	}
	for _, queued := range changes {
		if queued.Key() == c.Key() {
			return queued.Seq == c.Seq
		}
	}
	return false
}

// Remove drops the queued change for key, if any.
func (q *Queue) Remove(key fit.ChangeKey) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, err := q.store.RemoveKey(key); err != nil {
		return fmt.Errorf("removing change: %w", err)
	}
	return nil
}

// Changes returns a copy of the queued changes in replay order.
func (q *Queue) Changes() ([]fit.PendingChange, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.List()
}

// Len returns the number of queued changes.
func (q *Queue) Len() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.Len()
}

// Contains reports whether a change for key is queued.
func (q *Queue) Contains(key fit.ChangeKey) (bool, error) {
	changes, err := q.Changes()
	if err != nil {
		return false, err
	}
	for _, c := range changes {
		if c.Key() == key {
			return true, nil
		}
	}
	return false, nil
}
