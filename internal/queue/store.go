package queue

import "fitsync/internal/fit"

// queueStore abstracts where queued changes live.
// Concurrency is managed by the caller (Queue.mu), so stores
// do not need to be safe for concurrent use.
type queueStore interface {
	// Append adds a change to the end of the queue.
	Append(change fit.PendingChange) error

	// RemoveKey removes the change with the given key, whatever its seq.
	RemoveKey(key fit.ChangeKey) (removed bool, err error)

	// RemoveSeq removes the change with the given key only if it still
	// carries seq. A newer change for the same key is left in place.
	RemoveSeq(key fit.ChangeKey, seq uint64) (removed bool, err error)

	// List returns the queued changes in order.
	List() ([]fit.PendingChange, error)

	// Len returns the number of queued changes.
	Len() (int, error)
}
