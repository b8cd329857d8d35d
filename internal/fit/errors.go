package fit

import "errors"

// Remote and persistence failure kinds. Implementations wrap these with %w
// so callers classify failures with errors.Is.
var (
	// ErrUnreachable means there is no network path to the remote service.
	ErrUnreachable = errors.New("remote service unreachable")

	// ErrRemoteFailure means the remote was reached but the operation failed.
	ErrRemoteFailure = errors.New("remote operation failed")

	// ErrNotFound means the requested record or key does not exist.
	ErrNotFound = errors.New("not found")

	// ErrPersistence means the local store could not read or write a key.
	ErrPersistence = errors.New("local persistence failure")
)

// Errors returned by Orchestrator mutations.
var (
	ErrInvalidWeight     = errors.New("weight must be a positive number")
	ErrNotConfirmed      = errors.New("action not confirmed")
	ErrNoRunningWorkout  = errors.New("no running workout for date")
	ErrWorkoutExists     = errors.New("workout already recorded for date")
	ErrWorkoutNotPresent = errors.New("no workout recorded for date")
)

// IsOffline reports whether err is a connectivity failure rather than a
// failure of the operation itself.
func IsOffline(err error) bool {
	return errors.Is(err, ErrUnreachable)
}
