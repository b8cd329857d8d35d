package fit

import "context"

// ProfileService reads and writes the singleton profile record.
type ProfileService interface {
	// GetProfile returns the profile, or nil with no error when none exists yet.
	GetProfile(ctx context.Context) (*Profile, error)

	// UpdateProfile upserts the profile's current weight snapshot.
	UpdateProfile(ctx context.Context, currentWeight float64) (*Profile, error)
}

// WeightService manages the weight entries collection.
type WeightService interface {
	// GetWeightEntries returns all weight entries ordered by date ascending.
	GetWeightEntries(ctx context.Context) ([]WeightEntry, error)

	// AddWeightEntry upserts the weight for date. Repeated calls for the same
	// date replace the stored weight.
	AddWeightEntry(ctx context.Context, date string, weight float64) (*WeightEntry, error)
}

// WorkoutService manages the workout entries collection.
type WorkoutService interface {
	// GetWorkoutEntries returns all workout entries ordered by date ascending.
	GetWorkoutEntries(ctx context.Context) ([]WorkoutEntry, error)

	// UpsertWorkoutEntry stores the workout for date, merging with any existing
	// row for the same date. The returned entry carries the server id, which
	// is assigned on first write and preserved afterwards.
	UpsertWorkoutEntry(ctx context.Context, date string, entry WorkoutEntry) (*WorkoutEntry, error)

	// DeleteWorkoutEntry removes the workout for date. Deleting an absent
	// date is not an error.
	DeleteWorkoutEntry(ctx context.Context, date string) error
}

// RemoteService is the remote record store addressed by the fixed user id.
// Failures wrap ErrUnreachable, ErrRemoteFailure or ErrNotFound.
type RemoteService interface {
	ProfileService
	WeightService
	WorkoutService

	// CheckConnection issues a minimal read and reports whether it succeeded.
	// It never returns an error.
	CheckConnection(ctx context.Context) bool
}

// ConnectivityEvent is an edge-triggered reachability transition.
type ConnectivityEvent int

const (
	WentOffline ConnectivityEvent = iota
	WentOnline
)

func (e ConnectivityEvent) String() string {
	if e == WentOnline {
		return "online"
	}
	return "offline"
}

// Connectivity is the signal source the Orchestrator consults before
// attempting remote writes.
type Connectivity interface {
	Online() bool
}

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }
