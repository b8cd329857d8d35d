package remote

import (
	"context"
	"time"

	"fitsync/internal/fit"
)

// timeoutService bounds every call to the wrapped service.
type timeoutService struct {
	next    fit.RemoteService
	timeout time.Duration
}

// WithTimeout wraps svc so that each call gets its own deadline of d.
func WithTimeout(svc fit.RemoteService, d time.Duration) fit.RemoteService {
	if d <= 0 {
		return svc
	}
	return &timeoutService{next: svc, timeout: d}
}

func (t *timeoutService) GetProfile(ctx context.Context) (*fit.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.GetProfile(ctx)
}

func (t *timeoutService) UpdateProfile(ctx context.Context, currentWeight float64) (*fit.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.UpdateProfile(ctx, currentWeight)
}

func (t *timeoutService) GetWeightEntries(ctx context.Context) ([]fit.WeightEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.GetWeightEntries(ctx)
}

func (t *timeoutService) AddWeightEntry(ctx context.Context, date string, weight float64) (*fit.WeightEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.AddWeightEntry(ctx, date, weight)
}

func (t *timeoutService) GetWorkoutEntries(ctx context.Context) ([]fit.WorkoutEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.GetWorkoutEntries(ctx)
}

func (t *timeoutService) UpsertWorkoutEntry(ctx context.Context, date string, entry fit.WorkoutEntry) (*fit.WorkoutEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.UpsertWorkoutEntry(ctx, date, entry)
}

func (t *timeoutService) DeleteWorkoutEntry(ctx context.Context, date string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.DeleteWorkoutEntry(ctx, date)
}

func (t *timeoutService) CheckConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.CheckConnection(ctx)
}
