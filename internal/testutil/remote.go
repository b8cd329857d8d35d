package testutil

import (
	"context"
	"fmt"
	"sync"

	"fitsync/internal/fit"
	"fitsync/internal/remote"
)

// NewTestRemote creates a remote service over an in-memory record store.
func NewTestRemote() (*remote.Service, *remote.MemoryRecordStore) {
	store := remote.NewMemoryRecordStore()
	return remote.NewService(store, "test-user", nil, FixedClock(), NewStubIDGenerator()), store
}

// FlakyRemote wraps a RemoteService and can be switched offline, or made to
// fail with a server error. It counts the write calls that got through.
type FlakyRemote struct {
	inner fit.RemoteService

	mu      sync.Mutex
	offline bool
	failing bool
	failOps map[string]bool
	writes  int
}

var _ fit.RemoteService = (*FlakyRemote)(nil)

func NewFlakyRemote(inner fit.RemoteService) *FlakyRemote {
	return &FlakyRemote{inner: inner}
}

// SetOffline makes every call fail with fit.ErrUnreachable.
func (f *FlakyRemote) SetOffline(offline bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = offline
}

// SetFailing makes every call fail with fit.ErrRemoteFailure.
func (f *FlakyRemote) SetFailing(failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = failing
}

// FailOp makes only the named operation (e.g. "upsert workout") fail with
// fit.ErrRemoteFailure.
func (f *FlakyRemote) FailOp(op string, failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOps == nil {
		f.failOps = make(map[string]bool)
	}
	f.failOps[op] = failing
}

// Writes returns the number of successful write calls.
func (f *FlakyRemote) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *FlakyRemote) check(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case f.offline:
		return fmt.Errorf("%s: %w", op, fit.ErrUnreachable)
	case f.failing, f.failOps[op]:
		return fmt.Errorf("%s: %w", op, fit.ErrRemoteFailure)
	}
	return nil
}

func (f *FlakyRemote) wrote(err error) {
	if err != nil {
		return
	}
	f.mu.Lock()
	f.writes++
	f.mu.Unlock()
}

func (f *FlakyRemote) GetProfile(ctx context.Context) (*fit.Profile, error) {
	if err := f.check("get profile"); err != nil {
		return nil, err
	}
	return f.inner.GetProfile(ctx)
}

func (f *FlakyRemote) UpdateProfile(ctx context.Context, currentWeight float64) (*fit.Profile, error) {
	if err := f.check("update profile"); err != nil {
		return nil, err
	}
	p, err := f.inner.UpdateProfile(ctx, currentWeight)
	f.wrote(err)
	return p, err
}

func (f *FlakyRemote) GetWeightEntries(ctx context.Context) ([]fit.WeightEntry, error) {
	if err := f.check("get weights"); err != nil {
		return nil, err
	}
	return f.inner.GetWeightEntries(ctx)
}

func (f *FlakyRemote) AddWeightEntry(ctx context.Context, date string, weight float64) (*fit.WeightEntry, error) {
	if err := f.check("add weight"); err != nil {
		return nil, err
	}
	e, err := f.inner.AddWeightEntry(ctx, date, weight)
	f.wrote(err)
	return e, err
}

func (f *FlakyRemote) GetWorkoutEntries(ctx context.Context) ([]fit.WorkoutEntry, error) {
	if err := f.check("get workouts"); err != nil {
		return nil, err
	}
	return f.inner.GetWorkoutEntries(ctx)
}

func (f *FlakyRemote) UpsertWorkoutEntry(ctx context.Context, date string, entry fit.WorkoutEntry) (*fit.WorkoutEntry, error) {
	if err := f.check("upsert workout"); err != nil {
		return nil, err
	}
	e, err := f.inner.UpsertWorkoutEntry(ctx, date, entry)
	f.wrote(err)
	return e, err
}

func (f *FlakyRemote) DeleteWorkoutEntry(ctx context.Context, date string) error {
	if err := f.check("delete workout"); err != nil {
		return err
	}
	err := f.inner.DeleteWorkoutEntry(ctx, date)
	f.wrote(err)
	return err
}

func (f *FlakyRemote) CheckConnection(ctx context.Context) bool {
	if f.check("check connection") != nil {
		return false
	}
	return f.inner.CheckConnection(ctx)
}
