package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"fitsync/internal/config"
	"fitsync/internal/connectivity"
	"fitsync/internal/database"
	"fitsync/internal/encryption"
	"fitsync/internal/fit"
	"fitsync/internal/goals"
	"fitsync/internal/queue"
	"fitsync/internal/remote"
	"fitsync/internal/stats"
)

// PassphraseFunc supplies the passphrase protecting the private key.
type PassphraseFunc func() (string, error)

// ErrKeysNotConfigured is returned when remote encryption is enabled but no
// key pair has been generated yet.
var ErrKeysNotConfigured = errors.New("encryption keys not configured")

// FitApp is the application layer between the CLI and the Orchestrator.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw CLI values, and closes the local store and log on Close.
type FitApp struct {
	cfg     *config.Config
	cache   *fit.LocalCache
	queue   *queue.Queue
	monitor *connectivity.Monitor
	orch    *fit.Orchestrator
	goals   *goals.Service
	clock   fit.Clock
	logFile *os.File
}

// NewFitApp creates a fully wired FitApp from the given config.
// operation identifies the CLI command being run (e.g. "RecordWeight", "Sync").
// passphrase is only called when remote records are encrypted.
// The caller must call Close when done.
func NewFitApp(ctx context.Context, cfg *config.Config, operation string, passphrase PassphraseFunc) (*FitApp, error) {
	sessionID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, sessionID, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger.With("op", operation)}

	fail := func(err error) (*FitApp, error) {
		logger.Error("startup failed", "error", err)
		logFile.Close()
		return nil, err
	}

	sealer, err := unlockSealer(cfg, passphrase)
	if err != nil {
		return fail(err)
	}

	rem, err := remote.NewRemoteFromConfig(ctx, cfg.Remote, cfg.UserID, sealer)
	if err != nil {
		return fail(fmt.Errorf("creating remote: %w", err))
	}

	store, err := database.NewLocalStoreFromConfig(cfg.Store, cfg.UserID)
	if err != nil {
		return fail(fmt.Errorf("creating local store: %w", err))
	}
	cache := fit.NewLocalCache(store, logger)

	monitor, err := connectivity.NewMonitorFromConfig(cfg.Connectivity, rem, logger)
	if err != nil {
		cache.Close()
		return fail(fmt.Errorf("creating connectivity monitor: %w", err))
	}

	clock := fit.RealClock{}
	q := queue.NewQueueFromConfig(cfg.Queue, cache)
	orch := fit.NewOrchestrator(cache, rem, q, monitor, logger, clock)
	orch.SetDefaultWeight(cfg.Profile.DefaultWeight)

	logger.Info("session started", "store", cfg.Store.Type, "remote", cfg.Remote.Type)

	return &FitApp{
		cfg:     cfg,
		cache:   cache,
		queue:   q,
		monitor: monitor,
		orch:    orch,
		goals:   goals.NewService(cache, clock, fit.UUIDGenerator{}),
		clock:   clock,
		logFile: logFile,
	}, nil
}

func unlockSealer(cfg *config.Config, passphrase PassphraseFunc) (fit.Sealer, error) {
	if !cfg.Remote.Encrypt || cfg.Remote.Type == "http" {
		return nil, nil
	}
	keys, err := encryption.NewKeyManagerFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating key manager: %w", err)
	}
	if !keys.IsConfigured() {
		return nil, ErrKeysNotConfigured
	}
	if passphrase == nil {
		return nil, fmt.Errorf("remote encryption requires a passphrase")
	}
	pass, err := passphrase()
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	sealer, err := keys.Unlock(pass)
	if err != nil {
		return nil, fmt.Errorf("unlocking keys: %w", err)
	}
	return sealer, nil
}

// InitKeys generates the key pair used to seal remote records.
func InitKeys(cfg *config.Config, passphrase string) error {
	keys, err := encryption.NewKeyManagerFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating key manager: %w", err)
	}
	if keys.IsConfigured() {
		return fmt.Errorf("encryption keys already exist at %s", cfg.Encryption.PrivateKeyPath)
	}
	return keys.Setup(passphrase)
}

// Start probes connectivity once and performs the initial load.
func (a *FitApp) Start(ctx context.Context) fit.SyncStatus {
	a.monitor.Init(ctx)
	return a.orch.Start(ctx)
}

// Watch keeps the app reconciling until ctx is done: the connectivity
// monitor polls, transitions are fed to the Orchestrator, and every status
// change is passed to onStatus.
func (a *FitApp) Watch(ctx context.Context, onStatus func(fit.SyncStatus)) {
	updates, unsubscribe := a.orch.Subscribe()
	defer unsubscribe()

	go a.monitor.Run(ctx)
	go a.orch.Run(ctx, a.monitor.Events())

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-updates:
			if onStatus != nil {
				onStatus(s)
			}
		}
	}
}

// Today returns the current local date.
func (a *FitApp) Today() string {
	return fit.DateOf(a.clock.Now())
}

func (a *FitApp) dateOrToday(date string) string {
	if date == "" {
		return a.Today()
	}
	return date
}

// RecordWeight records weight for date, or for today when date is empty.
func (a *FitApp) RecordWeight(ctx context.Context, date string, weight float64) error {
	return a.orch.SubmitWeight(ctx, a.dateOrToday(date), weight)
}

// StartWorkout starts the workout timer for date.
func (a *FitApp) StartWorkout(ctx context.Context, date, workoutType string) error {
	wt, err := fit.ParseWorkoutType(workoutType)
	if err != nil {
		return err
	}
	return a.orch.StartWorkout(ctx, a.dateOrToday(date), wt)
}

// StopWorkout finishes the running workout for date.
func (a *FitApp) StopWorkout(ctx context.Context, date string) (*fit.WorkoutEntry, error) {
	return a.orch.FinishWorkout(ctx, a.dateOrToday(date))
}

// LogWorkout records a completed workout. intensity 0 derives it from minutes.
func (a *FitApp) LogWorkout(ctx context.Context, date string, minutes int, workoutType string, intensity int) (*fit.WorkoutEntry, error) {
	wt, err := fit.ParseWorkoutType(workoutType)
	if err != nil {
		return nil, err
	}
	return a.orch.LogWorkout(ctx, a.dateOrToday(date), minutes, wt, intensity)
}

// ResetWorkout deletes the workout for date once confirmer agrees.
func (a *FitApp) ResetWorkout(ctx context.Context, date string, confirmer fit.Confirmer) error {
	return a.orch.DeleteWorkout(ctx, a.dateOrToday(date), confirmer)
}

// Sync re-probes connectivity and drains queued changes if online.
func (a *FitApp) Sync(ctx context.Context) fit.SyncStatus {
	a.monitor.Check(ctx)
	return a.orch.Sync(ctx)
}

// PendingChanges lists the changes not yet confirmed by the remote.
func (a *FitApp) PendingChanges() ([]fit.PendingChange, error) {
	return a.queue.Changes()
}

// Snapshot returns the current state for display.
func (a *FitApp) Snapshot() fit.Snapshot {
	return a.orch.Snapshot()
}

// Heatmap returns the activity calendar for the last days days.
func (a *FitApp) Heatmap(days int) ([]stats.HeatmapDay, stats.HeatmapSummary) {
	cells := stats.Heatmap(a.cache.Workouts(), a.clock.Now(), days)
	return cells, stats.Summarize(cells)
}

// Streak returns the number of consecutive days with a workout up to today.
func (a *FitApp) Streak() int {
	return stats.Streak(a.cache.Workouts(), a.clock.Now())
}

// WeightChart returns the most recent n weights with the target line.
func (a *FitApp) WeightChart(n int) []stats.WeightPoint {
	return stats.WeightSeries(a.cache.WeightHistory(), a.cfg.Profile.TargetWeight, n)
}

// WorkoutChart returns daily workout minutes for the last days days.
func (a *FitApp) WorkoutChart(days int) []stats.WorkoutPoint {
	return stats.WorkoutSeries(a.cache.Workouts(), a.clock.Now(), days)
}

// Progress measures the current weight against the configured start and target.
func (a *FitApp) Progress() stats.Progress {
	current := a.cache.CurrentWeight(a.cfg.Profile.DefaultWeight)
	if current <= 0 {
		current = fit.DefaultWeight
	}
	return stats.ProgressOverview(a.cfg.Profile.StartWeight, current, a.cfg.Profile.TargetWeight)
}

// GoalStatus pairs a goal with its progress in the current period.
type GoalStatus struct {
	Goal     goals.Goal
	Progress goals.Progress
}

// AddGoal stores a new goal.
func (a *FitApp) AddGoal(title, goalType string, target float64, period string) (goals.Goal, error) {
	return a.goals.Add(title, goals.Type(goalType), target, goals.Period(period))
}

// SetGoalActive enables or disables a goal.
func (a *FitApp) SetGoalActive(id string, active bool) (goals.Goal, error) {
	return a.goals.Update(id, goals.Update{IsActive: &active})
}

// DeleteGoal removes a goal.
func (a *FitApp) DeleteGoal(id string) {
	a.goals.Delete(id)
}

// Goals returns every goal with its progress. Inactive goals are included
// only when all is set.
func (a *FitApp) Goals(all bool) []GoalStatus {
	var out []GoalStatus
	for _, g := range a.goals.List() {
		if !g.IsActive && !all {
			continue
		}
		out = append(out, GoalStatus{Goal: g, Progress: a.goals.Progress(g)})
	}
	return out
}

// Close closes the local store and the log file.
func (a *FitApp) Close() error {
	var firstErr error
	if err := a.cache.Close(); err != nil {
		firstErr = fmt.Errorf("closing local store: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
