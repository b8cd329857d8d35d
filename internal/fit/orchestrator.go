package fit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// SyncStatus is the outcome of the Orchestrator's most recent reconciliation.
type SyncStatus string

const (
	StatusLoading SyncStatus = "loading"
	StatusSynced  SyncStatus = "synced"
	StatusSyncing SyncStatus = "syncing"
	StatusError   SyncStatus = "error"
	StatusOffline SyncStatus = "offline"
)

// Snapshot is a read-only copy of the state presentation code renders.
type Snapshot struct {
	Status        SyncStatus
	LastError     string
	LastSync      time.Time
	Pending       int
	CurrentWeight float64
	WeightHistory []WeightEntry
	Workouts      map[string]WorkoutEntry
}

// Orchestrator coordinates the local cache, the remote service, the pending
// change queue and connectivity. It is the only writer of the cache and the
// queue: every operation runs under opMu, one at a time.
type Orchestrator struct {
	cache  *LocalCache
	remote RemoteService
	queue  PendingQueue
	conn   Connectivity
	logger Logger
	clock  Clock

	defaultWeight float64

	opMu sync.Mutex

	mu          sync.RWMutex
	status      SyncStatus
	lastErr     error
	lastSync    time.Time
	subscribers map[int]chan SyncStatus
	nextSub     int
}

// NewOrchestrator creates an Orchestrator in the loading state.
func NewOrchestrator(cache *LocalCache, remote RemoteService, queue PendingQueue, conn Connectivity, logger Logger, clock Clock) *Orchestrator {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Orchestrator{
		cache:         cache,
		remote:        remote,
		queue:         queue,
		conn:          conn,
		logger:        logger,
		clock:         clock,
		defaultWeight: DefaultWeight,
		status:        StatusLoading,
		subscribers:   make(map[int]chan SyncStatus),
	}
}

// SetDefaultWeight changes the current weight assumed when neither the
// remote profile nor the local cache knows one.
func (o *Orchestrator) SetDefaultWeight(weight float64) {
	if weight > 0 {
		o.defaultWeight = weight
	}
}

// Start performs the initial load. When the remote is reachable, all remote
// records are fetched into the local cache and any queued changes are laid
// over them and drained. Otherwise the cache's last-known values are used.
func (o *Orchestrator) Start(ctx context.Context) SyncStatus {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	o.setStatus(StatusLoading, nil)

	if !o.conn.Online() || !o.remote.CheckConnection(ctx) {
		o.logger.Info("remote unreachable, using local data")
		o.setStatus(StatusOffline, nil)
		return StatusOffline
	}

	if err := o.pull(ctx); err != nil {
		o.logger.Warn("initial fetch failed, using local data", "error", err)
		o.setStatus(StatusError, err)
		return StatusError
	}

	o.drainLocked(ctx)
	return o.Status()
}

// pull replaces the cached records with the remote ones, then re-applies
// queued changes so optimistic local values survive the refresh.
func (o *Orchestrator) pull(ctx context.Context) error {
	profile, err := o.remote.GetProfile(ctx)
	if err != nil {
		return fmt.Errorf("fetching profile: %w", err)
	}
	weights, err := o.remote.GetWeightEntries(ctx)
	if err != nil {
		return fmt.Errorf("fetching weight entries: %w", err)
	}
	remoteWorkouts, err := o.remote.GetWorkoutEntries(ctx)
	if err != nil {
		return fmt.Errorf("fetching workout entries: %w", err)
	}

	current := o.cache.CurrentWeight(o.defaultWeight)
	if profile != nil && profile.CurrentWeight > 0 {
		current = profile.CurrentWeight
	}

	workouts := make(map[string]WorkoutEntry, len(remoteWorkouts))
	for _, w := range remoteWorkouts {
		workouts[w.Date] = w
	}

	changes, err := o.queue.Changes()
	if err != nil {
		return fmt.Errorf("reading pending changes: %w", err)
	}
	pendingWeight := false
	for _, c := range changes {
		switch {
		case c.Type == ChangeWeight:
			e, err := c.WeightEntry()
			if err != nil {
				o.logger.Warn("skipping unreadable pending change", "date", c.Date, "error", err)
				continue
			}
			weights = upsertWeight(weights, e)
			pendingWeight = true
		case c.Type == ChangeWorkout && c.Op == OpDelete:
			delete(workouts, c.Date)
		case c.Type == ChangeWorkout:
			e, err := c.WorkoutEntry()
			if err != nil {
				o.logger.Warn("skipping unreadable pending change", "date", c.Date, "error", err)
				continue
			}
			if existing, ok := workouts[e.Date]; ok && e.ID == "" {
				e.ID = existing.ID
			}
			workouts[e.Date] = e
		}
	}
	if pendingWeight {
		current = o.cache.CurrentWeight(current)
	}

	o.cache.SetCurrentWeight(current)
	o.cache.SetWeightHistory(weights)
	o.cache.SetWorkouts(workouts)

	o.logger.Info("loaded remote data",
		"weights", len(weights), "workouts", len(workouts), "pending", len(changes))
	return nil
}

// SubmitWeight records weight for date. The cache is updated immediately;
// the remote write happens now if online, otherwise it is queued.
func (o *Orchestrator) SubmitWeight(ctx context.Context, date string, weight float64) error {
	if weight <= 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return ErrInvalidWeight
	}
	if _, err := ParseDate(date); err != nil {
		return err
	}

	o.opMu.Lock()
	defer o.opMu.Unlock()

	entry := WeightEntry{Date: date, Weight: weight}
	history := o.cache.WeightHistory()
	latest := len(history) == 0 || history[len(history)-1].Date <= date
	o.cache.SetWeightHistory(upsertWeight(history, entry))
	if latest {
		o.cache.SetCurrentWeight(weight)
	}
	o.logger.Info("weight recorded", "date", date, "weight", weight)

	change, err := NewWeightChange(entry)
	if err != nil {
		return err
	}
	return o.commit(ctx, change)
}

// StartWorkout begins the workout timer for date.
func (o *Orchestrator) StartWorkout(ctx context.Context, date string, workoutType WorkoutType) error {
	if _, err := ParseDate(date); err != nil {
		return err
	}

	o.opMu.Lock()
	defer o.opMu.Unlock()

	workouts := o.cache.Workouts()
	if _, ok := workouts[date]; ok {
		return fmt.Errorf("%w: %s", ErrWorkoutExists, date)
	}

	if workoutType == "" {
		workoutType = WorkoutGeneral
	}
	now := o.clock.Now()
	entry := WorkoutEntry{
		Date:        date,
		StartTime:   &now,
		Intensity:   MinIntensity,
		WorkoutType: workoutType,
	}
	return o.saveWorkout(ctx, workouts, entry)
}

// FinishWorkout stops the running workout for date and records its duration
// and intensity.
func (o *Orchestrator) FinishWorkout(ctx context.Context, date string) (*WorkoutEntry, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	workouts := o.cache.Workouts()
	entry, ok := workouts[date]
	if !ok || !entry.Running() {
		return nil, fmt.Errorf("%w: %s", ErrNoRunningWorkout, date)
	}

	end := o.clock.Now()
	summary := SummarizeWorkout(WorkoutTiming{StartTime: entry.StartTime, EndTime: &end})
	entry.EndTime = &end
	entry.Completed = true
	entry.DurationMinutes = summary.DurationMinutes
	entry.ActualSeconds = summary.ActualSeconds
	entry.Intensity = summary.Intensity

	if err := o.saveWorkout(ctx, workouts, entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// LogWorkout records a completed workout of the given length for date,
// replacing whatever was recorded there. An intensity of 0 is derived from
// the duration.
func (o *Orchestrator) LogWorkout(ctx context.Context, date string, minutes int, workoutType WorkoutType, intensity int) (*WorkoutEntry, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}
	if minutes <= 0 {
		return nil, fmt.Errorf("workout duration must be positive, got %d", minutes)
	}
	if intensity != 0 && !ValidIntensity(intensity) {
		return nil, fmt.Errorf("intensity must be between %d and %d, got %d", MinIntensity, MaxIntensity, intensity)
	}

	o.opMu.Lock()
	defer o.opMu.Unlock()

	workouts := o.cache.Workouts()
	summary := SummarizeWorkout(WorkoutTiming{DurationMinutes: minutes})
	if intensity == 0 {
		intensity = summary.Intensity
	}
	if workoutType == "" {
		workoutType = WorkoutGeneral
	}
	entry := WorkoutEntry{
		Date:            date,
		ID:              workouts[date].ID,
		DurationMinutes: summary.DurationMinutes,
		ActualSeconds:   summary.ActualSeconds,
		Intensity:       intensity,
		Completed:       true,
		WorkoutType:     workoutType,
	}

	if err := o.saveWorkout(ctx, workouts, entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteWorkout removes the workout for date after the user confirms.
// The delete is queued and retried like any other change.
func (o *Orchestrator) DeleteWorkout(ctx context.Context, date string, confirmer Confirmer) error {
	if _, ok := o.cache.Workouts()[date]; !ok {
		return fmt.Errorf("%w: %s", ErrWorkoutNotPresent, date)
	}
	if confirmer == nil || !confirmer.Confirm(fmt.Sprintf("Reset the workout recorded for %s?", date)) {
		return ErrNotConfirmed
	}

	o.opMu.Lock()
	defer o.opMu.Unlock()

	workouts := o.cache.Workouts()
	if _, ok := workouts[date]; !ok {
		return fmt.Errorf("%w: %s", ErrWorkoutNotPresent, date)
	}
	delete(workouts, date)
	o.cache.SetWorkouts(workouts)
	o.logger.Info("workout deleted", "date", date)

	return o.commit(ctx, NewWorkoutDelete(date))
}

func (o *Orchestrator) saveWorkout(ctx context.Context, workouts map[string]WorkoutEntry, entry WorkoutEntry) error {
	workouts[entry.Date] = entry
	o.cache.SetWorkouts(workouts)
	o.logger.Info("workout recorded", "date", entry.Date, "completed", entry.Completed, "duration", entry.DurationMinutes)

	change, err := NewWorkoutChange(entry)
	if err != nil {
		return err
	}
	return o.commit(ctx, change)
}

// commit sends a locally applied change to the remote, or queues it.
// A failed remote write is not an error for the caller: the local value
// stands and the change is retried on the next drain.
func (o *Orchestrator) commit(ctx context.Context, change PendingChange) error {
	change.QueuedAt = o.clock.Now()

	if !o.conn.Online() {
		if err := o.queue.Enqueue(change); err != nil {
			return fmt.Errorf("queueing %s change for %s: %w", change.Type, change.Date, err)
		}
		o.logger.Debug("offline, change queued", "type", change.Type, "date", change.Date)
		o.setStatus(StatusOffline, nil)
		return nil
	}

	if err := o.replay(ctx, change); err != nil {
		o.logger.Warn("remote write failed, change queued", "type", change.Type, "date", change.Date, "error", err)
		if qerr := o.queue.Enqueue(change); qerr != nil {
			return fmt.Errorf("queueing %s change for %s: %w", change.Type, change.Date, qerr)
		}
		o.setStatus(StatusError, err)
		return nil
	}

	// An older queued change for this key is now stale.
	if err := o.queue.Remove(change.Key()); err != nil {
		return fmt.Errorf("removing superseded change: %w", err)
	}

	pending, err := o.queue.Len()
	if err != nil {
		return fmt.Errorf("reading queue length: %w", err)
	}
	if pending > 0 {
		o.drainLocked(ctx)
		return nil
	}
	o.markSynced()
	return nil
}

// replay applies one change to the remote service.
func (o *Orchestrator) replay(ctx context.Context, change PendingChange) error {
	switch change.Type {
	case ChangeWeight:
		entry, err := change.WeightEntry()
		if err != nil {
			o.logger.Error("dropping unreadable change", "type", change.Type, "date", change.Date, "error", err)
			return nil
		}
		if _, err := o.remote.AddWeightEntry(ctx, entry.Date, entry.Weight); err != nil {
			return fmt.Errorf("adding weight entry for %s: %w", entry.Date, err)
		}
		if _, err := o.remote.UpdateProfile(ctx, o.cache.CurrentWeight(entry.Weight)); err != nil {
			return fmt.Errorf("updating profile: %w", err)
		}
		return nil

	case ChangeWorkout:
		if change.Op == OpDelete {
			if err := o.remote.DeleteWorkoutEntry(ctx, change.Date); err != nil {
				return fmt.Errorf("deleting workout entry for %s: %w", change.Date, err)
			}
			return nil
		}
		entry, err := change.WorkoutEntry()
		if err != nil {
			o.logger.Error("dropping unreadable change", "type", change.Type, "date", change.Date, "error", err)
			return nil
		}
		stored, err := o.remote.UpsertWorkoutEntry(ctx, entry.Date, entry)
		if err != nil {
			return fmt.Errorf("upserting workout entry for %s: %w", entry.Date, err)
		}
		o.reconcileWorkoutID(stored)
		return nil

	default:
		o.logger.Error("dropping change of unknown type", "type", change.Type, "date", change.Date)
		return nil
	}
}

// reconcileWorkoutID copies the server-assigned id into the cached workout.
func (o *Orchestrator) reconcileWorkoutID(stored *WorkoutEntry) {
	if stored == nil || stored.ID == "" {
		return
	}
	workouts := o.cache.Workouts()
	local, ok := workouts[stored.Date]
	if !ok || local.ID == stored.ID {
		return
	}
	local.ID = stored.ID
	workouts[stored.Date] = local
	o.cache.SetWorkouts(workouts)
}

// HandleEvent reacts to a connectivity transition.
func (o *Orchestrator) HandleEvent(ctx context.Context, ev ConnectivityEvent) {
	switch ev {
	case WentOffline:
		// Not under opMu: the indicator flips even while a call is in flight.
		o.logger.Info("connectivity lost")
		o.setStatus(StatusOffline, nil)
	case WentOnline:
		o.logger.Info("connectivity restored")
		o.Sync(ctx)
	}
}

// Run consumes connectivity events until ctx is done or events is closed.
func (o *Orchestrator) Run(ctx context.Context, events <-chan ConnectivityEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			o.HandleEvent(ctx, ev)
		}
	}
}

// Sync drains the pending queue if online and returns the resulting status.
func (o *Orchestrator) Sync(ctx context.Context) SyncStatus {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	if !o.conn.Online() {
		o.setStatus(StatusOffline, nil)
		return StatusOffline
	}
	o.drainLocked(ctx)
	return o.Status()
}

func (o *Orchestrator) drainLocked(ctx context.Context) {
	o.setStatus(StatusSyncing, nil)

	remaining, err := o.queue.Drain(ctx, func(ctx context.Context, change PendingChange) error {
		if err := o.replay(ctx, change); err != nil {
			o.logger.Warn("replay failed", "type", change.Type, "date", change.Date, "error", err)
			return err
		}
		o.logger.Debug("change replayed", "type", change.Type, "date", change.Date)
		return nil
	})

	switch {
	case !o.conn.Online():
		o.setStatus(StatusOffline, nil)
	case err != nil:
		o.setStatus(StatusError, fmt.Errorf("draining pending changes: %w", err))
	case remaining > 0:
		o.setStatus(StatusError, fmt.Errorf("%d pending change(s) could not be synced", remaining))
	default:
		o.markSynced()
	}
}

func (o *Orchestrator) markSynced() {
	o.mu.Lock()
	o.lastSync = o.clock.Now()
	o.mu.Unlock()
	o.setStatus(StatusSynced, nil)
}

func (o *Orchestrator) setStatus(status SyncStatus, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.lastErr = err
	if o.status == status {
		return
	}
	o.status = status

	for _, ch := range o.subscribers {
		select {
		case ch <- status:
		default:
			// Slow reader: drop the oldest value so the latest always lands.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- status:
			default:
			}
		}
	}
}

// Status returns the current sync status.
func (o *Orchestrator) Status() SyncStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

// Subscribe returns a channel receiving every status transition, and a
// function that unsubscribes and closes it.
func (o *Orchestrator) Subscribe() (<-chan SyncStatus, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextSub
	o.nextSub++
	ch := make(chan SyncStatus, 16)
	o.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.subscribers, id)
			close(ch)
		})
	}
}

// Snapshot returns a copy of the state for rendering.
func (o *Orchestrator) Snapshot() Snapshot {
	pending, err := o.queue.Len()
	if err != nil {
		o.logger.Warn("reading queue length", "error", err)
	}

	o.mu.RLock()
	snap := Snapshot{
		Status:   o.status,
		LastSync: o.lastSync,
		Pending:  pending,
	}
	if o.lastErr != nil {
		snap.LastError = o.lastErr.Error()
	}
	o.mu.RUnlock()

	snap.CurrentWeight = o.cache.CurrentWeight(o.defaultWeight)
	snap.WeightHistory = o.cache.WeightHistory()
	snap.Workouts = o.cache.Workouts()
	return snap
}
