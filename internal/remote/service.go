package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fitsync/internal/fit"
)

type profileRecord struct {
	ID            string    `json:"id"`
	CurrentWeight float64   `json:"current_weight"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type weightRecord struct {
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"`
	Weight    float64   `json:"weight"`
	UpdatedAt time.Time `json:"updated_at"`
}

type workoutRecord struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Date          string     `json:"date"`
	StartTime     *time.Time `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	Duration      int        `json:"duration"`
	ActualSeconds int        `json:"actual_seconds"`
	Intensity     int        `json:"intensity"`
	Completed     bool       `json:"completed"`
	WorkoutType   string     `json:"workout_type"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// entry converts the stored row to the domain type. Rows written before
// intensity or type were tracked read back as intensity 1 and "general".
func (r workoutRecord) entry() fit.WorkoutEntry {
	intensity := r.Intensity
	if !fit.ValidIntensity(intensity) {
		intensity = fit.MinIntensity
	}
	wt := fit.WorkoutType(r.WorkoutType)
	if wt == "" {
		wt = fit.WorkoutGeneral
	}
	return fit.WorkoutEntry{
		Date:            r.Date,
		ID:              r.ID,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		DurationMinutes: r.Duration,
		ActualSeconds:   r.ActualSeconds,
		Intensity:       intensity,
		Completed:       r.Completed,
		WorkoutType:     wt,
	}
}

// Service implements fit.RemoteService over a RecordStore. All records are
// scoped to one user id. When a sealer is set, record bodies are encrypted
// before they reach the store.
type Service struct {
	store  RecordStore
	userID string
	sealer fit.Sealer
	clock  fit.Clock
	ids    fit.IDGenerator
}

var _ fit.RemoteService = (*Service)(nil)

// NewService creates a Service. sealer, clock and ids may be nil.
func NewService(store RecordStore, userID string, sealer fit.Sealer, clock fit.Clock, ids fit.IDGenerator) *Service {
	if clock == nil {
		clock = fit.RealClock{}
	}
	if ids == nil {
		ids = fit.UUIDGenerator{}
	}
	return &Service{store: store, userID: userID, sealer: sealer, clock: clock, ids: ids}
}

func (s *Service) GetProfile(ctx context.Context) (*fit.Profile, error) {
	var rec profileRecord
	err := s.get(ctx, CollectionProfiles, s.userID, &rec)
	if errors.Is(err, fit.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fit.Profile{ID: rec.ID, CurrentWeight: rec.CurrentWeight, UpdatedAt: rec.UpdatedAt}, nil
}

func (s *Service) UpdateProfile(ctx context.Context, currentWeight float64) (*fit.Profile, error) {
	rec := profileRecord{ID: s.userID, CurrentWeight: currentWeight, UpdatedAt: s.clock.Now().UTC()}
	if err := s.put(ctx, CollectionProfiles, s.userID, rec); err != nil {
		return nil, err
	}
	return &fit.Profile{ID: rec.ID, CurrentWeight: rec.CurrentWeight, UpdatedAt: rec.UpdatedAt}, nil
}

func (s *Service) GetWeightEntries(ctx context.Context) ([]fit.WeightEntry, error) {
	keys, err := s.store.List(ctx, CollectionWeights, s.userID+"/")
	if err != nil {
		return nil, err
	}
	entries := make([]fit.WeightEntry, 0, len(keys))
	for _, k := range keys {
		var rec weightRecord
		if err := s.get(ctx, CollectionWeights, k, &rec); err != nil {
			if errors.Is(err, fit.ErrNotFound) {
				continue // deleted between list and get
			}
			return nil, err
		}
		entries = append(entries, fit.WeightEntry{Date: rec.Date, Weight: rec.Weight})
	}
	return entries, nil
}

func (s *Service) AddWeightEntry(ctx context.Context, date string, weight float64) (*fit.WeightEntry, error) {
	if _, err := fit.ParseDate(date); err != nil {
		return nil, fmt.Errorf("weight entry: %w: %v", fit.ErrRemoteFailure, err)
	}
	rec := weightRecord{UserID: s.userID, Date: date, Weight: weight, UpdatedAt: s.clock.Now().UTC()}
	if err := s.put(ctx, CollectionWeights, recordKey(s.userID, date), rec); err != nil {
		return nil, err
	}
	return &fit.WeightEntry{Date: date, Weight: weight}, nil
}

func (s *Service) GetWorkoutEntries(ctx context.Context) ([]fit.WorkoutEntry, error) {
	keys, err := s.store.List(ctx, CollectionWorkouts, s.userID+"/")
	if err != nil {
		return nil, err
	}
	entries := make([]fit.WorkoutEntry, 0, len(keys))
	for _, k := range keys {
		var rec workoutRecord
		if err := s.get(ctx, CollectionWorkouts, k, &rec); err != nil {
			if errors.Is(err, fit.ErrNotFound) {
				continue
			}
			return nil, err
		}
		entries = append(entries, rec.entry())
	}
	return entries, nil
}

func (s *Service) UpsertWorkoutEntry(ctx context.Context, date string, entry fit.WorkoutEntry) (*fit.WorkoutEntry, error) {
	if _, err := fit.ParseDate(date); err != nil {
		return nil, fmt.Errorf("workout entry: %w: %v", fit.ErrRemoteFailure, err)
	}
	key := recordKey(s.userID, date)

	var existing workoutRecord
	err := s.get(ctx, CollectionWorkouts, key, &existing)
	if err != nil && !errors.Is(err, fit.ErrNotFound) {
		return nil, err
	}
	id := existing.ID
	if id == "" {
		id = s.ids.New()
	}

	rec := workoutRecord{
		ID:            id,
		UserID:        s.userID,
		Date:          date,
		StartTime:     entry.StartTime,
		EndTime:       entry.EndTime,
		Duration:      entry.DurationMinutes,
		ActualSeconds: entry.ActualSeconds,
		Intensity:     entry.Intensity,
		Completed:     entry.Completed,
		WorkoutType:   string(entry.WorkoutType),
		UpdatedAt:     s.clock.Now().UTC(),
	}
	if err := s.put(ctx, CollectionWorkouts, key, rec); err != nil {
		return nil, err
	}
	out := rec.entry()
	return &out, nil
}

func (s *Service) DeleteWorkoutEntry(ctx context.Context, date string) error {
	return s.store.Delete(ctx, CollectionWorkouts, recordKey(s.userID, date))
}

func (s *Service) CheckConnection(ctx context.Context) bool {
	if err := s.store.Ping(ctx); err != nil {
		return false
	}
	_, err := s.GetProfile(ctx)
	return err == nil
}

func (s *Service) put(ctx context.Context, collection, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s record: %w", collection, err)
	}
	if s.sealer != nil {
		if body, err = s.sealer.Seal(body); err != nil {
			return fmt.Errorf("sealing %s record: %w", collection, err)
		}
	}
	return s.store.Put(ctx, collection, key, body)
}

func (s *Service) get(ctx context.Context, collection, key string, v any) error {
	body, err := s.store.Get(ctx, collection, key)
	if err != nil {
		return err
	}
	if s.sealer != nil {
		if body, err = s.sealer.Open(body); err != nil {
			return fmt.Errorf("opening %s/%s: %w: %v", collection, key, fit.ErrRemoteFailure, err)
		}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding %s/%s: %w: %v", collection, key, fit.ErrRemoteFailure, err)
	}
	return nil
}
