// Package goals stores user fitness goals in the local cache and measures
// progress against them.
package goals

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fitsync/internal/fit"
)

type Type string

const (
	WeeklyWorkouts Type = "weekly_workouts"
	WeeklyMinutes  Type = "weekly_minutes"
	DailyStreak    Type = "daily_streak"
	WeightLoss     Type = "weight_loss"
)

type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

var (
	ErrInvalidGoal = errors.New("invalid goal")
	ErrNotFound    = errors.New("goal not found")
)

// Goal is a user-defined target measured over a week or a month.
type Goal struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Type      Type      `json:"type"`
	Target    float64   `json:"target"`
	Period    Period    `json:"period"`
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

func (g Goal) validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidGoal)
	}
	if !(g.Target > 0) {
		return fmt.Errorf("%w: target must be positive", ErrInvalidGoal)
	}
	switch g.Type {
	case WeeklyWorkouts, WeeklyMinutes, DailyStreak, WeightLoss:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidGoal, g.Type)
	}
	switch g.Period {
	case PeriodWeek, PeriodMonth:
	default:
		return fmt.Errorf("%w: unknown period %q", ErrInvalidGoal, g.Period)
	}
	return nil
}

// Update holds the fields to change on a goal. Nil fields are left alone.
type Update struct {
	Title    *string
	Target   *float64
	Period   *Period
	IsActive *bool
}

// Service manages the goal list stored under fit.KeyFitnessGoals.
type Service struct {
	cache *fit.LocalCache
	clock fit.Clock
	ids   fit.IDGenerator

	mu sync.Mutex
}

func NewService(cache *fit.LocalCache, clock fit.Clock, ids fit.IDGenerator) *Service {
	if clock == nil {
		clock = fit.RealClock{}
	}
	if ids == nil {
		ids = fit.UUIDGenerator{}
	}
	return &Service{cache: cache, clock: clock, ids: ids}
}

// List returns all stored goals in creation order.
func (s *Service) List() []Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Service) load() []Goal {
	goals := fit.Get(s.cache, fit.KeyFitnessGoals, []Goal{})
	if goals == nil {
		goals = []Goal{}
	}
	return goals
}

// Add validates and stores a new active goal. An empty type means
// weekly_workouts and an empty period means week.
func (s *Service) Add(title string, typ Type, target float64, period Period) (Goal, error) {
	if typ == "" {
		typ = WeeklyWorkouts
	}
	if period == "" {
		period = PeriodWeek
	}
	g := Goal{
		ID:        s.ids.New(),
		Title:     strings.TrimSpace(title),
		Type:      typ,
		Target:    target,
		Period:    period,
		CreatedAt: s.clock.Now().UTC(),
		IsActive:  true,
	}
	if err := g.validate(); err != nil {
		return Goal{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Set(fit.KeyFitnessGoals, append(s.load(), g))
	return g, nil
}

// Update applies u to the goal with id.
func (s *Service) Update(id string, u Update) (Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	goals := s.load()
	for i := range goals {
		if goals[i].ID != id {
			continue
		}
		g := goals[i]
		if u.Title != nil {
			g.Title = strings.TrimSpace(*u.Title)
		}
		if u.Target != nil {
			g.Target = *u.Target
		}
		if u.Period != nil {
			g.Period = *u.Period
		}
		if u.IsActive != nil {
			g.IsActive = *u.IsActive
		}
		if err := g.validate(); err != nil {
			return Goal{}, err
		}
		goals[i] = g
		s.cache.Set(fit.KeyFitnessGoals, goals)
		return g, nil
	}
	return Goal{}, fmt.Errorf("%s: %w", id, ErrNotFound)
}

// Delete removes the goal with id. Deleting an unknown id is not an error.
func (s *Service) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	goals := s.load()
	kept := goals[:0]
	for _, g := range goals {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	if len(kept) != len(goals) {
		s.cache.Set(fit.KeyFitnessGoals, kept)
	}
}
