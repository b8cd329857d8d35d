package fit

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used for every record key.
const DateLayout = "2006-01-02"

// DefaultWeight is the current weight assumed before any weight is known.
const DefaultWeight = 105.0

// DateOf returns the calendar day of t in its own location.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate validates a calendar day string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// WeightEntry is a single body weight measurement. There is at most one per date.
type WeightEntry struct {
	Date   string  `json:"date"`
	Weight float64 `json:"weight"`
}

// WorkoutType tags what kind of session a workout was.
type WorkoutType string

const (
	WorkoutCardio      WorkoutType = "cardio"
	WorkoutStrength    WorkoutType = "strength"
	WorkoutFlexibility WorkoutType = "flexibility"
	WorkoutSports      WorkoutType = "sports"
	WorkoutOutdoor     WorkoutType = "outdoor"
	WorkoutGeneral     WorkoutType = "general"
)

// WorkoutTypes lists the known workout types in display order.
var WorkoutTypes = []WorkoutType{
	WorkoutCardio,
	WorkoutStrength,
	WorkoutFlexibility,
	WorkoutSports,
	WorkoutOutdoor,
	WorkoutGeneral,
}

// ParseWorkoutType returns the matching WorkoutType. Empty input means general.
func ParseWorkoutType(s string) (WorkoutType, error) {
	if s == "" {
		return WorkoutGeneral, nil
	}
	for _, wt := range WorkoutTypes {
		if string(wt) == s {
			return wt, nil
		}
	}
	return "", fmt.Errorf("unknown workout type: %q", s)
}

// WorkoutEntry is the workout recorded for one date.
// A workout is either running (StartTime set, not completed, no EndTime)
// or completed (duration and intensity populated).
type WorkoutEntry struct {
	Date            string      `json:"date"`
	ID              string      `json:"id,omitempty"` // server-assigned; empty until the first remote write
	StartTime       *time.Time  `json:"start_time,omitempty"`
	EndTime         *time.Time  `json:"end_time,omitempty"`
	DurationMinutes int         `json:"duration,omitempty"`
	ActualSeconds   int         `json:"actual_seconds,omitempty"`
	Intensity       int         `json:"intensity"`
	Completed       bool        `json:"completed"`
	WorkoutType     WorkoutType `json:"workout_type"`
}

// Running reports whether the workout has been started but not finished.
func (w *WorkoutEntry) Running() bool {
	return w.StartTime != nil && !w.Completed && w.EndTime == nil
}

// Profile is the singleton record holding the user's current weight snapshot.
type Profile struct {
	ID            string    `json:"id"`
	CurrentWeight float64   `json:"current_weight"`
	UpdatedAt     time.Time `json:"updated_at"`
}
