package fit

import (
	"math"
	"time"
)

// Intensity bounds, inclusive.
const (
	MinIntensity = 1
	MaxIntensity = 4
)

// IntensityForMinutes maps a workout duration to its 1-4 heatmap intensity:
// under 15 minutes is 1, under 30 is 2, under 45 is 3, anything longer is 4.
func IntensityForMinutes(minutes int) int {
	switch {
	case minutes >= 45:
		return 4
	case minutes >= 30:
		return 3
	case minutes >= 15:
		return 2
	default:
		return 1
	}
}

// WorkoutTiming is the raw timing information known about a workout.
// Any subset of fields may be set; see SummarizeWorkout for precedence.
type WorkoutTiming struct {
	DurationMinutes int
	ActualSeconds   int
	StartTime       *time.Time
	EndTime         *time.Time
}

// WorkoutSummary is the derived duration and intensity of a workout.
type WorkoutSummary struct {
	DurationMinutes int
	ActualSeconds   int
	Intensity       int
}

// SummarizeWorkout derives duration and intensity from timing.
//
// Start and end times take precedence: the elapsed whole seconds become
// ActualSeconds and the duration is that rounded to the nearest minute.
// Otherwise ActualSeconds is used, and finally DurationMinutes alone.
func SummarizeWorkout(t WorkoutTiming) WorkoutSummary {
	var seconds, minutes int

	switch {
	case t.StartTime != nil && t.EndTime != nil:
		elapsed := t.EndTime.Sub(*t.StartTime)
		if elapsed < 0 {
			elapsed = 0
		}
		seconds = int(elapsed / time.Second)
		minutes = roundMinutes(seconds)
	case t.ActualSeconds > 0:
		seconds = t.ActualSeconds
		minutes = roundMinutes(seconds)
	default:
		minutes = max(t.DurationMinutes, 0)
		seconds = minutes * 60
	}

	return WorkoutSummary{
		DurationMinutes: minutes,
		ActualSeconds:   seconds,
		Intensity:       IntensityForMinutes(minutes),
	}
}

func roundMinutes(seconds int) int {
	return int(math.Floor(float64(seconds)/60 + 0.5))
}

// ValidIntensity reports whether i is a chosen intensity in range.
func ValidIntensity(i int) bool {
	return i >= MinIntensity && i <= MaxIntensity
}
