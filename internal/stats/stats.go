// Package stats derives read-only chart series from the local cache contents.
package stats

import (
	"math"
	"sort"
	"time"

	"fitsync/internal/fit"
)

const (
	HeatmapDays   = 90
	ChartPoints   = 14
	MaxStreakDays = 365
)

// HeatmapDay is one cell of the activity calendar. Intensity is 0 for a day
// without a workout.
type HeatmapDay struct {
	Date      string       `json:"date"`
	Intensity int          `json:"intensity"`
	Weekday   time.Weekday `json:"weekday"`
}

// Heatmap returns one cell per day for the days ending at today, oldest first.
func Heatmap(workouts map[string]fit.WorkoutEntry, today time.Time, days int) []HeatmapDay {
	out := make([]HeatmapDay, 0, days)
	for i := days - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		date := fit.DateOf(d)
		out = append(out, HeatmapDay{Date: date, Intensity: intensityOn(workouts, date), Weekday: d.Weekday()})
	}
	return out
}

func intensityOn(workouts map[string]fit.WorkoutEntry, date string) int {
	w, ok := workouts[date]
	if !ok {
		return 0
	}
	if w.Intensity <= 0 {
		return fit.MinIntensity
	}
	return w.Intensity
}

// HeatmapSummary is shown under the calendar.
type HeatmapSummary struct {
	ActiveDays    int `json:"active_days"`
	ActivePercent int `json:"active_percent"`
	PeakLastWeek  int `json:"peak_last_week"`
}

func Summarize(days []HeatmapDay) HeatmapSummary {
	var s HeatmapSummary
	for _, d := range days {
		if d.Intensity > 0 {
			s.ActiveDays++
		}
	}
	if len(days) > 0 {
		s.ActivePercent = int(math.Round(float64(s.ActiveDays) / float64(len(days)) * 100))
	}
	for _, d := range days[max(len(days)-7, 0):] {
		s.PeakLastWeek = max(s.PeakLastWeek, d.Intensity)
	}
	return s
}

// WeightPoint is one point of the weight chart.
type WeightPoint struct {
	Date   string  `json:"date"`
	Weight float64 `json:"weight"`
	Target float64 `json:"target"`
}

// WeightSeries returns the last n entries by date with the target line.
func WeightSeries(history []fit.WeightEntry, target float64, n int) []WeightPoint {
	sorted := append([]fit.WeightEntry(nil), history...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })
	sorted = sorted[max(len(sorted)-n, 0):]

	out := make([]WeightPoint, len(sorted))
	for i, e := range sorted {
		out[i] = WeightPoint{Date: e.Date, Weight: e.Weight, Target: target}
	}
	return out
}

// WorkoutPoint is one bar of the workout-minutes chart.
type WorkoutPoint struct {
	Date    string `json:"date"`
	Minutes int    `json:"minutes"`
}

// WorkoutSeries returns workout minutes for each of the days ending at today.
func WorkoutSeries(workouts map[string]fit.WorkoutEntry, today time.Time, days int) []WorkoutPoint {
	out := make([]WorkoutPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := fit.DateOf(today.AddDate(0, 0, -i))
		out = append(out, WorkoutPoint{Date: date, Minutes: workouts[date].DurationMinutes})
	}
	return out
}

// Streak counts consecutive days with a workout, ending today. A day
// without one ends the streak, today included.
func Streak(workouts map[string]fit.WorkoutEntry, today time.Time) int {
	streak := 0
	for i := 0; i < MaxStreakDays; i++ {
		if _, ok := workouts[fit.DateOf(today.AddDate(0, 0, -i))]; !ok {
			break
		}
		streak++
	}
	return streak
}

// Progress is the weight-loss overview.
type Progress struct {
	StartWeight   float64 `json:"start_weight"`
	CurrentWeight float64 `json:"current_weight"`
	TargetWeight  float64 `json:"target_weight"`
	TotalLoss     float64 `json:"total_loss"`
	Percent       float64 `json:"percent"`
}

// ProgressOverview measures current against the start-to-target span.
// Percent is negative after a gain and exceeds 100 past the target.
func ProgressOverview(start, current, target float64) Progress {
	p := Progress{
		StartWeight:   start,
		CurrentWeight: current,
		TargetWeight:  target,
		TotalLoss:     start - current,
	}
	if span := start - target; span != 0 {
		p.Percent = p.TotalLoss / span * 100
	}
	return p
}
