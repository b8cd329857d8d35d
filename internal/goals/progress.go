package goals

import (
	"time"

	"fitsync/internal/fit"
	"fitsync/internal/stats"
)

// Progress is how far a goal has come within its current period.
type Progress struct {
	Current    float64 `json:"current"`
	Target     float64 `json:"target"`
	Percentage float64 `json:"percentage"`
	Completed  bool    `json:"completed"`
}

// Window returns the first and last day of the period containing today.
// Weeks start on Sunday.
func Window(period Period, today time.Time) (start, end time.Time) {
	y, m, d := today.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	if period == PeriodMonth {
		start = time.Date(y, m, 1, 0, 0, 0, 0, today.Location())
		return start, start.AddDate(0, 1, -1)
	}
	start = day.AddDate(0, 0, -int(day.Weekday()))
	return start, start.AddDate(0, 0, 6)
}

// Measure computes progress for g from the cached workouts and weights.
//
// weekly_workouts counts days with a workout in the window, weekly_minutes
// sums their durations, daily_streak is the current streak, and weight_loss
// is the drop from the last weight before the window to the latest weight
// inside it.
func Measure(g Goal, workouts map[string]fit.WorkoutEntry, history []fit.WeightEntry, today time.Time) Progress {
	start, end := Window(g.Period, today)

	var current float64
	switch g.Type {
	case WeeklyWorkouts, WeeklyMinutes:
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			w, ok := workouts[fit.DateOf(d)]
			if !ok {
				continue
			}
			if g.Type == WeeklyWorkouts {
				current++
			} else {
				current += float64(w.DurationMinutes)
			}
		}
	case DailyStreak:
		current = float64(stats.Streak(workouts, today))
	case WeightLoss:
		current = weightLost(history, fit.DateOf(start), fit.DateOf(end))
	}

	p := Progress{Current: current, Target: g.Target, Completed: current >= g.Target}
	if g.Target > 0 {
		p.Percentage = min(current/g.Target*100, 100)
	}
	return p
}

func weightLost(history []fit.WeightEntry, from, to string) float64 {
	var before, first, latest *fit.WeightEntry
	for i := range history {
		e := &history[i]
		switch {
		case e.Date < from:
			if before == nil || e.Date > before.Date {
				before = e
			}
		case e.Date <= to:
			if first == nil || e.Date < first.Date {
				first = e
			}
			if latest == nil || e.Date > latest.Date {
				latest = e
			}
		}
	}
	if latest == nil {
		return 0
	}
	baseline := first
	if before != nil {
		baseline = before
	}
	return max(baseline.Weight-latest.Weight, 0)
}

// Progress measures g against the cached entries as of now.
func (s *Service) Progress(g Goal) Progress {
	return Measure(g, s.cache.Workouts(), s.cache.WeightHistory(), s.clock.Now())
}
