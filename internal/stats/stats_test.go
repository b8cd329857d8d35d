package stats

import (
	"math"
	"testing"
	"time"

	"fitsync/internal/fit"
)

var today = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func TestHeatmap(t *testing.T) {
	workouts := map[string]fit.WorkoutEntry{
		"2024-01-15": {Date: "2024-01-15", Intensity: 3},
		"2024-01-14": {Date: "2024-01-14"},
		"2023-10-18": {Date: "2023-10-18", Intensity: 4}, // first day of the window
		"2023-10-17": {Date: "2023-10-17", Intensity: 4}, // outside the window
	}

	days := Heatmap(workouts, today, HeatmapDays)
	if len(days) != HeatmapDays {
		t.Fatalf("len = %d, want %d", len(days), HeatmapDays)
	}
	if days[0].Date != "2023-10-18" || days[0].Intensity != 4 {
		t.Errorf("first day = %+v", days[0])
	}
	last := days[len(days)-1]
	if last.Date != "2024-01-15" || last.Intensity != 3 || last.Weekday != time.Monday {
		t.Errorf("last day = %+v", last)
	}
	if days[len(days)-2].Intensity != 1 {
		t.Errorf("workout without intensity = %d, want 1", days[len(days)-2].Intensity)
	}
	if days[1].Intensity != 0 {
		t.Errorf("empty day intensity = %d, want 0", days[1].Intensity)
	}

	s := Summarize(days)
	if s.ActiveDays != 3 {
		t.Errorf("ActiveDays = %d, want 3", s.ActiveDays)
	}
	if s.ActivePercent != 3 {
		t.Errorf("ActivePercent = %d, want 3", s.ActivePercent)
	}
	if s.PeakLastWeek != 3 {
		t.Errorf("PeakLastWeek = %d, want 3", s.PeakLastWeek)
	}
}

func TestSummarize_Empty(t *testing.T) {
	if got := Summarize(nil); got != (HeatmapSummary{}) {
		t.Errorf("Summarize(nil) = %+v", got)
	}
}

func TestWeightSeries(t *testing.T) {
	var history []fit.WeightEntry
	for d := 20; d >= 1; d-- {
		history = append(history, fit.WeightEntry{Date: time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC).Format(fit.DateLayout), Weight: 100 + float64(d)/10})
	}

	got := WeightSeries(history, 90, ChartPoints)
	if len(got) != ChartPoints {
		t.Fatalf("len = %d, want %d", len(got), ChartPoints)
	}
	if got[0].Date != "2024-01-07" || got[len(got)-1].Date != "2024-01-20" {
		t.Errorf("range = %s..%s, want 2024-01-07..2024-01-20", got[0].Date, got[len(got)-1].Date)
	}
	for _, p := range got {
		if p.Target != 90 {
			t.Errorf("Target = %v, want 90", p.Target)
		}
	}
	if history[0].Date != "2024-01-20" {
		t.Error("WeightSeries reordered its input")
	}

	if short := WeightSeries(history[:3], 90, ChartPoints); len(short) != 3 {
		t.Errorf("len(short) = %d, want 3", len(short))
	}
}

func TestWorkoutSeries(t *testing.T) {
	workouts := map[string]fit.WorkoutEntry{
		"2024-01-15": {DurationMinutes: 30},
		"2024-01-02": {DurationMinutes: 45},
		"2024-01-01": {DurationMinutes: 60},
	}
	got := WorkoutSeries(workouts, today, ChartPoints)
	if len(got) != ChartPoints {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Date != "2024-01-02" || got[0].Minutes != 45 {
		t.Errorf("first = %+v", got[0])
	}
	if got[13].Minutes != 30 || got[5].Minutes != 0 {
		t.Errorf("series = %+v", got)
	}
}

func TestStreak(t *testing.T) {
	tests := []struct {
		name  string
		dates []string
		want  int
	}{
		{name: "none", want: 0},
		{name: "today only", dates: []string{"2024-01-15"}, want: 1},
		{name: "yesterday but not today", dates: []string{"2024-01-14"}, want: 0},
		{name: "three with gap", dates: []string{"2024-01-15", "2024-01-14", "2024-01-13", "2024-01-11"}, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := map[string]fit.WorkoutEntry{}
			for _, d := range tt.dates {
				w[d] = fit.WorkoutEntry{Date: d}
			}
			if got := Streak(w, today); got != tt.want {
				t.Errorf("Streak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStreak_Capped(t *testing.T) {
	w := map[string]fit.WorkoutEntry{}
	for i := 0; i < 400; i++ {
		d := fit.DateOf(today.AddDate(0, 0, -i))
		w[d] = fit.WorkoutEntry{Date: d}
	}
	if got := Streak(w, today); got != MaxStreakDays {
		t.Errorf("Streak() = %d, want %d", got, MaxStreakDays)
	}
}

func TestProgressOverview(t *testing.T) {
	p := ProgressOverview(105, 99, 90)
	if p.TotalLoss != 6 {
		t.Errorf("TotalLoss = %v, want 6", p.TotalLoss)
	}
	if math.Abs(p.Percent-40) > 1e-9 {
		t.Errorf("Percent = %v, want 40", p.Percent)
	}

	if got := ProgressOverview(90, 90, 90); got.Percent != 0 {
		t.Errorf("zero span Percent = %v, want 0", got.Percent)
	}
}
