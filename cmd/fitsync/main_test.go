package main

import (
	"strings"
	"testing"
	"time"

	"fitsync/internal/fit"
	"fitsync/internal/stats"
)

func TestRenderHeatmap(t *testing.T) {
	// 2024-01-15 is a Monday.
	today := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	workouts := map[string]fit.WorkoutEntry{
		"2024-01-15": {Date: "2024-01-15", Intensity: 4},
		"2024-01-13": {Date: "2024-01-13", Intensity: 2},
	}

	out := renderHeatmap(stats.Heatmap(workouts, today, 9))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("rows = %d, want 7:\n%s", len(lines), out)
	}

	// 2024-01-07 (Sunday) starts the window, so there are two week columns.
	want := []string{
		"Sun ··",
		"Mon ·█",
		"Tue · ",
		"Wed · ",
		"Thu · ",
		"Fri · ",
		"Sat ▒ ",
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("row %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestRenderHeatmap_Empty(t *testing.T) {
	if got := renderHeatmap(nil); got != "" {
		t.Errorf("renderHeatmap(nil) = %q", got)
	}
}
