package services

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeStreaks_LiveRun(t *testing.T) {
	// Done on Jan 13, 14, 15; evaluated on Jan 15.
	done := []time.Time{
		day(2025, 1, 15),
		day(2025, 1, 14),
		day(2025, 1, 13),
	}

	got := computeStreaks(done, day(2025, 1, 15))
	if got.Current != 3 {
		t.Errorf("Current = %d, want 3", got.Current)
	}
	if got.Best != 3 {
		t.Errorf("Best = %d, want 3", got.Best)
	}
	if got.LastDone == nil || !got.LastDone.Equal(day(2025, 1, 15)) {
		t.Errorf("LastDone = %v, want 2025-01-15", got.LastDone)
	}
}

func TestComputeStreaks_BrokenRun(t *testing.T) {
	// Same history, but evaluated two days after the last done day. The run
	// is no longer live, so current drops to zero while best survives.
	done := []time.Time{
		day(2025, 1, 15),
		day(2025, 1, 14),
		day(2025, 1, 13),
	}

	got := computeStreaks(done, day(2025, 1, 17))
	if got.Current != 0 {
		t.Errorf("Current = %d, want 0", got.Current)
	}
	if got.Best != 3 {
		t.Errorf("Best = %d, want 3", got.Best)
	}
}

func TestComputeStreaks_YesterdayStillLive(t *testing.T) {
	// A run ending yesterday counts: the user has until end of today.
	done := []time.Time{
		day(2025, 3, 9),
		day(2025, 3, 8),
	}

	got := computeStreaks(done, day(2025, 3, 10))
	if got.Current != 2 {
		t.Errorf("Current = %d, want 2", got.Current)
	}
}

func TestComputeStreaks_BestFromOlderRun(t *testing.T) {
	// A 4-day run in February, then a fresh 2-day run.
	done := []time.Time{
		day(2025, 3, 2),
		day(2025, 3, 1),
		day(2025, 2, 13),
		day(2025, 2, 12),
		day(2025, 2, 11),
		day(2025, 2, 10),
	}

	got := computeStreaks(done, day(2025, 3, 2))
	if got.Current != 2 {
		t.Errorf("Current = %d, want 2", got.Current)
	}
	if got.Best != 4 {
		t.Errorf("Best = %d, want 4", got.Best)
	}
}

func TestComputeStreaks_DuplicateTimestampsCollapse(t *testing.T) {
	// Two checkin edits on the same calendar day count as one day.
	done := []time.Time{
		time.Date(2025, 5, 6, 21, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 6, 8, 0, 0, 0, time.UTC),
		day(2025, 5, 5),
	}

	got := computeStreaks(done, day(2025, 5, 6))
	if got.Current != 2 {
		t.Errorf("Current = %d, want 2", got.Current)
	}
	if got.Best != 2 {
		t.Errorf("Best = %d, want 2", got.Best)
	}
}

func TestComputeStreaks_Empty(t *testing.T) {
	got := computeStreaks(nil, day(2025, 1, 1))
	if got.Current != 0 || got.Best != 0 || got.LastDone != nil {
		t.Errorf("empty history should yield zero streaks, got %+v", got)
	}
}

func TestComputeStreaks_BestNeverBelowCurrent(t *testing.T) {
	done := []time.Time{
		day(2025, 4, 10),
		day(2025, 4, 9),
		day(2025, 4, 8),
		day(2025, 4, 5),
	}

	got := computeStreaks(done, day(2025, 4, 10))
	if got.Best < got.Current {
		t.Errorf("Best (%d) < Current (%d)", got.Best, got.Current)
	}
}

func TestNextEMA(t *testing.T) {
	tests := []struct {
		name string
		prev float64
		rate float64
		want float64
	}{
		{"default toward moderate rate", 0.5, 0.3, 0.4871},
		{"stable at zero", 0.0, 0.0, 0.0},
		{"stable at one", 1.0, 1.0, 1.0},
		{"pull up from default", 0.5, 1.0, 0.5323},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextEMA(tt.prev, tt.rate)
			if got != tt.want {
				t.Errorf("nextEMA(%v, %v) = %v, want %v", tt.prev, tt.rate, got, tt.want)
			}
		})
	}
}

func TestAdvanceEMA_EmptyWindowLeavesPrevUntouched(t *testing.T) {
	asOf := day(2025, 6, 30)
	prev := 0.7234

	if got := advanceEMA(prev, nil, asOf); got != prev {
		t.Errorf("advanceEMA with no history = %v, want prev %v", got, prev)
	}

	// All done days predate the window; still no recurrence step.
	stale := []time.Time{day(2025, 5, 30), day(2025, 4, 1)}
	if got := advanceEMA(prev, stale, asOf); got != prev {
		t.Errorf("advanceEMA with stale history = %v, want prev %v", got, prev)
	}
}

func TestAdvanceEMA_WindowBoundsInclusive(t *testing.T) {
	asOf := day(2025, 6, 30)

	// asOf-30 and asOf are both inside the window; asOf-31 is not.
	edges := []time.Time{asOf, asOf.AddDate(0, 0, -30)}
	want := nextEMA(0.5, 2.0/30.0)
	if got := advanceEMA(0.5, edges, asOf); got != want {
		t.Errorf("advanceEMA(edge days) = %v, want %v", got, want)
	}

	outside := []time.Time{asOf.AddDate(0, 0, -31)}
	if got := advanceEMA(0.5, outside, asOf); got != 0.5 {
		t.Errorf("advanceEMA(day before window) = %v, want prev 0.5", got)
	}
}

func TestAdvanceEMA_RateCappedAtOne(t *testing.T) {
	asOf := day(2025, 6, 30)
	var done []time.Time
	for i := 0; i <= 30; i++ {
		done = append(done, asOf.AddDate(0, 0, -i))
	}

	// 31 days inside the inclusive window; rate clamps to 1.
	want := nextEMA(0.5, 1)
	if got := advanceEMA(0.5, done, asOf); got != want {
		t.Errorf("advanceEMA(full window) = %v, want %v", got, want)
	}
}

func TestNextEMA_StaysInUnitInterval(t *testing.T) {
	for _, prev := range []float64{0, 0.25, 0.5, 0.75, 1} {
		for _, rate := range []float64{0, 0.5, 1} {
			got := nextEMA(prev, rate)
			if got < 0 || got > 1 {
				t.Errorf("nextEMA(%v, %v) = %v, outside [0, 1]", prev, rate, got)
			}
		}
	}
}
