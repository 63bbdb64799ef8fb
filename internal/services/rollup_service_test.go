package services

import (
	"testing"

	"github.com/ascendhq/ascend-backend/internal/models"
	"github.com/google/uuid"
)

func habitsOf(n int) []models.Habit {
	out := make([]models.Habit, n)
	for i := range out {
		out[i] = models.Habit{ID: uuid.New()}
	}
	return out
}

func checkinsWith(statuses ...string) []models.HabitCheckin {
	out := make([]models.HabitCheckin, len(statuses))
	for i, s := range statuses {
		out[i] = models.HabitCheckin{ID: uuid.New(), Status: s}
	}
	return out
}

func TestTallyDaily(t *testing.T) {
	tests := []struct {
		name     string
		habits   []models.Habit
		checkins []models.HabitCheckin
		want     dailyTally
	}{
		{
			name:     "three of four done",
			habits:   habitsOf(4),
			checkins: checkinsWith(models.CheckinDone, models.CheckinDone, models.CheckinDone),
			want:     dailyTally{Total: 4, Completed: 3, Partial: 0, Missed: 1, CompletionPct: 75},
		},
		{
			name:     "partial does not count toward completion pct",
			habits:   habitsOf(3),
			checkins: checkinsWith(models.CheckinDone, models.CheckinPartial),
			want:     dailyTally{Total: 3, Completed: 1, Partial: 1, Missed: 1, CompletionPct: 33},
		},
		{
			name:     "skipped counts as missed",
			habits:   habitsOf(2),
			checkins: checkinsWith(models.CheckinSkipped, models.CheckinSkipped),
			want:     dailyTally{Total: 2, Completed: 0, Partial: 0, Missed: 2, CompletionPct: 0},
		},
		{
			name:   "no habits",
			habits: nil,
			want:   dailyTally{},
		},
		{
			name:     "no checkins all missed",
			habits:   habitsOf(5),
			checkins: nil,
			want:     dailyTally{Total: 5, Missed: 5},
		},
		{
			name:     "rounding half up",
			habits:   habitsOf(8),
			checkins: checkinsWith(models.CheckinDone, models.CheckinDone, models.CheckinDone),
			want:     dailyTally{Total: 8, Completed: 3, Missed: 5, CompletionPct: 38},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tallyDaily(tt.habits, tt.checkins)
			if got != tt.want {
				t.Errorf("tallyDaily = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTallyDaily_MissedNeverNegative(t *testing.T) {
	// More recorded checkins than active habits can happen when habits are
	// archived after the fact. The missed count must stay at zero.
	habits := habitsOf(2)
	checkins := checkinsWith(models.CheckinDone, models.CheckinDone, models.CheckinDone, models.CheckinDone)

	got := tallyDaily(habits, checkins)
	if got.Missed != 0 {
		t.Errorf("Missed = %d, want 0", got.Missed)
	}
}

func TestTallyDaily_CountsPartitionTotal(t *testing.T) {
	habits := habitsOf(6)
	checkins := checkinsWith(
		models.CheckinDone, models.CheckinDone,
		models.CheckinPartial,
		models.CheckinSkipped,
	)

	got := tallyDaily(habits, checkins)
	if got.Completed+got.Partial+got.Missed != got.Total {
		t.Errorf("completed(%d) + partial(%d) + missed(%d) != total(%d)",
			got.Completed, got.Partial, got.Missed, got.Total)
	}
}
