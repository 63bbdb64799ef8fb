package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ascendhq/ascend-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const testTTL = 7 * 24 * time.Hour

func baseSnapshot() *models.WeeklySnapshot {
	return &models.WeeklySnapshot{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		WeekStart:     day(2025, 1, 13),
		WeekEnd:       day(2025, 1, 19),
		CompletionPct: 65,
	}
}

func findByAction(insights []models.Insight, actionType string) *models.Insight {
	for i := range insights {
		if insights[i].ActionType == actionType {
			return &insights[i]
		}
	}
	return nil
}

func TestBuildInsights_LowCompletionWeek(t *testing.T) {
	snap := baseSnapshot()
	snap.CompletionPct = 42

	insights := buildInsights(snap, day(2025, 1, 19), testTTL)

	got := findByAction(insights, models.ActionReschedule)
	if got == nil {
		t.Fatal("expected a reschedule insight for a sub-50% week")
	}
	if got.Priority != models.PriorityHigh {
		t.Errorf("Priority = %q, want high", got.Priority)
	}
	if got.Type != models.InsightTypeWeekly {
		t.Errorf("Type = %q, want weekly", got.Type)
	}

	var payload map[string]string
	if err := json.Unmarshal(got.ActionPayload, &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if payload["from"] != models.MomentEvening || payload["to"] != models.MomentMorning {
		t.Errorf("payload = %v, want evening-to-morning move", payload)
	}
}

func TestBuildInsights_StrongWeek(t *testing.T) {
	snap := baseSnapshot()
	snap.CompletionPct = 85

	insights := buildInsights(snap, day(2025, 1, 19), testTTL)

	got := findByAction(insights, models.ActionAddChallenge)
	if got == nil {
		t.Fatal("expected an add-challenge insight for an over-80% week")
	}
	if got.Priority != models.PriorityMedium {
		t.Errorf("Priority = %q, want medium", got.Priority)
	}
	if findByAction(insights, models.ActionReschedule) != nil {
		t.Error("low-completion rule must not fire on a strong week")
	}
}

func TestBuildInsights_BoundariesDoNotFire(t *testing.T) {
	for _, pct := range []int{50, 80} {
		snap := baseSnapshot()
		snap.CompletionPct = pct
		insights := buildInsights(snap, day(2025, 1, 19), testTTL)
		if len(insights) != 0 {
			t.Errorf("pct=%d: expected no insights at rule boundary, got %d", pct, len(insights))
		}
	}
}

func TestBuildInsights_StreakRecovery(t *testing.T) {
	snap := baseSnapshot()
	snap.CurrentStreak = 3
	snap.BestStreak = 10

	insights := buildInsights(snap, day(2025, 1, 19), testTTL)

	got := findByAction(insights, models.ActionStreakRecovery)
	if got == nil {
		t.Fatal("expected a streak-recovery insight when current < best")
	}
	if got.Type != models.InsightTypePattern {
		t.Errorf("Type = %q, want pattern", got.Type)
	}
}

func TestBuildInsights_NoRecoveryWhenStreakDead(t *testing.T) {
	snap := baseSnapshot()
	snap.CurrentStreak = 0
	snap.BestStreak = 10

	insights := buildInsights(snap, day(2025, 1, 19), testTTL)
	if findByAction(insights, models.ActionStreakRecovery) != nil {
		t.Error("recovery rule needs a live streak to build on")
	}
}

func TestBuildInsights_MomentImbalance(t *testing.T) {
	snap := baseSnapshot()
	snap.BestMoment = models.MomentMorning
	snap.WorstMoment = models.MomentEvening

	insights := buildInsights(snap, day(2025, 1, 19), testTTL)

	got := findByAction(insights, models.ActionReschedule)
	if got == nil {
		t.Fatal("expected a reschedule insight for a moment imbalance")
	}

	var payload map[string]string
	if err := json.Unmarshal(got.ActionPayload, &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if payload["from"] != models.MomentEvening || payload["to"] != models.MomentMorning {
		t.Errorf("payload = %v, want worst-to-best move", payload)
	}
}

func TestBuildInsights_NoImbalanceWhenMomentsMatch(t *testing.T) {
	snap := baseSnapshot()
	snap.BestMoment = models.MomentMidday
	snap.WorstMoment = models.MomentMidday

	insights := buildInsights(snap, day(2025, 1, 19), testTTL)
	if findByAction(insights, models.ActionReschedule) != nil {
		t.Error("imbalance rule must not fire when best and worst coincide")
	}
}

func TestBuildInsights_StrugglingHabit(t *testing.T) {
	worst := uuid.New()
	snap := baseSnapshot()
	snap.StrugglingHabits = datatypes.NewJSONSlice([]string{worst.String(), uuid.New().String()})

	insights := buildInsights(snap, day(2025, 1, 19), testTTL)

	got := findByAction(insights, models.ActionAdjustDifficulty)
	if got == nil {
		t.Fatal("expected an adjust-difficulty insight for a struggling habit")
	}
	if got.Priority != models.PriorityHigh {
		t.Errorf("Priority = %q, want high", got.Priority)
	}
	if got.HabitID == nil || *got.HabitID != worst {
		t.Errorf("HabitID = %v, want the worst-first habit %s", got.HabitID, worst)
	}
}

func TestBuildInsights_RulesAreIndependent(t *testing.T) {
	snap := baseSnapshot()
	snap.CompletionPct = 30
	snap.CurrentStreak = 2
	snap.BestStreak = 9
	snap.BestMoment = models.MomentMorning
	snap.WorstMoment = models.MomentEvening
	snap.StrugglingHabits = datatypes.NewJSONSlice([]string{uuid.New().String()})

	insights := buildInsights(snap, day(2025, 1, 19), testTTL)
	// Rules 1, 3, 4 and 5 all fire on this snapshot.
	if len(insights) != 4 {
		t.Errorf("expected 4 insights, got %d", len(insights))
	}
}

func TestBuildInsights_StampsWeekAndExpiry(t *testing.T) {
	snap := baseSnapshot()
	snap.CompletionPct = 42
	asOf := day(2025, 1, 19)

	insights := buildInsights(snap, asOf, testTTL)
	if len(insights) == 0 {
		t.Fatal("expected at least one insight")
	}
	for _, in := range insights {
		if !in.WeekStart.Equal(snap.WeekStart) {
			t.Errorf("WeekStart = %s, want %s", FormatDate(in.WeekStart), FormatDate(snap.WeekStart))
		}
		if !in.ExpiresAt.Equal(asOf.Add(testTTL)) {
			t.Errorf("ExpiresAt = %v, want asOf + ttl", in.ExpiresAt)
		}
		if in.UserID != snap.UserID {
			t.Errorf("UserID = %s, want %s", in.UserID, snap.UserID)
		}
	}
}
