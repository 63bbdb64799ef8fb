package services

import (
	"testing"

	"github.com/ascendhq/ascend-backend/internal/models"
	"github.com/google/uuid"
)

func intPtr(v int) *int { return &v }

func TestAggregateWeek_HabitDaysAndPct(t *testing.T) {
	days := []models.DailyProgress{
		{TotalHabits: 4, CompletedCount: 3},
		{TotalHabits: 4, CompletedCount: 4},
		{TotalHabits: 4, CompletedCount: 2},
	}

	agg := aggregateWeek(days, nil, nil)
	if agg.TotalHabitDays != 12 {
		t.Errorf("TotalHabitDays = %d, want 12", agg.TotalHabitDays)
	}
	if agg.CompletedHabitDays != 9 {
		t.Errorf("CompletedHabitDays = %d, want 9", agg.CompletedHabitDays)
	}
	if agg.CompletionPct != 75 {
		t.Errorf("CompletionPct = %d, want 75", agg.CompletionPct)
	}
}

func TestAggregateWeek_MoodAveragesSkipMissingDays(t *testing.T) {
	days := []models.DailyProgress{
		{MoodScore: intPtr(4), EnergyScore: intPtr(3)},
		{MoodScore: intPtr(3)},
		{},
	}

	agg := aggregateWeek(days, nil, nil)
	if agg.AvgMood == nil || *agg.AvgMood != 3.5 {
		t.Errorf("AvgMood = %v, want 3.5", agg.AvgMood)
	}
	if agg.AvgEnergy == nil || *agg.AvgEnergy != 3.0 {
		t.Errorf("AvgEnergy = %v, want 3.0", agg.AvgEnergy)
	}
}

func TestAggregateWeek_NoScoresLeavesAveragesUnset(t *testing.T) {
	agg := aggregateWeek([]models.DailyProgress{{TotalHabits: 2}}, nil, nil)
	if agg.AvgMood != nil || agg.AvgEnergy != nil {
		t.Errorf("averages should be nil without scores, got mood=%v energy=%v", agg.AvgMood, agg.AvgEnergy)
	}
}

func TestAggregateWeek_MoodRoundedToOneDecimal(t *testing.T) {
	days := []models.DailyProgress{
		{MoodScore: intPtr(5)},
		{MoodScore: intPtr(4)},
		{MoodScore: intPtr(4)},
	}

	agg := aggregateWeek(days, nil, nil)
	if agg.AvgMood == nil || *agg.AvgMood != 4.3 {
		t.Errorf("AvgMood = %v, want 4.3", agg.AvgMood)
	}
}

func makeCheckins(habitID uuid.UUID, statuses ...string) []models.HabitCheckin {
	out := make([]models.HabitCheckin, len(statuses))
	for i, s := range statuses {
		out[i] = models.HabitCheckin{ID: uuid.New(), HabitID: habitID, Status: s}
	}
	return out
}

func TestRankMoments(t *testing.T) {
	morning := uuid.New()
	evening := uuid.New()
	moments := map[uuid.UUID]string{
		morning: models.MomentMorning,
		evening: models.MomentEvening,
	}

	checkins := append(
		makeCheckins(morning, models.CheckinDone, models.CheckinDone, models.CheckinDone),
		makeCheckins(evening, models.CheckinDone, models.CheckinSkipped, models.CheckinSkipped)...,
	)

	best, worst := rankMoments(checkins, moments)
	if best != models.MomentMorning {
		t.Errorf("best = %q, want morning", best)
	}
	if worst != models.MomentEvening {
		t.Errorf("worst = %q, want evening", worst)
	}
}

func TestRankMoments_NoCheckins(t *testing.T) {
	best, worst := rankMoments(nil, nil)
	if best != "" || worst != "" {
		t.Errorf("expected empty labels without checkins, got best=%q worst=%q", best, worst)
	}
}

func TestRankMoments_SingleMoment(t *testing.T) {
	h := uuid.New()
	moments := map[uuid.UUID]string{h: models.MomentMidday}

	best, worst := rankMoments(makeCheckins(h, models.CheckinDone), moments)
	if best != models.MomentMidday || worst != models.MomentMidday {
		t.Errorf("single moment should be both best and worst, got best=%q worst=%q", best, worst)
	}
}

func TestRankMoments_TieBreaksByFixedOrder(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	moments := map[uuid.UUID]string{
		a: models.MomentMorning,
		b: models.MomentEvening,
	}
	checkins := append(
		makeCheckins(a, models.CheckinDone),
		makeCheckins(b, models.CheckinDone)...,
	)

	// Identical rates: the earlier bucket in the fixed order wins both.
	best, worst := rankMoments(checkins, moments)
	if best != models.MomentMorning {
		t.Errorf("best = %q, want morning on tie", best)
	}
	if worst != models.MomentMorning {
		t.Errorf("worst = %q, want morning on tie", worst)
	}
}

func weekHabits(ids ...uuid.UUID) []models.Habit {
	out := make([]models.Habit, len(ids))
	for i, id := range ids {
		out[i] = models.Habit{ID: id}
	}
	return out
}

func doneTimes(habitID uuid.UUID, n int) []models.HabitCheckin {
	out := make([]models.HabitCheckin, n)
	for i := range out {
		out[i] = models.HabitCheckin{ID: uuid.New(), HabitID: habitID, Status: models.CheckinDone}
	}
	return out
}

func TestRankHabits_TopAndStrugglingDisjoint(t *testing.T) {
	strong, mid, weak := uuid.New(), uuid.New(), uuid.New()
	habits := weekHabits(strong, mid, weak)

	var checkins []models.HabitCheckin
	checkins = append(checkins, doneTimes(strong, 7)...)
	checkins = append(checkins, doneTimes(mid, 4)...)
	checkins = append(checkins, doneTimes(weak, 1)...)

	top, struggling := rankHabits(checkins, habits)
	if len(top) != 1 || top[0] != strong {
		t.Errorf("top = %v, want [%s]", top, strong)
	}
	if len(struggling) != 1 || struggling[0] != weak {
		t.Errorf("struggling = %v, want [%s]", struggling, weak)
	}
	for _, a := range top {
		for _, b := range struggling {
			if a == b {
				t.Errorf("habit %s appears in both lists", a)
			}
		}
	}
}

func TestRankHabits_StrugglingOrderedWorstFirst(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	habits := weekHabits(ids...)

	var checkins []models.HabitCheckin
	for i, id := range ids {
		checkins = append(checkins, doneTimes(id, 7-i)...)
	}

	top, struggling := rankHabits(checkins, habits)
	if len(top) != 3 || len(struggling) != 3 {
		t.Fatalf("expected 3 per list, got top=%d struggling=%d", len(top), len(struggling))
	}
	if struggling[0] != ids[5] {
		t.Errorf("struggling[0] = %s, want the worst habit %s", struggling[0], ids[5])
	}
	if top[0] != ids[0] {
		t.Errorf("top[0] = %s, want the best habit %s", top[0], ids[0])
	}
}

func TestRankHabits_CappedAtThree(t *testing.T) {
	var ids []uuid.UUID
	for i := 0; i < 10; i++ {
		ids = append(ids, uuid.New())
	}
	habits := weekHabits(ids...)

	var checkins []models.HabitCheckin
	for i, id := range ids {
		checkins = append(checkins, doneTimes(id, i)...)
	}

	top, struggling := rankHabits(checkins, habits)
	if len(top) > 3 || len(struggling) > 3 {
		t.Errorf("lists exceed cap: top=%d struggling=%d", len(top), len(struggling))
	}
}

func TestRankHabits_EmptyWhenFewerThanTwoHabits(t *testing.T) {
	h := uuid.New()
	top, struggling := rankHabits(doneTimes(h, 7), weekHabits(h))
	if top != nil || struggling != nil {
		t.Errorf("expected nil lists with one habit, got top=%v struggling=%v", top, struggling)
	}
}

func TestAggregateWeek_ArchivedHabitsExcludedFromRanking(t *testing.T) {
	strong, weak, archived := uuid.New(), uuid.New(), uuid.New()
	habits := []models.Habit{
		{ID: strong, Moment: models.MomentMorning},
		{ID: weak, Moment: models.MomentEvening},
		{ID: archived, Moment: models.MomentMidday, Archived: true},
	}

	var checkins []models.HabitCheckin
	checkins = append(checkins, doneTimes(strong, 5)...)
	checkins = append(checkins, doneTimes(weak, 2)...)

	agg := aggregateWeek(nil, checkins, habits)
	if len(agg.TopHabits) != 1 || agg.TopHabits[0] != strong {
		t.Errorf("TopHabits = %v, want [%s]", agg.TopHabits, strong)
	}
	if len(agg.StrugglingHabits) != 1 || agg.StrugglingHabits[0] != weak {
		t.Errorf("StrugglingHabits = %v, want [%s]", agg.StrugglingHabits, weak)
	}
	for _, id := range agg.StrugglingHabits {
		if id == archived {
			t.Error("archived habit with no checkins ranked as struggling")
		}
	}
}

func TestAggregateWeek_ArchivedHabitStillLabelsOldCheckins(t *testing.T) {
	// A habit archived mid-week keeps supplying its moment label for the
	// checkins it recorded before the archive.
	archived := uuid.New()
	habits := []models.Habit{{ID: archived, Moment: models.MomentEvening, Archived: true}}

	agg := aggregateWeek(nil, doneTimes(archived, 3), habits)
	if agg.BestMoment != models.MomentEvening || agg.WorstMoment != models.MomentEvening {
		t.Errorf("moments = (%q, %q), want evening checkins to still count", agg.BestMoment, agg.WorstMoment)
	}
}

func TestRankHabits_EmptyWhenUndifferentiated(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	habits := weekHabits(a, b, c)

	var checkins []models.HabitCheckin
	for _, id := range []uuid.UUID{a, b, c} {
		checkins = append(checkins, doneTimes(id, 4)...)
	}

	top, struggling := rankHabits(checkins, habits)
	if top != nil || struggling != nil {
		t.Errorf("identical rates should yield no lists, got top=%v struggling=%v", top, struggling)
	}
}
