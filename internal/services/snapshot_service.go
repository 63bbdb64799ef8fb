package services

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/ascendhq/ascend-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNoWeekData signals a week with nothing to summarize. It is a valid
// empty state, not a failure.
var ErrNoWeekData = errors.New("no data for this week")

// snapshotStaleAfter is how old an existing snapshot may be before an
// on-demand read recomputes it.
const snapshotStaleAfter = time.Hour

// weekListLimit caps the top/struggling habit lists at 3 entries each.
const weekListLimit = 3

// SnapshotService aggregates a week of daily records, checkins and habit
// metrics into one WeeklySnapshot row.
type SnapshotService struct {
	db        *gorm.DB
	metrics   *MetricService
	narrative NarrativeGenerator
}

func NewSnapshotService(db *gorm.DB, metrics *MetricService, narrative NarrativeGenerator) *SnapshotService {
	return &SnapshotService{db: db, metrics: metrics, narrative: narrative}
}

// weekAggregate is the derived summary of one week, before persistence.
type weekAggregate struct {
	CompletionPct      int
	TotalHabitDays     int
	CompletedHabitDays int
	AvgMood            *float64
	AvgEnergy          *float64
	BestMoment         string
	WorstMoment        string
	TopHabits          []uuid.UUID
	StrugglingHabits   []uuid.UUID
}

// aggregateWeek derives the weekly summary from the week's daily rows and
// checkins. Habits supply the moment label per habit id.
func aggregateWeek(days []models.DailyProgress, checkins []models.HabitCheckin, habits []models.Habit) weekAggregate {
	agg := weekAggregate{}

	moodSum, moodN := 0, 0
	energySum, energyN := 0, 0
	for _, d := range days {
		agg.TotalHabitDays += d.TotalHabits
		agg.CompletedHabitDays += d.CompletedCount
		if d.MoodScore != nil {
			moodSum += *d.MoodScore
			moodN++
		}
		if d.EnergyScore != nil {
			energySum += *d.EnergyScore
			energyN++
		}
	}
	if agg.TotalHabitDays > 0 {
		agg.CompletionPct = int(math.Round(float64(agg.CompletedHabitDays) / float64(agg.TotalHabitDays) * 100))
	}
	if moodN > 0 {
		v := math.Round(float64(moodSum)/float64(moodN)*10) / 10
		agg.AvgMood = &v
	}
	if energyN > 0 {
		v := math.Round(float64(energySum)/float64(energyN)*10) / 10
		agg.AvgEnergy = &v
	}

	momentByHabit := make(map[uuid.UUID]string, len(habits))
	for _, h := range habits {
		momentByHabit[h.ID] = h.Moment
	}

	// Archived habits still label any checkins recorded before the archive,
	// but they no longer compete: a dormant habit with zero week checkins
	// must not squat in the struggling list.
	active := make([]models.Habit, 0, len(habits))
	for _, h := range habits {
		if !h.Archived {
			active = append(active, h)
		}
	}

	agg.BestMoment, agg.WorstMoment = rankMoments(checkins, momentByHabit)
	agg.TopHabits, agg.StrugglingHabits = rankHabits(checkins, active)

	return agg
}

// rankMoments groups the week's checkins by the habit's time-of-day label
// and ranks moments by done-rate. Both labels stay empty unless at least
// one moment has checkins; best equals worst when only one moment appears.
func rankMoments(checkins []models.HabitCheckin, momentByHabit map[uuid.UUID]string) (best, worst string) {
	type tally struct{ done, total int }
	byMoment := make(map[string]*tally)
	for _, c := range checkins {
		moment, ok := momentByHabit[c.HabitID]
		if !ok {
			continue
		}
		t := byMoment[moment]
		if t == nil {
			t = &tally{}
			byMoment[moment] = t
		}
		t.total++
		if c.Status == models.CheckinDone {
			t.done++
		}
	}
	if len(byMoment) == 0 {
		return "", ""
	}

	bestRate, worstRate := -1.0, 2.0
	// Iterate the fixed moment order for deterministic tie-breaking.
	for _, m := range models.Moments {
		t, ok := byMoment[m]
		if !ok {
			continue
		}
		rate := float64(t.done) / float64(t.total)
		if rate > bestRate {
			bestRate = rate
			best = m
		}
		if rate < worstRate {
			worstRate = rate
			worst = m
		}
	}
	return best, worst
}

// rankHabits orders habits by weekly done-rate and takes up to 3 from each
// end. The lists are disjoint by construction (each capped at half the
// habit count) and both empty when fewer than two habits exist or all
// rates are identical. Struggling is ordered worst-first.
func rankHabits(checkins []models.HabitCheckin, habits []models.Habit) (top, struggling []uuid.UUID) {
	if len(habits) < 2 {
		return nil, nil
	}

	doneByHabit := make(map[uuid.UUID]int)
	for _, c := range checkins {
		if c.Status == models.CheckinDone {
			doneByHabit[c.HabitID]++
		}
	}

	type ranked struct {
		id   uuid.UUID
		rate float64
	}
	rankedHabits := make([]ranked, 0, len(habits))
	for _, h := range habits {
		rankedHabits = append(rankedHabits, ranked{
			id:   h.ID,
			rate: float64(doneByHabit[h.ID]) / 7.0,
		})
	}
	sort.SliceStable(rankedHabits, func(i, j int) bool {
		return rankedHabits[i].rate > rankedHabits[j].rate
	})

	// No differentiation, no lists.
	if rankedHabits[0].rate == rankedHabits[len(rankedHabits)-1].rate {
		return nil, nil
	}

	k := len(rankedHabits) / 2
	if k > weekListLimit {
		k = weekListLimit
	}
	for i := 0; i < k; i++ {
		top = append(top, rankedHabits[i].id)
	}
	for i := 0; i < k; i++ {
		struggling = append(struggling, rankedHabits[len(rankedHabits)-1-i].id)
	}
	return top, struggling
}

// Generate computes and upserts the snapshot for (user, weekStart). The
// computed fields are always overwritten; an existing AI narrative is kept
// unless force is set, in which case it is regenerated from scratch.
func (s *SnapshotService) Generate(userID uuid.UUID, weekStart time.Time, force bool) (*models.WeeklySnapshot, error) {
	weekStart = DateOnly(weekStart)
	weekEnd := weekStart.AddDate(0, 0, 6)

	var days []models.DailyProgress
	if err := s.db.Where("user_id = ? AND progress_date BETWEEN ? AND ?", userID, weekStart, weekEnd).
		Order("progress_date ASC").
		Find(&days).Error; err != nil {
		return nil, fmt.Errorf("failed to load daily progress: %w", err)
	}

	var checkins []models.HabitCheckin
	if err := s.db.Where("user_id = ? AND checkin_date BETWEEN ? AND ?", userID, weekStart, weekEnd).
		Find(&checkins).Error; err != nil {
		return nil, fmt.Errorf("failed to load checkins: %w", err)
	}

	if len(days) == 0 && len(checkins) == 0 {
		return nil, ErrNoWeekData
	}

	var habits []models.Habit
	if err := s.db.Where("user_id = ?", userID).Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}

	agg := aggregateWeek(days, checkins, habits)

	// User-level streaks are the strongest habit's streaks.
	currentStreak, bestStreak := 0, 0
	metrics, err := s.metrics.MetricsForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load habit metrics: %w", err)
	}
	for _, m := range metrics {
		if m.CurrentStreak > currentStreak {
			currentStreak = m.CurrentStreak
		}
		if m.BestStreak > bestStreak {
			bestStreak = m.BestStreak
		}
	}

	snapshot := models.WeeklySnapshot{
		ID:                 uuid.New(),
		UserID:             userID,
		WeekStart:          weekStart,
		WeekEnd:            weekEnd,
		CompletionPct:      agg.CompletionPct,
		TotalHabitDays:     agg.TotalHabitDays,
		CompletedHabitDays: agg.CompletedHabitDays,
		CurrentStreak:      currentStreak,
		BestStreak:         bestStreak,
		AvgMood:            agg.AvgMood,
		AvgEnergy:          agg.AvgEnergy,
		BestMoment:         agg.BestMoment,
		WorstMoment:        agg.WorstMoment,
		TopHabits:          uuidStrings(agg.TopHabits),
		StrugglingHabits:   uuidStrings(agg.StrugglingHabits),
	}

	var existing models.WeeklySnapshot
	hasExisting := s.db.Where("user_id = ? AND week_start = ?", userID, weekStart).
		First(&existing).Error == nil

	if hasExisting && !force {
		snapshot.AISummary = existing.AISummary
		snapshot.AIInsights = existing.AIInsights
	}

	// Best-effort narrative enrichment. Any failure leaves the snapshot
	// without a narrative; it never blocks the write.
	if snapshot.AISummary == "" && s.narrative != nil {
		narrative, err := s.narrative.GenerateNarrative(NarrativeInput{
			UserID:           userID,
			WeekStart:        weekStart,
			CompletionPct:    agg.CompletionPct,
			CurrentStreak:    currentStreak,
			BestStreak:       bestStreak,
			BestMoment:       agg.BestMoment,
			WorstMoment:      agg.WorstMoment,
			TopHabits:        habitNames(habits, agg.TopHabits),
			StrugglingHabits: habitNames(habits, agg.StrugglingHabits),
		})
		if err != nil {
			slog.Warn("narrative generation failed",
				"stage", "snapshot", "user_id", userID.String(), "week_start", FormatDate(weekStart), "error", err)
		} else {
			snapshot.AISummary = narrative.Summary
			snapshot.AIInsights = datatypes.NewJSONSlice(narrative.Insights)
		}
	}

	err = s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "week_start"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"week_end", "completion_pct", "total_habit_days", "completed_habit_days",
			"current_streak", "best_streak", "avg_mood", "avg_energy",
			"best_moment", "worst_moment", "top_habits", "struggling_habits",
			"ai_summary", "ai_insights", "updated_at",
		}),
	}).Create(&snapshot).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert weekly snapshot: %w", err)
	}

	var stored models.WeeklySnapshot
	if err := s.db.Where("user_id = ? AND week_start = ?", userID, weekStart).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetOrGenerate returns the snapshot for (user, weekStart), recomputing it
// when missing or older than an hour.
func (s *SnapshotService) GetOrGenerate(userID uuid.UUID, weekStart time.Time) (*models.WeeklySnapshot, error) {
	weekStart = DateOnly(weekStart)

	var existing models.WeeklySnapshot
	err := s.db.Where("user_id = ? AND week_start = ?", userID, weekStart).First(&existing).Error
	if err == nil && time.Since(existing.UpdatedAt) < snapshotStaleAfter {
		return &existing, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return s.Generate(userID, weekStart, false)
}

func uuidStrings(ids []uuid.UUID) datatypes.JSONSlice[string] {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return datatypes.NewJSONSlice(out)
}

func habitNames(habits []models.Habit, ids []uuid.UUID) []string {
	byID := make(map[uuid.UUID]string, len(habits))
	for _, h := range habits {
		byID[h.ID] = h.Name
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			out = append(out, name)
		}
	}
	return out
}
