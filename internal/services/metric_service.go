package services

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ascendhq/ascend-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	emaWindowDays = 30
	emaAlpha      = 2.0 / (emaWindowDays + 1)
	emaDefault    = 0.5
)

// MetricService recomputes per-habit streaks and the 30-day EMA of
// completion as of a given date.
type MetricService struct {
	db *gorm.DB
}

func NewMetricService(db *gorm.DB) *MetricService {
	return &MetricService{db: db}
}

// streakResult holds the outcome of a streak walk over done-checkin dates.
type streakResult struct {
	Current  int
	Best     int
	LastDone *time.Time
}

// computeStreaks walks done-checkin dates (descending, deduplicated to
// calendar days) and derives the current and best streak. The most recent
// run only counts as the current streak when it is still live, meaning the
// last done day is asOf or the day before.
func computeStreaks(doneDates []time.Time, asOf time.Time) streakResult {
	if len(doneDates) == 0 {
		return streakResult{}
	}

	asOf = DateOnly(asOf)
	days := dedupeDaysDesc(doneDates)

	// Measure every consecutive-day run; the first run is the candidate
	// current streak, best is the longest run anywhere in history.
	best := 0
	firstRun := 0
	run := 1
	for i := 1; i <= len(days); i++ {
		if i < len(days) && days[i-1].AddDate(0, 0, -1).Equal(days[i]) {
			run++
			continue
		}
		if firstRun == 0 {
			firstRun = run
		}
		if run > best {
			best = run
		}
		run = 1
	}

	last := days[0]
	current := 0
	if last.Equal(asOf) || last.Equal(asOf.AddDate(0, 0, -1)) {
		current = firstRun
	}

	return streakResult{Current: current, Best: best, LastDone: &last}
}

// dedupeDaysDesc normalizes timestamps to calendar days, removes
// duplicates, and returns them newest first. Input is assumed date-desc
// ordered but duplicates within a day are tolerated.
func dedupeDaysDesc(dates []time.Time) []time.Time {
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := DateOnly(d)
		if len(out) > 0 && out[len(out)-1].Equal(day) {
			continue
		}
		out = append(out, day)
	}
	return out
}

// nextEMA applies one step of the EMA recurrence and rounds to 4 decimals.
func nextEMA(prev, rate float64) float64 {
	v := emaAlpha*rate + (1-emaAlpha)*prev
	return math.Round(v*10000) / 10000
}

// advanceEMA counts done days in the inclusive [asOf-30, asOf] window and
// applies one EMA step. A window with no data returns prev untouched:
// absence of checkins is not evidence of failure and must not drag a new
// or dormant habit toward zero.
func advanceEMA(prev float64, doneDates []time.Time, asOf time.Time) float64 {
	asOf = DateOnly(asOf)
	windowStart := asOf.AddDate(0, 0, -emaWindowDays)

	count := 0
	for _, d := range doneDates {
		day := DateOnly(d)
		if !day.Before(windowStart) && !day.After(asOf) {
			count++
		}
	}
	if count == 0 {
		return prev
	}

	rate := float64(count) / float64(emaWindowDays)
	if rate > 1 {
		rate = 1
	}
	return nextEMA(prev, rate)
}

// UpdateHabitMetrics recomputes the streak and EMA state for one habit as
// of the given date and upserts the metric row.
func (s *MetricService) UpdateHabitMetrics(userID, habitID uuid.UUID, asOf time.Time) (*models.HabitMetric, error) {
	asOf = DateOnly(asOf)

	var done []models.HabitCheckin
	if err := s.db.Where("user_id = ? AND habit_id = ? AND status = ?",
		userID, habitID, models.CheckinDone).
		Order("checkin_date DESC").
		Find(&done).Error; err != nil {
		return nil, fmt.Errorf("failed to load done checkins: %w", err)
	}

	doneDates := make([]time.Time, len(done))
	for i, c := range done {
		doneDates[i] = c.CheckinDate
	}
	streaks := computeStreaks(doneDates, asOf)

	var prev models.HabitMetric
	prevEMA := emaDefault
	hasPrev := false
	err := s.db.Where("user_id = ? AND habit_id = ?", userID, habitID).First(&prev).Error
	if err == nil {
		prevEMA = prev.EMA30
		hasPrev = true
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load habit metric: %w", err)
	}

	ema := advanceEMA(prevEMA, doneDates, asOf)

	metric := models.HabitMetric{
		ID:              uuid.New(),
		UserID:          userID,
		HabitID:         habitID,
		EMA30:           ema,
		CurrentStreak:   streaks.Current,
		BestStreak:      streaks.Best,
		GraceTokens:     models.GraceTokenAllowance,
		MaintenanceMode: hasPrev && prev.MaintenanceMode,
		LastUpdatedDate: asOf,
	}
	if streaks.LastDone != nil {
		metric.LastCompletedDate = streaks.LastDone
	}

	err = s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "habit_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"ema_30", "current_streak", "best_streak", "last_completed_date",
			"grace_tokens", "last_updated_date", "updated_at",
		}),
	}).Create(&metric).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert habit metric: %w", err)
	}

	return &metric, nil
}

// UpdateAllHabitMetrics runs the metric update for every active habit,
// isolating failures so one bad habit does not block the rest.
func (s *MetricService) UpdateAllHabitMetrics(userID uuid.UUID, habits []models.Habit, asOf time.Time) error {
	var errs []error
	for _, h := range habits {
		if _, err := s.UpdateHabitMetrics(userID, h.ID, asOf); err != nil {
			slog.Error("habit metric update failed",
				"stage", "metrics", "user_id", userID.String(), "habit_id", h.ID.String(), "error", err)
			errs = append(errs, fmt.Errorf("habit %s: %w", h.ID, err))
		}
	}
	return errors.Join(errs...)
}

// MetricsForUser returns all metric rows for a user keyed by habit id.
func (s *MetricService) MetricsForUser(userID uuid.UUID) (map[uuid.UUID]models.HabitMetric, error) {
	var metrics []models.HabitMetric
	if err := s.db.Where("user_id = ?", userID).Find(&metrics).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]models.HabitMetric, len(metrics))
	for _, m := range metrics {
		out[m.HabitID] = m
	}
	return out, nil
}
