package services

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ascendhq/ascend-backend/internal/dto"
	"github.com/ascendhq/ascend-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// dailyTally is the pure aggregation over one day's habits and checkins.
type dailyTally struct {
	Total         int
	Completed     int
	Partial       int
	Missed        int
	CompletionPct int
}

// tallyDaily counts checkin statuses against the active habit set.
// Missed absorbs the remainder and never goes negative.
func tallyDaily(habits []models.Habit, checkins []models.HabitCheckin) dailyTally {
	t := dailyTally{Total: len(habits)}
	for _, c := range checkins {
		switch c.Status {
		case models.CheckinDone:
			t.Completed++
		case models.CheckinPartial:
			t.Partial++
		}
	}
	t.Missed = t.Total - t.Completed - t.Partial
	if t.Missed < 0 {
		t.Missed = 0
	}
	if t.Total > 0 {
		t.CompletionPct = int(math.Round(float64(t.Completed) / float64(t.Total) * 100))
	}
	return t
}

// RollupService drives the daily pipeline: completion aggregation, habit
// metrics, and (on week boundaries) the weekly snapshot and insights.
type RollupService struct {
	db        *gorm.DB
	habits    *HabitService
	metrics   *MetricService
	snapshots *SnapshotService
	insights  *InsightService
}

func NewRollupService(db *gorm.DB, habits *HabitService, metrics *MetricService, snapshots *SnapshotService, insights *InsightService) *RollupService {
	return &RollupService{
		db:        db,
		habits:    habits,
		metrics:   metrics,
		snapshots: snapshots,
		insights:  insights,
	}
}

// ProcessDaily computes and upserts the DailyProgress row for (user, date).
// Counts are always recomputed from the source checkins; mood, energy and
// note columns are left to their existing values.
func (s *RollupService) ProcessDaily(userID uuid.UUID, asOf time.Time) (*models.DailyProgress, error) {
	asOf = DateOnly(asOf)

	habits, err := s.habits.ActiveHabits(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}
	checkins, err := s.habits.CheckinsForDate(userID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkins: %w", err)
	}

	t := tallyDaily(habits, checkins)

	progress := models.DailyProgress{
		ID:             uuid.New(),
		UserID:         userID,
		ProgressDate:   asOf,
		TotalHabits:    t.Total,
		CompletedCount: t.Completed,
		PartialCount:   t.Partial,
		MissedCount:    t.Missed,
		CompletionPct:  t.CompletionPct,
	}

	err = s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "progress_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_habits", "completed_count", "partial_count",
			"missed_count", "completion_pct", "updated_at",
		}),
	}).Create(&progress).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert daily progress: %w", err)
	}

	var stored models.DailyProgress
	if err := s.db.Where("user_id = ? AND progress_date = ?", userID, asOf).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// SetDailyMood sets the user-supplied mood/energy/note on a day's progress
// row, creating a zero-valued row if the rollup has not run yet.
func (s *RollupService) SetDailyMood(userID uuid.UUID, req dto.SetDailyMoodRequest) (*models.DailyProgress, error) {
	date, err := ParseDate(req.Date)
	if err != nil {
		return nil, err
	}

	var progress models.DailyProgress
	err = s.db.Where("user_id = ? AND progress_date = ?", userID, date).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		stored, err := s.ProcessDaily(userID, date)
		if err != nil {
			return nil, err
		}
		progress = *stored
	} else if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.MoodScore != nil {
		updates["mood_score"] = *req.MoodScore
	}
	if req.EnergyScore != nil {
		updates["energy_score"] = *req.EnergyScore
	}
	if req.Note != nil {
		updates["note"] = *req.Note
	}
	if len(updates) > 0 {
		if err := s.db.Model(&progress).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	var stored models.DailyProgress
	if err := s.db.Where("user_id = ? AND progress_date = ?", userID, date).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// DailyFor returns the stored DailyProgress row for (user, date), if any.
func (s *RollupService) DailyFor(userID uuid.UUID, date time.Time) (*models.DailyProgress, error) {
	var progress models.DailyProgress
	err := s.db.Where("user_id = ? AND progress_date = ?", userID, DateOnly(date)).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// ProcessUser runs the full pipeline for one user as of the given date.
// The daily aggregate is the input to everything downstream, so its
// failure aborts the run; later stage failures are collected so that a
// metric failure for one habit cannot silently skip the snapshot.
func (s *RollupService) ProcessUser(userID uuid.UUID, asOf time.Time) error {
	asOf = DateOnly(asOf)

	if _, err := s.ProcessDaily(userID, asOf); err != nil {
		return fmt.Errorf("daily aggregation: %w", err)
	}

	var errs []error

	habits, err := s.habits.ActiveHabits(userID)
	if err != nil {
		errs = append(errs, fmt.Errorf("load habits: %w", err))
	} else if err := s.metrics.UpdateAllHabitMetrics(userID, habits, asOf); err != nil {
		errs = append(errs, fmt.Errorf("habit metrics: %w", err))
	}

	// Week boundary: Sunday closes the Monday-start week.
	if asOf.Weekday() == time.Sunday {
		weekStart := asOf.AddDate(0, 0, -6)
		_, err := s.snapshots.Generate(userID, weekStart, false)
		switch {
		case errors.Is(err, ErrNoWeekData):
			// Valid empty state for new users; nothing to snapshot or recommend.
		case err != nil:
			errs = append(errs, fmt.Errorf("weekly snapshot: %w", err))
		default:
			if _, err := s.insights.GetOrGenerate(userID, &weekStart, asOf, false); err != nil {
				errs = append(errs, fmt.Errorf("insights: %w", err))
			}
		}
	}

	return errors.Join(errs...)
}

// ProcessAll runs the pipeline for every active user (or one specific
// user), collecting per-user results without aborting the batch.
func (s *RollupService) ProcessAll(asOf time.Time, only *uuid.UUID) []dto.UserRollupResult {
	asOf = DateOnly(asOf)

	var userIDs []uuid.UUID
	if only != nil {
		userIDs = []uuid.UUID{*only}
	} else {
		// Active users are those owning at least one non-archived habit.
		if err := s.db.Model(&models.Habit{}).
			Where("archived = false").
			Distinct("user_id").
			Pluck("user_id", &userIDs).Error; err != nil {
			slog.Error("failed to list active users for rollup", "stage", "batch", "error", err)
			return nil
		}
	}

	results := make([]dto.UserRollupResult, 0, len(userIDs))
	for _, id := range userIDs {
		result := dto.UserRollupResult{UserID: id, Success: true}
		if err := s.ProcessUser(id, asOf); err != nil {
			slog.Error("user rollup failed",
				"stage", "batch", "user_id", id.String(), "date", FormatDate(asOf), "error", err)
			result.Success = false
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results
}
