package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ascendhq/ascend-backend/internal/dto"
	"github.com/ascendhq/ascend-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrHabitNotFound   = errors.New("habit not found")
	ErrInvalidMoment   = errors.New("moment must be one of morning, midday, evening")
	ErrInvalidStatus   = errors.New("status must be one of done, partial, skipped")
	ErrInvalidEffort   = errors.New("effort level must be between 0 and 3")
	ErrHabitNameNeeded = errors.New("habit name is required")
)

type HabitService struct {
	db *gorm.DB
}

func NewHabitService(db *gorm.DB) *HabitService {
	return &HabitService{db: db}
}

func (s *HabitService) CreateHabit(userID uuid.UUID, req dto.CreateHabitRequest) (*models.Habit, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrHabitNameNeeded
	}
	moment := req.Moment
	if moment == "" {
		moment = models.MomentMorning
	}
	if !isValidMoment(moment) {
		return nil, ErrInvalidMoment
	}

	habit := models.Habit{
		ID:         uuid.New(),
		UserID:     userID,
		Name:       name,
		Moment:     moment,
		TargetDose: req.TargetDose,
		DoseUnit:   req.DoseUnit,
	}

	if err := s.db.Create(&habit).Error; err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}
	return &habit, nil
}

// ActiveHabits returns the user's non-archived habits.
func (s *HabitService) ActiveHabits(userID uuid.UUID) ([]models.Habit, error) {
	var habits []models.Habit
	err := s.db.Where("user_id = ? AND archived = false", userID).
		Order("created_at ASC").
		Find(&habits).Error
	return habits, err
}

func (s *HabitService) ListHabits(userID uuid.UUID, includeArchived bool) ([]models.Habit, error) {
	q := s.db.Where("user_id = ?", userID)
	if !includeArchived {
		q = q.Where("archived = false")
	}
	var habits []models.Habit
	err := q.Order("created_at ASC").Find(&habits).Error
	return habits, err
}

func (s *HabitService) GetHabit(userID, habitID uuid.UUID) (*models.Habit, error) {
	var habit models.Habit
	if err := s.db.Where("id = ? AND user_id = ?", habitID, userID).First(&habit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, err
	}
	return &habit, nil
}

func (s *HabitService) UpdateHabit(userID, habitID uuid.UUID, req dto.UpdateHabitRequest) (*models.Habit, error) {
	habit, err := s.GetHabit(userID, habitID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrHabitNameNeeded
		}
		habit.Name = name
	}
	if req.Moment != nil {
		if !isValidMoment(*req.Moment) {
			return nil, ErrInvalidMoment
		}
		habit.Moment = *req.Moment
	}
	if req.TargetDose != nil {
		habit.TargetDose = req.TargetDose
	}
	if req.DoseUnit != nil {
		habit.DoseUnit = *req.DoseUnit
	}
	if req.Archived != nil {
		habit.Archived = *req.Archived
	}

	if err := s.db.Save(habit).Error; err != nil {
		return nil, err
	}
	return habit, nil
}

// ArchiveHabit flags a habit as archived so the rollup stops counting it.
// Checkin history is kept.
func (s *HabitService) ArchiveHabit(userID, habitID uuid.UUID) error {
	result := s.db.Model(&models.Habit{}).
		Where("id = ? AND user_id = ?", habitID, userID).
		Update("archived", true)
	if result.Error != nil {
		return fmt.Errorf("failed to archive habit: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrHabitNotFound
	}
	return nil
}

// UpsertCheckin records or replaces the user's checkin for (habit, date).
// The unique index on (user, habit, date) makes this idempotent.
func (s *HabitService) UpsertCheckin(userID uuid.UUID, req dto.UpsertCheckinRequest) (*models.HabitCheckin, error) {
	if !isValidStatus(req.Status) {
		return nil, ErrInvalidStatus
	}
	if req.EffortLevel < 0 || req.EffortLevel > 3 {
		return nil, ErrInvalidEffort
	}

	date, err := ParseDate(req.Date)
	if err != nil {
		return nil, err
	}

	if _, err := s.GetHabit(userID, req.HabitID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	checkin := models.HabitCheckin{
		ID:          uuid.New(),
		UserID:      userID,
		HabitID:     req.HabitID,
		CheckinDate: date,
		Status:      req.Status,
		EffortLevel: req.EffortLevel,
		ActualDose:  req.ActualDose,
		Note:        req.Note,
		EditedAt:    &now,
	}

	err = s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "habit_id"}, {Name: "checkin_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "effort_level", "actual_dose", "note", "edited_at",
		}),
	}).Create(&checkin).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert checkin: %w", err)
	}

	var stored models.HabitCheckin
	if err := s.db.Where("user_id = ? AND habit_id = ? AND checkin_date = ?",
		userID, req.HabitID, date).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// CheckinsForDate returns all of the user's checkins on one calendar day.
func (s *HabitService) CheckinsForDate(userID uuid.UUID, date time.Time) ([]models.HabitCheckin, error) {
	var checkins []models.HabitCheckin
	err := s.db.Where("user_id = ? AND checkin_date = ?", userID, DateOnly(date)).
		Find(&checkins).Error
	return checkins, err
}

func isValidMoment(moment string) bool {
	for _, m := range models.Moments {
		if m == moment {
			return true
		}
	}
	return false
}

func isValidStatus(status string) bool {
	for _, st := range models.CheckinStatuses {
		if st == status {
			return true
		}
	}
	return false
}
