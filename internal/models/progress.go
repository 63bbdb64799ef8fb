package models

import (
	"time"

	"github.com/google/uuid"
)

// DailyProgress summarizes one (user, date) across all active habits.
// Written only by the daily rollup; mood/energy/note are set by the user
// and survive recomputation.
type DailyProgress struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_daily_progress_user_date" json:"user_id"`
	ProgressDate   time.Time `gorm:"type:date;not null;uniqueIndex:idx_daily_progress_user_date" json:"progress_date"`
	TotalHabits    int       `gorm:"default:0" json:"total_habits"`
	CompletedCount int       `gorm:"default:0" json:"completed_count"`
	PartialCount   int       `gorm:"default:0" json:"partial_count"`
	MissedCount    int       `gorm:"default:0" json:"missed_count"`
	CompletionPct  int       `gorm:"default:0" json:"completion_pct"`
	MoodScore      *int      `json:"mood_score,omitempty"`
	EnergyScore    *int      `json:"energy_score,omitempty"`
	Note           string    `gorm:"type:text" json:"note,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// GraceTokenAllowance is the fixed per-update grace token grant. The tokens
// are carried on the metric record but nothing consumes them yet; the
// streak-forgiveness behavior is pending product clarification.
const GraceTokenAllowance = 3

// HabitMetric holds the incremental derived state for one (user, habit):
// current/best streak and the 30-day EMA of completion.
type HabitMetric struct {
	ID                uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID            uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_habit_metrics_user_habit" json:"user_id"`
	HabitID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_habit_metrics_user_habit" json:"habit_id"`
	EMA30             float64    `gorm:"type:decimal(5,4);default:0.5" json:"ema_30"`
	CurrentStreak     int        `gorm:"default:0" json:"current_streak"`
	BestStreak        int        `gorm:"default:0" json:"best_streak"`
	LastCompletedDate *time.Time `gorm:"type:date" json:"last_completed_date,omitempty"`
	GraceTokens       int        `gorm:"default:3" json:"grace_tokens"`
	MaintenanceMode   bool       `gorm:"default:false" json:"maintenance_mode"`
	LastUpdatedDate   time.Time  `gorm:"type:date" json:"last_updated_date"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
