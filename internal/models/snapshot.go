package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WeeklySnapshot is the persisted summary for one (user, ISO week).
// Computed fields are overwritten on every regeneration; the AI narrative
// is preserved unless a forced refresh is requested.
type WeeklySnapshot struct {
	ID                 uuid.UUID                    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID             uuid.UUID                    `gorm:"type:uuid;not null;uniqueIndex:idx_weekly_snapshots_user_week" json:"user_id"`
	WeekStart          time.Time                    `gorm:"type:date;not null;uniqueIndex:idx_weekly_snapshots_user_week" json:"week_start"`
	WeekEnd            time.Time                    `gorm:"type:date;not null" json:"week_end"`
	CompletionPct      int                          `gorm:"default:0" json:"completion_pct"`
	TotalHabitDays     int                          `gorm:"default:0" json:"total_habit_days"`
	CompletedHabitDays int                          `gorm:"default:0" json:"completed_habit_days"`
	CurrentStreak      int                          `gorm:"default:0" json:"current_streak"`
	BestStreak         int                          `gorm:"default:0" json:"best_streak"`
	AvgMood            *float64                     `json:"avg_mood,omitempty"`
	AvgEnergy          *float64                     `json:"avg_energy,omitempty"`
	BestMoment         string                       `gorm:"size:20" json:"best_moment,omitempty"`
	WorstMoment        string                       `gorm:"size:20" json:"worst_moment,omitempty"`
	TopHabits          datatypes.JSONSlice[string]  `gorm:"type:jsonb" json:"top_habits"`
	StrugglingHabits   datatypes.JSONSlice[string]  `gorm:"type:jsonb" json:"struggling_habits"`
	AISummary          string                       `gorm:"type:text" json:"ai_summary,omitempty"`
	AIInsights         datatypes.JSONSlice[string]  `gorm:"type:jsonb" json:"ai_insights,omitempty"`
	CreatedAt          time.Time                    `json:"created_at"`
	UpdatedAt          time.Time                    `json:"updated_at"`
}
