package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Insight types.
const (
	InsightTypeWeekly  = "weekly"
	InsightTypePattern = "pattern"
	InsightTypeHabit   = "habit"
)

// Insight priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Machine-actionable insight action types.
const (
	ActionReschedule       = "reschedule"
	ActionAddChallenge     = "add_challenge"
	ActionStreakRecovery   = "streak_recovery"
	ActionAdjustDifficulty = "adjust_difficulty"
)

// Insight is one generated recommendation derived from a weekly snapshot.
// It is live until dismissed, applied, or expired; terminal insights never
// reappear in active queries.
type Insight struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Type          string         `gorm:"size:20;not null" json:"type"`
	Priority      string         `gorm:"size:10;not null" json:"priority"`
	Title         string         `gorm:"size:200;not null" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	Evidence      string         `gorm:"type:text" json:"evidence"`
	ActionLabel   string         `gorm:"size:120" json:"action_label"`
	ActionType    string         `gorm:"size:40" json:"action_type"`
	ActionPayload datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"action_payload"`
	HabitID       *uuid.UUID     `gorm:"type:uuid" json:"habit_id,omitempty"`
	WeekStart     time.Time      `gorm:"type:date;index" json:"week_start"`
	Dismissed     bool           `gorm:"default:false" json:"dismissed"`
	Applied       bool           `gorm:"default:false" json:"applied"`
	DismissedAt   *time.Time     `json:"dismissed_at,omitempty"`
	AppliedAt     *time.Time     `json:"applied_at,omitempty"`
	ExpiresAt     time.Time      `gorm:"index" json:"expires_at"`
	CreatedAt     time.Time      `json:"created_at"`
}
