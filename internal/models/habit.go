package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Checkin statuses.
const (
	CheckinDone    = "done"
	CheckinPartial = "partial"
	CheckinSkipped = "skipped"
)

// Moments are the coarse time-of-day buckets a habit is scheduled under.
const (
	MomentMorning = "morning"
	MomentMidday  = "midday"
	MomentEvening = "evening"
)

var CheckinStatuses = []string{CheckinDone, CheckinPartial, CheckinSkipped}
var Moments = []string{MomentMorning, MomentMidday, MomentEvening}

type Habit struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name       string         `gorm:"size:120;not null" json:"name"`
	Moment     string         `gorm:"size:20;default:'morning'" json:"moment"`
	TargetDose *float64       `json:"target_dose,omitempty"`
	DoseUnit   string         `gorm:"size:30" json:"dose_unit,omitempty"`
	Archived   bool           `gorm:"default:false;index" json:"archived"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// HabitCheckin is one user's recorded attempt for one habit on one calendar
// day. At most one row exists per (user, habit, date); writes are upserts.
type HabitCheckin struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_checkins_user_habit_date" json:"user_id"`
	HabitID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_checkins_user_habit_date" json:"habit_id"`
	CheckinDate time.Time  `gorm:"type:date;not null;uniqueIndex:idx_checkins_user_habit_date;index" json:"checkin_date"`
	Status      string     `gorm:"size:10;not null" json:"status"`
	EffortLevel int        `gorm:"default:0" json:"effort_level"`
	ActualDose  *float64   `json:"actual_dose,omitempty"`
	Note        string     `gorm:"type:text" json:"note,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	EditedAt    *time.Time `json:"edited_at,omitempty"`
}
