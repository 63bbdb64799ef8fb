package dto

import "github.com/google/uuid"

type CreateHabitRequest struct {
	Name       string   `json:"name"`
	Moment     string   `json:"moment"`
	TargetDose *float64 `json:"target_dose,omitempty"`
	DoseUnit   string   `json:"dose_unit,omitempty"`
}

type UpdateHabitRequest struct {
	Name       *string  `json:"name"`
	Moment     *string  `json:"moment"`
	TargetDose *float64 `json:"target_dose"`
	DoseUnit   *string  `json:"dose_unit"`
	Archived   *bool    `json:"archived"`
}

type UpsertCheckinRequest struct {
	HabitID     uuid.UUID `json:"habit_id"`
	Date        string    `json:"date"`
	Status      string    `json:"status"`
	EffortLevel int       `json:"effort_level"`
	ActualDose  *float64  `json:"actual_dose,omitempty"`
	Note        string    `json:"note,omitempty"`
}

type SetDailyMoodRequest struct {
	Date        string  `json:"date"`
	MoodScore   *int    `json:"mood_score"`
	EnergyScore *int    `json:"energy_score"`
	Note        *string `json:"note"`
}
