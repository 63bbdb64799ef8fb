package dto

import "github.com/google/uuid"

type RollupRequest struct {
	Date   string     `json:"date,omitempty"`
	UserID *uuid.UUID `json:"user_id,omitempty"`
}

// UserRollupResult is the per-user outcome of a batch rollup run.
type UserRollupResult struct {
	UserID  uuid.UUID `json:"user_id"`
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
}

type RollupResponse struct {
	Date      string             `json:"date"`
	Processed int                `json:"processed"`
	Failed    int                `json:"failed"`
	Results   []UserRollupResult `json:"results"`
}

type GenerateInsightsRequest struct {
	WeekStart string `json:"week_start,omitempty"`
	Force     bool   `json:"force,omitempty"`
}
