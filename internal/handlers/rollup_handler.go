package handlers

import (
	"time"

	"github.com/ascendhq/ascend-backend/internal/dto"
	"github.com/ascendhq/ascend-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type RollupHandler struct {
	rollupService *services.RollupService
}

func NewRollupHandler(rollupService *services.RollupService) *RollupHandler {
	return &RollupHandler{rollupService: rollupService}
}

// RunBatch handles POST /admin/rollup - runs the pipeline for all active
// users (or one user), returning per-user results without aborting the
// batch on individual failures.
func (h *RollupHandler) RunBatch(c *fiber.Ctx) error {
	var req dto.RollupRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	date := services.DateOnly(time.Now().UTC())
	if req.Date != "" {
		parsed, err := services.ParseDate(req.Date)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "date must be YYYY-MM-DD",
			})
		}
		date = parsed
	}

	results := h.rollupService.ProcessAll(date, req.UserID)

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}

	return c.JSON(dto.RollupResponse{
		Date:      services.FormatDate(date),
		Processed: len(results),
		Failed:    failed,
		Results:   results,
	})
}
