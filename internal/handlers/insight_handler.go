package handlers

import (
	"errors"
	"time"

	"github.com/ascendhq/ascend-backend/internal/auth"
	"github.com/ascendhq/ascend-backend/internal/dto"
	"github.com/ascendhq/ascend-backend/internal/models"
	"github.com/ascendhq/ascend-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type InsightHandler struct {
	insightService *services.InsightService
}

func NewInsightHandler(insightService *services.InsightService) *InsightHandler {
	return &InsightHandler{insightService: insightService}
}

// GetInsights handles GET /insights - returns live insights, generating
// them from the latest snapshot when none are cached.
func (h *InsightHandler) GetInsights(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	insights, err := h.insightService.GetOrGenerate(userID, nil, time.Now().UTC(), false)
	if err != nil {
		if errors.Is(err, services.ErrNoSnapshot) {
			return c.JSON(fiber.Map{"insights": []interface{}{}, "total": 0})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch insights",
		})
	}

	return c.JSON(fiber.Map{"insights": insights, "total": len(insights)})
}

// GenerateInsights handles POST /insights/generate - regenerates, optionally forced.
func (h *InsightHandler) GenerateInsights(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.GenerateInsightsRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	var weekStart *time.Time
	if req.WeekStart != "" {
		parsed, err := services.ParseDate(req.WeekStart)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "week_start must be YYYY-MM-DD",
			})
		}
		monday := services.WeekStartOf(parsed)
		weekStart = &monday
	}

	insights, err := h.insightService.GetOrGenerate(userID, weekStart, time.Now().UTC(), req.Force)
	if err != nil {
		if errors.Is(err, services.ErrNoSnapshot) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "No weekly snapshot to generate insights from",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to generate insights",
		})
	}

	return c.JSON(fiber.Map{"insights": insights, "total": len(insights)})
}

// ApplyInsight handles PUT /insights/:id/apply.
func (h *InsightHandler) ApplyInsight(c *fiber.Ctx) error {
	return h.mutate(c, h.insightService.Apply)
}

// DismissInsight handles PUT /insights/:id/dismiss.
func (h *InsightHandler) DismissInsight(c *fiber.Ctx) error {
	return h.mutate(c, h.insightService.Dismiss)
}

func (h *InsightHandler) mutate(c *fiber.Ctx, fn func(userID, insightID uuid.UUID) (*models.Insight, error)) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	insightID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid insight ID",
		})
	}

	insight, err := fn(userID, insightID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInsightNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Insight not found",
			})
		case errors.Is(err, services.ErrInsightNotLive):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update insight",
		})
	}

	return c.JSON(insight)
}
