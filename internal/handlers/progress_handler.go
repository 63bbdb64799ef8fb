package handlers

import (
	"errors"
	"time"

	"github.com/ascendhq/ascend-backend/internal/auth"
	"github.com/ascendhq/ascend-backend/internal/dto"
	"github.com/ascendhq/ascend-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ProgressHandler struct {
	rollupService   *services.RollupService
	snapshotService *services.SnapshotService
}

func NewProgressHandler(rollupService *services.RollupService, snapshotService *services.SnapshotService) *ProgressHandler {
	return &ProgressHandler{rollupService: rollupService, snapshotService: snapshotService}
}

// GetDailyProgress handles GET /progress/daily?date=YYYY-MM-DD (default today).
func (h *ProgressHandler) GetDailyProgress(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	date, err := queryDate(c, "date")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "date query param must be YYYY-MM-DD",
		})
	}

	progress, err := h.rollupService.DailyFor(userID, date)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch daily progress",
		})
	}
	if progress == nil {
		// Not rolled up yet; compute on demand.
		progress, err = h.rollupService.ProcessDaily(userID, date)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to compute daily progress",
			})
		}
	}

	return c.JSON(progress)
}

// SetDailyMood handles PATCH /progress/daily - sets mood/energy/note.
func (h *ProgressHandler) SetDailyMood(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.SetDailyMoodRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	progress, err := h.rollupService.SetDailyMood(userID, req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.JSON(progress)
}

// GetWeeklySnapshot handles GET /progress/weekly?week_start=YYYY-MM-DD.
// Defaults to the current week; recomputes when missing or stale.
func (h *ProgressHandler) GetWeeklySnapshot(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var weekStart time.Time
	if raw := c.Query("week_start"); raw != "" {
		weekStart, err = services.ParseDate(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "week_start query param must be YYYY-MM-DD",
			})
		}
		weekStart = services.WeekStartOf(weekStart)
	} else {
		weekStart = services.WeekStartOf(time.Now().UTC())
	}

	snapshot, err := h.snapshotService.GetOrGenerate(userID, weekStart)
	if err != nil {
		if errors.Is(err, services.ErrNoWeekData) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message":    "No data for this week",
				"week_start": services.FormatDate(weekStart),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch weekly snapshot",
		})
	}

	return c.JSON(snapshot)
}

// RunMyRollup handles POST /rollup/run - per-user manual re-run.
func (h *ProgressHandler) RunMyRollup(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	date, err := queryDate(c, "date")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "date query param must be YYYY-MM-DD",
		})
	}

	if err := h.rollupService.ProcessUser(userID, date); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.JSON(fiber.Map{"message": "Rollup complete", "date": services.FormatDate(date)})
}

// queryDate reads an optional YYYY-MM-DD query param, defaulting to today.
func queryDate(c *fiber.Ctx, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return services.DateOnly(time.Now().UTC()), nil
	}
	return services.ParseDate(raw)
}
