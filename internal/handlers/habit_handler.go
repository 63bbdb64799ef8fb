package handlers

import (
	"errors"

	"github.com/ascendhq/ascend-backend/internal/auth"
	"github.com/ascendhq/ascend-backend/internal/dto"
	"github.com/ascendhq/ascend-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type HabitHandler struct {
	habitService *services.HabitService
}

func NewHabitHandler(habitService *services.HabitService) *HabitHandler {
	return &HabitHandler{habitService: habitService}
}

// CreateHabit handles POST /habits.
func (h *HabitHandler) CreateHabit(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.CreateHabitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	habit, err := h.habitService.CreateHabit(userID, req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidMoment) || errors.Is(err, services.ErrHabitNameNeeded) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create habit",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(habit)
}

// ListHabits handles GET /habits.
func (h *HabitHandler) ListHabits(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	includeArchived := c.QueryBool("include_archived", false)
	habits, err := h.habitService.ListHabits(userID, includeArchived)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch habits",
		})
	}

	return c.JSON(fiber.Map{"habits": habits, "total": len(habits)})
}

// UpdateHabit handles PUT /habits/:id.
func (h *HabitHandler) UpdateHabit(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	habitID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid habit ID",
		})
	}

	var req dto.UpdateHabitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	habit, err := h.habitService.UpdateHabit(userID, habitID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrHabitNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Habit not found",
			})
		case errors.Is(err, services.ErrInvalidMoment), errors.Is(err, services.ErrHabitNameNeeded):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update habit",
		})
	}

	return c.JSON(habit)
}

// ArchiveHabit handles DELETE /habits/:id - archives, never hard-deletes.
func (h *HabitHandler) ArchiveHabit(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	habitID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid habit ID",
		})
	}

	if err := h.habitService.ArchiveHabit(userID, habitID); err != nil {
		if errors.Is(err, services.ErrHabitNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Habit not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to archive habit",
		})
	}

	return c.JSON(fiber.Map{"message": "Habit archived"})
}

// UpsertCheckin handles PUT /checkins - records or replaces a day's checkin.
func (h *HabitHandler) UpsertCheckin(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.UpsertCheckinRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	checkin, err := h.habitService.UpsertCheckin(userID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrHabitNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Habit not found",
			})
		case errors.Is(err, services.ErrInvalidStatus), errors.Is(err, services.ErrInvalidEffort):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.JSON(checkin)
}

// GetCheckins handles GET /checkins?date=YYYY-MM-DD.
func (h *HabitHandler) GetCheckins(c *fiber.Ctx) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	date, err := services.ParseDate(c.Query("date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "date query param must be YYYY-MM-DD",
		})
	}

	checkins, err := h.habitService.CheckinsForDate(userID, date)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch checkins",
		})
	}

	return c.JSON(fiber.Map{"checkins": checkins, "date": services.FormatDate(date)})
}
