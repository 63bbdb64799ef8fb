package routes

import (
	"time"

	"github.com/ascendhq/ascend-backend/internal/config"
	"github.com/ascendhq/ascend-backend/internal/handlers"
	"github.com/ascendhq/ascend-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	habitHandler *handlers.HabitHandler,
	progressHandler *handlers.ProgressHandler,
	insightHandler *handlers.InsightHandler,
	rollupHandler *handlers.RollupHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Health (public)
	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)

	// Habits and checkins (protected)
	habits := api.Group("/habits", middleware.JWTProtected(cfg))
	habits.Post("/", habitHandler.CreateHabit)
	habits.Get("/", habitHandler.ListHabits)
	habits.Put("/:id", habitHandler.UpdateHabit)
	habits.Delete("/:id", habitHandler.ArchiveHabit)

	checkins := api.Group("/checkins", middleware.JWTProtected(cfg))
	checkins.Put("/", habitHandler.UpsertCheckin)
	checkins.Get("/", habitHandler.GetCheckins)

	// Derived progress (protected)
	progress := api.Group("/progress", middleware.JWTProtected(cfg))
	progress.Get("/daily", progressHandler.GetDailyProgress)
	progress.Patch("/daily", progressHandler.SetDailyMood)
	progress.Get("/weekly", progressHandler.GetWeeklySnapshot)

	api.Post("/rollup/run", middleware.JWTProtected(cfg), progressHandler.RunMyRollup)

	// Insights (protected)
	insights := api.Group("/insights", middleware.JWTProtected(cfg))
	insights.Get("/", insightHandler.GetInsights)
	insights.Post("/generate", insightHandler.GenerateInsights)
	insights.Put("/:id/apply", insightHandler.ApplyInsight)
	insights.Put("/:id/dismiss", insightHandler.DismissInsight)

	// Admin batch rollup (protected + admin required)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg))
	admin.Post("/rollup", rollupHandler.RunBatch)
}
