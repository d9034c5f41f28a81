package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/jarvistext/jarvis-backend/internal/api/handlers"
	"github.com/jarvistext/jarvis-backend/internal/api/middleware"
	"github.com/jarvistext/jarvis-backend/internal/auth"
	"github.com/jarvistext/jarvis-backend/internal/carrier"
	"github.com/jarvistext/jarvis-backend/internal/repository"
)

// SetupRoutes registers all HTTP routes
func SetupRoutes(
	app *fiber.App,
	enqueuer handlers.InboundEnqueuer,
	verifier *carrier.WebhookVerifier,
	stats repository.StatsRepository,
	jwtService *auth.JWTService,
	logger *logrus.Logger,
) {
	webhookHandler := handlers.NewWebhookHandler(enqueuer, verifier, logger)
	adminHandler := handlers.NewAdminHandler(stats)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Jarvis is online"})
	})

	v1 := app.Group("/api/v1")
	v1.Post("/webhook", middleware.WebhookRateLimit(), webhookHandler.Handle)

	admin := v1.Group("/admin", middleware.AdminRateLimit(), middleware.AdminAuth(jwtService))
	admin.Get("/stats", adminHandler.Stats)
}
