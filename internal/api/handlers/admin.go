package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jarvistext/jarvis-backend/internal/repository"
)

// AdminHandler serves the read-only reporting surface
type AdminHandler struct {
	stats repository.StatsRepository
}

// NewAdminHandler creates an admin handler
func NewAdminHandler(stats repository.StatsRepository) *AdminHandler {
	return &AdminHandler{stats: stats}
}

// Stats processes GET /api/v1/admin/stats
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	counts, err := h.stats.Counts(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load stats",
		})
	}

	return c.JSON(counts)
}
