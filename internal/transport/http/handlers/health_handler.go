package handlers

import (
	"github.com/followup/backend/internal/infrastructure/sysstats"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	collector *sysstats.Collector
}

func NewHealthHandler(collector *sysstats.Collector) *HealthHandler {
	return &HealthHandler{collector: collector}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"stats":  h.collector.Collect(),
	})
}
