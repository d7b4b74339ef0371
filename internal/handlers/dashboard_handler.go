package handlers

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"monitoring-service/internal/event"
	"monitoring-service/internal/repository"
)

type DashboardHandler struct {
	dashboard *repository.DashboardRepository
	publisher *event.AlertPublisher
}

func NewDashboardHandler(dashboard *repository.DashboardRepository, publisher *event.AlertPublisher) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		publisher: publisher,
	}
}

func (h *DashboardHandler) RegisterRoutes(app *fiber.App) {
	api := app.Group("monitoring/api/v1")

	api.Get("/dashboard/overview", h.GetOverview)
	api.Get("/dashboard/publisher", h.GetPublisherHealth)
}

func (h *DashboardHandler) GetOverview(c fiber.Ctx) error {
	stats, err := h.dashboard.GetOverview(c.Context(), time.Now())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(stats)
}

func (h *DashboardHandler) GetPublisherHealth(c fiber.Ctx) error {
	return c.JSON(h.publisher.HealthCheck())
}
