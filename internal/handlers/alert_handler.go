package handlers

import (
	"github.com/gofiber/fiber/v3"

	"monitoring-service/internal/repository"
	"monitoring-service/internal/services"
)

type AlertHandler struct {
	alertService *services.AlertService
	alerts       *repository.AlertRepository
}

func NewAlertHandler(alertService *services.AlertService, alerts *repository.AlertRepository) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
		alerts:       alerts,
	}
}

func (h *AlertHandler) RegisterRoutes(app *fiber.App) {
	api := app.Group("monitoring/api/v1")

	api.Get("/alerts", h.ListActiveAlerts)
	api.Get("/fields/:id/alerts", h.ListFieldAlerts)
	api.Post("/fields/:id/check", h.CheckField)
	api.Post("/alerts/:id/acknowledge", h.AcknowledgeAlert)
}

func (h *AlertHandler) ListActiveAlerts(c fiber.Ctx) error {
	alerts, err := h.alerts.ListActive(c.Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(alerts)
}

func (h *AlertHandler) ListFieldAlerts(c fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	alerts, err := h.alerts.ListByField(c.Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(alerts)
}

// CheckField runs an on-demand risk evaluation outside the sweep cycle. The
// response carries the assessment and, when the threshold was crossed, the
// alert that was raised (null when suppressed).
func (h *AlertHandler) CheckField(c fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	assessment, alert, err := h.alertService.CheckField(c.Context(), id)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(fiber.Map{
		"assessment": assessment,
		"alert":      alert,
	})
}

func (h *AlertHandler) AcknowledgeAlert(c fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.alerts.Acknowledge(c.Context(), id); err != nil {
		return mapError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
