package handlers

import (
	"github.com/gofiber/fiber/v3"

	"monitoring-service/internal/models"
	"monitoring-service/internal/services"
)

type FieldHandler struct {
	fieldService *services.FieldService
}

func NewFieldHandler(fieldService *services.FieldService) *FieldHandler {
	return &FieldHandler{fieldService: fieldService}
}

func (h *FieldHandler) RegisterRoutes(app *fiber.App) {
	api := app.Group("monitoring/api/v1")

	api.Post("/fields", h.RegisterField)
	api.Get("/fields", h.ListFields)
	api.Get("/fields/:id", h.GetField)
	api.Put("/fields/:id/growth-stage", h.UpdateGrowthStage)
	api.Delete("/fields/:id", h.DeactivateField)
}

func (h *FieldHandler) RegisterField(c fiber.Ctx) error {
	var in services.RegisterFieldInput
	if err := c.Bind().Body(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	field, err := h.fieldService.Register(c.Context(), in)
	if err != nil {
		return mapError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(field)
}

func (h *FieldHandler) ListFields(c fiber.Ctx) error {
	fields, err := h.fieldService.List(c.Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fields)
}

func (h *FieldHandler) GetField(c fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	field, err := h.fieldService.Get(c.Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(field)
}

func (h *FieldHandler) UpdateGrowthStage(c fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req struct {
		GrowthStage models.GrowthStage `json:"growth_stage"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.fieldService.AdvanceGrowthStage(c.Context(), id, req.GrowthStage); err != nil {
		return mapError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *FieldHandler) DeactivateField(c fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.fieldService.Deactivate(c.Context(), id); err != nil {
		return mapError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
