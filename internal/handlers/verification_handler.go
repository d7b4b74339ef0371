package handlers

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"monitoring-service/internal/models"
	"monitoring-service/internal/repository"
	"monitoring-service/internal/services"
)

type VerificationHandler struct {
	verificationService *services.VerificationService
	properties          *repository.PropertyRepository
}

func NewVerificationHandler(verificationService *services.VerificationService, properties *repository.PropertyRepository) *VerificationHandler {
	return &VerificationHandler{
		verificationService: verificationService,
		properties:          properties,
	}
}

func (h *VerificationHandler) RegisterRoutes(app *fiber.App) {
	api := app.Group("monitoring/api/v1")

	api.Post("/properties", h.CreateProperty)
	api.Post("/properties/:id/verify", h.VerifyProperty)
	api.Get("/properties/:id/verification", h.GetVerification)
}

type createPropertyRequest struct {
	OwnerID       string                 `json:"owner_id"`
	Boundary      *models.GeoJSONPolygon `json:"boundary"`
	DocumentRefs  []string               `json:"document_refs"`
	FieldID       *uuid.UUID             `json:"field_id,omitempty"`
	SurveyNumber  string                 `json:"survey_number"`
	DeclaredAreaH float64                `json:"declared_area_hectares"`
}

func (h *VerificationHandler) CreateProperty(c fiber.Ctx) error {
	var req createPropertyRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.OwnerID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "owner_id is required")
	}
	if req.SurveyNumber == "" {
		return fiber.NewError(fiber.StatusBadRequest, "survey_number is required")
	}

	record := &models.PropertyRecord{
		ID:            uuid.New(),
		OwnerID:       req.OwnerID,
		Boundary:      req.Boundary,
		DocumentRefs:  req.DocumentRefs,
		FieldID:       req.FieldID,
		SurveyNumber:  req.SurveyNumber,
		DeclaredAreaH: req.DeclaredAreaH,
	}
	if err := h.properties.Create(c.Context(), record); err != nil {
		return mapError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

func (h *VerificationHandler) VerifyProperty(c fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	outcome, err := h.verificationService.Verify(c.Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(outcome)
}

func (h *VerificationHandler) GetVerification(c fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	outcome, err := h.properties.GetLatestOutcome(c.Context(), id)
	if err != nil {
		return mapError(err)
	}
	if outcome == nil {
		return fiber.NewError(fiber.StatusNotFound, "property has not been verified yet")
	}
	return c.JSON(outcome)
}
