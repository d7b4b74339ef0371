package handlers

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"monitoring-service/internal/models"
	"monitoring-service/internal/repository"
	"monitoring-service/internal/services"
)

type ClaimHandler struct {
	claimService *services.ClaimValidationService
	evidence     *repository.EvidenceRepository
}

func NewClaimHandler(claimService *services.ClaimValidationService, evidence *repository.EvidenceRepository) *ClaimHandler {
	return &ClaimHandler{
		claimService: claimService,
		evidence:     evidence,
	}
}

func (h *ClaimHandler) RegisterRoutes(app *fiber.App) {
	api := app.Group("monitoring/api/v1")

	api.Post("/claims/validate", h.ValidateClaim)
	api.Get("/claims/:id/evidence", h.GetClaimEvidence)
}

type validateClaimRequest struct {
	ClaimID       uuid.UUID                    `json:"claim_id"`
	FieldID       uuid.UUID                    `json:"field_id"`
	Baseline      *models.VegetationStatistics `json:"baseline_stats"`
	Current       *models.VegetationStatistics `json:"current_stats"`
	ClaimedDamage float64                      `json:"claimed_damage_pct"`
}

func (h *ClaimHandler) ValidateClaim(c fiber.Ctx) error {
	var req validateClaimRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.ClaimID == uuid.Nil || req.FieldID == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "claim_id and field_id are required")
	}
	if req.ClaimedDamage < 0 || req.ClaimedDamage > 100 {
		return fiber.NewError(fiber.StatusBadRequest, "claimed_damage_pct must be between 0 and 100")
	}

	validation, err := h.claimService.Validate(c.Context(), services.ClaimInput{
		ClaimID:       req.ClaimID,
		FieldID:       req.FieldID,
		Baseline:      req.Baseline,
		Current:       req.Current,
		ClaimedDamage: req.ClaimedDamage,
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(validation)
}

func (h *ClaimHandler) GetClaimEvidence(c fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	evidence, err := h.evidence.GetByClaimID(c.Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(evidence)
}
