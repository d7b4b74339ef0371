package handlers

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"monitoring-service/internal/repository"
	"monitoring-service/internal/services"
)

type AnalysisHandler struct {
	analysisService *services.AnalysisService
	snapshots       *repository.SnapshotRepository
}

func NewAnalysisHandler(analysisService *services.AnalysisService, snapshots *repository.SnapshotRepository) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		snapshots:       snapshots,
	}
}

func (h *AnalysisHandler) RegisterRoutes(app *fiber.App) {
	api := app.Group("monitoring/api/v1")

	api.Post("/fields/:id/analysis", h.RunAnalysis)
	api.Get("/fields/:id/snapshots", h.ListSnapshots)
}

type runAnalysisRequest struct {
	FromDate time.Time `json:"from_date"`
	ToDate   time.Time `json:"to_date"`
}

func (h *AnalysisHandler) RunAnalysis(c fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req runAnalysisRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if !req.ToDate.After(req.FromDate) {
		return fiber.NewError(fiber.StatusBadRequest, "to_date must be after from_date")
	}

	result, err := h.analysisService.Analyze(c.Context(), id, req.FromDate, req.ToDate)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(result)
}

func (h *AnalysisHandler) ListSnapshots(c fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	limit := fiber.Query(c, "limit", 30)
	if limit < 1 || limit > 365 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 365")
	}

	snapshots, err := h.snapshots.ListByField(c.Context(), id, limit)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(snapshots)
}
