package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"monitoring-service/internal/models"
)

// FieldAdminStore extends the read-side FieldStore with the registration and
// lifecycle operations.
type FieldAdminStore interface {
	FieldStore
	Create(ctx context.Context, field *models.Field) error
	List(ctx context.Context) ([]models.Field, error)
	UpdateGrowthStage(ctx context.Context, id uuid.UUID, stage models.GrowthStage) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.FieldStatus) error
}

// RegisterFieldInput is the field registration payload.
type RegisterFieldInput struct {
	FarmerID       string                 `json:"farmer_id"`
	CropType       models.CropType        `json:"crop_type"`
	GrowthStage    models.GrowthStage     `json:"growth_stage"`
	SoilType       models.SoilType        `json:"soil_type"`
	IrrigationType models.IrrigationType  `json:"irrigation_type"`
	Boundary       *models.GeoJSONPolygon `json:"boundary"`
	InsuredAmount  *float64               `json:"insured_amount,omitempty"`
}

// FieldService owns field registration and lifecycle. The insured area is
// always computed from the boundary, never taken from the caller.
type FieldService struct {
	fields FieldAdminStore
	clock  clockwork.Clock
}

func NewFieldService(fields FieldAdminStore, clock clockwork.Clock) *FieldService {
	return &FieldService{fields: fields, clock: clock}
}

// Register validates the payload, computes the field area from the boundary
// and persists the new field in active state.
func (s *FieldService) Register(ctx context.Context, in RegisterFieldInput) (*models.Field, error) {
	if in.FarmerID == "" {
		return nil, fmt.Errorf("%w: farmer id required", models.ErrInvalidInput)
	}
	if _, err := LookupCropProfile(in.CropType); err != nil {
		return nil, err
	}
	if in.Boundary == nil {
		return nil, fmt.Errorf("%w: boundary required", models.ErrInvalidInput)
	}
	if err := in.Boundary.Validate(); err != nil {
		return nil, err
	}

	area, err := in.Boundary.AreaHectares()
	if err != nil {
		return nil, err
	}
	if area <= 0 {
		return nil, fmt.Errorf("%w: boundary encloses no area", models.ErrInvalidInput)
	}

	now := s.clock.Now()
	field := &models.Field{
		ID:             uuid.New(),
		FarmerID:       in.FarmerID,
		CropType:       in.CropType,
		GrowthStage:    in.GrowthStage,
		SoilType:       in.SoilType,
		IrrigationType: in.IrrigationType,
		Boundary:       in.Boundary,
		AreaHectares:   area,
		InsuredAmount:  in.InsuredAmount,
		Status:         models.FieldActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.fields.Create(ctx, field); err != nil {
		return nil, fmt.Errorf("failed to register field: %w", err)
	}

	slog.Info("Field registered",
		"field_id", field.ID,
		"farmer_id", field.FarmerID,
		"crop", field.CropType,
		"area_hectares", field.AreaHectares,
	)
	return field, nil
}

// Get returns one field by id.
func (s *FieldService) Get(ctx context.Context, id uuid.UUID) (*models.Field, error) {
	return s.fields.GetByID(ctx, id)
}

// List returns all fields regardless of status.
func (s *FieldService) List(ctx context.Context) ([]models.Field, error) {
	return s.fields.List(ctx)
}

// AdvanceGrowthStage moves a field to a new growth stage, feeding the stage
// multipliers on the next risk evaluation.
func (s *FieldService) AdvanceGrowthStage(ctx context.Context, id uuid.UUID, stage models.GrowthStage) error {
	switch stage {
	case models.StageGermination, models.StageVegetative, models.StageFlowering, models.StageMaturity:
	default:
		return fmt.Errorf("%w: unknown growth stage %q", models.ErrInvalidInput, stage)
	}
	if err := s.fields.UpdateGrowthStage(ctx, id, stage); err != nil {
		return fmt.Errorf("failed to update growth stage for field %s: %w", id, err)
	}
	return nil
}

// Deactivate removes a field from monitoring sweeps without deleting its
// history.
func (s *FieldService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.fields.UpdateStatus(ctx, id, models.FieldInactive); err != nil {
		return fmt.Errorf("failed to deactivate field %s: %w", id, err)
	}
	slog.Info("Field deactivated", "field_id", id)
	return nil
}
