package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"monitoring-service/internal/models"
	"monitoring-service/internal/providers"
	"monitoring-service/internal/spectral"
)

// ImagerySource fetches raw reflectance bands for a scene.
type ImagerySource interface {
	FetchBands(ctx context.Context, req providers.ImageryRequest) (*providers.BandData, error)
}

// SnapshotStore persists vegetation snapshots per field.
type SnapshotStore interface {
	Latest(ctx context.Context, fieldID uuid.UUID) (*models.VegetationSnapshot, error)
	Save(ctx context.Context, snapshot *models.VegetationSnapshot) error
}

// AnalysisResult is the output of one full field analysis.
type AnalysisResult struct {
	FieldID    uuid.UUID                    `json:"field_id"`
	Statistics *models.VegetationStatistics `json:"statistics"`
	Change     *models.ChangeResult         `json:"change,omitempty"`
	FromDate   time.Time                    `json:"from_date"`
	ToDate     time.Time                    `json:"to_date"`
	AnalyzedAt time.Time                    `json:"analyzed_at"`
}

// AnalysisService runs the full imagery pipeline for one field: fetch raw
// bands, compute the index map, aggregate statistics, compare against the
// previous snapshot and persist the new one.
type AnalysisService struct {
	fields    FieldStore
	imagery   ImagerySource
	snapshots SnapshotStore
	clock     clockwork.Clock
}

func NewAnalysisService(fields FieldStore, imagery ImagerySource, snapshots SnapshotStore, clock clockwork.Clock) *AnalysisService {
	return &AnalysisService{
		fields:    fields,
		imagery:   imagery,
		snapshots: snapshots,
		clock:     clock,
	}
}

// Analyze processes the latest cloud-free scene for a field over the given
// date range. The first analysis of a field has no baseline, so Change is nil
// until a second snapshot exists.
func (s *AnalysisService) Analyze(ctx context.Context, fieldID uuid.UUID, fromDate, toDate time.Time) (*AnalysisResult, error) {
	field, err := s.fields.GetByID(ctx, fieldID)
	if err != nil {
		return nil, fmt.Errorf("failed to load field %s: %w", fieldID, err)
	}
	if field.Boundary == nil {
		return nil, fmt.Errorf("%w: field %s has no boundary", models.ErrInvalidInput, fieldID)
	}

	bounds, err := field.Boundary.Bounds()
	if err != nil {
		return nil, err
	}

	bands, err := s.imagery.FetchBands(ctx, providers.ImageryRequest{
		BoundingBox: bounds,
		FromDate:    fromDate,
		ToDate:      toDate,
	})
	if err != nil {
		return nil, fmt.Errorf("imagery for field %s: %w", fieldID, err)
	}

	indexMap, err := spectral.ComputeIndexMap(bands.Red, bands.NIR, bands.Mask)
	if err != nil {
		return nil, fmt.Errorf("index computation for field %s: %w", fieldID, err)
	}
	indexMap.FieldID = fieldID
	indexMap.BoundingBox = bounds
	indexMap.FromDate = fromDate
	indexMap.ToDate = toDate

	statistics, err := spectral.Aggregate(indexMap)
	if err != nil {
		return nil, fmt.Errorf("aggregation for field %s: %w", fieldID, err)
	}

	result := &AnalysisResult{
		FieldID:    fieldID,
		Statistics: statistics,
		FromDate:   fromDate,
		ToDate:     toDate,
		AnalyzedAt: s.clock.Now(),
	}

	previous, err := s.snapshots.Latest(ctx, fieldID)
	switch {
	case err != nil && !errors.Is(err, models.ErrDataUnavailable):
		return nil, fmt.Errorf("failed to load previous snapshot for field %s: %w", fieldID, err)
	case previous != nil:
		change, err := spectral.DetectChangeFromStats(&previous.Statistics, statistics)
		if err != nil {
			return nil, fmt.Errorf("change detection for field %s: %w", fieldID, err)
		}
		result.Change = change
	default:
		slog.Info("No baseline snapshot yet, skipping change detection", "field_id", fieldID)
	}

	if err := s.snapshots.Save(ctx, &models.VegetationSnapshot{
		ID:         uuid.New(),
		FieldID:    fieldID,
		Statistics: *statistics,
		FromDate:   fromDate,
		ToDate:     toDate,
		CapturedAt: s.clock.Now(),
	}); err != nil {
		return nil, fmt.Errorf("failed to persist snapshot for field %s: %w", fieldID, err)
	}

	slog.Info("Field analysis completed",
		"field_id", fieldID,
		"valid_pixels", statistics.Count,
		"mean_index", statistics.Mean,
		"interpretation", statistics.Interpretation,
	)
	return result, nil
}
