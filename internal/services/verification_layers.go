package services

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"monitoring-service/internal/models"
)

// DocumentRegistry answers whether a referenced ownership document exists in
// the external land-records registry.
type DocumentRegistry interface {
	Exists(ctx context.Context, ref string) (bool, error)
}

// VegetationSnapshotSource serves the latest aggregated vegetation snapshot
// for a monitored field.
type VegetationSnapshotSource interface {
	LatestStatistics(ctx context.Context, fieldID uuid.UUID) (*models.VegetationStatistics, error)
}

// CoordinatePlausibilityLayer checks that the declared boundary is valid
// geometry inside the service region. Purely local, so confidence is fixed
// high.
type CoordinatePlausibilityLayer struct {
	Region models.BoundingBox
}

func (l *CoordinatePlausibilityLayer) Name() string { return LayerCoordinatePlausibility }

func (l *CoordinatePlausibilityLayer) Evaluate(_ context.Context, record *models.PropertyRecord) (*models.VerificationLayerResult, error) {
	result := &models.VerificationLayerResult{LayerName: l.Name(), Confidence: 95}

	if record.Boundary == nil {
		result.Insights = append(result.Insights, "no boundary declared on record")
		return result, nil
	}
	if err := record.Boundary.Validate(); err != nil {
		result.Insights = append(result.Insights, fmt.Sprintf("boundary geometry invalid: %v", err))
		return result, nil
	}

	bounds, err := record.Boundary.Bounds()
	if err != nil {
		result.Insights = append(result.Insights, fmt.Sprintf("boundary bounds unavailable: %v", err))
		return result, nil
	}
	if bounds.MinLon < l.Region.MinLon || bounds.MaxLon > l.Region.MaxLon ||
		bounds.MinLat < l.Region.MinLat || bounds.MaxLat > l.Region.MaxLat {
		result.Score = 40
		result.Insights = append(result.Insights, "boundary extends outside the service region")
		return result, nil
	}

	result.Score = 100
	result.Insights = append(result.Insights, "coordinates valid and inside the service region")
	return result, nil
}

// BoundaryGeometryLayer scores how well the declared area matches the area
// computed from the boundary ring. Large mismatches are the classic sign of a
// doctored record.
type BoundaryGeometryLayer struct{}

func (l *BoundaryGeometryLayer) Name() string { return LayerBoundaryGeometry }

func (l *BoundaryGeometryLayer) Evaluate(_ context.Context, record *models.PropertyRecord) (*models.VerificationLayerResult, error) {
	result := &models.VerificationLayerResult{LayerName: l.Name(), Confidence: 90}

	if record.Boundary == nil || record.DeclaredAreaH <= 0 {
		result.Insights = append(result.Insights, "cannot compare areas: missing boundary or declared area")
		return result, nil
	}

	computed, err := record.Boundary.AreaHectares()
	if err != nil {
		result.Insights = append(result.Insights, fmt.Sprintf("area computation failed: %v", err))
		return result, nil
	}
	if computed <= 0 {
		result.Insights = append(result.Insights, "boundary ring has zero area")
		return result, nil
	}

	mismatchPct := math.Abs(computed-record.DeclaredAreaH) / record.DeclaredAreaH * 100
	result.Score = math.Max(0, 100-mismatchPct*2)
	result.Insights = append(result.Insights, fmt.Sprintf(
		"computed area %.2f ha vs declared %.2f ha (%.0f%% mismatch)",
		computed, record.DeclaredAreaH, mismatchPct))
	return result, nil
}

// DocumentCrossrefLayer verifies each referenced document against the
// external registry. The score is the share of references that resolve.
type DocumentCrossrefLayer struct {
	Registry DocumentRegistry
}

func (l *DocumentCrossrefLayer) Name() string { return LayerDocumentCrossref }

func (l *DocumentCrossrefLayer) Evaluate(ctx context.Context, record *models.PropertyRecord) (*models.VerificationLayerResult, error) {
	result := &models.VerificationLayerResult{LayerName: l.Name(), Confidence: 90}

	if len(record.DocumentRefs) == 0 {
		result.Insights = append(result.Insights, "no ownership documents referenced")
		return result, nil
	}

	found := 0
	for _, ref := range record.DocumentRefs {
		exists, err := l.Registry.Exists(ctx, ref)
		if err != nil {
			// Registry outage is a layer failure, not a bad record.
			return nil, fmt.Errorf("registry lookup for %q: %w", ref, err)
		}
		if exists {
			found++
		} else {
			result.Insights = append(result.Insights, fmt.Sprintf("document %q not found in registry", ref))
		}
	}

	result.Score = float64(found) / float64(len(record.DocumentRefs)) * 100
	if found == len(record.DocumentRefs) {
		result.Insights = append(result.Insights, "all referenced documents resolved")
	}
	return result, nil
}

// VegetationHealthLayer checks that the linked field shows plausible living
// vegetation: a land record claiming active cropland over bare ground scores
// low. Confidence scales with the pixel count behind the snapshot.
type VegetationHealthLayer struct {
	Snapshots VegetationSnapshotSource
}

func (l *VegetationHealthLayer) Name() string { return LayerVegetationHealth }

var interpretationScores = map[models.InterpretationLabel]float64{
	models.InterpretationExcellent: 100,
	models.InterpretationGood:      85,
	models.InterpretationFair:      70,
	models.InterpretationPoor:      50,
	models.InterpretationCritical:  30,
}

func (l *VegetationHealthLayer) Evaluate(ctx context.Context, record *models.PropertyRecord) (*models.VerificationLayerResult, error) {
	result := &models.VerificationLayerResult{LayerName: l.Name()}

	if record.FieldID == nil {
		// No monitored field linked: neutral evidence, low confidence.
		result.Score = 50
		result.Confidence = 40
		result.Insights = append(result.Insights, "no monitored field linked to this record")
		return result, nil
	}

	snapshot, err := l.Snapshots.LatestStatistics(ctx, *record.FieldID)
	if err != nil {
		return nil, fmt.Errorf("vegetation snapshot for field %s: %w", *record.FieldID, err)
	}

	result.Score = interpretationScores[snapshot.Interpretation]
	result.Confidence = 60
	if snapshot.Count >= 100 {
		result.Confidence = 90
	}
	result.Insights = append(result.Insights, fmt.Sprintf(
		"vegetation %s (mean index %.2f, %.0f%% healthy)",
		snapshot.Interpretation, snapshot.Mean, snapshot.HealthyPct))
	return result, nil
}

// RecordCompletenessLayer scores how many of the mandatory record fields are
// populated. Deterministic, so confidence is fixed at 100.
type RecordCompletenessLayer struct{}

func (l *RecordCompletenessLayer) Name() string { return LayerRecordCompleteness }

func (l *RecordCompletenessLayer) Evaluate(_ context.Context, record *models.PropertyRecord) (*models.VerificationLayerResult, error) {
	result := &models.VerificationLayerResult{LayerName: l.Name(), Confidence: 100}

	checks := []struct {
		present bool
		missing string
	}{
		{record.OwnerID != "", "owner identity"},
		{record.SurveyNumber != "", "survey number"},
		{record.Boundary != nil, "boundary geometry"},
		{record.DeclaredAreaH > 0, "declared area"},
		{len(record.DocumentRefs) > 0, "ownership documents"},
		{record.FieldID != nil, "linked monitored field"},
	}

	present := 0
	for _, c := range checks {
		if c.present {
			present++
		} else {
			result.Insights = append(result.Insights, fmt.Sprintf("missing %s", c.missing))
		}
	}

	result.Score = float64(present) / float64(len(checks)) * 100
	return result, nil
}
