package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"monitoring-service/internal/models"
	"monitoring-service/internal/observability"
)

// Evidence layer names. The weight table is keyed on these and must stay in
// sync with the registered evaluators.
const (
	LayerCoordinatePlausibility = "coordinate_plausibility"
	LayerBoundaryGeometry       = "boundary_geometry"
	LayerDocumentCrossref       = "document_crossref"
	LayerVegetationHealth       = "vegetation_health"
	LayerRecordCompleteness     = "record_completeness"
)

// layerWeights sum to 1 so the overall score stays on the 0-100 layer scale.
var layerWeights = map[string]float64{
	LayerCoordinatePlausibility: 0.20,
	LayerBoundaryGeometry:       0.20,
	LayerDocumentCrossref:       0.25,
	LayerVegetationHealth:       0.20,
	LayerRecordCompleteness:     0.15,
}

// LayerEvaluator produces one independent evidence-layer result. Evaluators
// must be side-effect-free apart from outbound provider calls and must honour
// the context deadline.
type LayerEvaluator interface {
	Name() string
	Evaluate(ctx context.Context, record *models.PropertyRecord) (*models.VerificationLayerResult, error)
}

// PropertyStore reads land records and writes back verification outcomes.
type PropertyStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.PropertyRecord, error)
	SaveOutcome(ctx context.Context, outcome *models.VerificationOutcome) error
}

// VerificationService fans the registered evidence layers out concurrently,
// joins them with no early exit, and reduces the results to a single trust
// tier. A layer that errors or times out contributes score 0 with an
// explanatory insight; only a missing record or a storage failure aborts the
// run.
type VerificationService struct {
	store        PropertyStore
	layers       []LayerEvaluator
	layerTimeout time.Duration
	clock        clockwork.Clock
	metrics      *observability.Metrics
}

func NewVerificationService(store PropertyStore, layers []LayerEvaluator, layerTimeout time.Duration, clock clockwork.Clock, metrics *observability.Metrics) (*VerificationService, error) {
	for _, layer := range layers {
		if _, ok := layerWeights[layer.Name()]; !ok {
			return nil, fmt.Errorf("%w: no weight defined for layer %q", models.ErrInvalidInput, layer.Name())
		}
	}
	return &VerificationService{
		store:        store,
		layers:       layers,
		layerTimeout: layerTimeout,
		clock:        clock,
		metrics:      metrics,
	}, nil
}

// Verify runs the full ensemble for one land record and persists the outcome.
func (s *VerificationService) Verify(ctx context.Context, propertyID uuid.UUID) (*models.VerificationOutcome, error) {
	record, err := s.store.GetByID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load property %s: %w", propertyID, err)
	}

	started := s.clock.Now()
	results := s.evaluateLayers(ctx, record)
	outcome := s.scoreOutcome(propertyID, results)
	outcome.EvaluatedAt = s.clock.Now()

	if err := s.store.SaveOutcome(ctx, outcome); err != nil {
		return nil, fmt.Errorf("failed to persist verification outcome for %s: %w", propertyID, err)
	}

	s.metrics.VerificationTime.Observe(s.clock.Since(started).Seconds())
	slog.Info("Property verification completed",
		"property_id", propertyID,
		"overall_score", outcome.OverallScore,
		"confidence", outcome.Confidence,
		"tier", outcome.Tier,
	)
	return outcome, nil
}

// evaluateLayers is the fan-out/fan-in barrier: every layer runs under its
// own timeout, all are awaited, and a failure degrades that single layer
// instead of cancelling the group.
func (s *VerificationService) evaluateLayers(ctx context.Context, record *models.PropertyRecord) []models.VerificationLayerResult {
	var (
		mu      sync.Mutex
		results = make([]models.VerificationLayerResult, 0, len(s.layers))
	)

	g, groupCtx := errgroup.WithContext(ctx)
	for _, layer := range s.layers {
		g.Go(func() error {
			layerCtx, cancel := context.WithTimeout(groupCtx, s.layerTimeout)
			defer cancel()

			result, err := layer.Evaluate(layerCtx, record)
			if err != nil {
				slog.Error("verification layer failed",
					"property_id", record.ID, "layer", layer.Name(), "error", err)
				s.metrics.LayerFailures.WithLabelValues(layer.Name()).Inc()
				result = &models.VerificationLayerResult{
					LayerName:  layer.Name(),
					Score:      0,
					Confidence: 0,
					Insights:   []string{fmt.Sprintf("layer unavailable: %v", err)},
					Failed:     true,
				}
			}

			mu.Lock()
			results = append(results, *result)
			mu.Unlock()
			// Never propagate: one broken layer must not cancel the rest.
			return nil
		})
	}
	_ = g.Wait() // layer funcs never return errors

	sort.Slice(results, func(i, j int) bool { return results[i].LayerName < results[j].LayerName })
	return results
}

func (s *VerificationService) scoreOutcome(propertyID uuid.UUID, layers []models.VerificationLayerResult) *models.VerificationOutcome {
	var overall, confidenceSum float64
	for _, layer := range layers {
		overall += layer.Score * layerWeights[layer.LayerName]
		confidenceSum += layer.Confidence
	}

	confidence := 0.0
	if len(layers) > 0 {
		confidence = confidenceSum / float64(len(layers))
	}

	tier, recommendation, nextSteps := tierFor(overall, confidence)
	return &models.VerificationOutcome{
		PropertyID:     propertyID,
		OverallScore:   overall,
		Confidence:     confidence,
		Tier:           tier,
		Recommendation: recommendation,
		NextSteps:      nextSteps,
		Layers:         layers,
	}
}

// tierFor maps (overall score, confidence) to a trust tier. The thresholds
// are deliberately conjunctive: a high score with shaky confidence never
// auto-approves.
func tierFor(overall, confidence float64) (models.VerificationTier, string, []string) {
	switch {
	case overall >= 95 && confidence >= 90:
		return models.TierAutoApproved,
			"Record verified across all evidence layers; approve without manual intervention",
			[]string{"issue verification certificate", "notify record owner"}
	case overall >= 85 && confidence >= 80:
		return models.TierVerified,
			"Record verified; spot-check recommended before certificate issuance",
			[]string{"queue for spot-check sampling", "issue provisional certificate"}
	case overall >= 75:
		return models.TierConditional,
			"Record partially verified; conditional approval pending weak evidence layers",
			[]string{"request supporting documents for low-scoring layers", "re-verify after submission"}
	default:
		return models.TierManualReview,
			"Insufficient evidence for automated verification; route to manual review",
			[]string{"assign to review officer", "collect field survey if boundary evidence is weak"}
	}
}
