package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monitoring-service/internal/models"
	"monitoring-service/internal/observability"
)

// stubLayer returns a fixed result, or an error, optionally after blocking
// until the layer context expires.
type stubLayer struct {
	name       string
	score      float64
	confidence float64
	err        error
	blocks     bool
}

func (s *stubLayer) Name() string { return s.name }

func (s *stubLayer) Evaluate(ctx context.Context, _ *models.PropertyRecord) (*models.VerificationLayerResult, error) {
	if s.blocks {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return &models.VerificationLayerResult{
		LayerName:  s.name,
		Score:      s.score,
		Confidence: s.confidence,
	}, nil
}

type fakePropertyStore struct {
	record *models.PropertyRecord
	saved  []*models.VerificationOutcome
}

func (f *fakePropertyStore) GetByID(_ context.Context, id uuid.UUID) (*models.PropertyRecord, error) {
	if f.record == nil || f.record.ID != id {
		return nil, fmt.Errorf("property %s: %w", id, models.ErrDataUnavailable)
	}
	return f.record, nil
}

func (f *fakePropertyStore) SaveOutcome(_ context.Context, o *models.VerificationOutcome) error {
	f.saved = append(f.saved, o)
	return nil
}

func allLayers(score, confidence float64) []LayerEvaluator {
	names := []string{
		LayerCoordinatePlausibility,
		LayerBoundaryGeometry,
		LayerDocumentCrossref,
		LayerVegetationHealth,
		LayerRecordCompleteness,
	}
	layers := make([]LayerEvaluator, 0, len(names))
	for _, n := range names {
		layers = append(layers, &stubLayer{name: n, score: score, confidence: confidence})
	}
	return layers
}

func verificationFixture(t *testing.T, layers []LayerEvaluator) (*VerificationService, *fakePropertyStore, uuid.UUID) {
	t.Helper()
	record := &models.PropertyRecord{ID: uuid.New(), OwnerID: "owner-1"}
	store := &fakePropertyStore{record: record}
	svc, err := NewVerificationService(store, layers, 5*time.Second, clockwork.NewFakeClock(), observability.NewMetricsForTesting())
	require.NoError(t, err)
	return svc, store, record.ID
}

func TestVerify_PerfectLayersReachTopTier(t *testing.T) {
	svc, store, propertyID := verificationFixture(t, allLayers(100, 100))

	outcome, err := svc.Verify(context.Background(), propertyID)
	require.NoError(t, err)

	assert.InDelta(t, 100.0, outcome.OverallScore, 1e-9)
	assert.InDelta(t, 100.0, outcome.Confidence, 1e-9)
	assert.Equal(t, models.TierAutoApproved, outcome.Tier)
	assert.Len(t, outcome.Layers, 5)
	require.Len(t, store.saved, 1)
	assert.Equal(t, outcome, store.saved[0])
}

func TestVerify_FailedLayerDegradesInsteadOfAborting(t *testing.T) {
	layers := allLayers(100, 100)
	layers[2] = &stubLayer{name: LayerDocumentCrossref, err: fmt.Errorf("registry down")}
	svc, _, propertyID := verificationFixture(t, layers)

	outcome, err := svc.Verify(context.Background(), propertyID)
	require.NoError(t, err, "single-layer failure must not abort the assessment")

	// document_crossref carries weight 0.25, so its zero pulls 100 down to 75.
	assert.InDelta(t, 75.0, outcome.OverallScore, 1e-9)
	assert.InDelta(t, 80.0, outcome.Confidence, 1e-9)

	var failed *models.VerificationLayerResult
	for i := range outcome.Layers {
		if outcome.Layers[i].LayerName == LayerDocumentCrossref {
			failed = &outcome.Layers[i]
		}
	}
	require.NotNil(t, failed)
	assert.True(t, failed.Failed)
	assert.Equal(t, 0.0, failed.Score)
	require.NotEmpty(t, failed.Insights)
	assert.Contains(t, failed.Insights[0], "layer unavailable")
}

func TestVerify_SlowLayerTimesOutIndependently(t *testing.T) {
	layers := allLayers(100, 100)
	layers[4] = &stubLayer{name: LayerRecordCompleteness, blocks: true}

	record := &models.PropertyRecord{ID: uuid.New()}
	store := &fakePropertyStore{record: record}
	svc, err := NewVerificationService(store, layers, 20*time.Millisecond, clockwork.NewRealClock(), observability.NewMetricsForTesting())
	require.NoError(t, err)

	outcome, err := svc.Verify(context.Background(), record.ID)
	require.NoError(t, err)

	// record_completeness (weight 0.15) times out and scores 0.
	assert.InDelta(t, 85.0, outcome.OverallScore, 1e-9)
}

func TestVerify_UnknownPropertyFails(t *testing.T) {
	svc, _, _ := verificationFixture(t, allLayers(100, 100))

	_, err := svc.Verify(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestNewVerificationService_RejectsUnweightedLayer(t *testing.T) {
	_, err := NewVerificationService(
		&fakePropertyStore{},
		[]LayerEvaluator{&stubLayer{name: "astrology"}},
		time.Second, clockwork.NewFakeClock(), observability.NewMetricsForTesting(),
	)
	assert.ErrorContains(t, err, "no weight defined")
}

func TestTierFor_ThresholdTable(t *testing.T) {
	cases := []struct {
		overall    float64
		confidence float64
		want       models.VerificationTier
	}{
		{100, 100, models.TierAutoApproved},
		{95, 90, models.TierAutoApproved},
		{96, 85, models.TierVerified}, // high score, shaky confidence: no auto-approve
		{85, 80, models.TierVerified},
		{88, 60, models.TierConditional},
		{75, 0, models.TierConditional},
		{74.9, 100, models.TierManualReview},
		{0, 0, models.TierManualReview},
	}

	for _, tc := range cases {
		tier, recommendation, nextSteps := tierFor(tc.overall, tc.confidence)
		assert.Equal(t, tc.want, tier, "overall=%.1f confidence=%.1f", tc.overall, tc.confidence)
		assert.NotEmpty(t, recommendation)
		assert.NotEmpty(t, nextSteps)
	}
}
