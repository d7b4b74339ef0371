package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monitoring-service/internal/models"
	"monitoring-service/internal/providers"
	"monitoring-service/internal/spectral"
)

type fakeImagery struct {
	bands *providers.BandData
	err   error
	calls int
}

func (f *fakeImagery) FetchBands(context.Context, providers.ImageryRequest) (*providers.BandData, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.bands, nil
}

type fakeSnapshotStore struct {
	snapshots map[uuid.UUID][]*models.VegetationSnapshot
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{snapshots: map[uuid.UUID][]*models.VegetationSnapshot{}}
}

func (f *fakeSnapshotStore) Latest(_ context.Context, fieldID uuid.UUID) (*models.VegetationSnapshot, error) {
	history := f.snapshots[fieldID]
	if len(history) == 0 {
		return nil, nil
	}
	return history[len(history)-1], nil
}

func (f *fakeSnapshotStore) Save(_ context.Context, s *models.VegetationSnapshot) error {
	f.snapshots[s.FieldID] = append(f.snapshots[s.FieldID], s)
	return nil
}

func analysisFixture(t *testing.T, bands *providers.BandData) (*AnalysisService, *fakeSnapshotStore, uuid.UUID) {
	t.Helper()
	field := testField(t)
	snapshots := newFakeSnapshotStore()
	svc := NewAnalysisService(
		&fakeFieldStore{fields: []models.Field{*field}},
		&fakeImagery{bands: bands},
		snapshots,
		clockwork.NewFakeClock(),
	)
	return svc, snapshots, field.ID
}

func healthyBands() *providers.BandData {
	// Index per pixel: (nir-red)/(nir+red) = (0.5-0.1)/(0.6) ~= 0.667.
	return &providers.BandData{
		Red: []float64{0.1, 0.1, 0.1, 0.1},
		NIR: []float64{0.5, 0.5, 0.5, 0.5},
	}
}

func TestAnalyze_FirstRunHasNoBaseline(t *testing.T) {
	svc, snapshots, fieldID := analysisFixture(t, healthyBands())

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 10)

	result, err := svc.Analyze(context.Background(), fieldID, from, to)
	require.NoError(t, err)

	assert.Nil(t, result.Change, "first analysis has nothing to compare against")
	assert.Equal(t, 4, result.Statistics.Count)
	assert.InDelta(t, 0.667, result.Statistics.Mean, 0.001)
	assert.Len(t, snapshots.snapshots[fieldID], 1)
}

func TestAnalyze_SecondRunDetectsChange(t *testing.T) {
	svc, snapshots, fieldID := analysisFixture(t, healthyBands())
	ctx := context.Background()
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Analyze(ctx, fieldID, from, from.AddDate(0, 0, 10))
	require.NoError(t, err)

	// Vegetation collapses: index drops from ~0.667 to ~0.333.
	imagery := &fakeImagery{bands: &providers.BandData{
		Red: []float64{0.2, 0.2, 0.2, 0.2},
		NIR: []float64{0.4, 0.4, 0.4, 0.4},
	}}
	svc = NewAnalysisService(
		&fakeFieldStore{fields: []models.Field{*mustGetField(t, svc, fieldID)}},
		imagery, snapshots, clockwork.NewFakeClock(),
	)

	result, err := svc.Analyze(ctx, fieldID, from.AddDate(0, 1, 0), from.AddDate(0, 1, 10))
	require.NoError(t, err)

	require.NotNil(t, result.Change)
	assert.InDelta(t, -0.333, result.Change.MeanChange, 0.001)
	assert.InDelta(t, 50.0, result.Change.DamagePercent, 0.1)
	assert.Len(t, snapshots.snapshots[fieldID], 2)
}

func mustGetField(t *testing.T, svc *AnalysisService, id uuid.UUID) *models.Field {
	t.Helper()
	field, err := svc.fields.GetByID(context.Background(), id)
	require.NoError(t, err)
	return field
}

func TestAnalyze_FullyMaskedSceneFails(t *testing.T) {
	bands := healthyBands()
	bands.Mask = []spectral.SceneClass{
		spectral.ClassCloud, spectral.ClassCloud, spectral.ClassCloud, spectral.ClassCloud,
	}
	svc, snapshots, fieldID := analysisFixture(t, bands)

	_, err := svc.Analyze(context.Background(), fieldID,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))

	assert.True(t, errors.Is(err, models.ErrInsufficientData))
	assert.Empty(t, snapshots.snapshots[fieldID], "failed analysis must not persist a snapshot")
}

func TestAnalyze_ImageryOutageSurfaces(t *testing.T) {
	field := testField(t)
	svc := NewAnalysisService(
		&fakeFieldStore{fields: []models.Field{*field}},
		&fakeImagery{err: fmt.Errorf("%w: no cloud-free scenes", models.ErrDataUnavailable)},
		newFakeSnapshotStore(),
		clockwork.NewFakeClock(),
	)

	_, err := svc.Analyze(context.Background(), field.ID,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	assert.True(t, errors.Is(err, models.ErrDataUnavailable))
}

func TestAnalyze_UnknownFieldFails(t *testing.T) {
	svc, _, _ := analysisFixture(t, healthyBands())

	_, err := svc.Analyze(context.Background(), uuid.New(),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}
