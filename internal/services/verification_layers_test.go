package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monitoring-service/internal/models"
)

var testRegion = models.BoundingBox{MinLon: 68, MinLat: 6, MaxLon: 98, MaxLat: 36}

func propertyWithBoundary() *models.PropertyRecord {
	return &models.PropertyRecord{
		ID:      uuid.New(),
		OwnerID: "owner-1",
		Boundary: &models.GeoJSONPolygon{
			Type: "Polygon",
			Coordinates: [][][]float64{{
				{78.10, 17.40}, {78.11, 17.40}, {78.11, 17.41}, {78.10, 17.41}, {78.10, 17.40},
			}},
		},
		SurveyNumber: "SRV-2041",
		DocumentRefs: []string{"doc-1", "doc-2"},
	}
}

func TestCoordinatePlausibilityLayer(t *testing.T) {
	layer := &CoordinatePlausibilityLayer{Region: testRegion}

	t.Run("inside region", func(t *testing.T) {
		r, err := layer.Evaluate(context.Background(), propertyWithBoundary())
		require.NoError(t, err)
		assert.Equal(t, 100.0, r.Score)
	})

	t.Run("outside region", func(t *testing.T) {
		record := propertyWithBoundary()
		record.Boundary.Coordinates = [][][]float64{{
			{2.10, 48.80}, {2.11, 48.80}, {2.11, 48.81}, {2.10, 48.81}, {2.10, 48.80},
		}}
		r, err := layer.Evaluate(context.Background(), record)
		require.NoError(t, err)
		assert.Equal(t, 40.0, r.Score)
		assert.Contains(t, r.Insights[0], "outside the service region")
	})

	t.Run("missing boundary", func(t *testing.T) {
		r, err := layer.Evaluate(context.Background(), &models.PropertyRecord{ID: uuid.New()})
		require.NoError(t, err)
		assert.Equal(t, 0.0, r.Score)
	})

	t.Run("open ring", func(t *testing.T) {
		record := propertyWithBoundary()
		record.Boundary.Coordinates = [][][]float64{{
			{78.10, 17.40}, {78.11, 17.40}, {78.11, 17.41}, {78.10, 17.41},
		}}
		r, err := layer.Evaluate(context.Background(), record)
		require.NoError(t, err)
		assert.Equal(t, 0.0, r.Score)
		assert.Contains(t, r.Insights[0], "invalid")
	})
}

func TestBoundaryGeometryLayer(t *testing.T) {
	layer := &BoundaryGeometryLayer{}

	t.Run("declared area matches computed", func(t *testing.T) {
		record := propertyWithBoundary()
		computed, err := record.Boundary.AreaHectares()
		require.NoError(t, err)
		record.DeclaredAreaH = computed

		r, err := layer.Evaluate(context.Background(), record)
		require.NoError(t, err)
		assert.InDelta(t, 100.0, r.Score, 0.001)
	})

	t.Run("declared area doubled", func(t *testing.T) {
		record := propertyWithBoundary()
		computed, err := record.Boundary.AreaHectares()
		require.NoError(t, err)
		record.DeclaredAreaH = computed * 2 // 50% mismatch against declared

		r, err := layer.Evaluate(context.Background(), record)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, r.Score, 0.001)
	})

	t.Run("missing declared area", func(t *testing.T) {
		r, err := layer.Evaluate(context.Background(), propertyWithBoundary())
		require.NoError(t, err)
		assert.Equal(t, 0.0, r.Score)
	})
}

type fakeRegistry struct {
	known map[string]bool
	err   error
}

func (f *fakeRegistry) Exists(_ context.Context, ref string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.known[ref], nil
}

func TestDocumentCrossrefLayer(t *testing.T) {
	t.Run("all documents resolve", func(t *testing.T) {
		layer := &DocumentCrossrefLayer{Registry: &fakeRegistry{known: map[string]bool{"doc-1": true, "doc-2": true}}}
		r, err := layer.Evaluate(context.Background(), propertyWithBoundary())
		require.NoError(t, err)
		assert.Equal(t, 100.0, r.Score)
	})

	t.Run("half resolve", func(t *testing.T) {
		layer := &DocumentCrossrefLayer{Registry: &fakeRegistry{known: map[string]bool{"doc-1": true}}}
		r, err := layer.Evaluate(context.Background(), propertyWithBoundary())
		require.NoError(t, err)
		assert.Equal(t, 50.0, r.Score)
		assert.Contains(t, r.Insights[0], "doc-2")
	})

	t.Run("no references", func(t *testing.T) {
		layer := &DocumentCrossrefLayer{Registry: &fakeRegistry{}}
		record := propertyWithBoundary()
		record.DocumentRefs = nil
		r, err := layer.Evaluate(context.Background(), record)
		require.NoError(t, err)
		assert.Equal(t, 0.0, r.Score)
	})

	t.Run("registry outage is a layer failure", func(t *testing.T) {
		layer := &DocumentCrossrefLayer{Registry: &fakeRegistry{err: fmt.Errorf("timeout")}}
		_, err := layer.Evaluate(context.Background(), propertyWithBoundary())
		assert.Error(t, err)
	})
}

type fakeSnapshotSource struct {
	stats *models.VegetationStatistics
	err   error
}

func (f *fakeSnapshotSource) LatestStatistics(context.Context, uuid.UUID) (*models.VegetationStatistics, error) {
	return f.stats, f.err
}

func TestVegetationHealthLayer(t *testing.T) {
	t.Run("healthy linked field", func(t *testing.T) {
		layer := &VegetationHealthLayer{Snapshots: &fakeSnapshotSource{
			stats: &models.VegetationStatistics{Count: 400, Mean: 0.55, HealthyPct: 40, Interpretation: models.InterpretationGood},
		}}
		record := propertyWithBoundary()
		fieldID := uuid.New()
		record.FieldID = &fieldID

		r, err := layer.Evaluate(context.Background(), record)
		require.NoError(t, err)
		assert.Equal(t, 85.0, r.Score)
		assert.Equal(t, 90.0, r.Confidence)
	})

	t.Run("unlinked record is neutral evidence", func(t *testing.T) {
		layer := &VegetationHealthLayer{Snapshots: &fakeSnapshotSource{}}
		r, err := layer.Evaluate(context.Background(), propertyWithBoundary())
		require.NoError(t, err)
		assert.Equal(t, 50.0, r.Score)
		assert.Equal(t, 40.0, r.Confidence)
	})

	t.Run("snapshot failure is a layer failure", func(t *testing.T) {
		layer := &VegetationHealthLayer{Snapshots: &fakeSnapshotSource{err: fmt.Errorf("no imagery")}}
		record := propertyWithBoundary()
		fieldID := uuid.New()
		record.FieldID = &fieldID

		_, err := layer.Evaluate(context.Background(), record)
		assert.Error(t, err)
	})
}

func TestRecordCompletenessLayer(t *testing.T) {
	layer := &RecordCompletenessLayer{}

	t.Run("complete record", func(t *testing.T) {
		record := propertyWithBoundary()
		record.DeclaredAreaH = 1.2
		fieldID := uuid.New()
		record.FieldID = &fieldID

		r, err := layer.Evaluate(context.Background(), record)
		require.NoError(t, err)
		assert.Equal(t, 100.0, r.Score)
		assert.Empty(t, r.Insights)
	})

	t.Run("half-empty record", func(t *testing.T) {
		record := &models.PropertyRecord{
			ID:           uuid.New(),
			OwnerID:      "owner-1",
			SurveyNumber: "SRV-2041",
			Boundary:     propertyWithBoundary().Boundary,
		}

		r, err := layer.Evaluate(context.Background(), record)
		require.NoError(t, err)
		assert.Equal(t, 50.0, r.Score)
		assert.Len(t, r.Insights, 3)
	})
}
