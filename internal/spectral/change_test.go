package spectral

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monitoring-service/internal/models"
)

func TestDetectChange_DamageCounting(t *testing.T) {
	baseline := indexMapFromValues(t, []float64{0.8, 0.8, 0.8, 0.8})
	// Drops: 0.5 (severe), 0.3 (damage), 0.1 (none), -0.1 (improved).
	current := indexMapFromValues(t, []float64{0.3, 0.5, 0.7, 0.9})

	r, err := DetectChange(baseline, current)
	require.NoError(t, err)

	assert.Equal(t, 4, r.ComparedPixels)
	assert.InDelta(t, 50.0, r.DamagePercent, 0.001)
	assert.InDelta(t, 25.0, r.SevereDamagePercent, 0.001)
	assert.InDelta(t, -0.2, r.MeanChange, 1e-9)
	assert.Equal(t, 6.0, r.RiskScore)
}

func TestDetectChange_SkipsPixelsInvalidInEitherScene(t *testing.T) {
	baseline := indexMapFromValues(t, []float64{0.8, 0.8, 0.8})
	baseline.Valid[1] = false
	baseline.ValidCount = 2
	current := indexMapFromValues(t, []float64{0.2, 0.2, 0.8})
	current.Valid[2] = false
	current.ValidCount = 2

	r, err := DetectChange(baseline, current)
	require.NoError(t, err)

	assert.Equal(t, 1, r.ComparedPixels)
	assert.InDelta(t, 100.0, r.DamagePercent, 0.001)
}

func TestDetectChange_RiskScoreBreakpoints(t *testing.T) {
	cases := []struct {
		damagePct float64
		want      float64
	}{
		{85, 10}, {80, 10}, {65, 8}, {60, 8}, {45, 6}, {25, 4}, {12, 2}, {9, 1}, {0, 1},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, riskScoreForDamage(tc.damagePct), "damage %.0f%%", tc.damagePct)
	}
}

func TestDetectChange_GridMismatch(t *testing.T) {
	_, err := DetectChange(indexMapFromValues(t, []float64{0.5}), indexMapFromValues(t, []float64{0.5, 0.5}))
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestDetectChange_NoOverlappingValidPixels(t *testing.T) {
	baseline := indexMapFromValues(t, []float64{0.8, 0.8})
	baseline.Valid[0] = false
	current := indexMapFromValues(t, []float64{0.2, 0.2})
	current.Valid[1] = false

	_, err := DetectChange(baseline, current)
	assert.True(t, errors.Is(err, models.ErrInsufficientData))
}

func TestDetectChangeFromStats_RelativeMeanDrop(t *testing.T) {
	baseline := &models.VegetationStatistics{Count: 100, Mean: 0.6, HealthyPct: 55}
	current := &models.VegetationStatistics{Count: 100, Mean: 0.3, HealthyPct: 20}

	r, err := DetectChangeFromStats(baseline, current)
	require.NoError(t, err)

	assert.InDelta(t, -0.3, r.MeanChange, 1e-9)
	assert.InDelta(t, 50.0, r.DamagePercent, 0.001)
	assert.InDelta(t, 35.0, r.SevereDamagePercent, 0.001)
	assert.Equal(t, 6.0, r.RiskScore)
}

func TestDetectChangeFromStats_ImprovedFieldHasNoDamage(t *testing.T) {
	baseline := &models.VegetationStatistics{Count: 100, Mean: 0.4, HealthyPct: 20}
	current := &models.VegetationStatistics{Count: 100, Mean: 0.6, HealthyPct: 45}

	r, err := DetectChangeFromStats(baseline, current)
	require.NoError(t, err)

	assert.Equal(t, 0.0, r.DamagePercent)
	assert.Equal(t, 1.0, r.RiskScore)
}
