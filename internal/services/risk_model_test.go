package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"monitoring-service/internal/models"
)

func TestEvaluateRisk_UnknownCropFailsHard(t *testing.T) {
	_, err := EvaluateRisk(uuid.New(), RiskInput{Crop: models.CropType("banana")}, time.Now())
	assert.True(t, errors.Is(err, models.ErrUnknownCrop))
}

func TestEvaluateRisk_WheatFloweringHeavyRainScenario(t *testing.T) {
	in := RiskInput{
		Crop:           models.CropWheat,
		GrowthStage:    models.StageFlowering,
		SoilType:       models.SoilClay,
		IrrigationType: models.IrrigationRainfed,
		Weather: models.WeatherObservation{
			TemperatureC: 32,
			RainfallMM:   120,
			HumidityPct:  85,
			WindSpeedKmh: 45,
		},
		Forecast: []models.ForecastDay{
			{Date: time.Now().AddDate(0, 0, 1), RainfallMM: 110, TemperatureC: 28},
			{Date: time.Now().AddDate(0, 0, 2), RainfallMM: 105, TemperatureC: 27},
		},
	}

	a, err := EvaluateRisk(uuid.New(), in, time.Now())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, a.HazardScores[models.HazardWaterlogging], 8.0,
		"heavy rain on clay during flowering must score waterlogging >= 8")
	assert.Contains(t, []models.AlertLevel{models.AlertHigh, models.AlertCritical}, a.AlertLevel)
	assert.NotEmpty(t, a.Recommendations)
	assert.Equal(t, models.HazardDisease, a.Recommendations[len(a.Recommendations)-1].Hazard,
		"low-priority disease advice ranks last")
}

func TestEvaluateRisk_ScoresClampedUnderExtremeInputs(t *testing.T) {
	in := RiskInput{
		Crop:           models.CropMaize,
		GrowthStage:    models.StageFlowering,
		SoilType:       models.SoilClay,
		IrrigationType: models.IrrigationRainfed,
		Weather: models.WeatherObservation{
			TemperatureC: 55,
			RainfallMM:   500,
			HumidityPct:  100,
			WindSpeedKmh: 200,
		},
	}

	a, err := EvaluateRisk(uuid.New(), in, time.Now())
	require.NoError(t, err)

	for hazard, score := range a.HazardScores {
		assert.GreaterOrEqual(t, score, 0.0, "hazard %s", hazard)
		assert.LessOrEqual(t, score, 10.0, "hazard %s", hazard)
	}
	assert.LessOrEqual(t, a.OverallScore, 10.0)
}

func TestEvaluateRisk_FrostForcesMaxColdSeverity(t *testing.T) {
	base := RiskInput{
		Crop:           models.CropWheat,
		GrowthStage:    models.StageVegetative,
		SoilType:       models.SoilLoamy,
		IrrigationType: models.IrrigationCanal,
		Weather:        models.WeatherObservation{TemperatureC: 4.9, RainfallMM: 5, HumidityPct: 50},
	}
	deep := base
	deep.Weather.TemperatureC = -10

	mild, err := EvaluateRisk(uuid.New(), base, time.Now())
	require.NoError(t, err)
	extreme, err := EvaluateRisk(uuid.New(), deep, time.Now())
	require.NoError(t, err)

	// Both sit under the frost threshold, so the severity term is pinned to
	// max either way and the cold scores match exactly.
	assert.Equal(t, extreme.HazardScores[models.HazardCold], mild.HazardScores[models.HazardCold])
	assert.Greater(t, mild.HazardScores[models.HazardCold], 5.0)
}

func TestEvaluateRisk_BenignConditionsScoreNormal(t *testing.T) {
	in := RiskInput{
		Crop:           models.CropRice,
		GrowthStage:    models.StageVegetative,
		SoilType:       models.SoilLoamy,
		IrrigationType: models.IrrigationCanal,
		Weather: models.WeatherObservation{
			TemperatureC: 28,
			RainfallMM:   8,
			HumidityPct:  40,
			WindSpeedKmh: 10,
		},
	}

	a, err := EvaluateRisk(uuid.New(), in, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 0.0, a.HazardScores[models.HazardWaterlogging])
	assert.Equal(t, 0.0, a.HazardScores[models.HazardDrought])
	assert.Equal(t, 0.0, a.HazardScores[models.HazardHeat])
	assert.Equal(t, 0.0, a.HazardScores[models.HazardCold])
	assert.Less(t, a.OverallScore, 2.0)
	assert.Equal(t, models.AlertNormal, a.AlertLevel)
	assert.Empty(t, a.Recommendations)
}

func TestCombineHazardScores_MonotonicInEachHazard(t *testing.T) {
	baseScores := map[models.HazardType]float64{}
	for _, hazard := range models.AllHazards {
		baseScores[hazard] = 3
	}
	baseline := combineHazardScores(baseScores, 0)

	for _, hazard := range models.AllHazards {
		bumped := map[models.HazardType]float64{}
		for h, v := range baseScores {
			bumped[h] = v
		}
		bumped[hazard] = 7

		assert.GreaterOrEqual(t, combineHazardScores(bumped, 0), baseline,
			"raising %s must never lower the overall score", hazard)
	}
}

func TestCombineHazardScores_CriticalForecastBonusAndClamp(t *testing.T) {
	scores := map[models.HazardType]float64{}
	for _, hazard := range models.AllHazards {
		scores[hazard] = 2
	}

	assert.InDelta(t, 2.0, combineHazardScores(scores, 0), 1e-9)
	assert.InDelta(t, 3.0, combineHazardScores(scores, 2), 1e-9)
	assert.Equal(t, 10.0, combineHazardScores(scores, 100), "forecast bonus must clamp at 10")
}

func TestConfidenceFromScores(t *testing.T) {
	agreeing := map[models.HazardType]float64{}
	for _, hazard := range models.AllHazards {
		agreeing[hazard] = 6
	}
	conf, err := confidenceFromScores(agreeing)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, conf, 1e-9, "identical hazard scores mean full agreement")

	divergent := map[models.HazardType]float64{
		models.HazardWaterlogging: 10,
		models.HazardDrought:      0,
		models.HazardHeat:         10,
		models.HazardCold:         0,
		models.HazardDisease:      10,
		models.HazardWind:         0,
	}
	conf, err = confidenceFromScores(divergent)
	require.NoError(t, err)
	assert.Equal(t, 0.5, conf, "confidence floors at 0.5 under maximal disagreement")
}

func TestAlertLevelForScore_Bands(t *testing.T) {
	cases := []struct {
		score float64
		want  models.AlertLevel
	}{
		{9.5, models.AlertCritical}, {8, models.AlertCritical},
		{7, models.AlertHigh}, {6, models.AlertHigh},
		{5, models.AlertMedium}, {4, models.AlertMedium},
		{3, models.AlertLow}, {2, models.AlertLow},
		{1.9, models.AlertNormal}, {0, models.AlertNormal},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, alertLevelForScore(tc.score), "score %.1f", tc.score)
	}
}
