package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"monitoring-service/internal/models"
)

// Fixed overall-score weights per hazard. They sum to 1 so the weighted sum
// stays on the 0-10 hazard scale before forecast bonuses.
var hazardWeights = map[models.HazardType]float64{
	models.HazardWaterlogging: 0.20,
	models.HazardDrought:      0.20,
	models.HazardHeat:         0.15,
	models.HazardCold:         0.15,
	models.HazardDisease:      0.15,
	models.HazardWind:         0.15,
}

const (
	// Bonus added to the overall score per critical-severity forecast event.
	criticalEventBonus = 0.5

	// Frost threshold: below this the cold severity term is forced to max
	// regardless of the crop's optimal range.
	frostThresholdC = 5.0

	// Hazards scoring at or above this trigger a recommendation.
	recommendationThreshold = 5.0

	// Confidence floor: even wildly disagreeing hazards never drop
	// confidence below this.
	confidenceFloor = 0.5
)

// RiskInput bundles everything the crop risk model needs for one evaluation.
type RiskInput struct {
	Crop           models.CropType
	GrowthStage    models.GrowthStage
	SoilType       models.SoilType
	IrrigationType models.IrrigationType
	Weather        models.WeatherObservation
	Forecast       []models.ForecastDay
}

// EvaluateRisk runs the deterministic crop risk model: six independent hazard
// scores, a fixed-weight overall score with forecast bonuses, a
// variance-derived confidence and the resulting alert level with ranked
// recommendations. Unknown crops fail hard.
func EvaluateRisk(fieldID uuid.UUID, in RiskInput, now time.Time) (*models.RiskAssessment, error) {
	profile, err := LookupCropProfile(in.Crop)
	if err != nil {
		return nil, err
	}

	scores := map[models.HazardType]float64{
		models.HazardWaterlogging: waterloggingScore(profile, in),
		models.HazardDrought:      droughtScore(profile, in),
		models.HazardHeat:         heatScore(profile, in),
		models.HazardCold:         coldScore(profile, in),
		models.HazardDisease:      diseaseScore(profile, in),
		models.HazardWind:         windScore(profile, in),
	}

	criticalEvents := 0
	for _, day := range in.Forecast {
		if day.IsCritical() {
			criticalEvents++
		}
	}

	overall := combineHazardScores(scores, criticalEvents)
	confidence, err := confidenceFromScores(scores)
	if err != nil {
		return nil, fmt.Errorf("%w: hazard score variance: %v", models.ErrComputation, err)
	}

	return &models.RiskAssessment{
		ID:              uuid.New(),
		FieldID:         fieldID,
		EvaluatedAt:     now,
		HazardScores:    scores,
		OverallScore:    overall,
		Confidence:      confidence,
		AlertLevel:      alertLevelForScore(overall),
		Recommendations: buildRecommendations(scores),
	}, nil
}

// waterloggingScore blends base and stage sensitivity with excess-rainfall
// severity, scaled by how poorly the soil drains. Zero when rainfall stays
// inside the crop's optimal band.
func waterloggingScore(p models.CropSensitivityProfile, in RiskInput) float64 {
	severity := clampScore((in.Weather.RainfallMM - p.OptimalRainMaxMM) / 12)
	if severity == 0 {
		return 0
	}

	base := p.BaseSensitivity[models.HazardWaterlogging]
	stage := stageSensitivity(base, in.GrowthStage, models.HazardWaterlogging)
	drainage, ok := soilDrainageFactors[in.SoilType]
	if !ok {
		drainage = soilDrainageFactors[models.SoilLoamy]
	}

	return clampScore((base*0.4 + stage*0.3 + severity*0.3) * drainage)
}

// droughtScore blends sensitivities with low-rainfall severity, reduced by
// irrigation and amplified when heat compounds the water deficit.
func droughtScore(p models.CropSensitivityProfile, in RiskInput) float64 {
	optMin := math.Max(p.OptimalRainMinMM, 1)
	severity := clampScore((p.OptimalRainMinMM - in.Weather.RainfallMM) / optMin * 10)
	if severity == 0 {
		return 0
	}

	base := p.BaseSensitivity[models.HazardDrought]
	stage := stageSensitivity(base, in.GrowthStage, models.HazardDrought)
	mitigation, ok := irrigationMitigations[in.IrrigationType]
	if !ok {
		mitigation = irrigationMitigations[models.IrrigationRainfed]
	}

	heatAmplifier := 1.0
	if in.Weather.TemperatureC > p.OptimalTempMaxC {
		heatAmplifier = 1.2
	}

	return clampScore((base*0.35 + stage*0.25 + severity*0.4) * mitigation * heatAmplifier)
}

// heatScore is driven by temperature excess over the crop's optimal maximum,
// amplified under humid conditions that block transpiration cooling.
func heatScore(p models.CropSensitivityProfile, in RiskInput) float64 {
	severity := clampScore((in.Weather.TemperatureC - p.OptimalTempMaxC) * 1.25)
	if severity == 0 {
		return 0
	}

	base := p.BaseSensitivity[models.HazardHeat]
	stage := stageSensitivity(base, in.GrowthStage, models.HazardHeat)
	humidityMultiplier := 1.0 + math.Min(math.Max(in.Weather.HumidityPct-60, 0), 40)/200

	return clampScore((base*0.35 + stage*0.25 + severity*0.4) * humidityMultiplier)
}

// coldScore is driven by the deficit under the optimal minimum. Temperatures
// below the frost threshold force maximum severity regardless of the deficit.
func coldScore(p models.CropSensitivityProfile, in RiskInput) float64 {
	severity := clampScore((p.OptimalTempMinC - in.Weather.TemperatureC) * 1.25)
	if in.Weather.TemperatureC < frostThresholdC {
		severity = 10
	}
	if severity == 0 {
		return 0
	}

	base := p.BaseSensitivity[models.HazardCold]
	stage := stageSensitivity(base, in.GrowthStage, models.HazardCold)

	return clampScore(base*0.35 + stage*0.25 + severity*0.4)
}

// diseaseScore models fungal pressure: humidity drives it, rainfall amplifies
// it, and it peaks in the mild temperature band rather than at extremes.
func diseaseScore(p models.CropSensitivityProfile, in RiskInput) float64 {
	severity := clampScore((in.Weather.HumidityPct - 40) / 6)
	if severity == 0 {
		return 0
	}

	base := p.BaseSensitivity[models.HazardDisease]
	stage := stageSensitivity(base, in.GrowthStage, models.HazardDisease)
	rainfallAmplifier := 1.0 + math.Min(in.Weather.RainfallMM, 150)/300

	temperatureBand := 1.0
	switch {
	case in.Weather.TemperatureC >= 18 && in.Weather.TemperatureC <= 28:
		temperatureBand = 1.2 // fungal sweet spot
	case in.Weather.TemperatureC < 10 || in.Weather.TemperatureC > 32:
		temperatureBand = 0.85
	}

	return clampScore((base*0.3 + stage*0.2 + severity*0.5) * rainfallAmplifier * temperatureBand)
}

// windScore uses fixed wind-speed breakpoints, amplified during flowering and
// maturity when plants carry the most structural load.
func windScore(p models.CropSensitivityProfile, in RiskInput) float64 {
	severity := windSeverity(in.Weather.WindSpeedKmh)

	amplifier := 1.0
	if in.GrowthStage == models.StageFlowering || in.GrowthStage == models.StageMaturity {
		amplifier = 1.3
	}

	base := p.BaseSensitivity[models.HazardWind]
	return clampScore((base*0.3 + severity*0.7) * amplifier)
}

func windSeverity(speedKmh float64) float64 {
	switch {
	case speedKmh >= 90:
		return 10
	case speedKmh >= 70:
		return 8
	case speedKmh >= 50:
		return 6
	case speedKmh >= 30:
		return 4
	case speedKmh >= 20:
		return 2
	default:
		return 1
	}
}

// combineHazardScores folds the six hazard scores into the overall score via
// fixed weights, plus a bonus per critical forecast event. Monotonic
// non-decreasing in every individual hazard score.
func combineHazardScores(scores map[models.HazardType]float64, criticalEvents int) float64 {
	var overall float64
	for hazard, weight := range hazardWeights {
		overall += scores[hazard] * weight
	}
	overall += float64(criticalEvents) * criticalEventBonus
	return clampScore(overall)
}

// confidenceFromScores derives confidence from inter-hazard variance: when
// the six hazards agree the assessment is trustworthy, when they disagree it
// is noisy. Floored at confidenceFloor.
func confidenceFromScores(scores map[models.HazardType]float64) (float64, error) {
	values := make([]float64, 0, len(models.AllHazards))
	for _, hazard := range models.AllHazards {
		values = append(values, scores[hazard])
	}

	stdDev, err := stats.StandardDeviation(stats.Float64Data(values))
	if err != nil {
		return 0, err
	}

	confidence := 1 - stdDev/6
	if confidence < confidenceFloor {
		confidence = confidenceFloor
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence, nil
}

// alertLevelForScore reads the alert level off fixed overall-score bands.
func alertLevelForScore(overall float64) models.AlertLevel {
	switch {
	case overall >= 8:
		return models.AlertCritical
	case overall >= 6:
		return models.AlertHigh
	case overall >= 4:
		return models.AlertMedium
	case overall >= 2:
		return models.AlertLow
	default:
		return models.AlertNormal
	}
}

// hazardAdvice holds the fixed recommendation per hazard.
var hazardAdvice = map[models.HazardType]models.Recommendation{
	models.HazardCold: {
		Hazard:   models.HazardCold,
		Priority: models.PriorityUrgent,
		Message:  "Frost/cold stress expected: irrigate before nightfall and deploy covers on vulnerable plots",
	},
	models.HazardWaterlogging: {
		Hazard:   models.HazardWaterlogging,
		Priority: models.PriorityHigh,
		Message:  "Excess rainfall on poorly drained soil: clear drainage channels and avoid further irrigation",
	},
	models.HazardDrought: {
		Hazard:   models.HazardDrought,
		Priority: models.PriorityHigh,
		Message:  "Sustained water deficit: schedule irrigation and apply mulch to reduce evaporation",
	},
	models.HazardWind: {
		Hazard:   models.HazardWind,
		Priority: models.PriorityMedium,
		Message:  "Strong winds during a vulnerable stage: stake or windbreak exposed rows where feasible",
	},
	models.HazardHeat: {
		Hazard:   models.HazardHeat,
		Priority: models.PriorityMedium,
		Message:  "Heat stress above optimal range: irrigate in the early morning and avoid midday field work",
	},
	models.HazardDisease: {
		Hazard:   models.HazardDisease,
		Priority: models.PriorityLow,
		Message:  "Humid conditions favour fungal disease: scout for early symptoms and consider preventive spraying",
	},
}

var priorityRank = map[models.RecommendationPriority]int{
	models.PriorityUrgent: 0,
	models.PriorityHigh:   1,
	models.PriorityMedium: 2,
	models.PriorityLow:    3,
}

// buildRecommendations emits the fixed advice for every hazard at or above
// the trigger threshold, ranked Urgent > High > Medium > Low.
func buildRecommendations(scores map[models.HazardType]float64) []models.Recommendation {
	recs := make([]models.Recommendation, 0, len(models.AllHazards))
	for _, hazard := range models.AllHazards {
		if scores[hazard] >= recommendationThreshold {
			recs = append(recs, hazardAdvice[hazard])
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return priorityRank[recs[i].Priority] < priorityRank[recs[j].Priority]
	})
	return recs
}
