package services

import (
	"fmt"
	"math"

	"monitoring-service/internal/models"
)

// Static crop sensitivity reference data. Base sensitivities are 1-10 per
// hazard; optimal ranges are daily values. Validated once at package init so
// a bad literal fails fast instead of surfacing as a wrong score.
var cropProfiles = map[models.CropType]models.CropSensitivityProfile{
	models.CropRice: {
		Crop:             models.CropRice,
		OptimalTempMinC:  20,
		OptimalTempMaxC:  35,
		OptimalRainMinMM: 5,
		OptimalRainMaxMM: 15,
		BaseSensitivity: map[models.HazardType]float64{
			models.HazardWaterlogging: 3, // paddy crop, tolerates standing water
			models.HazardDrought:      8,
			models.HazardHeat:         6,
			models.HazardCold:         7,
			models.HazardDisease:      7,
			models.HazardWind:         5,
		},
	},
	models.CropWheat: {
		Crop:             models.CropWheat,
		OptimalTempMinC:  12,
		OptimalTempMaxC:  25,
		OptimalRainMinMM: 2,
		OptimalRainMaxMM: 8,
		BaseSensitivity: map[models.HazardType]float64{
			models.HazardWaterlogging: 8,
			models.HazardDrought:      6,
			models.HazardHeat:         7,
			models.HazardCold:         4,
			models.HazardDisease:      6,
			models.HazardWind:         5,
		},
	},
	models.CropMaize: {
		Crop:             models.CropMaize,
		OptimalTempMinC:  18,
		OptimalTempMaxC:  32,
		OptimalRainMinMM: 3,
		OptimalRainMaxMM: 10,
		BaseSensitivity: map[models.HazardType]float64{
			models.HazardWaterlogging: 6,
			models.HazardDrought:      7,
			models.HazardHeat:         6,
			models.HazardCold:         6,
			models.HazardDisease:      5,
			models.HazardWind:         7,
		},
	},
	models.CropCotton: {
		Crop:             models.CropCotton,
		OptimalTempMinC:  21,
		OptimalTempMaxC:  35,
		OptimalRainMinMM: 2,
		OptimalRainMaxMM: 8,
		BaseSensitivity: map[models.HazardType]float64{
			models.HazardWaterlogging: 7,
			models.HazardDrought:      5,
			models.HazardHeat:         4,
			models.HazardCold:         7,
			models.HazardDisease:      6,
			models.HazardWind:         6,
		},
	},
	models.CropSoybean: {
		Crop:             models.CropSoybean,
		OptimalTempMinC:  20,
		OptimalTempMaxC:  30,
		OptimalRainMinMM: 3,
		OptimalRainMaxMM: 9,
		BaseSensitivity: map[models.HazardType]float64{
			models.HazardWaterlogging: 6,
			models.HazardDrought:      6,
			models.HazardHeat:         5,
			models.HazardCold:         6,
			models.HazardDisease:      7,
			models.HazardWind:         5,
		},
	},
	models.CropSugarcane: {
		Crop:             models.CropSugarcane,
		OptimalTempMinC:  24,
		OptimalTempMaxC:  34,
		OptimalRainMinMM: 4,
		OptimalRainMaxMM: 12,
		BaseSensitivity: map[models.HazardType]float64{
			models.HazardWaterlogging: 5,
			models.HazardDrought:      7,
			models.HazardHeat:         5,
			models.HazardCold:         8,
			models.HazardDisease:      5,
			models.HazardWind:         8, // tall cane lodges in storms
		},
	},
}

// stageMultipliers scale base sensitivity per growth stage. Flowering is the
// most vulnerable window for nearly every hazard; wind damage stays elevated
// through maturity (structural load on mature plants).
var stageMultipliers = map[models.GrowthStage]map[models.HazardType]float64{
	models.StageGermination: {
		models.HazardWaterlogging: 1.2,
		models.HazardDrought:      1.3,
		models.HazardHeat:         1.1,
		models.HazardCold:         1.4,
		models.HazardDisease:      1.0,
		models.HazardWind:         0.7,
	},
	models.StageVegetative: {
		models.HazardWaterlogging: 1.0,
		models.HazardDrought:      1.0,
		models.HazardHeat:         1.0,
		models.HazardCold:         1.0,
		models.HazardDisease:      1.0,
		models.HazardWind:         1.0,
	},
	models.StageFlowering: {
		models.HazardWaterlogging: 1.3,
		models.HazardDrought:      1.4,
		models.HazardHeat:         1.4,
		models.HazardCold:         1.3,
		models.HazardDisease:      1.2,
		models.HazardWind:         1.3,
	},
	models.StageMaturity: {
		models.HazardWaterlogging: 1.1,
		models.HazardDrought:      0.9,
		models.HazardHeat:         1.0,
		models.HazardCold:         1.1,
		models.HazardDisease:      1.1,
		models.HazardWind:         1.3,
	},
}

// soilDrainageFactors scale waterlogging risk: well-drained sandy soils shed
// excess water, clay holds it.
var soilDrainageFactors = map[models.SoilType]float64{
	models.SoilSandy: 0.3,
	models.SoilLoamy: 0.5,
	models.SoilSilty: 0.7,
	models.SoilClay:  0.9,
}

// irrigationMitigations scale drought risk: drip irrigation nearly removes
// it, rainfed fields have no mitigation at all.
var irrigationMitigations = map[models.IrrigationType]float64{
	models.IrrigationDrip:      0.2,
	models.IrrigationSprinkler: 0.4,
	models.IrrigationCanal:     0.7,
	models.IrrigationRainfed:   1.0,
}

func init() {
	for crop, profile := range cropProfiles {
		if err := profile.Validate(); err != nil {
			panic(fmt.Sprintf("crop profile table invalid for %s: %v", crop, err))
		}
	}
}

// LookupCropProfile returns the sensitivity profile for a crop. Unknown crops
// are a hard failure, never a silent default.
func LookupCropProfile(crop models.CropType) (models.CropSensitivityProfile, error) {
	profile, ok := cropProfiles[crop]
	if !ok {
		return models.CropSensitivityProfile{}, fmt.Errorf("%w: %q", models.ErrUnknownCrop, crop)
	}
	return profile, nil
}

// stageSensitivity applies the growth-stage multiplier to a base sensitivity,
// clamped to the 0-10 scale. Unknown stages fall back to the vegetative
// multiplier (1.0).
func stageSensitivity(base float64, stage models.GrowthStage, hazard models.HazardType) float64 {
	multipliers, ok := stageMultipliers[stage]
	if !ok {
		return clampScore(base)
	}
	return clampScore(base * multipliers[hazard])
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(10, v))
}
