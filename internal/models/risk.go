package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CropSensitivityProfile is immutable reference data for one crop type.
// Optimal ranges are daily values; base sensitivities are 1-10 per hazard.
type CropSensitivityProfile struct {
	Crop            CropType
	OptimalTempMinC float64
	OptimalTempMaxC float64
	// Optimal daily rainfall band in millimetres.
	OptimalRainMinMM float64
	OptimalRainMaxMM float64
	BaseSensitivity  map[HazardType]float64
}

// Validate rejects a malformed profile at load time so lookups never read
// undefined sensitivities.
func (p CropSensitivityProfile) Validate() error {
	if p.OptimalTempMinC >= p.OptimalTempMaxC {
		return fmt.Errorf("%w: profile %s has inverted temperature range", ErrInvalidInput, p.Crop)
	}
	if p.OptimalRainMinMM >= p.OptimalRainMaxMM {
		return fmt.Errorf("%w: profile %s has inverted rainfall range", ErrInvalidInput, p.Crop)
	}
	for _, hazard := range AllHazards {
		base, ok := p.BaseSensitivity[hazard]
		if !ok {
			return fmt.Errorf("%w: profile %s missing base sensitivity for %s", ErrInvalidInput, p.Crop, hazard)
		}
		if base < 1 || base > 10 {
			return fmt.Errorf("%w: profile %s sensitivity %s=%.1f outside 1-10", ErrInvalidInput, p.Crop, hazard, base)
		}
	}
	return nil
}

// Recommendation is an action generated for a triggered hazard.
type Recommendation struct {
	Hazard   HazardType             `json:"hazard"`
	Priority RecommendationPriority `json:"priority"`
	Message  string                 `json:"message"`
}

// RiskAssessment is one evaluation of one field: six hazard scores (0-10,
// clamped), a weighted overall score, a variance-derived confidence and the
// resulting alert level.
type RiskAssessment struct {
	ID              uuid.UUID              `json:"id"`
	FieldID         uuid.UUID              `json:"field_id"`
	EvaluatedAt     time.Time              `json:"evaluated_at"`
	HazardScores    map[HazardType]float64 `json:"hazard_scores"`
	OverallScore    float64                `json:"overall_score"`
	Confidence      float64                `json:"confidence"`
	AlertLevel      AlertLevel             `json:"alert_level"`
	Recommendations []Recommendation       `json:"recommendations"`
}

// DominantHazard returns the highest-scoring hazard. Ties resolve in the
// fixed AllHazards order so evaluations stay deterministic.
func (a *RiskAssessment) DominantHazard() HazardType {
	dominant := AllHazards[0]
	best := a.HazardScores[dominant]
	for _, hazard := range AllHazards[1:] {
		if a.HazardScores[hazard] > best {
			dominant = hazard
			best = a.HazardScores[hazard]
		}
	}
	return dominant
}
