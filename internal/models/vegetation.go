package models

import (
	"time"

	"github.com/google/uuid"
)

// IndexMap holds per-pixel vegetation-index values for one scene over a field.
// Values and Valid are aligned to the raw band grid; masked pixels (cloud,
// water, snow) stay in place with Valid=false so two maps of the same field
// can be compared pixel by pixel.
type IndexMap struct {
	FieldID     uuid.UUID   `json:"field_id"`
	BoundingBox BoundingBox `json:"bounding_box"`
	FromDate    time.Time   `json:"from_date"`
	ToDate      time.Time   `json:"to_date"`
	Values      []float64   `json:"values"`
	Valid       []bool      `json:"valid"`
	ValidCount  int         `json:"valid_count"`
}

// ValidValues returns only the unmasked index values.
func (m *IndexMap) ValidValues() []float64 {
	out := make([]float64, 0, m.ValidCount)
	for i, v := range m.Values {
		if m.Valid[i] {
			out = append(out, v)
		}
	}
	return out
}

// VegetationStatistics summarises an index map over valid pixels only.
// The four category percentages sum to 100 (± rounding).
type VegetationStatistics struct {
	Count          int                 `json:"count"`
	Mean           float64             `json:"mean"`
	Median         float64             `json:"median"`
	Min            float64             `json:"min"`
	Max            float64             `json:"max"`
	StdDev         float64             `json:"std_dev"`
	HealthyPct     float64             `json:"healthy_pct"`
	ModeratePct    float64             `json:"moderate_pct"`
	StressedPct    float64             `json:"stressed_pct"`
	BarePct        float64             `json:"bare_pct"`
	Interpretation InterpretationLabel `json:"interpretation"`
}

// VegetationSnapshot is one persisted aggregation of a field's index map.
// Snapshots form the time series behind temporal change detection and the
// vegetation-health verification layer.
type VegetationSnapshot struct {
	ID         uuid.UUID            `json:"id" db:"id"`
	FieldID    uuid.UUID            `json:"field_id" db:"field_id"`
	Statistics VegetationStatistics `json:"statistics" db:"-"`
	FromDate   time.Time            `json:"from_date" db:"from_date"`
	ToDate     time.Time            `json:"to_date" db:"to_date"`
	CapturedAt time.Time            `json:"captured_at" db:"captured_at"`
}

// ChangeResult is the temporal comparison of two snapshots of the same field.
// It is the single source of truth for how much vegetation health dropped,
// consumed by both weather-triggered monitoring and claim evidence.
type ChangeResult struct {
	MeanChange          float64 `json:"mean_change"`
	DamagePercent       float64 `json:"damage_percent"`
	SevereDamagePercent float64 `json:"severe_damage_percent"`
	ComparedPixels      int     `json:"compared_pixels"`
	RiskScore           float64 `json:"risk_score"`
}
