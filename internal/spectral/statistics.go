package spectral

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"monitoring-service/internal/models"
)

// Category breakpoints over the vegetation index.
const (
	healthyThreshold  = 0.6
	moderateThreshold = 0.3
	stressedThreshold = 0.0
)

// Aggregate reduces an index map into summary statistics over valid pixels
// only. Pure function: same map in, same statistics out.
func Aggregate(m *models.IndexMap) (*models.VegetationStatistics, error) {
	if m == nil || m.ValidCount == 0 {
		return nil, fmt.Errorf("%w: no valid pixels to aggregate", models.ErrInsufficientData)
	}

	values := m.ValidValues()
	data := stats.Float64Data(values)

	mean, err := data.Mean()
	if err != nil {
		return nil, fmt.Errorf("%w: mean: %v", models.ErrComputation, err)
	}
	median, err := data.Median()
	if err != nil {
		return nil, fmt.Errorf("%w: median: %v", models.ErrComputation, err)
	}
	minVal, err := data.Min()
	if err != nil {
		return nil, fmt.Errorf("%w: min: %v", models.ErrComputation, err)
	}
	maxVal, err := data.Max()
	if err != nil {
		return nil, fmt.Errorf("%w: max: %v", models.ErrComputation, err)
	}
	stdDev, err := data.StandardDeviation()
	if err != nil {
		return nil, fmt.Errorf("%w: stddev: %v", models.ErrComputation, err)
	}

	var healthy, moderate, stressed, bare int
	for _, v := range values {
		switch {
		case v > healthyThreshold:
			healthy++
		case v >= moderateThreshold:
			moderate++
		case v >= stressedThreshold:
			stressed++
		default:
			bare++
		}
	}

	total := float64(len(values))
	s := &models.VegetationStatistics{
		Count:       len(values),
		Mean:        mean,
		Median:      median,
		Min:         minVal,
		Max:         maxVal,
		StdDev:      stdDev,
		HealthyPct:  float64(healthy) / total * 100,
		ModeratePct: float64(moderate) / total * 100,
		StressedPct: float64(stressed) / total * 100,
		BarePct:     float64(bare) / total * 100,
	}
	s.Interpretation = interpret(s.Mean, s.HealthyPct)

	return s, nil
}

// interpret maps mean index and healthy share to a qualitative label.
func interpret(mean, healthyPct float64) models.InterpretationLabel {
	switch {
	case mean >= 0.6 && healthyPct >= 50:
		return models.InterpretationExcellent
	case mean >= 0.45 && healthyPct >= 30:
		return models.InterpretationGood
	case mean >= 0.3:
		return models.InterpretationFair
	case mean >= 0.15:
		return models.InterpretationPoor
	default:
		return models.InterpretationCritical
	}
}
