package spectral

import (
	"fmt"
	"math"

	"monitoring-service/internal/models"
)

// Per-pixel drop thresholds between baseline and current index.
const (
	damageDropThreshold = 0.2
	severeDropThreshold = 0.4
)

// DetectChange compares two index maps of the same field at different dates,
// pixel by pixel. Only pixels valid in both scenes are compared. Drops beyond
// the fixed thresholds count as damaged / severely damaged; the damage share
// maps to a 0-10 risk score via fixed breakpoints.
func DetectChange(baseline, current *models.IndexMap) (*models.ChangeResult, error) {
	if baseline == nil || current == nil {
		return nil, fmt.Errorf("%w: both baseline and current maps required", models.ErrInvalidInput)
	}
	if len(baseline.Values) != len(current.Values) {
		return nil, fmt.Errorf("%w: grid mismatch (baseline=%d current=%d)",
			models.ErrInvalidInput, len(baseline.Values), len(current.Values))
	}

	var compared, damaged, severe int
	var baselineSum, currentSum float64

	for i := range baseline.Values {
		if !baseline.Valid[i] || !current.Valid[i] {
			continue
		}
		compared++
		baselineSum += baseline.Values[i]
		currentSum += current.Values[i]

		drop := baseline.Values[i] - current.Values[i]
		if drop > damageDropThreshold {
			damaged++
		}
		if drop > severeDropThreshold {
			severe++
		}
	}

	if compared == 0 {
		return nil, fmt.Errorf("%w: no pixels valid in both scenes", models.ErrInsufficientData)
	}

	total := float64(compared)
	r := &models.ChangeResult{
		MeanChange:          currentSum/total - baselineSum/total,
		DamagePercent:       float64(damaged) / total * 100,
		SevereDamagePercent: float64(severe) / total * 100,
		ComparedPixels:      compared,
	}
	r.RiskScore = riskScoreForDamage(r.DamagePercent)

	return r, nil
}

// DetectChangeFromStats is the fallback when raw maps are unavailable and only
// aggregated snapshots exist. The damage share is estimated from the relative
// mean drop; severe damage from the loss of healthy area.
func DetectChangeFromStats(baseline, current *models.VegetationStatistics) (*models.ChangeResult, error) {
	if baseline == nil || current == nil {
		return nil, fmt.Errorf("%w: both baseline and current statistics required", models.ErrInvalidInput)
	}
	if baseline.Count == 0 || current.Count == 0 {
		return nil, fmt.Errorf("%w: empty statistics snapshot", models.ErrInsufficientData)
	}

	meanChange := current.Mean - baseline.Mean

	var damagePct float64
	if baseline.Mean > 0 && meanChange < 0 {
		damagePct = math.Min(100, -meanChange/baseline.Mean*100)
	}

	severePct := math.Max(0, baseline.HealthyPct-current.HealthyPct)

	r := &models.ChangeResult{
		MeanChange:          meanChange,
		DamagePercent:       damagePct,
		SevereDamagePercent: severePct,
		ComparedPixels:      0,
	}
	r.RiskScore = riskScoreForDamage(r.DamagePercent)

	return r, nil
}

// riskScoreForDamage maps a damage percentage to a 0-10 risk score.
func riskScoreForDamage(damagePct float64) float64 {
	switch {
	case damagePct >= 80:
		return 10
	case damagePct >= 60:
		return 8
	case damagePct >= 40:
		return 6
	case damagePct >= 20:
		return 4
	case damagePct >= 10:
		return 2
	default:
		return 1
	}
}
