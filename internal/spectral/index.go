// Package spectral computes vegetation-index maps from raw reflectance bands
// and reduces them into summary statistics and temporal change measurements.
// Everything here is pure and deterministic; providers and persistence live
// elsewhere.
package spectral

import (
	"fmt"

	"monitoring-service/internal/models"
)

// SceneClass flags a pixel in the optional scene-classification mask.
type SceneClass uint8

const (
	ClassClear SceneClass = iota
	ClassCloud
	ClassWater
	ClassSnow
)

// ComputeIndexMap converts per-pixel red and near-infrared reflectance into a
// vegetation-index map: index = (NIR-RED)/(NIR+RED), range [-1,1]. A zero
// denominator yields index 0, never NaN. Pixels flagged cloud/water/snow in
// the mask are kept in place but marked invalid so downstream statistics and
// per-pixel comparisons exclude them. The mask may be nil.
func ComputeIndexMap(red, nir []float64, mask []SceneClass) (*models.IndexMap, error) {
	if len(red) == 0 || len(red) != len(nir) {
		return nil, fmt.Errorf("%w: band arrays must be non-empty and equal length (red=%d nir=%d)",
			models.ErrInvalidInput, len(red), len(nir))
	}
	if mask != nil && len(mask) != len(red) {
		return nil, fmt.Errorf("%w: mask length %d does not match band length %d",
			models.ErrInvalidInput, len(mask), len(red))
	}

	m := &models.IndexMap{
		Values: make([]float64, len(red)),
		Valid:  make([]bool, len(red)),
	}

	for i := range red {
		if mask != nil && mask[i] != ClassClear {
			continue
		}

		denom := nir[i] + red[i]
		if denom == 0 {
			m.Values[i] = 0
		} else {
			m.Values[i] = (nir[i] - red[i]) / denom
		}
		m.Valid[i] = true
		m.ValidCount++
	}

	if m.ValidCount == 0 {
		return nil, fmt.Errorf("%w: all %d pixels masked", models.ErrInsufficientData, len(red))
	}

	return m, nil
}
