package models

import "errors"

// Error taxonomy for the monitoring core. Fraud classifications and partial
// ensemble-layer failures are normal outputs, not errors, and have no entry here.
var (
	// ErrInvalidInput covers malformed geometry, mismatched band arrays and
	// other caller mistakes. Surfaces immediately to the caller.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownCrop is returned on a sensitivity-profile lookup for a crop
	// outside the closed crop set. Never silently defaulted.
	ErrUnknownCrop = errors.New("unknown crop type")

	// ErrInsufficientData means zero valid pixels survived masking, e.g. a
	// fully cloud-covered scene.
	ErrInsufficientData = errors.New("insufficient valid pixels")

	// ErrDataUnavailable wraps provider timeouts and empty provider responses.
	// During a sweep the field is skipped until the next cycle.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrComputation covers degenerate numeric states such as empty statistics.
	ErrComputation = errors.New("computation failed")
)
