package models

import (
	"time"

	"github.com/google/uuid"
)

// Alert is raised by the scheduler when a field's overall risk crosses the
// alert threshold and no recent duplicate exists. Alerts are never mutated
// after creation except acknowledgement and expiry deactivation.
type Alert struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	FieldID     uuid.UUID  `json:"field_id" db:"field_id"`
	HazardType  HazardType `json:"hazard_type" db:"hazard_type"`
	Severity    AlertLevel `json:"severity" db:"severity"`
	Message     string     `json:"message" db:"message"`
	ValidFrom   time.Time  `json:"valid_from" db:"valid_from"`
	ValidUntil  time.Time  `json:"valid_until" db:"valid_until"`
	// TimeBucket is ValidFrom quantised to the suppression window. The
	// unique constraint on (field_id, hazard_type, time_bucket) makes the
	// check-then-create step a single atomic conditional insert.
	TimeBucket   int64     `json:"time_bucket" db:"time_bucket"`
	Acknowledged bool      `json:"acknowledged" db:"acknowledged"`
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// SuppressionBucket quantises a timestamp to the given window, for the
// dedup unique key.
func SuppressionBucket(at time.Time, window time.Duration) int64 {
	return at.Unix() / int64(window.Seconds())
}
