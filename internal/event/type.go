package event

import (
	"time"

	"github.com/google/uuid"
)

// AlertEventPushModel is the payload delivered to the notification service
// when an alert is raised for a field.
type AlertEventPushModel struct {
	AlertID    uuid.UUID `json:"alert_id"`
	FieldID    uuid.UUID `json:"field_id"`
	FarmerID   string    `json:"farmer_id"`
	HazardType string    `json:"hazard_type"`
	Severity   string    `json:"severity"`
	Message    string    `json:"message"`
	ValidUntil time.Time `json:"valid_until"`
}

const FieldAlertQueue string = "field_alert_events"
