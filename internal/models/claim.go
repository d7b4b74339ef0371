package models

import (
	"time"

	"github.com/google/uuid"
)

// DamageEvidence is the satellite-derived record backing one claim. Created
// once per claim and immutable afterwards: the evidence table is an
// append-only audit trail.
type DamageEvidence struct {
	ID               uuid.UUID            `json:"id" db:"id"`
	ClaimID          uuid.UUID            `json:"claim_id" db:"claim_id"`
	FieldID          uuid.UUID            `json:"field_id" db:"field_id"`
	BaselineStats    VegetationStatistics `json:"baseline_stats" db:"-"`
	CurrentStats     VegetationStatistics `json:"current_stats" db:"-"`
	ComputedDamage   float64              `json:"computed_damage_pct" db:"computed_damage_pct"`
	SevereDamage     float64              `json:"severe_damage_pct" db:"severe_damage_pct"`
	ClaimedDamage    float64              `json:"claimed_damage_pct" db:"claimed_damage_pct"`
	FraudRisk        FraudRisk            `json:"fraud_risk" db:"fraud_risk"`
	ArchiveObjectKey string               `json:"archive_object_key,omitempty" db:"archive_object_key"`
	CreatedAt        time.Time            `json:"created_at" db:"created_at"`
}

// ClaimValidation is the validator's terminal output. A fraud finding is a
// normal outcome, never an error: MEDIUM and HIGH route to manual review.
type ClaimValidation struct {
	ClaimID        uuid.UUID       `json:"claim_id"`
	Evidence       *DamageEvidence `json:"evidence"`
	FraudRisk      FraudRisk       `json:"fraud_risk"`
	AutoApproved   bool            `json:"auto_approved"`
	RequiresReview bool            `json:"requires_review"`
	Reason         string          `json:"reason"`
}
