package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationLayerResult is produced independently per evidence layer.
// Score and Confidence are 0-100. A layer that failed to produce a result
// contributes Score 0 with an explanatory insight instead of aborting the
// whole assessment.
type VerificationLayerResult struct {
	LayerName  string   `json:"layer_name"`
	Score      float64  `json:"score"`
	Confidence float64  `json:"confidence"`
	Insights   []string `json:"insights"`
	Failed     bool     `json:"failed"`
}

// VerificationOutcome is the ensemble scorer's final word on a land record.
type VerificationOutcome struct {
	PropertyID     uuid.UUID                 `json:"property_id"`
	OverallScore   float64                   `json:"overall_score"`
	Confidence     float64                   `json:"confidence"`
	Tier           VerificationTier          `json:"tier"`
	Recommendation string                    `json:"recommendation"`
	NextSteps      []string                  `json:"next_steps"`
	Layers         []VerificationLayerResult `json:"layers"`
	EvaluatedAt    time.Time                 `json:"evaluated_at"`
}

// PropertyRecord is the land record a verification runs against. It bundles
// the persisted verification fields exposed by the persistence collaborator.
type PropertyRecord struct {
	ID            uuid.UUID            `json:"id" db:"id"`
	OwnerID       string               `json:"owner_id" db:"owner_id"`
	Boundary      *GeoJSONPolygon      `json:"boundary" db:"boundary"`
	DocumentRefs  []string             `json:"document_refs" db:"-"`
	FieldID       *uuid.UUID           `json:"field_id,omitempty" db:"field_id"`
	SurveyNumber  string               `json:"survey_number" db:"survey_number"`
	DeclaredAreaH float64              `json:"declared_area_hectares" db:"declared_area_hectares"`
	LastOutcome   *VerificationOutcome `json:"last_outcome,omitempty" db:"-"`
}
