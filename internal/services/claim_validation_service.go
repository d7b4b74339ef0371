package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"monitoring-service/internal/models"
	"monitoring-service/internal/observability"
	"monitoring-service/internal/spectral"
)

const (
	// Baseline vegetation below this mean was already degraded before the
	// claimed event, so any damage attribution is suspect.
	degradedBaselineMean = 0.3

	// Tolerated gap (percentage points) between satellite-computed and
	// farmer-claimed damage.
	highDiscrepancyPct   = 30.0
	mediumDiscrepancyPct = 15.0
)

// EvidenceStore persists damage evidence. The table is append-only: there is
// no update path by design.
type EvidenceStore interface {
	Create(ctx context.Context, evidence *models.DamageEvidence) error
}

// EvidenceArchiver snapshots the full evidence record to object storage for
// dispute audits. Archival is best-effort.
type EvidenceArchiver interface {
	Archive(ctx context.Context, evidence *models.DamageEvidence) (objectKey string, err error)
}

// ClaimInput carries everything needed to validate one damage claim. Baseline
// statistics come from pre-event imagery, current from post-event imagery.
type ClaimInput struct {
	ClaimID       uuid.UUID
	FieldID       uuid.UUID
	Baseline      *models.VegetationStatistics
	Current       *models.VegetationStatistics
	ClaimedDamage float64 // farmer-declared damage percentage
}

// ClaimValidationService cross-checks claimed crop damage against the
// satellite-derived damage estimate and classifies the consistency as a fraud
// risk. A HIGH or MEDIUM classification is a normal outcome routed to manual
// review, never an error.
type ClaimValidationService struct {
	evidence EvidenceStore
	archive  EvidenceArchiver
	clock    clockwork.Clock
	metrics  *observability.Metrics
}

func NewClaimValidationService(evidence EvidenceStore, archive EvidenceArchiver, clock clockwork.Clock, metrics *observability.Metrics) *ClaimValidationService {
	return &ClaimValidationService{
		evidence: evidence,
		archive:  archive,
		clock:    clock,
		metrics:  metrics,
	}
}

// Validate computes the satellite damage estimate, applies the fraud
// consistency rules in fixed order and persists the evidence record. Errors
// are reserved for missing data and storage failures; every reachable
// classification returns normally.
//
// Rule order: a degraded baseline wins over any discrepancy check, because a
// damage percentage computed against dead vegetation is meaningless.
func (s *ClaimValidationService) Validate(ctx context.Context, in ClaimInput) (*models.ClaimValidation, error) {
	change, err := spectral.DetectChangeFromStats(in.Baseline, in.Current)
	if err != nil {
		return nil, fmt.Errorf("damage estimate for claim %s: %w", in.ClaimID, err)
	}

	risk, reason := classifyConsistency(in.Baseline.Mean, change.DamagePercent, in.ClaimedDamage)

	evidence := &models.DamageEvidence{
		ID:             uuid.New(),
		ClaimID:        in.ClaimID,
		FieldID:        in.FieldID,
		BaselineStats:  *in.Baseline,
		CurrentStats:   *in.Current,
		ComputedDamage: change.DamagePercent,
		SevereDamage:   change.SevereDamagePercent,
		ClaimedDamage:  in.ClaimedDamage,
		FraudRisk:      risk,
		CreatedAt:      s.clock.Now(),
	}

	// Archive before the DB insert so the stored row carries the object key.
	// A failed archive downgrades to a log line: the DB row is the record of
	// truth, the object snapshot is a convenience for dispute handling.
	if key, err := s.archive.Archive(ctx, evidence); err != nil {
		slog.Error("failed to archive damage evidence",
			"claim_id", in.ClaimID, "field_id", in.FieldID, "error", err)
	} else {
		evidence.ArchiveObjectKey = key
	}

	if err := s.evidence.Create(ctx, evidence); err != nil {
		return nil, fmt.Errorf("failed to persist damage evidence for claim %s: %w", in.ClaimID, err)
	}

	s.metrics.ClaimsValidated.WithLabelValues(string(risk)).Inc()
	slog.Info("Claim validated",
		"claim_id", in.ClaimID,
		"field_id", in.FieldID,
		"computed_damage", change.DamagePercent,
		"claimed_damage", in.ClaimedDamage,
		"fraud_risk", risk,
	)

	return &models.ClaimValidation{
		ClaimID:        in.ClaimID,
		Evidence:       evidence,
		FraudRisk:      risk,
		AutoApproved:   risk == models.FraudRiskLow,
		RequiresReview: risk != models.FraudRiskLow,
		Reason:         reason,
	}, nil
}

func classifyConsistency(baselineMean, computedDamage, claimedDamage float64) (models.FraudRisk, string) {
	if baselineMean < degradedBaselineMean {
		return models.FraudRiskHigh, fmt.Sprintf(
			"baseline vegetation already degraded (mean %.2f) before the claimed event", baselineMean)
	}

	discrepancy := math.Abs(computedDamage - claimedDamage)
	switch {
	case discrepancy > highDiscrepancyPct:
		return models.FraudRiskHigh, fmt.Sprintf(
			"claimed damage %.0f%% diverges from satellite estimate %.0f%% by %.0f points",
			claimedDamage, computedDamage, discrepancy)
	case discrepancy > mediumDiscrepancyPct:
		return models.FraudRiskMedium, fmt.Sprintf(
			"claimed damage %.0f%% differs from satellite estimate %.0f%% by %.0f points",
			claimedDamage, computedDamage, discrepancy)
	default:
		return models.FraudRiskLow, fmt.Sprintf(
			"claimed damage %.0f%% consistent with satellite estimate %.0f%%",
			claimedDamage, computedDamage)
	}
}
