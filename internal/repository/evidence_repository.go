package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"monitoring-service/internal/models"
)

// EvidenceRepository stores damage evidence. The table is append-only: rows
// are never updated or deleted, they are the audit trail behind claim
// decisions.
type EvidenceRepository struct {
	db *sqlx.DB
}

func NewEvidenceRepository(db *sqlx.DB) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

type evidenceRow struct {
	models.DamageEvidence
	BaselineJSON []byte `db:"baseline_stats"`
	CurrentJSON  []byte `db:"current_stats"`
}

func (r *EvidenceRepository) Create(ctx context.Context, evidence *models.DamageEvidence) error {
	if evidence.ID == uuid.Nil {
		evidence.ID = uuid.New()
	}

	baselineJSON, err := json.Marshal(evidence.BaselineStats)
	if err != nil {
		return fmt.Errorf("failed to marshal baseline statistics: %w", err)
	}
	currentJSON, err := json.Marshal(evidence.CurrentStats)
	if err != nil {
		return fmt.Errorf("failed to marshal current statistics: %w", err)
	}

	query := `
		INSERT INTO damage_evidence (
			id, claim_id, field_id, baseline_stats, current_stats,
			computed_damage_pct, severe_damage_pct, claimed_damage_pct,
			fraud_risk, archive_object_key, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = r.db.ExecContext(ctx, query,
		evidence.ID, evidence.ClaimID, evidence.FieldID, baselineJSON, currentJSON,
		evidence.ComputedDamage, evidence.SevereDamage, evidence.ClaimedDamage,
		evidence.FraudRisk, evidence.ArchiveObjectKey, evidence.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create damage evidence: %w", err)
	}
	return nil
}

func (r *EvidenceRepository) GetByClaimID(ctx context.Context, claimID uuid.UUID) (*models.DamageEvidence, error) {
	query := `
		SELECT id, claim_id, field_id, baseline_stats, current_stats,
			computed_damage_pct, severe_damage_pct, claimed_damage_pct,
			fraud_risk, archive_object_key, created_at
		FROM damage_evidence
		WHERE claim_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var row evidenceRow
	if err := r.db.GetContext(ctx, &row, query, claimID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("damage evidence not found for claim: %s", claimID)
		}
		return nil, fmt.Errorf("failed to get damage evidence: %w", err)
	}

	evidence := row.DamageEvidence
	if err := json.Unmarshal(row.BaselineJSON, &evidence.BaselineStats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal baseline statistics: %w", err)
	}
	if err := json.Unmarshal(row.CurrentJSON, &evidence.CurrentStats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal current statistics: %w", err)
	}
	return &evidence, nil
}

// CountByFraudRisk returns evidence counts grouped by fraud classification.
func (r *EvidenceRepository) CountByFraudRisk(ctx context.Context) (map[models.FraudRisk]int, error) {
	query := `SELECT fraud_risk, COUNT(*) AS count FROM damage_evidence GROUP BY fraud_risk`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count evidence by fraud risk: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.FraudRisk]int)
	for rows.Next() {
		var risk models.FraudRisk
		var count int
		if err := rows.Scan(&risk, &count); err != nil {
			return nil, fmt.Errorf("failed to scan fraud risk count: %w", err)
		}
		counts[risk] = count
	}
	return counts, rows.Err()
}
