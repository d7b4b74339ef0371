package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"monitoring-service/internal/models"
)

// PropertyRepository reads land records for verification and stores the
// resulting outcomes. Outcomes are append-only; the newest row is the
// record's current verification state.
type PropertyRepository struct {
	db *sqlx.DB
}

func NewPropertyRepository(db *sqlx.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

type propertyRow struct {
	models.PropertyRecord
	BoundaryEWKB []byte `db:"boundary_ewkb"`
}

func (r *PropertyRepository) Create(ctx context.Context, record *models.PropertyRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO property_record (
			id, owner_id, boundary, field_id, survey_number, declared_area_hectares
		) VALUES (
			:id, :owner_id, :boundary, :field_id, :survey_number, :declared_area_hectares
		)`

	if _, err := tx.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("failed to create property record: %w", err)
	}

	for _, ref := range record.DocumentRefs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO property_document (property_id, document_ref) VALUES ($1, $2)`,
			record.ID, ref)
		if err != nil {
			return fmt.Errorf("failed to attach document ref %s: %w", ref, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit property record: %w", err)
	}
	return nil
}

func (r *PropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PropertyRecord, error) {
	query := `
		SELECT id, owner_id, field_id, survey_number, declared_area_hectares,
			ST_AsEWKB(boundary) AS boundary_ewkb
		FROM property_record
		WHERE id = $1`

	var row propertyRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("property record not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get property record: %w", err)
	}

	record := row.PropertyRecord
	if len(row.BoundaryEWKB) > 0 {
		var boundary models.GeoJSONPolygon
		if err := boundary.Scan(row.BoundaryEWKB); err != nil {
			return nil, fmt.Errorf("failed to decode property boundary: %w", err)
		}
		record.Boundary = &boundary
	}

	refsQuery := `SELECT document_ref FROM property_document WHERE property_id = $1 ORDER BY document_ref`
	if err := r.db.SelectContext(ctx, &record.DocumentRefs, refsQuery, id); err != nil {
		return nil, fmt.Errorf("failed to load document refs: %w", err)
	}

	return &record, nil
}

func (r *PropertyRepository) SaveOutcome(ctx context.Context, outcome *models.VerificationOutcome) error {
	layersJSON, err := json.Marshal(outcome.Layers)
	if err != nil {
		return fmt.Errorf("failed to marshal layer results: %w", err)
	}
	nextStepsJSON, err := json.Marshal(outcome.NextSteps)
	if err != nil {
		return fmt.Errorf("failed to marshal next steps: %w", err)
	}

	query := `
		INSERT INTO verification_outcome (
			id, property_id, overall_score, confidence, tier,
			recommendation, next_steps, layers, evaluated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.db.ExecContext(ctx, query,
		uuid.New(), outcome.PropertyID, outcome.OverallScore, outcome.Confidence,
		outcome.Tier, outcome.Recommendation, nextStepsJSON, layersJSON, outcome.EvaluatedAt)
	if err != nil {
		return fmt.Errorf("failed to save verification outcome: %w", err)
	}
	return nil
}

// GetLatestOutcome returns the newest verification outcome for the property,
// or nil when it has never been verified.
func (r *PropertyRepository) GetLatestOutcome(ctx context.Context, propertyID uuid.UUID) (*models.VerificationOutcome, error) {
	query := `
		SELECT property_id, overall_score, confidence, tier,
			recommendation, next_steps, layers, evaluated_at
		FROM verification_outcome
		WHERE property_id = $1
		ORDER BY evaluated_at DESC
		LIMIT 1`

	var row struct {
		PropertyID     uuid.UUID `db:"property_id"`
		OverallScore   float64   `db:"overall_score"`
		Confidence     float64   `db:"confidence"`
		Tier           string    `db:"tier"`
		Recommendation string    `db:"recommendation"`
		NextSteps      []byte    `db:"next_steps"`
		Layers         []byte    `db:"layers"`
		EvaluatedAt    time.Time `db:"evaluated_at"`
	}
	if err := r.db.GetContext(ctx, &row, query, propertyID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get verification outcome: %w", err)
	}

	outcome := &models.VerificationOutcome{
		PropertyID:     row.PropertyID,
		OverallScore:   row.OverallScore,
		Confidence:     row.Confidence,
		Tier:           models.VerificationTier(row.Tier),
		Recommendation: row.Recommendation,
		EvaluatedAt:    row.EvaluatedAt,
	}
	if err := json.Unmarshal(row.NextSteps, &outcome.NextSteps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal next steps: %w", err)
	}
	if err := json.Unmarshal(row.Layers, &outcome.Layers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal layer results: %w", err)
	}
	return outcome, nil
}

// DocumentRepository backs the document cross-reference verification layer
// against the land document registry table.
type DocumentRepository struct {
	db *sqlx.DB
}

func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Exists(ctx context.Context, ref string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM land_document WHERE document_ref = $1)`
	if err := r.db.GetContext(ctx, &exists, query, ref); err != nil {
		return false, fmt.Errorf("failed to check document ref %s: %w", ref, err)
	}
	return exists, nil
}

func (r *DocumentRepository) Register(ctx context.Context, ref string) error {
	query := `INSERT INTO land_document (document_ref) VALUES ($1) ON CONFLICT (document_ref) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, ref); err != nil {
		return fmt.Errorf("failed to register document ref %s: %w", ref, err)
	}
	return nil
}
