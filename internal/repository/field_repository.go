package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"monitoring-service/internal/models"
)

// FieldRepository persists monitored fields. Boundaries are stored as
// PostGIS GEOMETRY(Polygon, 4326) and travel as EWKT on the way in and
// EWKB on the way out.
type FieldRepository struct {
	db *sqlx.DB
}

func NewFieldRepository(db *sqlx.DB) *FieldRepository {
	return &FieldRepository{db: db}
}

type fieldRow struct {
	models.Field
	BoundaryEWKB []byte `db:"boundary_ewkb"`
}

const fieldColumns = `
	id, farmer_id, crop_type, growth_stage, soil_type, irrigation_type,
	area_hectares, insured_amount, status, created_at, updated_at,
	ST_AsEWKB(boundary) AS boundary_ewkb`

func (r *FieldRepository) Create(ctx context.Context, field *models.Field) error {
	if field.ID == uuid.Nil {
		field.ID = uuid.New()
	}

	query := `
		INSERT INTO field (
			id, farmer_id, crop_type, growth_stage, soil_type, irrigation_type,
			boundary, area_hectares, insured_amount, status, created_at, updated_at
		) VALUES (
			:id, :farmer_id, :crop_type, :growth_stage, :soil_type, :irrigation_type,
			:boundary, :area_hectares, :insured_amount, :status, :created_at, :updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, field); err != nil {
		return fmt.Errorf("failed to create field: %w", err)
	}
	return nil
}

func (r *FieldRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Field, error) {
	query := `SELECT ` + fieldColumns + ` FROM field WHERE id = $1`

	var row fieldRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("field not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get field: %w", err)
	}

	return rowToField(&row)
}

func (r *FieldRepository) List(ctx context.Context) ([]models.Field, error) {
	query := `SELECT ` + fieldColumns + ` FROM field ORDER BY created_at DESC`

	var rows []fieldRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list fields: %w", err)
	}
	return rowsToFields(rows)
}

// ListActive returns every field the sweep should evaluate.
func (r *FieldRepository) ListActive(ctx context.Context) ([]models.Field, error) {
	query := `SELECT ` + fieldColumns + ` FROM field WHERE status = $1 ORDER BY created_at`

	var rows []fieldRow
	if err := r.db.SelectContext(ctx, &rows, query, models.FieldActive); err != nil {
		return nil, fmt.Errorf("failed to list active fields: %w", err)
	}
	return rowsToFields(rows)
}

func (r *FieldRepository) ListByFarmer(ctx context.Context, farmerID string) ([]models.Field, error) {
	query := `SELECT ` + fieldColumns + ` FROM field WHERE farmer_id = $1 ORDER BY created_at DESC`

	var rows []fieldRow
	if err := r.db.SelectContext(ctx, &rows, query, farmerID); err != nil {
		return nil, fmt.Errorf("failed to list fields by farmer: %w", err)
	}
	return rowsToFields(rows)
}

func (r *FieldRepository) UpdateGrowthStage(ctx context.Context, id uuid.UUID, stage models.GrowthStage) error {
	query := `UPDATE field SET growth_stage = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, stage, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update growth stage: %w", err)
	}
	return requireRowAffected(result, "field", id)
}

func (r *FieldRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.FieldStatus) error {
	query := `UPDATE field SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update field status: %w", err)
	}
	return requireRowAffected(result, "field", id)
}

func rowToField(row *fieldRow) (*models.Field, error) {
	field := row.Field
	if len(row.BoundaryEWKB) > 0 {
		var boundary models.GeoJSONPolygon
		if err := boundary.Scan(row.BoundaryEWKB); err != nil {
			return nil, fmt.Errorf("failed to decode field boundary: %w", err)
		}
		field.Boundary = &boundary
	}
	return &field, nil
}

func rowsToFields(rows []fieldRow) ([]models.Field, error) {
	fields := make([]models.Field, 0, len(rows))
	for i := range rows {
		field, err := rowToField(&rows[i])
		if err != nil {
			return nil, err
		}
		fields = append(fields, *field)
	}
	return fields, nil
}

func requireRowAffected(result sql.Result, entity string, id uuid.UUID) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
