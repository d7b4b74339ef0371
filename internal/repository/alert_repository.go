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

// AlertRepository persists raised alerts. The unique index on
// (field_id, hazard_type, time_bucket) backs the conditional insert that
// keeps concurrent sweeps from double-raising.
type AlertRepository struct {
	db *sqlx.DB
}

func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// CreateIfAbsent inserts the alert unless one already exists for the same
// field, hazard and suppression bucket. Returns true when the row was
// inserted.
func (r *AlertRepository) CreateIfAbsent(ctx context.Context, alert *models.Alert) (bool, error) {
	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}

	query := `
		INSERT INTO alert (
			id, field_id, hazard_type, severity, message,
			valid_from, valid_until, time_bucket, acknowledged, active, created_at
		) VALUES (
			:id, :field_id, :hazard_type, :severity, :message,
			:valid_from, :valid_until, :time_bucket, :acknowledged, :active, :created_at
		)
		ON CONFLICT (field_id, hazard_type, time_bucket) DO NOTHING`

	result, err := r.db.NamedExecContext(ctx, query, alert)
	if err != nil {
		return false, fmt.Errorf("failed to create alert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

// FindRecentActive returns the newest active alert for the field and hazard
// created at or after the given time, or nil when none exists.
func (r *AlertRepository) FindRecentActive(ctx context.Context, fieldID uuid.UUID, hazard models.HazardType, since time.Time) (*models.Alert, error) {
	query := `
		SELECT * FROM alert
		WHERE field_id = $1 AND hazard_type = $2 AND active AND created_at >= $3
		ORDER BY created_at DESC
		LIMIT 1`

	var alert models.Alert
	if err := r.db.GetContext(ctx, &alert, query, fieldID, hazard, since); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find recent alert: %w", err)
	}
	return &alert, nil
}

// DeactivateExpired flips off every active alert whose validity window has
// passed and returns how many rows it touched.
func (r *AlertRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE alert SET active = false WHERE active AND valid_until <= $1`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired alerts: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

func (r *AlertRepository) Acknowledge(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE alert SET acknowledged = true WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	return requireRowAffected(result, "alert", id)
}

func (r *AlertRepository) ListByField(ctx context.Context, fieldID uuid.UUID) ([]models.Alert, error) {
	query := `SELECT * FROM alert WHERE field_id = $1 ORDER BY created_at DESC`

	var alerts []models.Alert
	if err := r.db.SelectContext(ctx, &alerts, query, fieldID); err != nil {
		return nil, fmt.Errorf("failed to list alerts by field: %w", err)
	}
	return alerts, nil
}

func (r *AlertRepository) ListActive(ctx context.Context) ([]models.Alert, error) {
	query := `SELECT * FROM alert WHERE active ORDER BY created_at DESC`

	var alerts []models.Alert
	if err := r.db.SelectContext(ctx, &alerts, query); err != nil {
		return nil, fmt.Errorf("failed to list active alerts: %w", err)
	}
	return alerts, nil
}
