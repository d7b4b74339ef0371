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

// SnapshotRepository stores per-field vegetation snapshots. Statistics go
// into a JSONB column so the aggregation shape can evolve without
// migrations.
type SnapshotRepository struct {
	db *sqlx.DB
}

func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

type snapshotRow struct {
	models.VegetationSnapshot
	StatisticsJSON []byte `db:"statistics"`
}

func (r *SnapshotRepository) Save(ctx context.Context, snapshot *models.VegetationSnapshot) error {
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}

	statsJSON, err := json.Marshal(snapshot.Statistics)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot statistics: %w", err)
	}

	query := `
		INSERT INTO vegetation_snapshot (
			id, field_id, statistics, from_date, to_date, captured_at
		) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = r.db.ExecContext(ctx, query,
		snapshot.ID, snapshot.FieldID, statsJSON,
		snapshot.FromDate, snapshot.ToDate, snapshot.CapturedAt)
	if err != nil {
		return fmt.Errorf("failed to save vegetation snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot for the field, or nil when the
// field has never been analysed.
func (r *SnapshotRepository) Latest(ctx context.Context, fieldID uuid.UUID) (*models.VegetationSnapshot, error) {
	query := `
		SELECT id, field_id, statistics, from_date, to_date, captured_at
		FROM vegetation_snapshot
		WHERE field_id = $1
		ORDER BY captured_at DESC
		LIMIT 1`

	var row snapshotRow
	if err := r.db.GetContext(ctx, &row, query, fieldID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return rowToSnapshot(&row)
}

// LatestStatistics serves the vegetation-health verification layer. A field
// with no snapshots yet reports data unavailable, which the layer treats as
// a layer failure rather than an assessment failure.
func (r *SnapshotRepository) LatestStatistics(ctx context.Context, fieldID uuid.UUID) (*models.VegetationStatistics, error) {
	snapshot, err := r.Latest(ctx, fieldID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, fmt.Errorf("%w: no vegetation snapshot for field %s", models.ErrDataUnavailable, fieldID)
	}
	return &snapshot.Statistics, nil
}

// ListByField returns the snapshot time series, newest first.
func (r *SnapshotRepository) ListByField(ctx context.Context, fieldID uuid.UUID, limit int) ([]models.VegetationSnapshot, error) {
	query := `
		SELECT id, field_id, statistics, from_date, to_date, captured_at
		FROM vegetation_snapshot
		WHERE field_id = $1
		ORDER BY captured_at DESC
		LIMIT $2`

	var rows []snapshotRow
	if err := r.db.SelectContext(ctx, &rows, query, fieldID, limit); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	snapshots := make([]models.VegetationSnapshot, 0, len(rows))
	for i := range rows {
		snapshot, err := rowToSnapshot(&rows[i])
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *snapshot)
	}
	return snapshots, nil
}

func rowToSnapshot(row *snapshotRow) (*models.VegetationSnapshot, error) {
	snapshot := row.VegetationSnapshot
	if err := json.Unmarshal(row.StatisticsJSON, &snapshot.Statistics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot statistics: %w", err)
	}
	return &snapshot, nil
}
