package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"monitoring-service/internal/models"
)

// DashboardRepository aggregates monitoring counters for the overview
// endpoint. Read-only.
type DashboardRepository struct {
	db *sqlx.DB
}

func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func (r *DashboardRepository) GetOverview(ctx context.Context, now time.Time) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{
		AlertsBySeverity:  make(map[string]int),
		ClaimsByFraudRisk: make(map[models.FraudRisk]int),
	}

	fieldQuery := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'active') AS active,
			COALESCE(SUM(area_hectares) FILTER (WHERE status = 'active'), 0) AS hectares
		FROM field`
	var fieldCounts struct {
		Total    int     `db:"total"`
		Active   int     `db:"active"`
		Hectares float64 `db:"hectares"`
	}
	if err := r.db.GetContext(ctx, &fieldCounts, fieldQuery); err != nil {
		return nil, fmt.Errorf("failed to count fields: %w", err)
	}
	stats.TotalFields = fieldCounts.Total
	stats.ActiveFields = fieldCounts.Active
	stats.MonitoredHectares = fieldCounts.Hectares

	severityQuery := `SELECT severity, COUNT(*) AS count FROM alert WHERE active GROUP BY severity`
	rows, err := r.db.QueryxContext(ctx, severityQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var severity string
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, fmt.Errorf("failed to scan alert count: %w", err)
		}
		stats.AlertsBySeverity[severity] = count
		stats.ActiveAlerts += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alert counts: %w", err)
	}

	snapshotQuery := `SELECT COUNT(*) FROM vegetation_snapshot WHERE captured_at >= $1`
	if err := r.db.GetContext(ctx, &stats.SnapshotsLast7Days, snapshotQuery, now.AddDate(0, 0, -7)); err != nil {
		return nil, fmt.Errorf("failed to count snapshots: %w", err)
	}

	fraudQuery := `SELECT fraud_risk, COUNT(*) AS count FROM damage_evidence GROUP BY fraud_risk`
	fraudRows, err := r.db.QueryxContext(ctx, fraudQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to count evidence: %w", err)
	}
	defer fraudRows.Close()
	for fraudRows.Next() {
		var risk models.FraudRisk
		var count int
		if err := fraudRows.Scan(&risk, &count); err != nil {
			return nil, fmt.Errorf("failed to scan fraud count: %w", err)
		}
		stats.ClaimsByFraudRisk[risk] = count
	}
	if err := fraudRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fraud counts: %w", err)
	}

	// Only the latest outcome per property counts towards the totals.
	outcomeQuery := `
		SELECT
			COUNT(*) FILTER (WHERE tier IN ('auto_approved', 'verified')) AS verified,
			COUNT(*) FILTER (WHERE tier = 'manual_review') AS pending
		FROM (
			SELECT DISTINCT ON (property_id) tier
			FROM verification_outcome
			ORDER BY property_id, evaluated_at DESC
		) latest`
	var outcomeCounts struct {
		Verified int `db:"verified"`
		Pending  int `db:"pending"`
	}
	if err := r.db.GetContext(ctx, &outcomeCounts, outcomeQuery); err != nil {
		return nil, fmt.Errorf("failed to count verification outcomes: %w", err)
	}
	stats.PropertiesVerified = outcomeCounts.Verified
	stats.PendingManualReview = outcomeCounts.Pending

	return stats, nil
}
