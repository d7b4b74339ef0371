package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"monitoring-service/internal/models"
	"monitoring-service/internal/observability"
)

const sweepLockKey = "monitoring:alert_sweep:lock"

// FieldStore is the slice of the field repository the alert service needs.
type FieldStore interface {
	ListActive(ctx context.Context) ([]models.Field, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Field, error)
}

// AlertStore persists alerts. CreateIfAbsent must be an atomic conditional
// insert keyed on (field_id, hazard_type, time_bucket) so two concurrent
// sweeps can never double-raise.
type AlertStore interface {
	CreateIfAbsent(ctx context.Context, alert *models.Alert) (bool, error)
	FindRecentActive(ctx context.Context, fieldID uuid.UUID, hazard models.HazardType, since time.Time) (*models.Alert, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// WeatherSource fetches current conditions plus forecast for a point.
type WeatherSource interface {
	Fetch(ctx context.Context, lat, lon float64) (*models.WeatherReport, error)
}

// NotificationSink delivers raised alerts to farmers. Delivery is
// fire-and-forget from the sweep's point of view.
type NotificationSink interface {
	PublishAlert(ctx context.Context, alert *models.Alert, field *models.Field) error
}

// SweepLocker serialises sweeps across service replicas.
type SweepLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// AlertServiceConfig carries the monitoring knobs, all overridable from the
// environment.
type AlertServiceConfig struct {
	AlertThreshold    float64       // overall risk score that raises an alert
	SuppressionWindow time.Duration // no duplicate (field, hazard) alert inside this window
	AlertValidity     time.Duration // how long a raised alert stays active
	FieldTimeout      time.Duration // budget per field before it is skipped
	SweepWorkers      int           // concurrent field evaluations per sweep
}

// AlertService runs the periodic risk sweep over all active fields and raises
// deduplicated alerts. The on-demand single-field check shares the exact same
// evaluation path as the sweep.
type AlertService struct {
	fields  FieldStore
	alerts  AlertStore
	weather WeatherSource
	sink    NotificationSink
	locker  SweepLocker
	clock   clockwork.Clock
	metrics *observability.Metrics
	cfg     AlertServiceConfig
}

func NewAlertService(
	fields FieldStore,
	alerts AlertStore,
	weather WeatherSource,
	sink NotificationSink,
	locker SweepLocker,
	clock clockwork.Clock,
	metrics *observability.Metrics,
	cfg AlertServiceConfig,
) *AlertService {
	if cfg.SweepWorkers <= 0 {
		cfg.SweepWorkers = 4
	}
	return &AlertService{
		fields:  fields,
		alerts:  alerts,
		weather: weather,
		sink:    sink,
		locker:  locker,
		clock:   clock,
		metrics: metrics,
		cfg:     cfg,
	}
}

// SweepOnce runs one full monitoring cycle: expire stale alerts, then
// evaluate every active field under a bounded worker fan-out. A field that
// errors or exceeds its timeout is logged and skipped; the sweep itself only
// fails when it cannot start at all. Replicas coordinate through the sweep
// lock so at most one cycle runs at a time.
func (s *AlertService) SweepOnce(ctx context.Context) error {
	acquired, err := s.locker.Acquire(ctx, sweepLockKey, s.lockTTL())
	if err != nil {
		return fmt.Errorf("failed to acquire sweep lock: %w", err)
	}
	if !acquired {
		slog.Info("Alert sweep already running elsewhere, skipping cycle")
		return nil
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), sweepLockKey); err != nil {
			slog.Error("failed to release sweep lock", "error", err)
		}
	}()

	now := s.clock.Now()

	expired, err := s.alerts.DeactivateExpired(ctx, now)
	if err != nil {
		slog.Error("failed to deactivate expired alerts", "error", err)
	} else if expired > 0 {
		slog.Info("Deactivated expired alerts", "count", expired)
	}

	fields, err := s.fields.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active fields: %w", err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		raised    int
		skipped   int
		semaphore = make(chan struct{}, s.cfg.SweepWorkers)
	)

	for i := range fields {
		field := fields[i]

		wg.Add(1)
		semaphore <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-semaphore }()

			alert, err := s.evaluateAndRaise(ctx, &field)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				skipped++
				slog.Error("field evaluation failed, skipping until next cycle",
					"field_id", field.ID, "error", err)
				s.metrics.SweepFieldErrors.Inc()
			case alert != nil:
				raised++
			}
		}()
	}
	wg.Wait()

	s.metrics.SweepsCompleted.Inc()
	s.metrics.SweepDuration.Observe(s.clock.Since(now).Seconds())
	slog.Info("Alert sweep completed",
		"fields", len(fields),
		"alerts_raised", raised,
		"fields_skipped", skipped,
		"duration", s.clock.Since(now),
	)
	return nil
}

// CheckField evaluates a single field on demand and raises an alert through
// the same suppression path as the sweep. The returned alert is nil when the
// risk stayed under the threshold or a duplicate was suppressed.
func (s *AlertService) CheckField(ctx context.Context, fieldID uuid.UUID) (*models.RiskAssessment, *models.Alert, error) {
	field, err := s.fields.GetByID(ctx, fieldID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load field %s: %w", fieldID, err)
	}

	assessment, err := s.evaluateField(ctx, field)
	if err != nil {
		return nil, nil, err
	}

	alert, err := s.raiseIfNeeded(ctx, field, assessment)
	if err != nil {
		return assessment, nil, err
	}
	return assessment, alert, nil
}

func (s *AlertService) evaluateAndRaise(ctx context.Context, field *models.Field) (*models.Alert, error) {
	fieldCtx, cancel := context.WithTimeout(ctx, s.cfg.FieldTimeout)
	defer cancel()

	assessment, err := s.evaluateField(fieldCtx, field)
	if err != nil {
		return nil, err
	}
	return s.raiseIfNeeded(fieldCtx, field, assessment)
}

func (s *AlertService) evaluateField(ctx context.Context, field *models.Field) (*models.RiskAssessment, error) {
	lon, lat, err := field.Boundary.Centroid()
	if err != nil {
		return nil, fmt.Errorf("%w: field %s has no usable boundary: %v", models.ErrInvalidInput, field.ID, err)
	}

	report, err := s.weather.Fetch(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("weather fetch for field %s: %w", field.ID, err)
	}

	assessment, err := EvaluateRisk(field.ID, RiskInput{
		Crop:           field.CropType,
		GrowthStage:    field.GrowthStage,
		SoilType:       field.SoilType,
		IrrigationType: field.IrrigationType,
		Weather:        report.Current,
		Forecast:       report.Forecast,
	}, s.clock.Now())
	if err != nil {
		return nil, err
	}

	s.metrics.FieldsEvaluated.Inc()
	return assessment, nil
}

// raiseIfNeeded applies the alert threshold and the two-step suppression:
// first a cheap recent-alert lookup, then the atomic conditional insert that
// holds even when two evaluations race past the lookup.
func (s *AlertService) raiseIfNeeded(ctx context.Context, field *models.Field, assessment *models.RiskAssessment) (*models.Alert, error) {
	if assessment.OverallScore < s.cfg.AlertThreshold {
		return nil, nil
	}

	now := s.clock.Now()
	hazard := assessment.DominantHazard()

	recent, err := s.alerts.FindRecentActive(ctx, field.ID, hazard, now.Add(-s.cfg.SuppressionWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to check recent alerts for field %s: %w", field.ID, err)
	}
	if recent != nil {
		s.metrics.AlertsSuppressed.Inc()
		slog.Debug("Alert suppressed by recent duplicate",
			"field_id", field.ID, "hazard", hazard, "existing_alert", recent.ID)
		return nil, nil
	}

	alert := &models.Alert{
		ID:         uuid.New(),
		FieldID:    field.ID,
		HazardType: hazard,
		Severity:   assessment.AlertLevel,
		Message: fmt.Sprintf("%s risk for %s field: overall score %.1f (%s)",
			hazard, field.CropType, assessment.OverallScore, assessment.AlertLevel),
		ValidFrom:  now,
		ValidUntil: now.Add(s.cfg.AlertValidity),
		TimeBucket: models.SuppressionBucket(now, s.cfg.SuppressionWindow),
		Active:     true,
		CreatedAt:  now,
	}

	inserted, err := s.alerts.CreateIfAbsent(ctx, alert)
	if err != nil {
		return nil, fmt.Errorf("failed to store alert for field %s: %w", field.ID, err)
	}
	if !inserted {
		s.metrics.AlertsSuppressed.Inc()
		return nil, nil
	}

	s.metrics.AlertsRaised.Inc()
	slog.Info("Alert raised",
		"alert_id", alert.ID,
		"field_id", field.ID,
		"hazard", hazard,
		"severity", alert.Severity,
		"score", assessment.OverallScore,
	)

	// Notification delivery must never fail the sweep.
	if err := s.sink.PublishAlert(ctx, alert, field); err != nil {
		slog.Error("failed to publish alert notification",
			"alert_id", alert.ID, "field_id", field.ID, "error", err)
	}
	return alert, nil
}

func (s *AlertService) lockTTL() time.Duration {
	// The lock must outlive the slowest possible cycle.
	ttl := 2 * s.cfg.FieldTimeout
	if ttl < time.Minute {
		ttl = time.Minute
	}
	return ttl
}
