package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the monitoring
// pipeline.
type Metrics struct {
	FieldsEvaluated  prometheus.Counter
	AlertsRaised     prometheus.Counter
	AlertsSuppressed prometheus.Counter
	SweepFieldErrors prometheus.Counter
	SweepsCompleted  prometheus.Counter
	SweepDuration    prometheus.Histogram

	// Claim and verification metrics.
	ClaimsValidated  *prometheus.CounterVec // labels: fraud_risk={LOW,MEDIUM,HIGH}
	LayerFailures    *prometheus.CounterVec // labels: layer
	VerificationTime prometheus.Histogram
}

// NewMetrics creates and registers all monitoring metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FieldsEvaluated,
		m.AlertsRaised,
		m.AlertsSuppressed,
		m.SweepFieldErrors,
		m.SweepsCompleted,
		m.SweepDuration,
		m.ClaimsValidated,
		m.LayerFailures,
		m.VerificationTime,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so parallel
// tests never hit "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FieldsEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "monitoring",
			Name:      "fields_evaluated_total",
			Help:      "Total risk evaluations performed across sweeps and on-demand checks.",
		}),
		AlertsRaised: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "monitoring",
			Name:      "alerts_raised_total",
			Help:      "Total alerts inserted after deduplication.",
		}),
		AlertsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "monitoring",
			Name:      "alerts_suppressed_total",
			Help:      "Total alerts dropped as duplicates inside the suppression window.",
		}),
		SweepFieldErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "monitoring",
			Name:      "sweep_field_errors_total",
			Help:      "Fields skipped during a sweep due to timeout or provider failure.",
		}),
		SweepsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "monitoring",
			Name:      "sweeps_completed_total",
			Help:      "Completed alert sweep cycles.",
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "monitoring",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of a full alert sweep over all active fields.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		ClaimsValidated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "monitoring",
			Name:      "claims_validated_total",
			Help:      "Claim validations by fraud risk classification.",
		}, []string{"fraud_risk"}),
		LayerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "monitoring",
			Name:      "verification_layer_failures_total",
			Help:      "Verification layers that errored or timed out, by layer name.",
		}, []string{"layer"}),
		VerificationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "monitoring",
			Name:      "verification_duration_seconds",
			Help:      "Duration of a full ensemble verification run.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
