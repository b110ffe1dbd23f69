package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the succession workflow: inactivity sweeps and claim handling.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	SweepsTotal        prometheus.Counter
	SweepDuration      prometheus.Histogram
	UsersFlagged       prometheus.Counter
	EvaluationFailures prometheus.Counter
	IdentityAttempts   *prometheus.CounterVec
	ClaimsSubmitted    prometheus.Counter
	ReviewsTotal       *prometheus.CounterVec
	AuditWriteFailures prometheus.Counter
}

// New registers all metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SweepsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "vault_inactivity_sweeps_total",
			Help: "Total number of completed inactivity sweeps",
		}),
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "vault_inactivity_sweep_duration_seconds",
			Help:    "Duration of inactivity sweeps",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}),
		UsersFlagged: f.NewCounter(prometheus.CounterOpts{
			Name: "vault_users_flagged_total",
			Help: "Total number of succession triggers emitted",
		}),
		EvaluationFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "vault_inactivity_evaluation_failures_total",
			Help: "Users skipped during a sweep because of malformed data or publish errors",
		}),
		IdentityAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_identity_attempts_total",
			Help: "Nominee identity confirmation attempts by result",
		}, []string{"result"}),
		ClaimsSubmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "vault_claims_submitted_total",
			Help: "Total number of verification requests created",
		}),
		ReviewsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_reviews_total",
			Help: "Verification request reviews by decision",
		}, []string{"decision"}),
		AuditWriteFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "vault_audit_write_failures_total",
			Help: "Audit entries dropped because the store rejected them",
		}),
	}
}

// ObserveSweep records a finished sweep. Call with the sweep start time.
func (m *Metrics) ObserveSweep(start time.Time) {
	if m == nil {
		return
	}
	m.SweepsTotal.Inc()
	m.SweepDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementFlagged() {
	if m == nil {
		return
	}
	m.UsersFlagged.Inc()
}

func (m *Metrics) IncrementEvaluationFailure() {
	if m == nil {
		return
	}
	m.EvaluationFailures.Inc()
}

// RecordIdentityAttempt counts a confirmation attempt as "match" or "mismatch".
func (m *Metrics) RecordIdentityAttempt(matched bool) {
	if m == nil {
		return
	}
	result := "mismatch"
	if matched {
		result = "match"
	}
	m.IdentityAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementClaimSubmitted() {
	if m == nil {
		return
	}
	m.ClaimsSubmitted.Inc()
}

func (m *Metrics) RecordReview(decision string) {
	if m == nil {
		return
	}
	m.ReviewsTotal.WithLabelValues(decision).Inc()
}

func (m *Metrics) IncrementAuditFailure() {
	if m == nil {
		return
	}
	m.AuditWriteFailures.Inc()
}
