package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementFlagged()
	m.IncrementFlagged()
	m.RecordIdentityAttempt(true)
	m.RecordIdentityAttempt(false)
	m.RecordIdentityAttempt(false)
	m.RecordReview("APPROVED")
	m.ObserveSweep(time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.UsersFlagged))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdentityAttempts.WithLabelValues("match")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.IdentityAttempts.WithLabelValues("mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReviewsTotal.WithLabelValues("APPROVED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SweepsTotal))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementFlagged()
		m.IncrementEvaluationFailure()
		m.RecordIdentityAttempt(true)
		m.IncrementClaimSubmitted()
		m.RecordReview("REJECTED")
		m.IncrementAuditFailure()
		m.ObserveSweep(time.Now())
	})
}
