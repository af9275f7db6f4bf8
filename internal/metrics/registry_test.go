package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RecordReview(t *testing.T) {
	r := NewRegistry()

	r.RecordReview("REJECT", 80, 4, []string{"url_dead"}, []string{"enterprise_email"}, 10*time.Millisecond)
	r.RecordReview("REJECT", 75, 0, nil, nil, time.Millisecond)
	r.RecordReview("APPROVE", 0, -3, nil, nil, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.ReviewsTotal.WithLabelValues("REJECT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ReviewsTotal.WithLabelValues("APPROVE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.GuardrailsFired.WithLabelValues("url_dead")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ExemptionsFired.WithLabelValues("enterprise_email")))
}

func TestRegistry_CountersByOutcome(t *testing.T) {
	r := NewRegistry()

	r.RecordFeedbackAppend(nil)
	r.RecordFeedbackAppend(errors.New("disk full"))
	r.RecordTraining("trained", 42)
	r.RecordTraining("insufficient_data", 3)
	r.RecordBatch(5, 2, time.Second)
	r.RecordValidationError("")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.FeedbackAppends.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.FeedbackAppends.WithLabelValues("error")))
	assert.Equal(t, 42.0, testutil.ToFloat64(r.TrainingRecords))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.BatchRows.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.BatchRows.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ValidationErrors.WithLabelValues("unknown")))
}

func TestRegistry_NilIsNoop(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.RecordReview("APPROVE", 0, 0, nil, nil, 0)
		r.RecordIntelLookup("http", "available", 0)
		r.RecordIntelCache("hit")
		r.RecordFeedbackAppend(nil)
		r.RecordTraining("trained", 1)
		r.RecordBatch(1, 0, 0)
		r.RecordValidationError("email")
	})
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.RecordIntelLookup("http", "rate_limited", time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(),
		`fraud_agent_intel_lookups_total{availability="rate_limited",provider="http"} 1`))
}
