package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fraud_agent"

// Registry holds all domain-specific metrics for the application. Every
// recording method is safe on a nil *Registry so components can run
// without metrics.
type Registry struct {
	reg *prometheus.Registry

	// Review pipeline metrics
	ReviewDuration   prometheus.Histogram
	ReviewsTotal     *prometheus.CounterVec
	GuardrailsFired  *prometheus.CounterVec
	ExemptionsFired  *prometheus.CounterVec
	ReviewScore      prometheus.Histogram
	MLAdjustment     prometheus.Histogram
	ValidationErrors *prometheus.CounterVec

	// External intelligence metrics
	IntelLookups     *prometheus.CounterVec
	IntelLatency     prometheus.Histogram
	IntelCacheEvents *prometheus.CounterVec

	// Learning metrics
	FeedbackAppends *prometheus.CounterVec
	TrainingRuns    *prometheus.CounterVec
	TrainingRecords prometheus.Gauge

	// Batch metrics
	BatchRows     *prometheus.CounterVec
	BatchDuration prometheus.Histogram
}

// NewRegistry creates a registry with all domain metrics on a private
// prometheus registry.
func NewRegistry() *Registry {
	r := &Registry{reg: prometheus.NewRegistry()}
	factory := promauto.With(r.reg)

	r.initReviewMetrics(factory)
	r.initIntelMetrics(factory)
	r.initLearningMetrics(factory)
	r.initBatchMetrics(factory)

	return r
}

func (r *Registry) initReviewMetrics(f promauto.Factory) {
	r.ReviewDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "review",
		Name:      "duration_seconds",
		Help:      "Duration of single-record reviews, enrichment included.",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	})

	r.ReviewsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "review",
		Name:      "verdicts_total",
		Help:      "Completed reviews by verdict tag.",
	}, []string{"verdict"})

	r.GuardrailsFired = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "review",
		Name:      "guardrails_fired_total",
		Help:      "Guardrails that matched, by name.",
	}, []string{"guardrail"})

	r.ExemptionsFired = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "review",
		Name:      "exemptions_fired_total",
		Help:      "False-positive exemptions that subtracted a penalty.",
	}, []string{"exemption"})

	r.ReviewScore = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "review",
		Name:      "final_score",
		Help:      "Distribution of final risk scores.",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	r.MLAdjustment = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "review",
		Name:      "ml_adjustment_points",
		Help:      "Applied self-learning score delta.",
		Buckets:   prometheus.LinearBuckets(-10, 2, 11),
	})

	r.ValidationErrors = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "review",
		Name:      "validation_errors_total",
		Help:      "Records rejected before scoring, by field.",
	}, []string{"field"})
}

func (r *Registry) initIntelMetrics(f promauto.Factory) {
	r.IntelLookups = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "intel",
		Name:      "lookups_total",
		Help:      "External intelligence lookups by provider and availability.",
	}, []string{"provider", "availability"})

	r.IntelLatency = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "intel",
		Name:      "lookup_duration_seconds",
		Help:      "Duration of uncached intelligence lookups.",
		Buckets:   prometheus.DefBuckets,
	})

	r.IntelCacheEvents = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "intel",
		Name:      "cache_events_total",
		Help:      "Intelligence cache hits, misses and errors.",
	}, []string{"event"})
}

func (r *Registry) initLearningMetrics(f promauto.Factory) {
	r.FeedbackAppends = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "learning",
		Name:      "feedback_appends_total",
		Help:      "Feedback append attempts by outcome.",
	}, []string{"outcome"})

	r.TrainingRuns = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "learning",
		Name:      "training_runs_total",
		Help:      "Training runs by outcome.",
	}, []string{"outcome"})

	r.TrainingRecords = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "learning",
		Name:      "training_records",
		Help:      "Records used by the most recent successful training run.",
	})
}

func (r *Registry) initBatchMetrics(f promauto.Factory) {
	r.BatchRows = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "batch",
		Name:      "rows_total",
		Help:      "Batch rows by outcome.",
	}, []string{"outcome"})

	r.BatchDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "batch",
		Name:      "duration_seconds",
		Help:      "Duration of whole batch runs.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
	})
}

// Gatherer exposes the underlying registry, mainly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// RecordReview records a completed review.
func (r *Registry) RecordReview(verdictTag string, score, adjustment float64, guardrails, exemptions []string, d time.Duration) {
	if r == nil {
		return
	}
	r.ReviewDuration.Observe(d.Seconds())
	r.ReviewsTotal.WithLabelValues(verdictTag).Inc()
	r.ReviewScore.Observe(score)
	r.MLAdjustment.Observe(adjustment)
	for _, g := range guardrails {
		r.GuardrailsFired.WithLabelValues(g).Inc()
	}
	for _, e := range exemptions {
		r.ExemptionsFired.WithLabelValues(e).Inc()
	}
}

// RecordValidationError counts a record rejected before scoring.
func (r *Registry) RecordValidationError(field string) {
	if r == nil {
		return
	}
	if field == "" {
		field = "unknown"
	}
	r.ValidationErrors.WithLabelValues(field).Inc()
}

// RecordIntelLookup counts an intelligence lookup.
func (r *Registry) RecordIntelLookup(provider, availability string, d time.Duration) {
	if r == nil {
		return
	}
	r.IntelLookups.WithLabelValues(provider, availability).Inc()
	r.IntelLatency.Observe(d.Seconds())
}

// RecordIntelCache counts a cache hit, miss or error.
func (r *Registry) RecordIntelCache(event string) {
	if r == nil {
		return
	}
	r.IntelCacheEvents.WithLabelValues(event).Inc()
}

// RecordFeedbackAppend counts a feedback append attempt.
func (r *Registry) RecordFeedbackAppend(err error) {
	if r == nil {
		return
	}
	r.FeedbackAppends.WithLabelValues(outcome(err)).Inc()
}

// RecordTraining counts a training run. records is ignored on failure.
func (r *Registry) RecordTraining(result string, records int) {
	if r == nil {
		return
	}
	r.TrainingRuns.WithLabelValues(result).Inc()
	if result == "trained" {
		r.TrainingRecords.Set(float64(records))
	}
}

// RecordBatch records a finished batch run.
func (r *Registry) RecordBatch(ok, failed int, d time.Duration) {
	if r == nil {
		return
	}
	r.BatchRows.WithLabelValues("ok").Add(float64(ok))
	r.BatchRows.WithLabelValues("error").Add(float64(failed))
	r.BatchDuration.Observe(d.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
