package fraud

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/account"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/policy"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/infrastructure/telemetry"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/metrics"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/service/features"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/service/guardrail"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/service/learning"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/service/scoring"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/service/verdict"
)

var tracer = otel.Tracer("fraud-agent/review")

// service implements the Service interface
type service struct {
	policy     policy.Config
	extractor  *features.Extractor
	guardrails *guardrail.Evaluator
	scorer     *scoring.Scorer
	adjustor   *learning.Adjustor
	classifier *verdict.Classifier
	enricher   Enricher

	workers int
	logger  *zap.Logger
	metrics *metrics.Registry
	now     func() time.Time
}

// Option configures the service
type Option func(*service)

// WithEnricher enables external intelligence lookups.
func WithEnricher(e Enricher) Option {
	return func(s *service) { s.enricher = e }
}

// WithAdjustor installs a self-learning adjustor.
func WithAdjustor(a *learning.Adjustor) Option {
	return func(s *service) {
		if a != nil {
			s.adjustor = a
		}
	}
}

// WithScorer overrides the risk scorer, e.g. to change exemption order.
func WithScorer(sc *scoring.Scorer) Option {
	return func(s *service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithWorkers sets the batch worker count.
func WithWorkers(n int) Option {
	return func(s *service) { s.workers = n }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Registry) Option {
	return func(s *service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a review service bound to one validated policy. The
// policy is copied and never changes for the life of the service.
func NewService(p policy.Config, opts ...Option) (Service, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	p = p.Clone()
	s := &service{
		policy:     p,
		extractor:  features.NewExtractor(p),
		guardrails: guardrail.NewEvaluator(),
		scorer:     scoring.NewScorer(),
		classifier: verdict.NewClassifier(),
		workers:    DefaultBatchWorkers,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.adjustor == nil {
		s.adjustor = learning.NewAdjustor(nil, s.logger)
	}
	if s.workers <= 0 {
		s.workers = DefaultBatchWorkers
	}
	return s, nil
}

// evaluation carries every intermediate product of one pipeline run.
type evaluation struct {
	signals      review.SignalSet
	guard        review.GuardrailOutcome
	assessment   review.Assessment
	adjustment   learning.Adjustment
	decision     verdict.Decision
	score        float64
	intelChecked bool
}

// Review validates rec and runs extraction, enrichment, guardrails,
// scoring, adjustment and classification. A terminal guardrail skips
// scoring and adjustment.
func (s *service) Review(ctx context.Context, rec *account.Record) (*Result, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "fraud.review")
	defer span.End()

	if err := s.validate(rec); err != nil {
		telemetry.FailSpan(span, err, "invalid record")
		return nil, err
	}

	ev, err := s.evaluate(ctx, rec, false)
	if err != nil {
		telemetry.FailSpan(span, err, "evaluation failed")
		return nil, err
	}

	result := s.buildResult(rec, ev)
	result.Duration = time.Since(start)

	span.SetAttributes(
		attribute.String("review.id", result.ReviewID),
		attribute.String("review.verdict", string(result.Verdict)),
		attribute.String("review.rule", result.Rule),
		attribute.Float64("review.score", result.Score),
	)

	exemptions := make([]string, len(ev.assessment.Exemptions))
	for i, ex := range ev.assessment.Exemptions {
		exemptions[i] = string(ex)
	}
	s.metrics.RecordReview(result.Verdict.Tag(), result.Score, ev.adjustment.Delta,
		ev.guard.Fired, exemptions, result.Duration)

	s.logger.Debug("account reviewed",
		zap.String("review_id", result.ReviewID),
		zap.String("account", rec.Key()),
		zap.String("verdict", string(result.Verdict)),
		zap.String("rule", result.Rule),
		zap.Float64("score", result.Score),
		zap.Float64("rule_score", result.RuleScore),
		zap.Int("intel_degraded", ev.signals.IntelDegraded))

	return result, nil
}

// Features returns the model feature vector for rec. Unlike Review it
// always scores, so records stopped by a guardrail still yield a vector.
func (s *service) Features(ctx context.Context, rec *account.Record) (map[string]float64, error) {
	if err := s.validate(rec); err != nil {
		return nil, err
	}
	ev, err := s.evaluate(ctx, rec, true)
	if err != nil {
		return nil, err
	}
	return learning.Vectorize(ev.signals, ev.assessment.Score), nil
}

func (s *service) validate(rec *account.Record) error {
	if rec == nil {
		return errors.NewValidationError("record", "record is required")
	}
	if err := rec.Validate(); err != nil {
		field := ""
		if appErr, ok := errors.As(err); ok {
			field = appErr.Field()
		}
		s.metrics.RecordValidationError(field)
		return err
	}
	return nil
}

func (s *service) evaluate(ctx context.Context, rec *account.Record, alwaysScore bool) (evaluation, error) {
	var ev evaluation

	sig, err := s.extractor.Extract(rec)
	if err != nil {
		return ev, err
	}
	if urls := rec.URLs(); s.enricher != nil && len(urls) > 0 {
		sig = features.Enrich(sig, s.enricher.Enrich(ctx, urls))
		ev.intelChecked = true
	}
	ev.signals = sig

	ev.guard = s.guardrails.Evaluate(sig, s.policy)
	if ev.guard.Terminal && !alwaysScore {
		ev.decision = s.classifier.Classify(0, ev.assessment, ev.guard, s.policy)
		return ev, nil
	}

	ev.assessment = s.scorer.Score(sig, ev.guard, s.policy)
	if ev.guard.Terminal {
		ev.adjustment = learning.Adjustment{BaseScore: ev.assessment.Score, Score: ev.assessment.Score}
	} else {
		ev.adjustment = s.adjustor.Adjust(sig, ev.assessment, s.policy)
	}
	ev.score = ev.adjustment.Score
	ev.decision = s.classifier.Classify(ev.score, ev.assessment, ev.guard, s.policy)
	return ev, nil
}

func (s *service) buildResult(rec *account.Record, ev evaluation) *Result {
	confScore, confLevel := confidence(ev, s.policy)
	return &Result{
		ReviewID:        uuid.NewString(),
		AccountID:       rec.ID,
		AccountDigest:   rec.Digest(),
		Verdict:         ev.decision.Verdict,
		Rule:            ev.decision.Rule,
		Score:           ev.score,
		RuleScore:       ev.assessment.Score,
		Adjustment:      ev.adjustment,
		Confidence:      confLevel,
		ConfidenceScore: confScore,
		Reasons:         reasons(ev),
		Tags:            tags(ev),
		Analysis:        analysis(ev),
		FalsePositive:   falsePositiveNote(ev),
		InternalNote:    internalNote(ev),
		FinalReason:     finalReason(ev),
		Signals:         ev.signals,
		Guardrails:      ev.guard,
		Assessment:      ev.assessment.Copy(),
		ReviewedAt:      s.now().UTC(),
	}
}
