package learning

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/account"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/feedback"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/infrastructure/telemetry"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/metrics"
)

var tracer = otel.Tracer("fraud-agent/learning")

// FeedbackSource provides a consistent snapshot of the feedback log.
type FeedbackSource interface {
	Snapshot(ctx context.Context) ([]feedback.Record, error)
}

// ArtifactStore persists trained models. Save must never overwrite an
// existing version. ActiveMetadata returns a not-found error when no model
// has been trained.
type ArtifactStore interface {
	ModelLoader
	Save(ctx context.Context, art *feedback.Artifact, meta feedback.ModelMetadata) error
	ActiveMetadata(ctx context.Context) (*feedback.ModelMetadata, error)
}

// Featurizer recomputes model features for feedback records that carry the
// account but no stored features.
type Featurizer interface {
	Features(ctx context.Context, rec *account.Record) (map[string]float64, error)
}

// TrainingConfig bounds when training may run and how the model is fit.
type TrainingConfig struct {
	MinRecords      int
	MinClassRecords int
	MinClassRatio   float64
	MinNewRecords   int
	Epochs          int
	LearningRate    float64
	L2              float64
	Tolerance       float64
}

// DefaultTrainingConfig returns the built-in training settings.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		MinRecords:      20,
		MinClassRecords: 5,
		MinClassRatio:   0.1,
		MinNewRecords:   25,
		Epochs:          500,
		LearningRate:    0.5,
		L2:              0.001,
		Tolerance:       1e-7,
	}
}

// Training outcomes reported to metrics.
const (
	OutcomeTrained          = "trained"
	OutcomeSkipped          = "skipped"
	OutcomeInsufficientData = "insufficient_data"
	OutcomeFailed           = "failed"
)

// Trainer fits a new model from the feedback log. Runs are serialized.
type Trainer struct {
	source     FeedbackSource
	store      ArtifactStore
	featurizer Featurizer
	cfg        TrainingConfig
	logger     *zap.Logger
	metrics    *metrics.Registry
	now        func() time.Time

	mu sync.Mutex
}

// NewTrainer creates a trainer. featurizer may be nil when every feedback
// record carries its features.
func NewTrainer(
	source FeedbackSource,
	store ArtifactStore,
	featurizer Featurizer,
	cfg TrainingConfig,
	logger *zap.Logger,
	m *metrics.Registry,
) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{
		source:     source,
		store:      store,
		featurizer: featurizer,
		cfg:        cfg,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
	}
}

// Train reads the full feedback log, checks it is large and balanced
// enough, fits a model and saves it as a new artifact. Nothing is written
// on failure.
func (t *Trainer) Train(ctx context.Context) (*feedback.ModelMetadata, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	records, err := t.source.Snapshot(ctx)
	if err != nil {
		t.metrics.RecordTraining(OutcomeFailed, 0)
		return nil, errors.Wrap(err, "failed to read feedback log")
	}
	return t.train(ctx, records)
}

func (t *Trainer) train(ctx context.Context, records []feedback.Record) (*feedback.ModelMetadata, error) {
	ctx, span := tracer.Start(ctx, "learning.Train")
	defer span.End()
	span.SetAttributes(attribute.Int("feedback.records", len(records)))

	meta, err := t.fit(ctx, records)
	if err != nil {
		telemetry.FailSpan(span, err)
		if errors.IsType(err, errors.ErrorTypeInsufficientData) {
			t.metrics.RecordTraining(OutcomeInsufficientData, 0)
		} else {
			t.metrics.RecordTraining(OutcomeFailed, 0)
		}
		return nil, err
	}

	span.SetAttributes(attribute.String("model.version", meta.Version))
	t.metrics.RecordTraining(OutcomeTrained, meta.RecordCount)
	return meta, nil
}

func (t *Trainer) fit(ctx context.Context, records []feedback.Record) (*feedback.ModelMetadata, error) {
	latest := latestPerAccount(records)

	samples := make([]sample, 0, len(latest))
	classCounts := map[string]int{feedback.ClassReject: 0, feedback.ClassNonReject: 0}
	verdictCounts := make(map[review.Verdict]int)
	var cutoff time.Time
	skipped := 0

	for _, rec := range latest {
		features, err := t.featuresFor(ctx, rec)
		if err != nil {
			skipped++
			t.logger.Warn("skipping feedback record",
				zap.String("feedback_id", rec.ID),
				zap.Error(err))
			continue
		}

		label := rec.Label()
		samples = append(samples, sample{x: dense(features), y: float64(label)})
		if label == 1 {
			classCounts[feedback.ClassReject]++
		} else {
			classCounts[feedback.ClassNonReject]++
		}
		verdictCounts[rec.FinalVerdict]++
		if rec.RecordedAt.After(cutoff) {
			cutoff = rec.RecordedAt
		}
	}

	if err := t.checkSamples(len(samples), classCounts); err != nil {
		return nil, err
	}

	result, err := fitLogistic(ctx, samples, t.cfg)
	if err != nil {
		return nil, err
	}

	now := t.now().UTC()
	version := fmt.Sprintf("%s-%s", now.Format("20060102T150405Z"), uuid.NewString()[:8])
	art := &feedback.Artifact{
		Version:      version,
		FeatureNames: append([]string(nil), FeatureNames...),
		Weights:      result.weights,
		Bias:         result.bias,
	}
	meta := feedback.ModelMetadata{
		Version:             version,
		TrainedAt:           now,
		ClassCounts:         classCounts,
		VerdictCounts:       verdictCounts,
		RecordCount:         len(samples),
		FeedbackRecordCount: len(records),
		TrainingCutoff:      cutoff,
		FeatureNames:        art.FeatureNames,
		Epochs:              result.epochs,
		TrainingLogLoss:     result.logLoss,
		TrainingAccuracy:    result.accuracy,
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "training cancelled")
	}
	if err := t.store.Save(ctx, art, meta); err != nil {
		return nil, errors.Wrap(err, "failed to save model artifact")
	}

	t.logger.Info("model trained",
		zap.String("model_version", version),
		zap.Int("records", len(samples)),
		zap.Int("skipped", skipped),
		zap.Int("reject", classCounts[feedback.ClassReject]),
		zap.Int("non_reject", classCounts[feedback.ClassNonReject]),
		zap.Int("epochs", result.epochs),
		zap.Float64("log_loss", result.logLoss))

	return &meta, nil
}

func (t *Trainer) checkSamples(total int, classCounts map[string]int) error {
	details := map[string]interface{}{
		"records":           total,
		"reject":            classCounts[feedback.ClassReject],
		"non_reject":        classCounts[feedback.ClassNonReject],
		"min_records":       t.cfg.MinRecords,
		"min_class_records": t.cfg.MinClassRecords,
		"min_class_ratio":   t.cfg.MinClassRatio,
	}

	if total < t.cfg.MinRecords || total == 0 {
		return errors.NewInsufficientDataError("TOO_FEW_RECORDS",
			fmt.Sprintf("need at least %d usable feedback records, have %d", t.cfg.MinRecords, total)).
			WithDetails(details)
	}

	minority := classCounts[feedback.ClassReject]
	if n := classCounts[feedback.ClassNonReject]; n < minority {
		minority = n
	}
	if minority == 0 || minority < t.cfg.MinClassRecords {
		return errors.NewInsufficientDataError("CLASS_UNDERREPRESENTED",
			fmt.Sprintf("each class needs at least %d records, smallest class has %d", t.cfg.MinClassRecords, minority)).
			WithDetails(details)
	}
	if ratio := float64(minority) / float64(total); ratio < t.cfg.MinClassRatio {
		return errors.NewInsufficientDataError("CLASS_IMBALANCE",
			fmt.Sprintf("minority class ratio %.3f is below %.3f", ratio, t.cfg.MinClassRatio)).
			WithDetails(details)
	}
	return nil
}

func (t *Trainer) featuresFor(ctx context.Context, rec feedback.Record) (map[string]float64, error) {
	if len(rec.Features) > 0 {
		return rec.Features, nil
	}
	if rec.Account == nil {
		return nil, errors.NewValidationError("features", "record has neither features nor account")
	}
	if t.featurizer == nil {
		return nil, errors.NewConfigurationError("NO_FEATURIZER", "record needs featurizing but no featurizer is configured")
	}
	return t.featurizer.Features(ctx, rec.Account)
}

// latestPerAccount keeps the newest record per account digest, in log
// order. Records without a digest are kept as they are.
func latestPerAccount(records []feedback.Record) []feedback.Record {
	last := make(map[string]int, len(records))
	for i, rec := range records {
		if rec.AccountDigest != "" {
			last[rec.AccountDigest] = i
		}
	}
	out := make([]feedback.Record, 0, len(records))
	for i, rec := range records {
		if rec.AccountDigest != "" && last[rec.AccountDigest] != i {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// AutoTrainResult explains an auto-train decision.
type AutoTrainResult struct {
	Trained      bool                    `json:"trained"`
	Reason       string                  `json:"reason"`
	TotalRecords int                     `json:"total_records"`
	NewRecords   int                     `json:"new_records"`
	Metadata     *feedback.ModelMetadata `json:"metadata,omitempty"`
}

// AutoTrain retrains only when enough feedback has arrived since the active
// model was trained, or when no model exists and the log is large enough.
func (t *Trainer) AutoTrain(ctx context.Context) (*AutoTrainResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	records, err := t.source.Snapshot(ctx)
	if err != nil {
		t.metrics.RecordTraining(OutcomeFailed, 0)
		return nil, errors.Wrap(err, "failed to read feedback log")
	}

	res := &AutoTrainResult{TotalRecords: len(records)}

	active, err := t.store.ActiveMetadata(ctx)
	switch {
	case errors.IsType(err, errors.ErrorTypeNotFound):
		res.NewRecords = len(records)
		if len(records) < t.cfg.MinRecords {
			res.Reason = fmt.Sprintf("no model yet and only %d of %d required records", len(records), t.cfg.MinRecords)
			t.metrics.RecordTraining(OutcomeSkipped, 0)
			return res, nil
		}
		res.Reason = "no active model"
	case err != nil:
		t.metrics.RecordTraining(OutcomeFailed, 0)
		return nil, errors.Wrap(err, "failed to read active model metadata")
	default:
		res.NewRecords = len(records) - active.FeedbackRecordCount
		if res.NewRecords < t.cfg.MinNewRecords {
			res.Reason = fmt.Sprintf("%d new records since %s, need %d", res.NewRecords, active.Version, t.cfg.MinNewRecords)
			t.metrics.RecordTraining(OutcomeSkipped, 0)
			return res, nil
		}
		res.Reason = fmt.Sprintf("%d new records since %s", res.NewRecords, active.Version)
	}

	meta, err := t.train(ctx, records)
	if err != nil {
		return nil, err
	}
	res.Trained = true
	res.Metadata = meta
	return res, nil
}
