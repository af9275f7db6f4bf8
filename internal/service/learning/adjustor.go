package learning

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/feedback"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/policy"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
)

// ModelLoader reads the active model artifact.
type ModelLoader interface {
	LoadActive(ctx context.Context) (*feedback.Artifact, *feedback.ModelMetadata, error)
}

// Adjustment is the self-learning step applied to one rule-based score.
type Adjustment struct {
	BaseScore    float64 `json:"base_score"`
	Score        float64 `json:"score"`
	Delta        float64 `json:"delta"`
	Probability  float64 `json:"probability,omitempty"`
	ModelVersion string  `json:"model_version,omitempty"`
	Applied      bool    `json:"applied"`
	// Gated is set when the delta was cut back because no rule penalty
	// corroborated a push past the auto-reject threshold.
	Gated bool `json:"gated,omitempty"`
}

// Adjustor nudges a rule-based score with a trained model. Without a model
// it returns the score unchanged.
type Adjustor struct {
	model  *feedback.Artifact
	logger *zap.Logger
}

// NewAdjustor wraps model, which may be nil.
func NewAdjustor(model *feedback.Artifact, logger *zap.Logger) *Adjustor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adjustor{model: model, logger: logger}
}

// LoadAdjustor loads the active artifact from store. A missing, unreadable
// or invalid artifact yields a no-op adjustor; it is never an error.
func LoadAdjustor(ctx context.Context, store ModelLoader, logger *zap.Logger) *Adjustor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		return NewAdjustor(nil, logger)
	}

	model, _, err := store.LoadActive(ctx)
	switch {
	case errors.IsType(err, errors.ErrorTypeNotFound):
		logger.Info("no trained model, score adjustment disabled")
		return NewAdjustor(nil, logger)
	case err != nil:
		logger.Info("model artifact unreadable, score adjustment disabled", zap.Error(err))
		return NewAdjustor(nil, logger)
	}
	if err := model.Validate(); err != nil {
		logger.Info("model artifact invalid, score adjustment disabled", zap.Error(err))
		return NewAdjustor(nil, logger)
	}

	logger.Info("score adjustment enabled", zap.String("model_version", model.Version))
	return NewAdjustor(model, logger)
}

// Enabled reports whether a model is loaded.
func (a *Adjustor) Enabled() bool {
	return a != nil && a.model != nil
}

// ModelVersion returns the loaded model version, or "".
func (a *Adjustor) ModelVersion() string {
	if !a.Enabled() {
		return ""
	}
	return a.model.Version
}

// Adjust applies a delta of at most p.MLAdjustmentCap points. Without a
// corroborating rule penalty the result never exceeds the auto-reject
// threshold unless the base score already did.
func (a *Adjustor) Adjust(s review.SignalSet, as review.Assessment, p policy.Config) Adjustment {
	base := review.Clamp(as.Score)
	out := Adjustment{BaseScore: base, Score: base}
	if !a.Enabled() {
		return out
	}

	prob := a.model.Probability(Vectorize(s, base))
	limit := math.Abs(p.MLAdjustmentCap)
	delta := (prob - 0.5) * 2 * limit
	delta = math.Max(-limit, math.Min(limit, delta))

	score := review.Clamp(base + delta)
	gated := false
	if !as.HasRulePenalty() && base <= p.MLAutoRejectThreshold && score > p.MLAutoRejectThreshold {
		score = p.MLAutoRejectThreshold
		gated = true
	}

	out.Score = score
	out.Delta = score - base
	out.Probability = prob
	out.ModelVersion = a.model.Version
	out.Applied = true
	out.Gated = gated
	return out
}
