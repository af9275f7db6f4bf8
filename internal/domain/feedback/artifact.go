package feedback

import (
	"fmt"
	"math"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
)

// Artifact is a trained logistic model. Once written it is immutable; a
// retrain produces a new version.
type Artifact struct {
	Version      string    `json:"version"`
	FeatureNames []string  `json:"feature_names"`
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
}

// Validate checks the artifact can be applied to a feature vector.
func (a *Artifact) Validate() error {
	if a.Version == "" {
		return errors.NewValidationError("version", "model version is required")
	}
	if len(a.FeatureNames) == 0 {
		return errors.NewValidationError("feature_names", "model has no features")
	}
	if len(a.FeatureNames) != len(a.Weights) {
		return errors.NewValidationError("weights",
			fmt.Sprintf("model has %d features but %d weights", len(a.FeatureNames), len(a.Weights)))
	}
	for i, w := range a.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return errors.NewValidationError("weights", fmt.Sprintf("weight %q is not finite", a.FeatureNames[i]))
		}
	}
	if math.IsNaN(a.Bias) || math.IsInf(a.Bias, 0) {
		return errors.NewValidationError("bias", "bias is not finite")
	}
	return nil
}

// Probability returns the modelled reject probability for features.
// Features the model does not know are ignored; missing ones count as 0.
func (a *Artifact) Probability(features map[string]float64) float64 {
	z := a.Bias
	for i, name := range a.FeatureNames {
		z += a.Weights[i] * features[name]
	}
	return Sigmoid(z)
}

// Sigmoid is the logistic function, stable for large |z|.
func Sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
