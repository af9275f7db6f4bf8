package feedback

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/account"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
)

// Record is one human-confirmed outcome. Records are appended and never
// rewritten; a correction is a newer record for the same account digest.
type Record struct {
	ID               string             `json:"id"`
	ReviewID         string             `json:"review_id,omitempty"`
	AccountDigest    string             `json:"account_digest"`
	Account          *account.Record    `json:"account,omitempty"`
	Features         map[string]float64 `json:"features,omitempty"`
	PredictedVerdict review.Verdict     `json:"predicted_verdict,omitempty"`
	FinalVerdict     review.Verdict     `json:"final_verdict"`
	Source           string             `json:"source"`
	Notes            string             `json:"notes,omitempty"`
	RecordedAt       time.Time          `json:"recorded_at"`
}

// Label is the training target: 1 for a confirmed reject, 0 otherwise.
func (r Record) Label() int {
	if r.FinalVerdict == review.VerdictReject {
		return 1
	}
	return 0
}

// Validate checks the record shape before it is appended.
func (r Record) Validate() error {
	if !r.FinalVerdict.IsValid() {
		return errors.NewValidationError("final_verdict", "final_verdict must be one of the fixed verdicts")
	}
	if r.PredictedVerdict != "" && !r.PredictedVerdict.IsValid() {
		return errors.NewValidationError("predicted_verdict", "predicted_verdict must be one of the fixed verdicts")
	}
	if strings.TrimSpace(r.Source) == "" {
		return errors.NewValidationError("source", "source is required")
	}
	if strings.TrimSpace(r.AccountDigest) == "" && r.Account == nil {
		return errors.NewValidationError("account_digest", "account_digest or account is required")
	}
	if r.Account == nil && len(r.Features) == 0 {
		return errors.NewValidationError("features", "features are required when the account is omitted")
	}
	if r.Account != nil {
		if err := r.Account.Validate(); err != nil {
			return errors.Wrap(err, "account")
		}
	}
	return nil
}

// Normalize returns a copy with the id, digest and timestamp filled in.
func (r Record) Normalize(now time.Time) Record {
	out := r
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.AccountDigest == "" && out.Account != nil {
		out.AccountDigest = out.Account.Digest()
	}
	if out.RecordedAt.IsZero() {
		out.RecordedAt = now.UTC()
	}
	if len(r.Features) > 0 {
		out.Features = make(map[string]float64, len(r.Features))
		for k, v := range r.Features {
			out.Features[k] = v
		}
	}
	return out
}

// Class names used in artifact metadata.
const (
	ClassReject    = "reject"
	ClassNonReject = "non_reject"
)

// ModelMetadata describes a trained artifact. It is stored beside the
// weights so it can be listed without loading the model.
type ModelMetadata struct {
	Version             string                 `json:"version"`
	TrainedAt           time.Time              `json:"trained_at"`
	ClassCounts         map[string]int         `json:"class_counts"`
	VerdictCounts       map[review.Verdict]int `json:"verdict_counts"`
	RecordCount         int                    `json:"record_count"`
	FeedbackRecordCount int                    `json:"feedback_record_count"`
	TrainingCutoff      time.Time              `json:"training_cutoff"`
	FeatureNames        []string               `json:"feature_names"`
	Epochs              int                    `json:"epochs"`
	TrainingLogLoss     float64                `json:"training_log_loss"`
	TrainingAccuracy    float64                `json:"training_accuracy"`
}
