package fixtures

import (
	"fmt"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/feedback"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
)

// RejectFeatures and ApproveFeatures are separable feature vectors for
// training tests.
var (
	RejectFeatures  = map[string]float64{"rule_score": 0.8, "chaotic_offset": 1, "encrypted_email": 1}
	ApproveFeatures = map[string]float64{"rule_score": 0.1, "email_aged": 1}
)

// LabelledFeedback returns rejects reject records followed by approves
// approve records, each for a distinct account digest and carrying
// features, so a trainer needs no featurizer.
func LabelledFeedback(rejects, approves int) []feedback.Record {
	out := make([]feedback.Record, 0, rejects+approves)
	for i := 0; i < rejects+approves; i++ {
		rec := feedback.Record{
			AccountDigest: fmt.Sprintf("digest-%04d", i),
			FinalVerdict:  review.VerdictApprove,
			Source:        "fixture",
			Features:      copyFeatures(ApproveFeatures),
		}
		if i < rejects {
			rec.FinalVerdict = review.VerdictReject
			rec.Features = copyFeatures(RejectFeatures)
		}
		out = append(out, rec)
	}
	return out
}

func copyFeatures(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
