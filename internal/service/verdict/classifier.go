package verdict

import (
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/policy"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
)

// Rules that can decide a verdict, reported with each decision.
const (
	RuleGuardrail       = "guardrail"
	RuleHardReject      = "hard_reject"
	RuleRejectBand      = "reject_band"
	RuleMixedSignal     = "mixed_signal"
	RuleFuzzyIdentity   = "fuzzy_identity"
	RuleApproveFloor    = "approve_forbidden"
	RuleApproveBand     = "approve_band"
	RulePositiveSignals = "positive_signals"
	RuleReviewBand      = "review_band"
)

// Decision is the classifier output: the verdict and the rule that chose it.
type Decision struct {
	Verdict review.Verdict `json:"verdict"`
	Rule    string         `json:"rule"`
}

// Classifier maps an adjusted score plus exemption and guardrail state to a
// verdict. It holds no state; the same inputs always give the same decision.
type Classifier struct{}

// NewClassifier returns a classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify decides the verdict. A terminal guardrail wins outright; after
// that rejection is checked before any ambiguity, and ambiguity before any
// approval. Clean signals never outvote a cloaking penalty still on the
// ledger.
func (c *Classifier) Classify(score float64, a review.Assessment, g review.GuardrailOutcome, p policy.Config) Decision {
	if g.Terminal {
		return Decision{Verdict: g.Verdict, Rule: RuleGuardrail}
	}

	switch {
	case len(a.HardReject) > 0:
		return Decision{Verdict: review.VerdictReject, Rule: RuleHardReject}
	case score >= p.RejectRiskThreshold:
		return Decision{Verdict: review.VerdictReject, Rule: RuleRejectBand}
	case a.MixedSignal:
		return Decision{Verdict: review.VerdictRouteToVIP, Rule: RuleMixedSignal}
	case a.FuzzyIdentity:
		return Decision{Verdict: review.VerdictRouteToVIP, Rule: RuleFuzzyIdentity}
	case g.ForbidApprove:
		return Decision{Verdict: review.VerdictRouteToVIP, Rule: RuleApproveFloor}
	case score <= p.ApproveRiskThreshold:
		return Decision{Verdict: review.VerdictApprove, Rule: RuleApproveBand}
	case len(a.PositiveSignals) >= p.ApprovePositiveSignalsThreshold && !a.HasOutstanding(review.CategoryContent):
		return Decision{Verdict: review.VerdictApprove, Rule: RulePositiveSignals}
	default:
		return Decision{Verdict: review.VerdictRouteToVIP, Rule: RuleReviewBand}
	}
}
