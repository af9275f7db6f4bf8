package review

import "strings"

// Verdict is the terminal outcome of one evaluation.
type Verdict string

const (
	VerdictApprove            Verdict = "Approve"
	VerdictReject             Verdict = "Reject"
	VerdictConditionalHoldURL Verdict = "Conditional Approval - Hold for URL Verification"
	VerdictRouteToVIP         Verdict = "Route to Human VIP Sales"
)

// Verdicts lists every verdict in display order.
var Verdicts = []Verdict{VerdictApprove, VerdictReject, VerdictConditionalHoldURL, VerdictRouteToVIP}

// IsValid reports whether v is one of the fixed verdicts.
func (v Verdict) IsValid() bool {
	for _, known := range Verdicts {
		if v == known {
			return true
		}
	}
	return false
}

// ParseVerdict accepts a verdict by name or by queue tag, ignoring case.
func ParseVerdict(s string) (Verdict, bool) {
	s = strings.TrimSpace(s)
	for _, v := range Verdicts {
		if strings.EqualFold(s, string(v)) || strings.EqualFold(s, v.Tag()) {
			return v, true
		}
	}
	return "", false
}

// Tag renders the verdict as an upper-case queue tag.
func (v Verdict) Tag() string {
	switch v {
	case VerdictApprove:
		return "APPROVE"
	case VerdictReject:
		return "REJECT"
	case VerdictConditionalHoldURL:
		return "HOLD_URL"
	case VerdictRouteToVIP:
		return "VIP_REVIEW"
	default:
		return "UNKNOWN"
	}
}

// Penalty is a fixed contribution a guardrail hands to the scorer.
type Penalty struct {
	Category Category `json:"category"`
	Reason   string   `json:"reason"`
	Weight   float64  `json:"weight"`
}

// GuardrailOutcome is the result of the ordered guardrail pass.
type GuardrailOutcome struct {
	// Terminal is set when a guardrail fixed the verdict; scoring is skipped.
	Terminal  bool    `json:"terminal"`
	Verdict   Verdict `json:"verdict,omitempty"`
	Guardrail string  `json:"guardrail,omitempty"`
	// ForbidApprove floors the verdict at review or reject.
	ForbidApprove bool      `json:"forbid_approve"`
	Penalties     []Penalty `json:"penalties,omitempty"`
	Fired         []string  `json:"fired,omitempty"`
}

// Confidence describes how complete the evidence behind a verdict was.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)
