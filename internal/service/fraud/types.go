package fraud

import (
	"time"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/account"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/service/learning"
)

// Analysis is the human-readable reasoning behind a verdict, one line per
// evidence area.
type Analysis struct {
	TimezoneGeo     string `json:"timezone_geo"`
	IdentityPayment string `json:"identity_payment"`
	DomainPolicy    string `json:"domain_policy"`
}

// Result is the outcome of reviewing one account record.
type Result struct {
	ReviewID      string `json:"review_id"`
	AccountID     string `json:"account_id,omitempty"`
	AccountDigest string `json:"account_digest"`

	Verdict review.Verdict `json:"verdict"`
	// Rule names the classifier rule that produced the verdict.
	Rule string `json:"rule"`

	// Score is the final score after adjustment; RuleScore is the score
	// before it.
	Score      float64             `json:"score"`
	RuleScore  float64             `json:"rule_score"`
	Adjustment learning.Adjustment `json:"adjustment"`

	Confidence      review.Confidence `json:"confidence_level"`
	ConfidenceScore float64           `json:"confidence_score"`

	Reasons       []string `json:"reasons"`
	Tags          []string `json:"tags"`
	Analysis      Analysis `json:"analysis"`
	FalsePositive string   `json:"false_positive"`
	InternalNote  string   `json:"internal_note"`
	FinalReason   string   `json:"final_reason"`

	Signals    review.SignalSet        `json:"signals"`
	Guardrails review.GuardrailOutcome `json:"guardrails"`
	Assessment review.Assessment       `json:"assessment"`

	ReviewedAt time.Time     `json:"reviewed_at"`
	Duration   time.Duration `json:"duration_ns"`
}

// BatchItem is one input row. Err carries a failure that happened before
// the row could be parsed into a record; such rows are reported, not
// reviewed.
type BatchItem struct {
	RowID  int
	Raw    map[string]string
	Record *account.Record
	Err    error
}

// BatchRow is the outcome of one batch row, in input order.
type BatchRow struct {
	RowID  int
	Raw    map[string]string
	Record *account.Record
	Result *Result
	Err    error
}

// BatchSummary counts batch outcomes.
type BatchSummary struct {
	Total     int                    `json:"total"`
	Reviewed  int                    `json:"reviewed"`
	Failed    int                    `json:"failed"`
	Verdicts  map[review.Verdict]int `json:"verdicts"`
	Cancelled bool                   `json:"cancelled"`
	Duration  time.Duration          `json:"duration_ns"`
}
