package guardrail

import (
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/policy"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
)

// Guardrail names, in evaluation order.
const (
	URLMissing          = "url_missing"
	URLDead             = "url_dead"
	UpstreamAutoReject  = "upstream_ml_auto_reject"
	UpstreamAutoApprove = "upstream_ml_auto_approve"
	ShellForeignCard    = "shell_address_foreign_card"
)

// Action is what a matching guardrail does to the outcome.
type Action int

const (
	// Terminate fixes the verdict and skips scoring.
	Terminate Action = iota
	// ForbidApprove floors the verdict at review or reject.
	ForbidApprove
	// Penalize hands a fixed penalty to the scorer.
	Penalize
)

// Rule is one named guardrail. Match sees the outcome accumulated by
// earlier rules so precedence between rules is explicit.
type Rule struct {
	Name    string
	Action  Action
	Verdict review.Verdict
	Penalty func(p policy.Config) review.Penalty
	Match   func(s review.SignalSet, p policy.Config, sofar review.GuardrailOutcome) bool
}

// DefaultRules returns the guardrails in fixed precedence.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    URLMissing,
			Action:  Terminate,
			Verdict: review.VerdictConditionalHoldURL,
			Match: func(s review.SignalSet, _ policy.Config, _ review.GuardrailOutcome) bool {
				return s.URLStatus == review.URLMissing
			},
		},
		{
			Name:   URLDead,
			Action: ForbidApprove,
			Match: func(s review.SignalSet, _ policy.Config, _ review.GuardrailOutcome) bool {
				return s.URLStatus == review.URLDead
			},
		},
		{
			Name:    UpstreamAutoReject,
			Action:  Terminate,
			Verdict: review.VerdictReject,
			Match: func(s review.SignalSet, p policy.Config, _ review.GuardrailOutcome) bool {
				return s.HasUpstreamMLScore && s.UpstreamMLScore > p.MLAutoRejectThreshold
			},
		},
		{
			Name:    UpstreamAutoApprove,
			Action:  Terminate,
			Verdict: review.VerdictApprove,
			Match: func(s review.SignalSet, p policy.Config, sofar review.GuardrailOutcome) bool {
				return s.HasUpstreamMLScore && s.UpstreamMLScore < p.MLAutoApproveThreshold && !sofar.ForbidApprove
			},
		},
		{
			Name:   ShellForeignCard,
			Action: Penalize,
			Penalty: func(p policy.Config) review.Penalty {
				return review.Penalty{
					Category: review.CategoryPayment,
					Reason:   ShellForeignCard,
					Weight:   p.Weights.ShellForeignCard,
				}
			},
			Match: func(s review.SignalSet, _ policy.Config, _ review.GuardrailOutcome) bool {
				return s.ShellAddress && s.NonDomesticCard()
			},
		},
	}
}

// Evaluator applies guardrails in order, stopping at the first terminal one.
type Evaluator struct {
	rules []Rule
}

// NewEvaluator returns an evaluator over rules, or DefaultRules when none
// are given.
func NewEvaluator(rules ...Rule) *Evaluator {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Evaluator{rules: rules}
}

// Evaluate runs the guardrails against s.
func (e *Evaluator) Evaluate(s review.SignalSet, p policy.Config) review.GuardrailOutcome {
	var out review.GuardrailOutcome
	for _, r := range e.rules {
		if !r.Match(s, p, out) {
			continue
		}
		out.Fired = append(out.Fired, r.Name)
		switch r.Action {
		case Terminate:
			out.Terminal = true
			out.Verdict = r.Verdict
			out.Guardrail = r.Name
			return out
		case ForbidApprove:
			out.ForbidApprove = true
		case Penalize:
			out.Penalties = append(out.Penalties, r.Penalty(p))
		}
	}
	return out
}

// Names lists the configured guardrails in evaluation order.
func (e *Evaluator) Names() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}
