package guardrail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/policy"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
)

func cleanSignals() review.SignalSet {
	return review.SignalSet{
		URLCount:      1,
		URLStatus:     review.URLReachable,
		IdentityMatch: review.IdentityExact,
		EmailAge:      review.EmailAgeOther,
	}
}

func TestEvaluator_Order(t *testing.T) {
	assert.Equal(t,
		[]string{URLMissing, URLDead, UpstreamAutoReject, UpstreamAutoApprove, ShellForeignCard},
		NewEvaluator().Names())
}

func TestEvaluator_Evaluate(t *testing.T) {
	p := policy.Default()

	tests := []struct {
		name          string
		mutate        func(s *review.SignalSet)
		terminal      bool
		verdict       review.Verdict
		forbidApprove bool
		penalties     int
		fired         []string
	}{
		{
			name:   "clean record passes through",
			mutate: func(s *review.SignalSet) {},
		},
		{
			name: "missing url is terminal even with every other red flag",
			mutate: func(s *review.SignalSet) {
				s.URLStatus = review.URLMissing
				s.ChaoticOffset = true
				s.ShellAddress = true
				s.CardCountryMismatch = true
				s.HasUpstreamMLScore = true
				s.UpstreamMLScore = 99
			},
			terminal: true,
			verdict:  review.VerdictConditionalHoldURL,
			fired:    []string{URLMissing},
		},
		{
			name:          "dead url floors the verdict",
			mutate:        func(s *review.SignalSet) { s.URLStatus = review.URLDead },
			forbidApprove: true,
			fired:         []string{URLDead},
		},
		{
			name: "dead url blocks upstream auto approve",
			mutate: func(s *review.SignalSet) {
				s.URLStatus = review.URLDead
				s.HasUpstreamMLScore = true
				s.UpstreamMLScore = 5
			},
			forbidApprove: true,
			fired:         []string{URLDead},
		},
		{
			name: "upstream low score approves",
			mutate: func(s *review.SignalSet) {
				s.HasUpstreamMLScore = true
				s.UpstreamMLScore = 29.9
			},
			terminal: true,
			verdict:  review.VerdictApprove,
			fired:    []string{UpstreamAutoApprove},
		},
		{
			name: "upstream score at threshold is not auto approved",
			mutate: func(s *review.SignalSet) {
				s.HasUpstreamMLScore = true
				s.UpstreamMLScore = 30
			},
		},
		{
			name: "upstream high score rejects",
			mutate: func(s *review.SignalSet) {
				s.HasUpstreamMLScore = true
				s.UpstreamMLScore = 85.1
			},
			terminal: true,
			verdict:  review.VerdictReject,
			fired:    []string{UpstreamAutoReject},
		},
		{
			name: "shell with foreign card adds a penalty only",
			mutate: func(s *review.SignalSet) {
				s.ShellAddress = true
				s.CardCountryMismatch = true
			},
			penalties: 1,
			fired:     []string{ShellForeignCard},
		},
		{
			name:   "shell with domestic card is left to scoring",
			mutate: func(s *review.SignalSet) { s.ShellAddress = true },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := cleanSignals()
			tt.mutate(&s)

			out := NewEvaluator().Evaluate(s, p)
			assert.Equal(t, tt.terminal, out.Terminal)
			assert.Equal(t, tt.verdict, out.Verdict)
			assert.Equal(t, tt.forbidApprove, out.ForbidApprove)
			assert.Len(t, out.Penalties, tt.penalties)
			assert.Equal(t, tt.fired, out.Fired)
		})
	}
}

func TestEvaluator_PenaltyUsesPolicyWeight(t *testing.T) {
	p := policy.Default()
	p.Weights.ShellForeignCard = 42

	s := cleanSignals()
	s.ShellAddress = true
	s.CardCountryMismatch = true

	out := NewEvaluator().Evaluate(s, p)
	require.Len(t, out.Penalties, 1)
	assert.Equal(t, 42.0, out.Penalties[0].Weight)
	assert.Equal(t, ShellForeignCard, out.Penalties[0].Reason)
}

func TestEvaluator_CustomRules(t *testing.T) {
	calls := 0
	never := Rule{
		Name:   "never",
		Action: Terminate,
		Match: func(review.SignalSet, policy.Config, review.GuardrailOutcome) bool {
			calls++
			return false
		},
	}
	always := Rule{
		Name:    "always",
		Action:  Terminate,
		Verdict: review.VerdictRouteToVIP,
		Match:   func(review.SignalSet, policy.Config, review.GuardrailOutcome) bool { return true },
	}
	unreachable := Rule{
		Name:   "unreachable",
		Action: Terminate,
		Match: func(review.SignalSet, policy.Config, review.GuardrailOutcome) bool {
			t.Fatal("rules after a terminal guardrail must not run")
			return false
		},
	}

	out := NewEvaluator(never, always, unreachable).Evaluate(cleanSignals(), policy.Default())
	assert.Equal(t, 1, calls)
	assert.Equal(t, "always", out.Guardrail)
	assert.Equal(t, review.VerdictRouteToVIP, out.Verdict)
}
