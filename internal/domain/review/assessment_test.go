package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssessment_PenalizeClamps(t *testing.T) {
	var a Assessment
	a.Penalize(CategoryTimezone, "chaotic_offset", 70)
	a.Penalize(CategoryEmail, "encrypted_email", 45)
	a.Penalize(CategoryEmail, "ignored", 0)

	assert.Equal(t, 100.0, a.Score)
	require.Len(t, a.Contributions, 2)
	assert.Equal(t, 70.0, a.Contributions[0].ScoreAfter)
	assert.Equal(t, 100.0, a.Contributions[1].ScoreAfter)
}

func TestAssessment_ExemptSubtractsAndAudits(t *testing.T) {
	var a Assessment
	a.Penalize(CategoryEmail, "email_zero_history", 20)
	a.Penalize(CategoryIdentity, "identity_mismatch", 20)

	ok := a.Exempt(ExemptionEnterpriseEmail, "email_zero_history", 1)
	require.True(t, ok)
	assert.Equal(t, 20.0, a.Score)
	assert.Equal(t, 0.0, a.Net("email_zero_history"))
	assert.True(t, a.HasExemption(ExemptionEnterpriseEmail))

	last := a.Contributions[len(a.Contributions)-1]
	assert.Equal(t, -20.0, last.Weight)
	assert.Equal(t, CategoryEmail, last.Category)
	assert.Equal(t, ExemptionEnterpriseEmail, last.Exemption)

	assert.False(t, a.Exempt(ExemptionEnterpriseEmail, "email_zero_history", 1), "nothing left to exempt")
	assert.False(t, a.Exempt(ExemptionVerifiedDirector, "never_added", 1))
	assert.Equal(t, []string{"identity_mismatch"}, a.OutstandingPenalties())
}

func TestAssessment_PartialExemption(t *testing.T) {
	var a Assessment
	a.Penalize(CategoryDomain, "domain_mismatch_related", 10)
	require.True(t, a.Exempt(ExemptionVerifiedDirector, "domain_mismatch_related", 0.5))
	assert.Equal(t, 5.0, a.Score)
	assert.True(t, a.HasRulePenalty())
}

func TestAssessment_HasOutstanding(t *testing.T) {
	var a Assessment
	a.Penalize(CategoryEmail, "email_zero_history", 20)
	a.Penalize(CategoryContent, "safe_page_template", 20)

	assert.True(t, a.HasOutstanding(CategoryEmail))
	assert.True(t, a.HasOutstanding(CategoryContent))
	assert.False(t, a.HasOutstanding(CategoryTimezone))

	require.True(t, a.Exempt(ExemptionEnterpriseEmail, "email_zero_history", 1))
	assert.False(t, a.HasOutstanding(CategoryEmail), "fully exempted")
}

func TestAssessment_OutstandingPenaltiesOrder(t *testing.T) {
	var a Assessment
	a.Penalize(CategoryEmail, "recent_email", 10)
	a.Penalize(CategoryTimezone, "chaotic_offset", 35)
	a.Penalize(CategoryPayment, "prepaid_instrument", 10)

	assert.Equal(t, []string{"chaotic_offset", "prepaid_instrument", "recent_email"}, a.OutstandingPenalties())
}

func TestAssessment_Copy(t *testing.T) {
	var a Assessment
	a.Penalize(CategoryEmail, "recent_email", 10)
	a.AddPositive("card_linked")

	c := a.Copy()
	c.Contributions[0].Weight = 99
	c.PositiveSignals[0] = "changed"

	assert.Equal(t, 10.0, a.Contributions[0].Weight)
	assert.Equal(t, "card_linked", a.PositiveSignals[0])
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-3))
	assert.Equal(t, 100.0, Clamp(130))
	assert.Equal(t, 42.5, Clamp(42.5))
}

func TestVerdict(t *testing.T) {
	for _, v := range Verdicts {
		assert.True(t, v.IsValid())
		assert.NotEqual(t, "UNKNOWN", v.Tag())
	}
	assert.False(t, Verdict("Maybe").IsValid())
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		in   string
		want Verdict
		ok   bool
	}{
		{"Approve", VerdictApprove, true},
		{"reject", VerdictReject, true},
		{"HOLD_URL", VerdictConditionalHoldURL, true},
		{" vip_review ", VerdictRouteToVIP, true},
		{"Route to Human VIP Sales", VerdictRouteToVIP, true},
		{"maybe", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseVerdict(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
