package scoring

import (
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/policy"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/service/guardrail"
)

// Penalty reasons recorded in the contribution ledger.
const (
	ReasonChaoticOffset         = "chaotic_offset"
	ReasonNaturalOffset         = "natural_offset"
	ReasonEncryptedEmail        = "encrypted_email"
	ReasonGibberishEmailDomain  = "gibberish_email_domain"
	ReasonEmailZeroHistory      = "email_zero_history"
	ReasonEmailRecent           = "email_recent"
	ReasonIdentityMismatch      = "identity_mismatch"
	ReasonGibberishCompany      = "gibberish_company"
	ReasonCardCountryMismatch   = "card_country_mismatch"
	ReasonPrepaidInstrument     = "prepaid_instrument"
	ReasonShellAddress          = "shell_address"
	ReasonParkedDomain          = "parked_domain"
	ReasonSafePageTemplate      = "safe_page_template"
	ReasonBaitSwitch            = "bait_switch"
	ReasonURLDead               = "url_dead"
	ReasonWhoisPrivacy          = "whois_privacy"
	ReasonDomainMismatch        = "domain_mismatch"
	ReasonDomainMismatchRelated = "domain_mismatch_related"
)

// Positive signals counted by the between-bands approve rule.
const (
	PositiveTimezoneConsistent = "timezone_consistent"
	PositiveOutsourcedAgency   = "outsourced_agency"
	PositiveEmailTrusted       = "email_trusted"
	PositiveEmailAged          = "email_aged"
	PositiveEnterpriseEmail    = "enterprise_email"
	PositiveCardLinked         = "card_linked"
	PositiveNoShellAddress     = "no_shell_address"
	PositiveCleanContent       = "clean_content"
	PositiveDomainConsistent   = "domain_consistent"
)

// Hard-reject combinations.
const (
	HardRejectChaoticShell    = "chaotic_offset_with_shell_address"
	HardRejectParkedBait      = "parked_domain_with_bait_switch"
	HardRejectCloakedIdentity = "anonymous_identity_with_cloaked_content"
)

// Scorer combines signals into a RiskAssessment.
type Scorer struct {
	exemptions []ExemptionRule
}

// NewScorer returns a scorer applying DefaultExemptions in order.
func NewScorer() *Scorer {
	return &Scorer{exemptions: DefaultExemptions()}
}

// NewScorerWithExemptions overrides the exemption order.
func NewScorerWithExemptions(rules []ExemptionRule) *Scorer {
	return &Scorer{exemptions: rules}
}

// Score computes the rule-based assessment. Guardrail penalties are added
// before any category so they share the clamped ledger.
func (sc *Scorer) Score(s review.SignalSet, guard review.GuardrailOutcome, p policy.Config) review.Assessment {
	var a review.Assessment
	w := p.Weights

	for _, pen := range guard.Penalties {
		a.Penalize(pen.Category, pen.Reason, pen.Weight)
	}
	shellForeign := hasPenalty(guard.Penalties, guardrail.ShellForeignCard)

	scoreTimezone(&a, s, w)
	scoreEmail(&a, s, w)
	scoreIdentity(&a, s, w, shellForeign)
	scoreDestination(&a, s, w)

	for _, rule := range sc.exemptions {
		if rule.Applies(s, p, &a) {
			rule.Apply(s, p, &a)
		}
	}

	if s.ChaoticOffset && s.ShellAddress {
		a.HardReject = append(a.HardReject, HardRejectChaoticShell)
	}
	if s.Content.Parked && s.Content.BaitSwitch {
		a.HardReject = append(a.HardReject, HardRejectParkedBait)
	}
	// Anonymous mailbox plus made-up company plus cloaking rejects regardless
	// of the summed weights.
	if (s.EncryptedEmail || s.GibberishEmailDomain) && s.GibberishCompany && s.Content.Any() {
		a.HardReject = append(a.HardReject, HardRejectCloakedIdentity)
	}
	a.FuzzyIdentity = s.IdentityMatch == review.IdentityFuzzy
	a.MixedSignal = a.HasExemption(review.ExemptionOutsourcedAgency) && a.HasRulePenalty()

	return a.Copy()
}

func scoreTimezone(a *review.Assessment, s review.SignalSet, w policy.Weights) {
	switch {
	case s.ChaoticOffset:
		a.Penalize(review.CategoryTimezone, ReasonChaoticOffset, w.ChaoticOffset)
	case s.LargeOffset:
		a.Penalize(review.CategoryTimezone, ReasonNaturalOffset, w.NaturalOffset)
	default:
		a.AddPositive(PositiveTimezoneConsistent)
	}
}

func scoreEmail(a *review.Assessment, s review.SignalSet, w policy.Weights) {
	before := len(a.Contributions)

	if s.EncryptedEmail {
		a.Penalize(review.CategoryEmail, ReasonEncryptedEmail, w.EncryptedEmail)
	}
	if s.GibberishEmailDomain {
		a.Penalize(review.CategoryEmail, ReasonGibberishEmailDomain, w.GibberishEmailDomain)
	}
	switch {
	case s.EmailAge == review.EmailAgeZeroHistory || s.EmailInvalid:
		a.Penalize(review.CategoryEmail, ReasonEmailZeroHistory, w.ZeroHistoryEmail)
	case s.EmailAge == review.EmailAgeRecent:
		a.Penalize(review.CategoryEmail, ReasonEmailRecent, w.RecentEmail)
	case s.EmailAge == review.EmailAgeAged:
		a.AddPositive(PositiveEmailAged)
	}

	if len(a.Contributions) == before {
		a.AddPositive(PositiveEmailTrusted)
	}
}

func scoreIdentity(a *review.Assessment, s review.SignalSet, w policy.Weights, shellForeign bool) {
	switch s.IdentityMatch {
	case review.IdentityMismatch:
		a.Penalize(review.CategoryIdentity, ReasonIdentityMismatch, w.IdentityMismatch)
	case review.IdentityExact:
		a.AddPositive(PositiveCardLinked)
	}
	if s.GibberishCompany {
		a.Penalize(review.CategoryIdentity, ReasonGibberishCompany, w.GibberishCompany)
	}
	if s.Instrument == review.InstrumentPrepaid || s.Instrument == review.InstrumentVirtual {
		a.Penalize(review.CategoryPayment, ReasonPrepaidInstrument, w.PrepaidInstrument)
	}

	// shell plus foreign card is already penalized by the guardrail
	switch {
	case shellForeign:
		return
	case s.ShellAddress:
		a.Penalize(review.CategoryPayment, ReasonShellAddress, w.ShellAddress)
	default:
		a.AddPositive(PositiveNoShellAddress)
	}
	if s.CardCountryMismatch {
		a.Penalize(review.CategoryPayment, ReasonCardCountryMismatch, w.CardCountryMismatch)
	}
}

func scoreDestination(a *review.Assessment, s review.SignalSet, w policy.Weights) {
	if s.Content.Parked {
		a.Penalize(review.CategoryContent, ReasonParkedDomain, w.ParkedDomain)
	}
	if s.Content.SafePageTemplate {
		a.Penalize(review.CategoryContent, ReasonSafePageTemplate, w.SafePageTemplate)
	}
	if s.Content.BaitSwitch {
		a.Penalize(review.CategoryContent, ReasonBaitSwitch, w.BaitSwitch)
	}
	if s.URLStatus == review.URLDead {
		a.Penalize(review.CategoryContent, ReasonURLDead, w.DeadURL)
	}
	if s.URLStatus == review.URLReachable && !s.Content.Any() {
		a.AddPositive(PositiveCleanContent)
	}
	if s.Whois == review.WhoisPrivacyProtected {
		a.Penalize(review.CategoryDomain, ReasonWhoisPrivacy, w.WhoisPrivacy)
	}

	switch s.DomainRelation {
	case review.DomainUnrelated:
		a.Penalize(review.CategoryDomain, ReasonDomainMismatch, w.DomainMismatch)
	case review.DomainRelated:
		a.Penalize(review.CategoryDomain, ReasonDomainMismatchRelated, w.RelatedDomainMismatch)
	case review.DomainSame:
		a.AddPositive(PositiveDomainConsistent)
	}
}

func hasPenalty(ps []review.Penalty, reason string) bool {
	for _, p := range ps {
		if p.Reason == reason {
			return true
		}
	}
	return false
}
