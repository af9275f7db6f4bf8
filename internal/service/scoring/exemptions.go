package scoring

import (
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/policy"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/service/guardrail"
)

// ExemptionRule is a false-positive override. Applies inspects the signals
// and the ledger so far; Apply subtracts from the ledger.
type ExemptionRule struct {
	Name    review.Exemption
	Applies func(s review.SignalSet, p policy.Config, a *review.Assessment) bool
	Apply   func(s review.SignalSet, p policy.Config, a *review.Assessment)
}

// Anomalies a verified legal director may override, one per review. Strong
// anti-detect and cloaking signals are never on this list.
var noisyAnomalies = map[string]bool{
	ReasonNaturalOffset:        true,
	ReasonEmailZeroHistory:     true,
	ReasonEmailRecent:          true,
	ReasonCardCountryMismatch:  true,
	ReasonPrepaidInstrument:    true,
	ReasonShellAddress:         true,
	ReasonWhoisPrivacy:         true,
	guardrail.ShellForeignCard: true,
}

// relatedDomainSoftening is the share of a parent/subsidiary domain
// penalty a verified director removes.
const relatedDomainSoftening = 0.5

// DefaultExemptions returns the exemptions in evaluation order: outsourced
// agency, enterprise email, family/corporate card, verified director.
func DefaultExemptions() []ExemptionRule {
	return []ExemptionRule{
		OutsourcedAgency(),
		EnterpriseEmail(),
		FamilyCorporateCard(),
		VerifiedDirector(),
	}
}

// OutsourcedAgency suppresses the natural-offset penalty when the network
// sits in an outsourcing hub and the company is verifiably Western.
func OutsourcedAgency() ExemptionRule {
	return ExemptionRule{
		Name: review.ExemptionOutsourcedAgency,
		Applies: func(s review.SignalSet, p policy.Config, _ *review.Assessment) bool {
			return s.NaturalOffset() &&
				s.NetworkOffsetKnown &&
				p.IsOutsourcingOffset(s.NetworkOffsetMinutes) &&
				s.WesternAddress &&
				s.EnterpriseEmail
		},
		Apply: func(_ review.SignalSet, _ policy.Config, a *review.Assessment) {
			if a.Exempt(review.ExemptionOutsourcedAgency, ReasonNaturalOffset, 1) {
				a.AddPositive(PositiveOutsourcedAgency)
			}
		},
	}
}

// EnterpriseEmail suppresses the zero-history/invalid email penalty for a
// corporate domain. Encrypted or gibberish domain penalties stay.
func EnterpriseEmail() ExemptionRule {
	return ExemptionRule{
		Name: review.ExemptionEnterpriseEmail,
		Applies: func(s review.SignalSet, _ policy.Config, _ *review.Assessment) bool {
			return (s.EmailAge == review.EmailAgeZeroHistory || s.EmailInvalid) && s.EnterpriseEmail
		},
		Apply: func(_ review.SignalSet, _ policy.Config, a *review.Assessment) {
			if a.Exempt(review.ExemptionEnterpriseEmail, ReasonEmailZeroHistory, 1) {
				a.AddPositive(PositiveEnterpriseEmail)
			}
		},
	}
}

// FamilyCorporateCard suppresses the identity mismatch when the card owner
// shares the applicant's surname or is the company itself, unless the
// address is a known shell.
func FamilyCorporateCard() ExemptionRule {
	return ExemptionRule{
		Name: review.ExemptionFamilyCorporateCard,
		Applies: func(s review.SignalSet, _ policy.Config, _ *review.Assessment) bool {
			return (s.SurnameMatch || s.CardholderIsCompany) && !s.ShellAddress
		},
		Apply: func(_ review.SignalSet, _ policy.Config, a *review.Assessment) {
			if a.Exempt(review.ExemptionFamilyCorporateCard, ReasonIdentityMismatch, 1) {
				a.AddPositive(PositiveCardLinked)
			}
		},
	}
}

// VerifiedDirector lets a verified legal director with an exact name match,
// a tier-1 card and coherent domains override the largest remaining noisy
// anomaly and halve a parent/subsidiary domain penalty.
func VerifiedDirector() ExemptionRule {
	return ExemptionRule{
		Name: review.ExemptionVerifiedDirector,
		Applies: func(s review.SignalSet, _ policy.Config, _ *review.Assessment) bool {
			coherent := s.DomainRelation == review.DomainSame || s.DomainRelation == review.DomainRelated
			return s.VerifiedDirector &&
				s.IdentityMatch == review.IdentityExact &&
				s.CardTier == review.CardTierOne &&
				coherent
		},
		Apply: func(_ review.SignalSet, _ policy.Config, a *review.Assessment) {
			a.Exempt(review.ExemptionVerifiedDirector, ReasonDomainMismatchRelated, relatedDomainSoftening)
			for _, reason := range a.OutstandingPenalties() {
				if noisyAnomalies[reason] {
					a.Exempt(review.ExemptionVerifiedDirector, reason, 1)
					return
				}
			}
		},
	}
}
