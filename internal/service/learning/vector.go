package learning

import (
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/values"
)

// FeatureNames is the fixed, ordered feature set shared by training and
// prediction.
var FeatureNames = []string{
	"rule_score",
	"clock_delta",
	"large_offset",
	"chaotic_offset",
	"free_email",
	"encrypted_email",
	"gibberish_email_domain",
	"email_zero_history",
	"email_recent",
	"email_aged",
	"enterprise_email",
	"identity_mismatch",
	"identity_fuzzy",
	"gibberish_company",
	"card_country_mismatch",
	"card_tier_one",
	"prepaid_instrument",
	"shell_address",
	"verified_director",
	"url_dead",
	"url_content_mismatch",
	"parked_domain",
	"safe_page_template",
	"bait_switch",
	"whois_privacy",
	"domain_unrelated",
	"domain_related",
}

// Vectorize turns a signal set and its rule score into model features,
// each scaled to [0, 1].
func Vectorize(s review.SignalSet, ruleScore float64) map[string]float64 {
	return map[string]float64{
		"rule_score":             review.Clamp(ruleScore) / 100,
		"clock_delta":            float64(s.ClockDeltaMinutes) / values.MaxClockDeltaMinutes,
		"large_offset":           flag(s.LargeOffset),
		"chaotic_offset":         flag(s.ChaoticOffset),
		"free_email":             flag(s.FreeEmail),
		"encrypted_email":        flag(s.EncryptedEmail),
		"gibberish_email_domain": flag(s.GibberishEmailDomain),
		"email_zero_history":     flag(s.EmailAge == review.EmailAgeZeroHistory || s.EmailInvalid),
		"email_recent":           flag(s.EmailAge == review.EmailAgeRecent),
		"email_aged":             flag(s.EmailAge == review.EmailAgeAged),
		"enterprise_email":       flag(s.EnterpriseEmail),
		"identity_mismatch":      flag(s.IdentityMatch == review.IdentityMismatch),
		"identity_fuzzy":         flag(s.IdentityMatch == review.IdentityFuzzy),
		"gibberish_company":      flag(s.GibberishCompany),
		"card_country_mismatch":  flag(s.CardCountryMismatch),
		"card_tier_one":          flag(s.CardTier == review.CardTierOne),
		"prepaid_instrument":     flag(s.Instrument == review.InstrumentPrepaid || s.Instrument == review.InstrumentVirtual),
		"shell_address":          flag(s.ShellAddress),
		"verified_director":      flag(s.VerifiedDirector),
		"url_dead":               flag(s.URLStatus == review.URLDead),
		"url_content_mismatch":   flag(s.URLStatus == review.URLContentMismatch),
		"parked_domain":          flag(s.Content.Parked),
		"safe_page_template":     flag(s.Content.SafePageTemplate),
		"bait_switch":            flag(s.Content.BaitSwitch),
		"whois_privacy":          flag(s.Whois == review.WhoisPrivacyProtected),
		"domain_unrelated":       flag(s.DomainRelation == review.DomainUnrelated),
		"domain_related":         flag(s.DomainRelation == review.DomainRelated),
	}
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func dense(features map[string]float64) []float64 {
	x := make([]float64, len(FeatureNames))
	for i, name := range FeatureNames {
		x[i] = features[name]
	}
	return x
}
