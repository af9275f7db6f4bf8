package policy

import "fmt"

// Weights is the penalty table applied by the risk scorer. Every value is
// a non-negative number of risk points.
type Weights struct {
	ChaoticOffset         float64 `koanf:"chaotic_offset" json:"chaotic_offset"`
	NaturalOffset         float64 `koanf:"natural_offset" json:"natural_offset"`
	EncryptedEmail        float64 `koanf:"encrypted_email" json:"encrypted_email"`
	GibberishEmailDomain  float64 `koanf:"gibberish_email_domain" json:"gibberish_email_domain"`
	ZeroHistoryEmail      float64 `koanf:"zero_history_email" json:"zero_history_email"`
	RecentEmail           float64 `koanf:"recent_email" json:"recent_email"`
	GibberishCompany      float64 `koanf:"gibberish_company" json:"gibberish_company"`
	IdentityMismatch      float64 `koanf:"identity_mismatch" json:"identity_mismatch"`
	CardCountryMismatch   float64 `koanf:"card_country_mismatch" json:"card_country_mismatch"`
	PrepaidInstrument     float64 `koanf:"prepaid_instrument" json:"prepaid_instrument"`
	ShellForeignCard      float64 `koanf:"shell_foreign_card" json:"shell_foreign_card"`
	ShellAddress          float64 `koanf:"shell_address" json:"shell_address"`
	ParkedDomain          float64 `koanf:"parked_domain" json:"parked_domain"`
	SafePageTemplate      float64 `koanf:"safe_page_template" json:"safe_page_template"`
	BaitSwitch            float64 `koanf:"bait_switch" json:"bait_switch"`
	DomainMismatch        float64 `koanf:"domain_mismatch" json:"domain_mismatch"`
	RelatedDomainMismatch float64 `koanf:"related_domain_mismatch" json:"related_domain_mismatch"`
	WhoisPrivacy          float64 `koanf:"whois_privacy" json:"whois_privacy"`
	DeadURL               float64 `koanf:"dead_url" json:"dead_url"`
}

// DefaultWeights returns the built-in penalty table.
func DefaultWeights() Weights {
	return Weights{
		ChaoticOffset:         35,
		NaturalOffset:         15,
		EncryptedEmail:        25,
		GibberishEmailDomain:  20,
		ZeroHistoryEmail:      20,
		RecentEmail:           10,
		GibberishCompany:      20,
		IdentityMismatch:      20,
		CardCountryMismatch:   10,
		PrepaidInstrument:     10,
		ShellForeignCard:      35,
		ShellAddress:          20,
		ParkedDomain:          25,
		SafePageTemplate:      20,
		BaitSwitch:            25,
		DomainMismatch:        20,
		RelatedDomainMismatch: 10,
		WhoisPrivacy:          5,
		DeadURL:               15,
	}
}

// Validate ensures every weight lies in [0, 100].
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"chaotic_offset":          w.ChaoticOffset,
		"natural_offset":          w.NaturalOffset,
		"encrypted_email":         w.EncryptedEmail,
		"gibberish_email_domain":  w.GibberishEmailDomain,
		"zero_history_email":      w.ZeroHistoryEmail,
		"recent_email":            w.RecentEmail,
		"gibberish_company":       w.GibberishCompany,
		"identity_mismatch":       w.IdentityMismatch,
		"card_country_mismatch":   w.CardCountryMismatch,
		"prepaid_instrument":      w.PrepaidInstrument,
		"shell_foreign_card":      w.ShellForeignCard,
		"shell_address":           w.ShellAddress,
		"parked_domain":           w.ParkedDomain,
		"safe_page_template":      w.SafePageTemplate,
		"bait_switch":             w.BaitSwitch,
		"domain_mismatch":         w.DomainMismatch,
		"related_domain_mismatch": w.RelatedDomainMismatch,
		"whois_privacy":           w.WhoisPrivacy,
		"dead_url":                w.DeadURL,
	} {
		if v < 0 || v > 100 {
			return invalid("weights."+name, fmt.Sprintf("weight %s must be within [0, 100], got %g", name, v))
		}
	}
	return nil
}
