package features

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/account"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/policy"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/values"
)

const (
	recentEmailWindow = 7 * 24 * time.Hour
	agedEmailWindow   = 3 * 365 * 24 * time.Hour
)

var (
	westernPhrases = []string{
		"united states", "united kingdom", "canada", "australia", "new zealand",
		"germany", "france", "netherlands", "ireland", "sweden", "norway",
		"denmark", "switzerland", "austria", "belgium",
	}
	westernCodes = map[string]bool{"usa": true, "us": true, "uk": true, "gb": true}

	tierOneNetworks = map[string]bool{
		"visa": true, "mastercard": true, "amex": true, "americanexpress": true,
	}

	addressTokens = regexp.MustCompile(`[a-z]+`)
)

// Extractor turns an account record into a SignalSet. It performs no I/O.
type Extractor struct {
	policy policy.Config
}

// NewExtractor creates an extractor bound to one policy.
func NewExtractor(p policy.Config) *Extractor {
	return &Extractor{policy: p}
}

// Extract derives the typed signals of rec. rec is not modified.
func (e *Extractor) Extract(rec *account.Record) (review.SignalSet, error) {
	var s review.SignalSet

	local, err := values.ParseClock(rec.LocalTime)
	if err != nil {
		return s, errors.NewValidationError("local_time", err.Error()).WithCause(err)
	}
	network, err := values.ParseClock(rec.NetworkTime)
	if err != nil {
		return s, errors.NewValidationError("network_time", err.Error()).WithCause(err)
	}

	e.extractClock(&s, local, network)
	e.extractEmail(&s, rec, network)
	e.extractIdentity(&s, rec)
	e.extractDestination(&s, rec)

	s.WesternAddress = IsWesternAddress(rec.Address)
	s.VerifiedDirector = rec.VerifiedDirector
	if rec.MLScore != nil {
		s.UpstreamMLScore = *rec.MLScore
		s.HasUpstreamMLScore = true
	}
	return s, nil
}

func (e *Extractor) extractClock(s *review.SignalSet, local, network values.ClockReading) {
	s.ClockDeltaMinutes = values.CircularDeltaMinutes(local, network)
	s.LargeOffset = s.ClockDeltaMinutes >= e.policy.ClockMismatchMinutesThreshold
	s.ChaoticOffset = s.LargeOffset &&
		!values.IsQuarterAligned(s.ClockDeltaMinutes, e.policy.ClockDriftToleranceMinutes)
	s.NetworkOffsetMinutes, s.NetworkOffsetKnown = network.UTCOffset()
}

func (e *Extractor) extractEmail(s *review.SignalSet, rec *account.Record, network values.ClockReading) {
	email, err := values.NewEmail(rec.Email)
	if err != nil {
		s.EmailInvalid = true
		s.EmailDomain = values.DomainOf(rec.Email)
	} else {
		s.EmailDomain = email.Domain()
	}
	s.EmailInvalid = s.EmailInvalid || rec.EmailInvalid

	if s.EmailDomain != "" {
		s.FreeEmail = values.IsFreeProviderDomain(s.EmailDomain)
		s.EncryptedEmail = values.IsEncryptedProviderDomain(s.EmailDomain)
		s.GibberishEmailDomain = values.IsGibberishDomainName(s.EmailDomain)
		s.EnterpriseEmail = values.IsEnterpriseDomain(s.EmailDomain, rec.CompanyName)
	}

	s.EmailAge = review.EmailAgeOther
	if rec.EmailFirstSeen == "" {
		return
	}
	firstSeen, err := values.ParseDate(rec.EmailFirstSeen)
	if err != nil {
		return
	}
	if firstSeen.Year() <= 1970 {
		s.EmailAge = review.EmailAgeZeroHistory
		return
	}
	ref, ok := network.Instant()
	if !ok {
		return
	}
	switch age := ref.Sub(firstSeen); {
	case age < recentEmailWindow:
		s.EmailAge = review.EmailAgeRecent
	case age >= agedEmailWindow:
		s.EmailAge = review.EmailAgeAged
	}
}

func (e *Extractor) extractIdentity(s *review.SignalSet, rec *account.Record) {
	s.IdentityMatch = MatchIdentity(rec.Name, rec.CardOwner)
	if sur := Surname(rec.Name); sur != "" && sur == Surname(rec.CardOwner) {
		s.SurnameMatch = true
	}
	s.CardholderIsCompany = SameEntity(rec.CardOwner, rec.CompanyName)

	for _, token := range values.CompanyTokens(rec.CompanyName) {
		if values.IsGibberishToken(token) {
			s.GibberishCompany = true
			break
		}
	}

	s.CardCountryMismatch = countriesDiffer(rec.CardCountry, rec.NetworkCountry)
	s.CardTier = classifyNetwork(rec.CardNetwork)
	s.Instrument = classifyInstrument(rec.InstrumentType)
	s.ShellAddress = e.policy.IsShellAddress(rec.Address)
}

func (e *Extractor) extractDestination(s *review.SignalSet, rec *account.Record) {
	urls := rec.URLs()
	s.URLCount = len(urls)
	s.Whois = review.WhoisUnknown
	s.DomainRelation = review.DomainNotApplicable

	if rec.Content != nil {
		s.Content = review.ContentFlags{
			Parked:           rec.Content.Parked,
			SafePageTemplate: rec.Content.SafePageTemplate,
			BaitSwitch:       rec.Content.BaitSwitch,
		}
	}

	if len(urls) == 0 {
		s.URLStatus = review.URLMissing
		return
	}
	s.URLStatus = review.URLUnknown
	if s.Content.BaitSwitch {
		s.URLStatus = review.URLContentMismatch
	}

	s.URLDomain = values.RegistrableDomain(HostOf(urls[0]))
	if s.FreeEmail || s.EmailDomain == "" || s.URLDomain == "" {
		return
	}
	s.DomainRelation = RelateDomains(values.RegistrableDomain(s.EmailDomain), s.URLDomain, rec.CompanyName)
}

// HostOf returns the lowercase host of a URL, tolerating a missing scheme.
func HostOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// RelateDomains classifies two registrable domains as the same, related
// (shared brand, e.g. parent and subsidiary) or unrelated.
func RelateDomains(emailDomain, urlDomain, company string) review.DomainRelation {
	if emailDomain == urlDomain {
		return review.DomainSame
	}
	a, b := brand(emailDomain), brand(urlDomain)
	if len(a) >= 3 && len(b) >= 3 && (strings.Contains(a, b) || strings.Contains(b, a)) {
		return review.DomainRelated
	}
	for _, token := range values.CompanyTokens(company) {
		if strings.Contains(a, token) && strings.Contains(b, token) {
			return review.DomainRelated
		}
	}
	return review.DomainUnrelated
}

// brand strips the public suffix and hyphens: "acme-shop.co.uk" -> "acmeshop".
func brand(domain string) string {
	label := strings.SplitN(domain, ".", 2)[0]
	return strings.ReplaceAll(label, "-", "")
}

// IsWesternAddress reports whether an address names a Western country.
func IsWesternAddress(address string) bool {
	lower := strings.ToLower(address)
	for _, phrase := range westernPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	for _, token := range addressTokens.FindAllString(strings.ReplaceAll(lower, ".", ""), -1) {
		if westernCodes[token] {
			return true
		}
	}
	return false
}

func countriesDiffer(card, network string) bool {
	card = strings.ToLower(strings.TrimSpace(card))
	network = strings.ToLower(strings.TrimSpace(network))
	if card == "" || network == "" {
		return false
	}
	return !strings.Contains(card, network) && !strings.Contains(network, card)
}

func classifyNetwork(network string) review.CardTier {
	n := strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(network))
	switch {
	case n == "":
		return review.CardTierUnknown
	case tierOneNetworks[n]:
		return review.CardTierOne
	default:
		return review.CardTierOther
	}
}

func classifyInstrument(kind string) review.InstrumentKind {
	switch k := strings.ToLower(strings.TrimSpace(kind)); {
	case strings.Contains(k, "prepaid"), strings.Contains(k, "gift"):
		return review.InstrumentPrepaid
	case strings.Contains(k, "virtual"):
		return review.InstrumentVirtual
	case strings.Contains(k, "debit"):
		return review.InstrumentDebit
	case strings.Contains(k, "credit"):
		return review.InstrumentCredit
	default:
		return review.InstrumentUnknown
	}
}
