package review

// EmailAgeClass buckets how long an email address has been observed.
type EmailAgeClass string

const (
	EmailAgeZeroHistory EmailAgeClass = "zero-history"
	EmailAgeRecent      EmailAgeClass = "<7d"
	EmailAgeAged        EmailAgeClass = "3y+"
	EmailAgeOther       EmailAgeClass = "other"
)

// IdentityMatch classifies the account holder against the card owner.
type IdentityMatch string

const (
	IdentityExact    IdentityMatch = "exact"
	IdentityFuzzy    IdentityMatch = "fuzzy"
	IdentityMismatch IdentityMatch = "mismatch"
)

// URLStatus is the reachability/content class of the destination URLs.
type URLStatus string

const (
	URLMissing         URLStatus = "missing"
	URLReachable       URLStatus = "reachable"
	URLDead            URLStatus = "dead"
	URLContentMismatch URLStatus = "content-mismatch"
	URLUnknown         URLStatus = "unknown"
)

// WhoisState describes registrant visibility for the destination domain.
type WhoisState string

const (
	WhoisKnown            WhoisState = "known"
	WhoisPrivacyProtected WhoisState = "privacy-protected"
	WhoisUnknown          WhoisState = "unknown"
)

// CardTier groups card networks by issuer verification strength.
type CardTier string

const (
	CardTierOne     CardTier = "tier-1"
	CardTierOther   CardTier = "other"
	CardTierUnknown CardTier = "unknown"
)

// InstrumentKind is the funding type of the payment instrument.
type InstrumentKind string

const (
	InstrumentCredit  InstrumentKind = "credit"
	InstrumentDebit   InstrumentKind = "debit"
	InstrumentPrepaid InstrumentKind = "prepaid"
	InstrumentVirtual InstrumentKind = "virtual"
	InstrumentUnknown InstrumentKind = "unknown"
)

// DomainRelation compares the corporate email domain to the URL domain.
type DomainRelation string

const (
	DomainSame          DomainRelation = "same"
	DomainRelated       DomainRelation = "related"
	DomainUnrelated     DomainRelation = "unrelated"
	DomainNotApplicable DomainRelation = "n/a"
)

// ContentFlags are landing-page cloaking observations.
type ContentFlags struct {
	Parked           bool `json:"parked"`
	SafePageTemplate bool `json:"safe_page_template"`
	BaitSwitch       bool `json:"bait_switch"`
}

// Any reports whether any cloaking flag is set.
func (c ContentFlags) Any() bool {
	return c.Parked || c.SafePageTemplate || c.BaitSwitch
}

// Merge returns the union of two flag sets.
func (c ContentFlags) Merge(o ContentFlags) ContentFlags {
	return ContentFlags{
		Parked:           c.Parked || o.Parked,
		SafePageTemplate: c.SafePageTemplate || o.SafePageTemplate,
		BaitSwitch:       c.BaitSwitch || o.BaitSwitch,
	}
}

// SignalSet holds the typed facts derived from one account record. It is
// a plain value: copying it yields an independent snapshot.
type SignalSet struct {
	// Timezone / GEO
	ClockDeltaMinutes    int  `json:"clock_delta_minutes"`
	LargeOffset          bool `json:"large_offset"`
	ChaoticOffset        bool `json:"chaotic_offset"`
	NetworkOffsetMinutes int  `json:"network_offset_minutes"`
	NetworkOffsetKnown   bool `json:"network_offset_known"`
	WesternAddress       bool `json:"western_address"`

	// Email trust
	EmailDomain          string        `json:"email_domain"`
	EmailAge             EmailAgeClass `json:"email_age"`
	EmailInvalid         bool          `json:"email_invalid"`
	FreeEmail            bool          `json:"free_email"`
	EncryptedEmail       bool          `json:"encrypted_email"`
	GibberishEmailDomain bool          `json:"gibberish_email_domain"`
	EnterpriseEmail      bool          `json:"enterprise_email"`

	// Identity / payment
	IdentityMatch       IdentityMatch  `json:"identity_match"`
	SurnameMatch        bool           `json:"surname_match"`
	CardholderIsCompany bool           `json:"cardholder_is_company"`
	GibberishCompany    bool           `json:"gibberish_company"`
	CardCountryMismatch bool           `json:"card_country_mismatch"`
	CardTier            CardTier       `json:"card_tier"`
	Instrument          InstrumentKind `json:"instrument"`
	ShellAddress        bool           `json:"shell_address"`
	VerifiedDirector    bool           `json:"verified_director"`

	// Destination
	URLCount       int            `json:"url_count"`
	URLStatus      URLStatus      `json:"url_status"`
	URLDomain      string         `json:"url_domain"`
	DomainRelation DomainRelation `json:"domain_relation"`
	Content        ContentFlags   `json:"content"`
	Whois          WhoisState     `json:"whois"`

	// Upstream model score, when the record carried one.
	UpstreamMLScore    float64 `json:"upstream_ml_score"`
	HasUpstreamMLScore bool    `json:"has_upstream_ml_score"`

	// IntelDegraded counts enrichment lookups that returned no usable data.
	IntelDegraded int `json:"intel_degraded"`
}

// NonDomesticCard reports a card issued outside the observed network country.
func (s SignalSet) NonDomesticCard() bool {
	return s.CardCountryMismatch
}

// NaturalOffset reports a large clock delta aligned to a 15-minute boundary.
func (s SignalSet) NaturalOffset() bool {
	return s.LargeOffset && !s.ChaoticOffset
}
