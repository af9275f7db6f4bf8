package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/account"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/policy"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
)

func baseRecord() account.Record {
	return account.Record{
		Name:        "Jane Smith",
		Email:       "jane@acmewidgets.com",
		CompanyName: "Acme Widgets",
		Address:     "500 Market St, San Francisco, CA, USA",
		CardOwner:   "Jane Smith",
		CardNetwork: "Visa",
		LocalTime:   "09:00",
		NetworkTime: "09:00",
		ItemURLs:    []string{"https://acmewidgets.com/spring-sale"},
	}
}

func extract(t *testing.T, mutate func(r *account.Record)) review.SignalSet {
	t.Helper()
	rec := baseRecord()
	if mutate != nil {
		mutate(&rec)
	}
	s, err := NewExtractor(policy.Default()).Extract(&rec)
	require.NoError(t, err)
	return s
}

func TestExtract_Clock(t *testing.T) {
	tests := []struct {
		name          string
		local         string
		network       string
		delta         int
		large         bool
		chaotic       bool
		offsetKnown   bool
		networkOffset int
	}{
		{"midnight wrap", "23:50", "00:10", 20, false, false, false, 0},
		{"chaotic 7h39m", "10:00", "17:39", 459, true, true, false, 0},
		{"chaotic 4h13m", "02:00", "06:13", 253, true, true, false, 0},
		{"natural outsourcing", "2024-05-01T09:00:00-04:00", "2024-05-01T18:30:00+05:30", 570, true, false, true, 330},
		{"chaotic 7h44m", "10:00", "17:44", 464, true, true, false, 0},
		{"chaotic 5h31m", "10:00", "15:31", 331, true, true, false, 0},
		{"one minute off a quarter", "09:00", "17:01", 481, true, true, false, 0},
		{"exact quarter", "09:00", "17:15", 495, true, false, false, 0},
		{"just below threshold", "09:00", "09:59", 59, false, false, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := extract(t, func(r *account.Record) {
				r.LocalTime = tt.local
				r.NetworkTime = tt.network
			})
			assert.Equal(t, tt.delta, s.ClockDeltaMinutes)
			assert.Equal(t, tt.large, s.LargeOffset)
			assert.Equal(t, tt.chaotic, s.ChaoticOffset)
			assert.Equal(t, tt.offsetKnown, s.NetworkOffsetKnown)
			assert.Equal(t, tt.networkOffset, s.NetworkOffsetMinutes)
		})
	}
}

func TestExtract_ClockDriftTolerance(t *testing.T) {
	p := policy.Default()
	p.ClockDriftToleranceMinutes = 1
	ex := NewExtractor(p)

	tests := []struct {
		name    string
		network string
		chaotic bool
	}{
		{"within a minute of a quarter", "17:01", false},
		{"two minutes off", "17:02", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := baseRecord()
			rec.NetworkTime = tt.network
			s, err := ex.Extract(&rec)
			require.NoError(t, err)
			assert.True(t, s.LargeOffset)
			assert.Equal(t, tt.chaotic, s.ChaoticOffset)
		})
	}
}

func TestExtract_Email(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(r *account.Record)
		age        review.EmailAgeClass
		invalid    bool
		free       bool
		encrypted  bool
		gibberish  bool
		enterprise bool
	}{
		{
			name:       "enterprise without history",
			mutate:     func(r *account.Record) {},
			age:        review.EmailAgeOther,
			enterprise: true,
		},
		{
			name:       "zero history",
			mutate:     func(r *account.Record) { r.EmailFirstSeen = "1970-01-01" },
			age:        review.EmailAgeZeroHistory,
			enterprise: true,
		},
		{
			name: "recent relative to network time",
			mutate: func(r *account.Record) {
				r.NetworkTime = "2024-05-01T09:00:00Z"
				r.LocalTime = "2024-05-01T09:00:00Z"
				r.EmailFirstSeen = "2024-04-28"
			},
			age:        review.EmailAgeRecent,
			enterprise: true,
		},
		{
			name: "aged",
			mutate: func(r *account.Record) {
				r.NetworkTime = "2024-05-01T09:00:00Z"
				r.EmailFirstSeen = "2019-02-11T00:00:00Z"
			},
			age:        review.EmailAgeAged,
			enterprise: true,
		},
		{
			name:      "encrypted provider",
			mutate:    func(r *account.Record) { r.Email = "ceo@protonmail.com" },
			age:       review.EmailAgeOther,
			free:      true,
			encrypted: true,
		},
		{
			name:      "gibberish domain",
			mutate:    func(r *account.Record) { r.Email = "admin@xkq7zrtp.com" },
			age:       review.EmailAgeOther,
			gibberish: true,
		},
		{
			name:       "malformed address keeps domain",
			mutate:     func(r *account.Record) { r.Email = "jane smith@acmewidgets.com" },
			age:        review.EmailAgeOther,
			invalid:    true,
			enterprise: true,
		},
		{
			name:       "upstream invalid flag",
			mutate:     func(r *account.Record) { r.EmailInvalid = true },
			age:        review.EmailAgeOther,
			invalid:    true,
			enterprise: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := extract(t, tt.mutate)
			assert.Equal(t, tt.age, s.EmailAge)
			assert.Equal(t, tt.invalid, s.EmailInvalid)
			assert.Equal(t, tt.free, s.FreeEmail)
			assert.Equal(t, tt.encrypted, s.EncryptedEmail)
			assert.Equal(t, tt.gibberish, s.GibberishEmailDomain)
			assert.Equal(t, tt.enterprise, s.EnterpriseEmail)
		})
	}
}

func TestExtract_IdentityAndPayment(t *testing.T) {
	s := extract(t, nil)
	assert.Equal(t, review.IdentityExact, s.IdentityMatch)
	assert.True(t, s.SurnameMatch)
	assert.Equal(t, review.CardTierOne, s.CardTier)
	assert.Equal(t, review.InstrumentUnknown, s.Instrument)
	assert.False(t, s.ShellAddress)
	assert.False(t, s.GibberishCompany)

	s = extract(t, func(r *account.Record) {
		r.CardOwner = "Robert Smith"
		r.CardNetwork = "UnionPay"
		r.InstrumentType = "Prepaid Debit"
		r.CardCountry = "Nigeria"
		r.NetworkCountry = "US"
		r.Address = "30 N Gould St, Sheridan, WY"
		r.CompanyName = "Xkq7zrtp Ltd"
	})
	assert.Equal(t, review.IdentityMismatch, s.IdentityMatch)
	assert.True(t, s.SurnameMatch)
	assert.Equal(t, review.CardTierOther, s.CardTier)
	assert.Equal(t, review.InstrumentPrepaid, s.Instrument)
	assert.True(t, s.CardCountryMismatch)
	assert.True(t, s.NonDomesticCard())
	assert.True(t, s.ShellAddress)
	assert.True(t, s.GibberishCompany)

	s = extract(t, func(r *account.Record) {
		r.CardOwner = "ACME Widgets"
		r.CardCountry = "United States"
		r.NetworkCountry = "united states"
	})
	assert.True(t, s.CardholderIsCompany)
	assert.False(t, s.CardCountryMismatch)
}

func TestExtract_Destination(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(r *account.Record)
		status   review.URLStatus
		count    int
		relation review.DomainRelation
	}{
		{"no urls", func(r *account.Record) { r.ItemURLs = nil }, review.URLMissing, 0, review.DomainNotApplicable},
		{"blank urls", func(r *account.Record) { r.ItemURLs = []string{"", "  "} }, review.URLMissing, 0, review.DomainNotApplicable},
		{"same domain", func(r *account.Record) {}, review.URLUnknown, 1, review.DomainSame},
		{"subsidiary domain", func(r *account.Record) { r.ItemURLs = []string{"shop.acmewidgets-store.de/x"} }, review.URLUnknown, 1, review.DomainRelated},
		{"unrelated domain", func(r *account.Record) { r.ItemURLs = []string{"https://globex.io"} }, review.URLUnknown, 1, review.DomainUnrelated},
		{"free email skips comparison", func(r *account.Record) { r.Email = "jane@gmail.com" }, review.URLUnknown, 1, review.DomainNotApplicable},
		{
			"bait switch hint",
			func(r *account.Record) { r.Content = &account.ContentSignals{BaitSwitch: true} },
			review.URLContentMismatch, 1, review.DomainSame,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := extract(t, tt.mutate)
			assert.Equal(t, tt.status, s.URLStatus)
			assert.Equal(t, tt.count, s.URLCount)
			assert.Equal(t, tt.relation, s.DomainRelation)
			assert.Equal(t, review.WhoisUnknown, s.Whois)
		})
	}
}

func TestExtract_DoesNotMutateRecord(t *testing.T) {
	rec := baseRecord()
	rec.ItemURLs = []string{" https://acmewidgets.com "}
	before := rec.Digest()

	_, err := NewExtractor(policy.Default()).Extract(&rec)
	require.NoError(t, err)
	assert.Equal(t, before, rec.Digest())
}

func TestExtract_BadClock(t *testing.T) {
	rec := baseRecord()
	rec.NetworkTime = "tea time"
	_, err := NewExtractor(policy.Default()).Extract(&rec)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestExtract_UpstreamScoreAndDirector(t *testing.T) {
	score := 12.5
	s := extract(t, func(r *account.Record) {
		r.MLScore = &score
		r.VerifiedDirector = true
	})
	assert.True(t, s.HasUpstreamMLScore)
	assert.Equal(t, 12.5, s.UpstreamMLScore)
	assert.True(t, s.VerifiedDirector)
	assert.True(t, s.WesternAddress)
}

func TestEnrich(t *testing.T) {
	base := extract(t, nil)

	dead := Enrich(base, Enrichment{Status: review.URLDead, Whois: review.WhoisPrivacyProtected})
	assert.Equal(t, review.URLDead, dead.URLStatus)
	assert.Equal(t, review.WhoisPrivacyProtected, dead.Whois)
	assert.Equal(t, review.URLUnknown, base.URLStatus, "input must not change")

	bait := Enrich(base, Enrichment{Status: review.URLReachable, Content: review.ContentFlags{BaitSwitch: true}})
	assert.Equal(t, review.URLContentMismatch, bait.URLStatus)

	degraded := Enrich(base, Enrichment{Status: review.URLUnknown, Degraded: 2})
	assert.Equal(t, review.URLUnknown, degraded.URLStatus)
	assert.Equal(t, 2, degraded.IntelDegraded)

	missing := extract(t, func(r *account.Record) { r.ItemURLs = nil })
	still := Enrich(missing, Enrichment{Status: review.URLReachable})
	assert.Equal(t, review.URLMissing, still.URLStatus)
}
