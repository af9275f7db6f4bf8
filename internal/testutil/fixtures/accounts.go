package fixtures

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/account"
)

// RecordBuilder builds test account records. The defaults describe a clean
// domestic advertiser that the built-in policy approves.
type RecordBuilder struct {
	rec account.Record
}

// NewRecordBuilder creates a new RecordBuilder with defaults
func NewRecordBuilder() *RecordBuilder {
	return &RecordBuilder{rec: account.Record{
		Name:        "Jane Smith",
		Email:       "jane@acmewidgets.com",
		CompanyName: "Acme Widgets",
		Address:     "500 Market St, San Francisco, CA, USA",
		CardOwner:   "Jane Smith",
		CardNetwork: "Visa",
		LocalTime:   "09:00",
		NetworkTime: "09:00",
		ItemURLs:    []string{"https://acmewidgets.com/spring-sale"},
	}}
}

// WithID sets the caller-supplied account id
func (b *RecordBuilder) WithID(id string) *RecordBuilder {
	b.rec.ID = id
	return b
}

// WithIdentity sets the account holder, email and company
func (b *RecordBuilder) WithIdentity(name, email, company string) *RecordBuilder {
	b.rec.Name, b.rec.Email, b.rec.CompanyName = name, email, company
	return b
}

// WithAddress sets the billing address
func (b *RecordBuilder) WithAddress(address string) *RecordBuilder {
	b.rec.Address = address
	return b
}

// WithCard sets the payment card owner, country and network
func (b *RecordBuilder) WithCard(owner, country, network string) *RecordBuilder {
	b.rec.CardOwner, b.rec.CardCountry, b.rec.CardNetwork = owner, country, network
	return b
}

// WithClocks sets the local and network clocks
func (b *RecordBuilder) WithClocks(local, network string) *RecordBuilder {
	b.rec.LocalTime, b.rec.NetworkTime = local, network
	return b
}

// WithEmailFirstSeen sets when the email was first observed
func (b *RecordBuilder) WithEmailFirstSeen(date string) *RecordBuilder {
	b.rec.EmailFirstSeen = date
	return b
}

// WithURLs replaces the item URLs
func (b *RecordBuilder) WithURLs(urls ...string) *RecordBuilder {
	b.rec.ItemURLs = urls
	return b
}

// WithMLScore sets the upstream model score
func (b *RecordBuilder) WithMLScore(score float64) *RecordBuilder {
	b.rec.MLScore = &score
	return b
}

// WithContent sets landing-page observations
func (b *RecordBuilder) WithContent(content account.ContentSignals) *RecordBuilder {
	b.rec.Content = &content
	return b
}

// Build returns a copy of the record, failing the test if it is invalid.
func (b *RecordBuilder) Build(t *testing.T) *account.Record {
	t.Helper()
	rec := b.rec
	rec.ItemURLs = append([]string(nil), b.rec.ItemURLs...)
	require.NoError(t, rec.Validate(), "fixture record must be valid")
	return &rec
}

// AccountScenarios provides named records for common review outcomes.
type AccountScenarios struct {
	t *testing.T
}

// NewAccountScenarios creates a new scenario set
func NewAccountScenarios(t *testing.T) *AccountScenarios {
	return &AccountScenarios{t: t}
}

// Clean is approved by the built-in policy.
func (as *AccountScenarios) Clean() *account.Record {
	return NewRecordBuilder().Build(as.t)
}

// MissingURL is held for URL verification.
func (as *AccountScenarios) MissingURL() *account.Record {
	return NewRecordBuilder().WithURLs().Build(as.t)
}

// Outsourced has a clock offset matching a known outsourcing region.
func (as *AccountScenarios) Outsourced() *account.Record {
	return NewRecordBuilder().WithClocks("2024-05-01T09:00:00-04:00", "2024-05-01T18:30:00+05:30").Build(as.t)
}

// Cloaking combines an encrypted mailbox, a gibberish company and a
// bait-and-switch landing page.
func (as *AccountScenarios) Cloaking() *account.Record {
	return NewRecordBuilder().
		WithIdentity("Jane Smith", "ceo@protonmail.com", "Xkq7zrtp Ltd").
		WithContent(account.ContentSignals{BaitSwitch: true}).
		Build(as.t)
}

// Set returns n distinct clean records.
func (as *AccountScenarios) Set(n int) []*account.Record {
	out := make([]*account.Record, n)
	for i := range out {
		out[i] = NewRecordBuilder().WithID(fmt.Sprintf("acct-%03d", i+1)).Build(as.t)
	}
	return out
}
