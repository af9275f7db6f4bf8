package account_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/account"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
)

func validRecord() account.Record {
	return account.Record{
		Name:        "Jane Smith",
		Email:       "jane@acmewidgets.com",
		CompanyName: "Acme Widgets",
		CardOwner:   "Jane Smith",
		LocalTime:   "09:00",
		NetworkTime: "09:02",
		ItemURLs:    []string{"https://acmewidgets.com"},
	}
}

func TestRecord_Validate(t *testing.T) {
	score := 140.0

	tests := []struct {
		name      string
		mutate    func(r *account.Record)
		wantField string
	}{
		{"valid record", func(r *account.Record) {}, ""},
		{"missing name", func(r *account.Record) { r.Name = "" }, "name"},
		{"blank email", func(r *account.Record) { r.Email = "   " }, "email"},
		{"missing local time", func(r *account.Record) { r.LocalTime = "" }, "local_time"},
		{"unparseable network time", func(r *account.Record) { r.NetworkTime = "noon" }, "network_time"},
		{"bad first seen", func(r *account.Record) { r.EmailFirstSeen = "last year" }, "email_first_seen"},
		{"invalid ip", func(r *account.Record) { r.IPAddresses = []string{"10.0.0.1", "999.1.1.1"} }, "ip_addresses[1]"},
		{"ml score out of range", func(r *account.Record) { r.MLScore = &score }, "ml_score"},
		{"missing urls are not a validation error", func(r *account.Record) { r.ItemURLs = nil }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(&r)

			err := r.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
			appErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantField, appErr.Field())
		})
	}
}

func TestRecord_URLs(t *testing.T) {
	r := validRecord()
	r.ItemURLs = []string{" ", "https://a.example ", ""}
	assert.Equal(t, []string{"https://a.example"}, r.URLs())
}

func TestRecord_DigestAndKey(t *testing.T) {
	a := validRecord()
	b := validRecord()
	assert.Equal(t, a.Digest(), b.Digest())
	assert.Len(t, a.Digest(), 64)

	b.Address = "30 N Gould St, Sheridan, WY"
	assert.NotEqual(t, a.Digest(), b.Digest())

	assert.Equal(t, "acct_"+a.Digest()[:12], a.Key())
	a.ID = "adv-42"
	assert.Equal(t, "adv-42", a.Key())
}

func TestRecord_JSONFieldNames(t *testing.T) {
	raw := `{
		"name": "Jane Smith",
		"email": "jane@acmewidgets.com",
		"cc_owner": "Jane Smith",
		"cc_network": "visa",
		"local_time": "2024-05-01T09:00:00-04:00",
		"network_time": "2024-05-01T13:00:00Z",
		"item_urls": ["https://acmewidgets.com"],
		"verified_director": true,
		"ml_score": 42.5,
		"content_signals": {"bait_switch": true}
	}`

	var r account.Record
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	require.NoError(t, r.Validate())
	assert.Equal(t, "visa", r.CardNetwork)
	assert.True(t, r.VerifiedDirector)
	require.NotNil(t, r.MLScore)
	assert.Equal(t, 42.5, *r.MLScore)
	require.NotNil(t, r.Content)
	assert.True(t, r.Content.BaitSwitch)
}
