package values

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmail(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{"valid simple email", "ops@acme.com", false},
		{"valid email with subdomain", "user@mail.acme.co.uk", false},
		{"valid email with plus", "user+ads@acme.com", false},
		{"uppercase is normalized", "  Ops@Acme.COM ", false},
		{"empty email", "", true},
		{"missing @ symbol", "userexample.com", true},
		{"missing domain", "user@", true},
		{"missing tld", "user@invalid", true},
		{"spaces in email", "user @example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, err := NewEmail(tt.address)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, email.IsEmpty())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, email.String(), normalizeEmail(tt.address))
		})
	}
}

func TestEmail_ProviderClassification(t *testing.T) {
	tests := []struct {
		address   string
		free      bool
		encrypted bool
		gibberish bool
	}{
		{"jane@gmail.com", true, false, false},
		{"jane@yahoo.co.uk", true, false, false},
		{"x@protonmail.com", true, true, false},
		{"x@pm.me", true, true, false},
		{"sales@acme-widgets.com", false, false, false},
		{"admin@xkq7zrtp.com", false, false, true},
		{"admin@bcd9fgh.net", false, false, true},
		{"admin@short1.net", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			e := MustNewEmail(tt.address)
			assert.Equal(t, tt.free, e.IsFreeProvider())
			assert.Equal(t, tt.encrypted, e.IsEncryptedProvider())
			assert.Equal(t, tt.gibberish, e.IsGibberishDomain())
		})
	}
}

func TestEmail_IsEnterpriseFor(t *testing.T) {
	tests := []struct {
		name    string
		address string
		company string
		want    bool
	}{
		{"company token in domain", "j.doe@acmewidgets.com", "Acme Widgets Inc", true},
		{"hyphenated domain", "j.doe@acme-widgets.de", "ACME Widgets", true},
		{"free provider never enterprise", "acme@gmail.com", "Acme", false},
		{"generic suffix ignored", "x@inc-mail.com", "Foo Inc", false},
		{"unrelated domain", "x@globex.com", "Acme Widgets", false},
		{"no company name", "x@acme.com", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MustNewEmail(tt.address).IsEnterpriseFor(tt.company))
		})
	}
}

func TestRegistrableDomain(t *testing.T) {
	assert.Equal(t, "acme.co.uk", RegistrableDomain("shop.acme.co.uk"))
	assert.Equal(t, "acme.com", RegistrableDomain("www.acme.com"))
	assert.Equal(t, "acme.com", MustNewEmail("a@mail.acme.com").RegistrableDomain())
	assert.Equal(t, "", RegistrableDomain("  "))
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "acme.com", DomainOf("Broken Name <x@ACME.com>"))
	assert.Equal(t, "", DomainOf("no-at-sign"))
	assert.Equal(t, "", DomainOf("trailing@"))
}

func TestEmail_JSON(t *testing.T) {
	data, err := json.Marshal(MustNewEmail("ops@acme.com"))
	require.NoError(t, err)
	assert.JSONEq(t, `"ops@acme.com"`, string(data))

	var e Email
	require.NoError(t, json.Unmarshal([]byte(`"OPS@acme.com"`), &e))
	assert.Equal(t, "ops@acme.com", e.String())

	assert.Error(t, json.Unmarshal([]byte(`"not-an-email"`), &e))
}
