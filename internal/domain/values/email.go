package values

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Email represents a validated email address value object
type Email struct {
	address string
}

var (
	// RFC 5322 compliant regex for stricter validation
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
)

// Free mailbox providers. Matching is by exact domain or by provider
// label prefix ("yahoo.co.uk" matches "yahoo").
var freeProviderLabels = map[string]bool{
	"gmail":      true,
	"googlemail": true,
	"yahoo":      true,
	"outlook":    true,
	"hotmail":    true,
	"live":       true,
	"icloud":     true,
	"aol":        true,
	"gmx":        true,
}

var encryptedProviders = map[string]bool{
	"protonmail.com": true,
	"protonmail.ch":  true,
	"proton.me":      true,
	"pm.me":          true,
	"tutanota.com":   true,
	"tutanota.de":    true,
	"tuta.io":        true,
}

// Company name tokens too generic to tie a domain to a company.
var genericCompanyTokens = map[string]bool{
	"inc": true, "llc": true, "ltd": true, "corp": true, "the": true,
	"company": true, "group": true, "gmbh": true, "limited": true,
	"holdings": true, "and": true, "plc": true, "co": true, "sa": true,
	"srl": true, "pty": true, "global": true, "services": true,
}

// NewEmail creates a new Email value object with validation
func NewEmail(address string) (Email, error) {
	if address == "" {
		return Email{}, fmt.Errorf("email address cannot be empty")
	}

	normalized := normalizeEmail(address)

	parsed, err := mail.ParseAddress(normalized)
	if err != nil {
		return Email{}, fmt.Errorf("invalid email format: %w", err)
	}

	if !emailRegex.MatchString(parsed.Address) {
		return Email{}, fmt.Errorf("email address does not meet format requirements")
	}

	if len(parsed.Address) > 254 {
		return Email{}, fmt.Errorf("email address too long (max 254 characters)")
	}

	return Email{address: parsed.Address}, nil
}

// MustNewEmail creates Email and panics on error (for constants/tests)
func MustNewEmail(address string) Email {
	email, err := NewEmail(address)
	if err != nil {
		panic(err)
	}
	return email
}

// String returns the email address
func (e Email) String() string {
	return e.address
}

// LocalPart returns the local part of the email (before @)
func (e Email) LocalPart() string {
	parts := strings.Split(e.address, "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[0]
}

// Domain returns the domain part of the email (after @)
func (e Email) Domain() string {
	return DomainOf(e.address)
}

// IsEmpty checks if the email is empty
func (e Email) IsEmpty() bool {
	return e.address == ""
}

// IsFreeProvider reports whether the mailbox belongs to a consumer provider.
func (e Email) IsFreeProvider() bool {
	return IsFreeProviderDomain(e.Domain())
}

// IsEncryptedProvider reports whether the mailbox belongs to an
// end-to-end encrypted provider commonly used for burner identities.
func (e Email) IsEncryptedProvider() bool {
	return encryptedProviders[e.Domain()]
}

// IsGibberishDomain flags machine-generated domain roots: at least seven
// characters, at most one vowel and at least one digit.
func (e Email) IsGibberishDomain() bool {
	return IsGibberishDomainName(e.Domain())
}

// IsEnterpriseFor reports whether the domain is a corporate mailbox that
// carries a distinctive token of the company name. Without a usable
// company name any non-free domain qualifies.
func (e Email) IsEnterpriseFor(company string) bool {
	return IsEnterpriseDomain(e.Domain(), company)
}

// RegistrableDomain returns the eTLD+1 of the email domain.
func (e Email) RegistrableDomain() string {
	return RegistrableDomain(e.Domain())
}

// MarshalJSON implements JSON marshaling
func (e Email) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.address)
}

// UnmarshalJSON implements JSON unmarshaling
func (e *Email) UnmarshalJSON(data []byte) error {
	var address string
	if err := json.Unmarshal(data, &address); err != nil {
		return err
	}

	email, err := NewEmail(address)
	if err != nil {
		return err
	}

	*e = email
	return nil
}

// Helper functions

func normalizeEmail(address string) string {
	return strings.TrimSpace(strings.ToLower(address))
}

// DomainOf extracts the lowercased domain of a possibly malformed address.
func DomainOf(address string) string {
	address = normalizeEmail(address)
	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return strings.Trim(address[at+1:], ".> ")
}

// IsFreeProviderDomain reports whether a domain belongs to a consumer
// mailbox provider, including the encrypted ones.
func IsFreeProviderDomain(domain string) bool {
	domain = strings.ToLower(domain)
	if encryptedProviders[domain] {
		return true
	}
	label := strings.SplitN(domain, ".", 2)[0]
	return freeProviderLabels[label]
}

// IsEncryptedProviderDomain reports whether a domain is an encrypted
// mailbox provider.
func IsEncryptedProviderDomain(domain string) bool {
	return encryptedProviders[strings.ToLower(domain)]
}

// IsGibberishDomainName applies IsGibberishToken to the first label.
func IsGibberishDomainName(domain string) bool {
	return IsGibberishToken(strings.SplitN(domain, ".", 2)[0])
}

// IsEnterpriseDomain is the domain-level form of Email.IsEnterpriseFor.
func IsEnterpriseDomain(domain, company string) bool {
	domain = strings.ToLower(domain)
	if domain == "" || IsFreeProviderDomain(domain) {
		return false
	}
	tokens := CompanyTokens(company)
	if len(tokens) == 0 {
		return true
	}
	compact := strings.ReplaceAll(domain, "-", "")
	for _, token := range tokens {
		if strings.Contains(compact, token) {
			return true
		}
	}
	return false
}

// IsGibberishToken flags tokens of seven or more characters with at most
// one vowel and at least one digit.
func IsGibberishToken(token string) bool {
	token = strings.ToLower(token)
	if len(token) < 7 {
		return false
	}
	vowels, digits := 0, 0
	for _, r := range token {
		switch {
		case strings.ContainsRune("aeiou", r):
			vowels++
		case r >= '0' && r <= '9':
			digits++
		}
	}
	return vowels <= 1 && digits > 0
}

// CompanyTokens returns the distinctive lowercase tokens of a company name.
func CompanyTokens(company string) []string {
	var tokens []string
	for _, t := range nonAlnum.Split(strings.ToLower(company), -1) {
		if len(t) > 2 && !genericCompanyTokens[t] {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// RegistrableDomain returns the eTLD+1 for host, or the host itself when
// the public suffix list cannot resolve it.
func RegistrableDomain(host string) string {
	host = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(host)), "www.")
	if host == "" {
		return ""
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return etld1
}
