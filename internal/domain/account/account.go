package account

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/values"
)

// Record is an advertiser account summary submitted for review. It is
// owned by the caller and never mutated by the pipeline.
type Record struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required"`
	CompanyName string `json:"company_name,omitempty"`
	Address     string `json:"address,omitempty"`

	// Payment instrument
	CardOwner      string `json:"cc_owner,omitempty"`
	CardCountry    string `json:"cc_country,omitempty"`
	CardNetwork    string `json:"cc_network,omitempty"`
	InstrumentType string `json:"cc_type,omitempty"`

	// Clocks and history
	LocalTime      string `json:"local_time" validate:"required"`
	NetworkTime    string `json:"network_time" validate:"required"`
	NetworkCountry string `json:"network_country,omitempty"`
	EmailFirstSeen string `json:"email_first_seen,omitempty"`
	EmailInvalid   bool   `json:"email_invalid_flag,omitempty"`

	ItemURLs    []string `json:"item_urls"`
	IPAddresses []string `json:"ip_addresses,omitempty" validate:"omitempty,dive,ip"`

	VerifiedDirector bool            `json:"verified_director,omitempty"`
	MLScore          *float64        `json:"ml_score,omitempty" validate:"omitempty,gte=0,lte=100"`
	Content          *ContentSignals `json:"content_signals,omitempty"`
}

// ContentSignals are landing-page observations supplied with the record,
// typically by an upstream crawler.
type ContentSignals struct {
	Parked           bool `json:"parked,omitempty"`
	SafePageTemplate bool `json:"safe_page_template,omitempty"`
	BaitSwitch       bool `json:"bait_switch,omitempty"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks required fields and formats. The returned error is a
// validation AppError naming the first offending field.
func (r *Record) Validate() error {
	if err := recordValidator().Struct(r); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return errors.NewValidationError(fe.Field(), describe(fe))
		}
		return errors.NewValidationError("record", err.Error()).WithCause(err)
	}

	for field, value := range map[string]string{"name": r.Name, "email": r.Email} {
		if strings.TrimSpace(value) == "" {
			return errors.NewValidationError(field, field+" must not be blank")
		}
	}
	if _, err := values.ParseClock(r.LocalTime); err != nil {
		return errors.NewValidationError("local_time", err.Error()).WithCause(err)
	}
	if _, err := values.ParseClock(r.NetworkTime); err != nil {
		return errors.NewValidationError("network_time", err.Error()).WithCause(err)
	}
	if r.EmailFirstSeen != "" {
		if _, err := values.ParseDate(r.EmailFirstSeen); err != nil {
			return errors.NewValidationError("email_first_seen", err.Error()).WithCause(err)
		}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "ip":
		return fmt.Sprintf("%s contains an invalid IP address %q", fe.Field(), fe.Value())
	case "gte", "lte":
		return fmt.Sprintf("%s must be within [0, 100]", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// URLs returns the non-blank item URLs, trimmed.
func (r *Record) URLs() []string {
	urls := make([]string, 0, len(r.ItemURLs))
	for _, u := range r.ItemURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// Digest returns a stable SHA-256 over the canonical JSON encoding.
func (r *Record) Digest() string {
	data, _ := json.Marshal(r)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Key identifies the record in queues and feedback: the caller supplied
// id, or a prefix of the digest.
func (r *Record) Key() string {
	if id := strings.TrimSpace(r.ID); id != "" {
		return id
	}
	return "acct_" + r.Digest()[:12]
}
