package account

import (
	"strconv"
	"strings"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
)

// ListSeparator joins multi-valued columns in flat inputs such as CSV.
const ListSeparator = "|"

// FromFields builds a record from flat string columns. Multi-valued
// columns (item_urls, ip_addresses) are pipe separated; blank numeric and
// boolean columns are treated as absent. The record is not validated.
func FromFields(fields map[string]string) (*Record, error) {
	get := func(key string) string { return strings.TrimSpace(fields[key]) }

	rec := &Record{
		ID:             get("id"),
		Name:           get("name"),
		Email:          get("email"),
		CompanyName:    get("company_name"),
		Address:        get("address"),
		CardOwner:      get("cc_owner"),
		CardCountry:    get("cc_country"),
		CardNetwork:    get("cc_network"),
		InstrumentType: get("cc_type"),
		LocalTime:      get("local_time"),
		NetworkTime:    get("network_time"),
		NetworkCountry: get("network_country"),
		EmailFirstSeen: get("email_first_seen"),
		ItemURLs:       splitList(fields["item_urls"]),
		IPAddresses:    splitList(fields["ip_addresses"]),
	}

	var err error
	if rec.EmailInvalid, err = parseBool("email_invalid_flag", get("email_invalid_flag")); err != nil {
		return nil, err
	}
	if rec.VerifiedDirector, err = parseBool("verified_director", get("verified_director")); err != nil {
		return nil, err
	}

	if raw := get("ml_score"); raw != "" {
		score, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.NewValidationError("ml_score", "ml_score must be a number").WithCause(err)
		}
		rec.MLScore = &score
	}

	var content ContentSignals
	if content.Parked, err = parseBool("parked", get("parked")); err != nil {
		return nil, err
	}
	if content.SafePageTemplate, err = parseBool("safe_page_template", get("safe_page_template")); err != nil {
		return nil, err
	}
	if content.BaitSwitch, err = parseBool("bait_switch", get("bait_switch")); err != nil {
		return nil, err
	}
	if content != (ContentSignals{}) {
		rec.Content = &content
	}

	return rec, nil
}

func splitList(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ListSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(field, raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y":
		return true, nil
	case "0", "false", "no", "n":
		return false, nil
	}
	return false, errors.NewValidationError(field, field+" must be a boolean")
}
