package intel

import (
	"context"
	"time"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
)

// Provider looks up what can be observed about one destination URL.
// Lookup never fails: absence of data is reported through Availability.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, rawURL string) Result
}

// Status is the reachability class a provider reports for a URL.
type Status string

const (
	StatusReachable   Status = "reachable"
	StatusDead        Status = "dead"
	StatusRateLimited Status = "rate-limited"
	StatusUnknown     Status = "unknown"
)

// Availability tells the caller whether the result carries real data.
type Availability string

const (
	Available   Availability = "available"
	Unavailable Availability = "unavailable"
	RateLimited Availability = "rate_limited"
)

// Result is one provider answer for one URL.
type Result struct {
	URL          string              `json:"url"`
	FinalURL     string              `json:"final_url,omitempty"`
	Status       Status              `json:"status"`
	Content      review.ContentFlags `json:"content"`
	Whois        review.WhoisState   `json:"whois"`
	Availability Availability        `json:"availability"`
	Provider     string              `json:"provider"`
	CheckedAt    time.Time           `json:"checked_at"`
}

// Usable reports whether the result holds a real observation.
func (r Result) Usable() bool {
	return r.Availability == Available
}

func unavailable(provider, rawURL string, availability Availability) Result {
	status := StatusUnknown
	if availability == RateLimited {
		status = StatusRateLimited
	}
	return Result{
		URL:          rawURL,
		Status:       status,
		Whois:        review.WhoisUnknown,
		Availability: availability,
		Provider:     provider,
		CheckedAt:    time.Now().UTC(),
	}
}

// Noop answers every lookup as unavailable. It stands in for a provider
// when lookups are switched off but the degraded path should still show.
type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) Name() string { return "noop" }

func (n Noop) Lookup(_ context.Context, rawURL string) Result {
	return unavailable(n.Name(), rawURL, Unavailable)
}
