package features

import "github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"

// Enrichment is what external intelligence observed about the destination
// URLs of one record.
type Enrichment struct {
	Status  review.URLStatus
	Content review.ContentFlags
	Whois   review.WhoisState
	// Degraded counts lookups that were unavailable, rate limited or timed out.
	Degraded int
}

var statusSeverity = map[review.URLStatus]int{
	review.URLUnknown:         0,
	review.URLReachable:       1,
	review.URLContentMismatch: 2,
	review.URLDead:            3,
}

// Enrich returns a copy of s with the enrichment merged in. A missing URL
// stays missing, and a status only ever moves toward the more severe one.
func Enrich(s review.SignalSet, en Enrichment) review.SignalSet {
	out := s
	out.IntelDegraded += en.Degraded
	if out.URLStatus == review.URLMissing {
		return out
	}

	out.Content = out.Content.Merge(en.Content)
	if en.Status != "" && statusSeverity[en.Status] > statusSeverity[out.URLStatus] {
		out.URLStatus = en.Status
	}
	if out.Content.BaitSwitch && statusSeverity[out.URLStatus] < statusSeverity[review.URLContentMismatch] {
		out.URLStatus = review.URLContentMismatch
	}
	if en.Whois != "" && en.Whois != review.WhoisUnknown {
		out.Whois = en.Whois
	}
	return out
}
