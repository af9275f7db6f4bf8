package intel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/metrics"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/service/features"
)

var tracer = otel.Tracer("fraud-agent/intel")

// Enricher looks up a record's destination URLs and folds the answers
// into one features.Enrichment.
type Enricher struct {
	provider Provider
	maxURLs  int
	logger   *zap.Logger
	metrics  *metrics.Registry
}

// NewEnricher creates an enricher that checks at most maxURLs per record.
func NewEnricher(provider Provider, maxURLs int, logger *zap.Logger, m *metrics.Registry) *Enricher {
	if maxURLs <= 0 {
		maxURLs = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		provider: provider,
		maxURLs:  maxURLs,
		logger:   logger,
		metrics:  m,
	}
}

// Enrich looks up each URL in order. Lookups that return no usable data
// are counted as degraded and contribute nothing else.
func (e *Enricher) Enrich(ctx context.Context, urls []string) features.Enrichment {
	if len(urls) > e.maxURLs {
		urls = urls[:e.maxURLs]
	}

	ctx, span := tracer.Start(ctx, "intel.enrich")
	defer span.End()
	span.SetAttributes(
		attribute.String("intel.provider", e.provider.Name()),
		attribute.Int("intel.urls", len(urls)),
	)

	results := make([]Result, 0, len(urls))
	for _, u := range urls {
		start := time.Now()
		res := e.provider.Lookup(ctx, u)
		e.metrics.RecordIntelLookup(e.provider.Name(), string(res.Availability), time.Since(start))
		if !res.Usable() {
			e.logger.Warn("intel degraded",
				zap.String("provider", e.provider.Name()),
				zap.String("url", u),
				zap.String("availability", string(res.Availability)))
		}
		results = append(results, res)
	}

	en := Aggregate(results)
	span.SetAttributes(
		attribute.String("intel.status", string(en.Status)),
		attribute.Int("intel.degraded", en.Degraded),
	)
	return en
}

// Aggregate merges per-URL results. The most severe status wins, content
// flags are unioned, and privacy-protected WHOIS beats known.
func Aggregate(results []Result) features.Enrichment {
	en := features.Enrichment{
		Status: review.URLUnknown,
		Whois:  review.WhoisUnknown,
	}
	sawReachable, sawDead := false, false
	for _, r := range results {
		if !r.Usable() {
			en.Degraded++
			continue
		}
		switch r.Status {
		case StatusDead:
			sawDead = true
		case StatusReachable:
			sawReachable = true
		}
		en.Content = en.Content.Merge(r.Content)
		switch r.Whois {
		case review.WhoisPrivacyProtected:
			en.Whois = review.WhoisPrivacyProtected
		case review.WhoisKnown:
			if en.Whois == review.WhoisUnknown {
				en.Whois = review.WhoisKnown
			}
		}
	}

	switch {
	case sawDead:
		en.Status = review.URLDead
	case en.Content.Any():
		en.Status = review.URLContentMismatch
	case sawReachable:
		en.Status = review.URLReachable
	}
	return en
}
