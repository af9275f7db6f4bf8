package intel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	domainErrors "github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/review"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/values"
)

// HTTPConfig contains configuration for the HTTP provider
type HTTPConfig struct {
	Timeout      time.Duration
	UserAgent    string
	RateLimit    float64 // lookups per second
	Burst        int
	MaxBodyBytes int64
	// RDAPURL is the base of an RDAP service, e.g. https://rdap.org.
	// Empty skips WHOIS lookups.
	RDAPURL string

	FailureThreshold int
	ResetTimeout     time.Duration
}

// HTTPProvider fetches destination pages directly and classifies what it
// finds. WHOIS state comes from an RDAP service when one is configured.
type HTTPProvider struct {
	config      HTTPConfig
	client      *http.Client
	rateLimiter *rate.Limiter
	breaker     *circuitBreaker
	logger      *zap.Logger
}

// NewHTTPProvider creates a new HTTP provider instance
func NewHTTPProvider(config HTTPConfig, logger *zap.Logger) *HTTPProvider {
	if config.Timeout <= 0 {
		config.Timeout = 8 * time.Second
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 5
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 512 << 10
	}
	if config.UserAgent == "" {
		config.UserAgent = "fraud-agent/1.0"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &HTTPProvider{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		rateLimiter: rate.NewLimiter(rate.Limit(config.RateLimit), config.Burst),
		breaker: newCircuitBreaker(CircuitBreakerConfig{
			FailureThreshold: config.FailureThreshold,
			Timeout:          config.ResetTimeout,
		}),
		logger: logger,
	}
	p.breaker.SetStateChangeCallback(func(from, to CircuitState) {
		p.logger.Warn("intel circuit state changed",
			zap.String("provider", p.Name()),
			zap.String("from", string(from)),
			zap.String("to", string(to)))
	})
	return p
}

func (p *HTTPProvider) Name() string { return "http" }

// Lookup fetches rawURL, following redirects, within the configured
// timeout. A timeout or transport failure yields an unknown status.
func (p *HTTPProvider) Lookup(ctx context.Context, rawURL string) Result {
	target, err := parseTarget(rawURL)
	if err != nil {
		return Result{
			URL:          rawURL,
			Status:       StatusDead,
			Whois:        review.WhoisUnknown,
			Availability: Available,
			Provider:     p.Name(),
			CheckedAt:    time.Now().UTC(),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	if err := p.rateLimiter.Wait(ctx); err != nil {
		p.logger.Warn("intel lookup rate limited", zap.String("url", rawURL),
			zap.Error(domainErrors.NewRateLimitError(p.Name()).WithCause(err)))
		return unavailable(p.Name(), rawURL, RateLimited)
	}

	var res Result
	err = p.breaker.Execute(func() error {
		var fetchErr error
		res, fetchErr = p.fetch(ctx, target)
		return fetchErr
	})
	switch {
	case errors.Is(err, ErrCircuitOpen):
		p.logger.Debug("intel lookup skipped, circuit open", zap.String("url", rawURL))
		return unavailable(p.Name(), rawURL, Unavailable)
	case err != nil:
		p.logger.Warn("intel lookup failed", zap.String("url", rawURL), zap.Error(err))
		return unavailable(p.Name(), rawURL, Unavailable)
	}

	res.URL = rawURL
	res.Provider = p.Name()
	res.CheckedAt = time.Now().UTC()
	if res.Availability == Available {
		host := target.Hostname()
		if final, err := url.Parse(res.FinalURL); err == nil && final.Hostname() != "" {
			host = final.Hostname()
		}
		res.Whois = p.whois(ctx, host)
	} else {
		res.Whois = review.WhoisUnknown
	}
	return res
}

// fetch returns an error only for failures that say nothing about the
// destination itself. Those count against the circuit breaker.
func (p *HTTPProvider) fetch(ctx context.Context, target *url.URL) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", p.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := p.client.Do(req)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return Result{Status: StatusDead, Availability: Available}, nil
		}
		return Result{}, err
	}
	defer resp.Body.Close()

	final := resp.Request.URL
	res := Result{
		FinalURL:     final.String(),
		Availability: Available,
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		res.Status = StatusRateLimited
		res.Availability = RateLimited
		return res, nil
	case resp.StatusCode >= 400:
		res.Status = StatusDead
		res.Content.BaitSwitch = !sameSite(target, final)
		return res, nil
	}

	title, body := pageText(io.LimitReader(resp.Body, p.config.MaxBodyBytes))
	res.Status = StatusReachable
	res.Content = classifyPage(title, body, target, final)
	return res, nil
}

func parseTarget(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("url %q has no host", raw)
	}
	return u, nil
}

var privacyMarkers = []string{
	"redacted",
	"privacy",
	"withheld",
	"whoisguard",
	"domains by proxy",
	"contact privacy",
	"data protected",
}

type rdapRemark struct {
	Title       string   `json:"title"`
	Description []string `json:"description"`
}

type rdapEntity struct {
	Roles      []string        `json:"roles"`
	VCardArray json.RawMessage `json:"vcardArray"`
	Remarks    []rdapRemark    `json:"remarks"`
	Entities   []rdapEntity    `json:"entities"`
}

type rdapDomain struct {
	Entities []rdapEntity      `json:"entities"`
	Remarks  []rdapRemark      `json:"remarks"`
	Redacted []json.RawMessage `json:"redacted"`
}

// whois asks the RDAP service about the registrable domain of host.
// Any failure is reported as unknown.
func (p *HTTPProvider) whois(ctx context.Context, host string) review.WhoisState {
	if p.config.RDAPURL == "" || host == "" || net.ParseIP(host) != nil {
		return review.WhoisUnknown
	}
	domain := values.RegistrableDomain(host)

	endpoint := strings.TrimRight(p.config.RDAPURL, "/") + "/domain/" + url.PathEscape(domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return review.WhoisUnknown
	}
	req.Header.Set("Accept", "application/rdap+json, application/json")
	req.Header.Set("User-Agent", p.config.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("rdap lookup failed", zap.String("domain", domain), zap.Error(err))
		return review.WhoisUnknown
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return review.WhoisUnknown
	}

	var doc rdapDomain
	if err := json.NewDecoder(io.LimitReader(resp.Body, p.config.MaxBodyBytes)).Decode(&doc); err != nil {
		p.logger.Debug("rdap response unreadable", zap.String("domain", domain), zap.Error(err))
		return review.WhoisUnknown
	}
	return doc.whoisState()
}

func (d rdapDomain) whoisState() review.WhoisState {
	if len(d.Redacted) > 0 || remarksPrivate(d.Remarks) {
		return review.WhoisPrivacyProtected
	}
	registrant, ok := findRegistrant(d.Entities)
	if !ok {
		return review.WhoisUnknown
	}
	if containsMarker(strings.ToLower(string(registrant.VCardArray))) || remarksPrivate(registrant.Remarks) {
		return review.WhoisPrivacyProtected
	}
	return review.WhoisKnown
}

func findRegistrant(entities []rdapEntity) (rdapEntity, bool) {
	for _, e := range entities {
		for _, role := range e.Roles {
			if strings.EqualFold(role, "registrant") {
				return e, true
			}
		}
		if found, ok := findRegistrant(e.Entities); ok {
			return found, true
		}
	}
	return rdapEntity{}, false
}

func remarksPrivate(remarks []rdapRemark) bool {
	for _, r := range remarks {
		if containsMarker(strings.ToLower(r.Title + " " + strings.Join(r.Description, " "))) {
			return true
		}
	}
	return false
}

func containsMarker(text string) bool {
	for _, m := range privacyMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
