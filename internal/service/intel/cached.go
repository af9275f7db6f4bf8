package intel

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/infrastructure/cache"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/metrics"
)

// CachedProvider serves repeated lookups from the cache. Only usable
// results are stored so a transient outage is retried on the next review.
type CachedProvider struct {
	next    Provider
	cache   cache.Cache
	ttl     time.Duration
	logger  *zap.Logger
	metrics *metrics.Registry
}

// NewCachedProvider wraps next with c. A non-positive ttl uses cache.IntelTTL.
func NewCachedProvider(next Provider, c cache.Cache, ttl time.Duration, logger *zap.Logger, m *metrics.Registry) *CachedProvider {
	if ttl <= 0 {
		ttl = cache.IntelTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProvider{
		next:    next,
		cache:   c,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
	}
}

func (c *CachedProvider) Name() string { return c.next.Name() }

func (c *CachedProvider) Lookup(ctx context.Context, rawURL string) Result {
	key := cacheKey(c.next.Name(), rawURL)

	var cached Result
	found, err := c.cache.Load(ctx, key, &cached)
	switch {
	case err != nil:
		c.metrics.RecordIntelCache("error")
		c.logger.Warn("intel cache read failed", zap.String("key", key), zap.Error(err))
	case found:
		c.metrics.RecordIntelCache("hit")
		return cached
	default:
		c.metrics.RecordIntelCache("miss")
	}

	res := c.next.Lookup(ctx, rawURL)
	if !res.Usable() {
		return res
	}
	if err := c.cache.Store(ctx, key, res, c.ttl); err != nil {
		c.metrics.RecordIntelCache("error")
		c.logger.Warn("intel cache write failed", zap.String("key", key), zap.Error(err))
	}
	return res
}

func cacheKey(provider, rawURL string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(rawURL))))
	return cache.Key("intel", provider, hex.EncodeToString(sum[:16]))
}
