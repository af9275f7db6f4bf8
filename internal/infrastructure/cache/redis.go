package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domainErrors "github.com/edugauravkumar-afk/Fraud-Agent/internal/domain/errors"
	"github.com/edugauravkumar-afk/Fraud-Agent/internal/infrastructure/config"
)

type redisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCache connects to cfg.URL, either host:port or a redis:// URL, and
// pings it before returning.
func NewRedisCache(cfg *config.RedisConfig, logger *zap.Logger) (Cache, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, domainErrors.NewConfigurationError("REDIS_URL_REQUIRED", "redis.url is required for the intel cache")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, domainErrors.NewExternalError("redis", "ping failed").WithCause(err)
	}

	logger.Info("redis cache connected",
		zap.String("addr", opts.Addr),
		zap.Int("db", opts.DB),
		zap.Int("pool_size", opts.PoolSize))

	return &redisCache{client: client, logger: logger}, nil
}

func clientOptions(cfg *config.RedisConfig) (*redis.Options, error) {
	opts := &redis.Options{Addr: cfg.URL}
	if strings.Contains(cfg.URL, "://") {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, domainErrors.NewConfigurationError("INVALID_REDIS_URL", "redis.url is not a valid redis URL").WithCause(err)
		}
		opts = parsed
	}

	// Explicit settings win over the URL's.
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.MaxRetries = cfg.MaxRetries
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout
	opts.DialTimeout = cfg.DialTimeout
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	return opts, nil
}

// Load treats an undecodable entry as a miss and removes it, so a format
// change never pins a bad value until its ttl runs out.
func (r *redisCache) Load(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, domainErrors.NewExternalError("redis", "get failed").WithCause(err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		r.logger.Warn("dropping unreadable cache entry", zap.String("key", key), zap.Error(err))
		if delErr := r.client.Del(ctx, key).Err(); delErr != nil {
			return false, domainErrors.NewExternalError("redis", "delete failed").WithCause(delErr)
		}
		return false, nil
	}
	return true, nil
}

func (r *redisCache) Store(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return domainErrors.NewInternalError("cache value is not JSON encodable").WithCause(err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return domainErrors.NewExternalError("redis", "set failed").WithCause(err)
	}
	return nil
}

func (r *redisCache) Close() error {
	return r.client.Close()
}
