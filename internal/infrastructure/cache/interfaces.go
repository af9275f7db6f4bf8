package cache

import (
	"context"
	"strings"
	"time"
)

// Cache keeps JSON-encoded values for a bounded time. A miss is reported
// through the bool, never as an error.
type Cache interface {
	// Load decodes the value under key into dest.
	Load(ctx context.Context, key string, dest interface{}) (bool, error)

	// Store encodes value under key. A non-positive ttl keeps it forever.
	Store(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	Close() error
}

// Namespace prefixes every key written by this service.
const Namespace = "fraud"

// IntelTTL is the default lifetime of a cached intel lookup.
const IntelTTL = 6 * time.Hour

// Key joins parts under Namespace, e.g. fraud:intel:http:3f2a.
func Key(parts ...string) string {
	return Namespace + ":" + strings.Join(parts, ":")
}
