// Package kv abstracts the shared key-value store used by the changelog
// archive and the abuse guards. A Redis-backed store is used when Redis
// is configured; otherwise an in-process map serves as a degraded
// fallback (consistent only within one instance).
package kv

import (
	"context"
	"time"
)

// Store is the capability required from a backing key-value store.
// TTL of zero means no expiration.
type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put stores a value, replacing any existing one.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
