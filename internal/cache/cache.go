// Package cache provides a small JSON cache used for expensive reads
// such as mood-trend aggregations. A cache miss is never an error.
package cache

import (
	"context"
	"time"
)

const (
	// DefaultTTL bounds how stale a cached aggregate may get. Writes
	// invalidate eagerly, so the TTL only covers missed invalidations.
	DefaultTTL = 15 * time.Minute
	// MinTTL and MaxTTL clamp caller-supplied TTLs.
	MinTTL = time.Minute
	MaxTTL = time.Hour
)

// Cache stores JSON-encodable values under string keys.
type Cache interface {
	// Get unmarshals the cached value into dest. The bool reports a hit.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set stores the value with the given TTL, clamped to [MinTTL, MaxTTL].
	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	// Delete removes a key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

func clampTTL(ttl time.Duration) time.Duration {
	if ttl < MinTTL {
		return MinTTL
	}
	if ttl > MaxTTL {
		return MaxTTL
	}
	return ttl
}
