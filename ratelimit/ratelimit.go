// Package ratelimit implements per-key token buckets.
package ratelimit

import "context"

// Limiter reports whether one more request under key fits in its bucket.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
