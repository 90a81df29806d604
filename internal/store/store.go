// Package store provides the shared key-value state used for cross-process
// coordination: rate-limit buckets, idempotency records, and the product
// listing cache. All multi-process mutable state goes through this package;
// nothing here assumes multi-key atomicity.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when a key is absent or expired.
var ErrNotFound = errors.New("store: key not found")

// Store is the shared state boundary. Implementations must be safe for
// concurrent use; TakeToken must be atomic with respect to same-key writers.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	GetFields(ctx context.Context, key string) (map[string]string, error)
	SetFields(ctx context.Context, key string, fields map[string]string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// TakeToken performs one token-bucket step for key as a single atomic
	// operation: refill from elapsed time, then spend one token if at least
	// one is available. The bucket's TTL is refreshed either way, so repeated
	// rejections never double-count elapsed time. Returns the remaining
	// token count and whether the request was admitted.
	TakeToken(ctx context.Context, key string, capacity, refillPerSec float64, ttl time.Duration) (remaining float64, allowed bool, err error)
}
