// Package cache provides the cache store abstraction and the versioned
// invalidation registry used by the read paths.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCounterNotInitialized is returned by Increment when the counter key
// does not exist yet.
var ErrCounterNotInitialized = errors.New("counter not initialized")

// Store is the cache backend contract. Get returns (nil, nil) on a miss.
// Increment must fail with ErrCounterNotInitialized rather than create the
// key; the version registry depends on that to detect first use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	GetInt64(ctx context.Context, key string) (int64, bool, error)
	SetInt64(ctx context.Context, key string, value int64) error
	SetInt64NX(ctx context.Context, key string, value int64) (bool, error)
	Increment(ctx context.Context, key string) (int64, error)
}
