package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache stores JSON encoded values. Implementations must make SetNX and
// the *IfEquals operations atomic so they can back a lease.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	// ExpireIfEquals extends the TTL only while key still holds value.
	ExpireIfEquals(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	// DeleteIfEquals removes key only while it still holds value.
	DeleteIfEquals(ctx context.Context, key string, value interface{}) (bool, error)
	Close() error
}
