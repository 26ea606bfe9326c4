package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// LocalCache is the in-process fallback used when Redis is disabled.
// Values are stored JSON encoded so both implementations behave alike.
type LocalCache struct {
	mu    sync.Mutex
	cache *gocache.Cache
}

func NewLocalCache(defaultExpiration, cleanupInterval time.Duration) *LocalCache {
	return &LocalCache{
		cache: gocache.New(defaultExpiration, cleanupInterval),
	}
}

func (l *LocalCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	l.cache.Set(key, data, ttl(expiration))
	return nil
}

func (l *LocalCache) Get(ctx context.Context, key string, dest interface{}) error {
	v, ok := l.cache.Get(key)
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(v.([]byte), dest)
}

func (l *LocalCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		l.cache.Delete(k)
	}
	return nil
}

func (l *LocalCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	// Add fails when the key exists and has not expired
	return l.cache.Add(key, data, ttl(expiration)) == nil, nil
}

func (l *LocalCache) ExpireIfEquals(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.cache.Get(key)
	if !ok || !bytes.Equal(current.([]byte), data) {
		return false, nil
	}
	l.cache.Set(key, data, ttl(expiration))
	return true, nil
}

func (l *LocalCache) DeleteIfEquals(ctx context.Context, key string, value interface{}) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.cache.Get(key)
	if !ok || !bytes.Equal(current.([]byte), data) {
		return false, nil
	}
	l.cache.Delete(key)
	return true, nil
}

func (l *LocalCache) Close() error {
	l.cache.Flush()
	return nil
}

// go-cache treats 0 as "use the default expiration"; callers mean "never".
func ttl(d time.Duration) time.Duration {
	if d <= 0 {
		return gocache.NoExpiration
	}
	return d
}
