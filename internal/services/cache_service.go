package services

import (
	"context"
	"fmt"
	"time"

	"happyshaa/pkg/cache"
	"happyshaa/pkg/logger"

	"github.com/google/uuid"
)

// CacheService wraps the configured cache backend with the lock helpers
// used for the per-user monitoring lease.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	Lock(ctx context.Context, key string, expiration time.Duration) (*DistributedLock, error)
	Refresh(ctx context.Context, lock *DistributedLock) error
	Unlock(ctx context.Context, lock *DistributedLock) error
}

type DistributedLock struct {
	Key        string        `json:"key"`
	Value      string        `json:"value"`
	Expiration time.Duration `json:"expiration"`
	CreatedAt  time.Time     `json:"created_at"`
}

type cacheService struct {
	cache  cache.Cache
	logger *logger.Logger
}

func NewCacheService(c cache.Cache, log *logger.Logger) CacheService {
	if log == nil {
		log = logger.Nop()
	}
	return &cacheService{
		cache:  c,
		logger: log.WithField("component", "cache"),
	}
}

func (s *cacheService) Get(ctx context.Context, key string, dest interface{}) error {
	return s.cache.Get(ctx, key, dest)
}

func (s *cacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return s.cache.Set(ctx, key, value, expiration)
}

func (s *cacheService) Delete(ctx context.Context, keys ...string) error {
	return s.cache.Delete(ctx, keys...)
}

func (s *cacheService) Lock(ctx context.Context, key string, expiration time.Duration) (*DistributedLock, error) {
	lockKey := fmt.Sprintf("lock:%s", key)
	lockValue := uuid.NewString()

	ok, err := s.cache.SetNX(ctx, lockKey, lockValue, expiration)
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	return &DistributedLock{
		Key:        lockKey,
		Value:      lockValue,
		Expiration: expiration,
		CreatedAt:  time.Now(),
	}, nil
}

func (s *cacheService) Refresh(ctx context.Context, lock *DistributedLock) error {
	ok, err := s.cache.ExpireIfEquals(ctx, lock.Key, lock.Value, lock.Expiration)
	if err != nil {
		return fmt.Errorf("refresh lock %s: %w", lock.Key, err)
	}
	if !ok {
		return ErrLockLost
	}
	return nil
}

func (s *cacheService) Unlock(ctx context.Context, lock *DistributedLock) error {
	ok, err := s.cache.DeleteIfEquals(ctx, lock.Key, lock.Value)
	if err != nil {
		return fmt.Errorf("release lock %s: %w", lock.Key, err)
	}
	if !ok {
		s.logger.WithField("key", lock.Key).Warn("Lock expired before release")
	}
	return nil
}
