package services

import (
	"context"
	"fmt"
	"time"

	"vxness/internal/utils"
	"vxness/pkg/cache"
	"vxness/pkg/logger"

	"github.com/google/uuid"
)

// CacheService is the shared Redis surface: plain key caching plus the
// distributed locks that serialize balance mutations per account.
type CacheService interface {
	// Basic cache operations
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)

	// Lock operations
	Lock(ctx context.Context, key string, expiration time.Duration) (*DistributedLock, error)
	Unlock(ctx context.Context, lock *DistributedLock) error

	// Health
	Ping(ctx context.Context) error
}

type DistributedLock struct {
	Key        string        `json:"key"`
	Value      string        `json:"value"`
	Expiration time.Duration `json:"expiration"`
	CreatedAt  time.Time     `json:"created_at"`
}

// WalletLockKey and PartnerLockKey name the per-account mutex keys. Every
// balance mutation on the same account must go through the same key.
func WalletLockKey(walletID string) string {
	return fmt.Sprintf("lock:wallet:%s", walletID)
}

func PartnerLockKey(partnerID string) string {
	return fmt.Sprintf("lock:partner:%s", partnerID)
}

type cacheService struct {
	redis  *cache.RedisCache
	logger *logger.Logger
}

func NewCacheService(redis *cache.RedisCache, log *logger.Logger) CacheService {
	return &cacheService{
		redis:  redis,
		logger: log,
	}
}

func (s *cacheService) Get(ctx context.Context, key string, dest interface{}) error {
	return s.redis.Get(ctx, key, dest)
}

func (s *cacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return s.redis.Set(ctx, key, value, expiration)
}

func (s *cacheService) Delete(ctx context.Context, keys ...string) error {
	return s.redis.Delete(ctx, keys...)
}

func (s *cacheService) Exists(ctx context.Context, key string) (bool, error) {
	return s.redis.Exists(ctx, key)
}

func (s *cacheService) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return s.redis.SetNX(ctx, key, value, expiration)
}

// Lock acquires a SetNX lock with a unique token, retrying a few times with a
// short backoff before giving up.
func (s *cacheService) Lock(ctx context.Context, key string, expiration time.Duration) (*DistributedLock, error) {
	value := uuid.NewString()

	for attempt := 0; attempt <= utils.AccountLockRetries; attempt++ {
		acquired, err := s.redis.SetNX(ctx, key, value, expiration)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if acquired {
			return &DistributedLock{
				Key:        key,
				Value:      value,
				Expiration: expiration,
				CreatedAt:  time.Now(),
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(utils.AccountLockBackoff):
		}
	}

	return nil, fmt.Errorf("lock %s is held by another operation", key)
}

func (s *cacheService) Unlock(ctx context.Context, lock *DistributedLock) error {
	if lock == nil {
		return nil
	}

	// The stored lock value is JSON-encoded by SetNX.
	released, err := s.redis.ReleaseIfValue(ctx, lock.Key, fmt.Sprintf("%q", lock.Value))
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", lock.Key, err)
	}
	if !released {
		s.logger.WithField("lock_key", lock.Key).Warn("Lock expired before release")
	}

	return nil
}

func (s *cacheService) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx)
}
