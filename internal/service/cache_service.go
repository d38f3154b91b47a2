package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/ojt-portal-api/pkg/errors"
)

type cacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService adapts the Redis-backed cache repository into the hit/miss
// shape the domain services consume. Cache failures other than a miss are
// logged and treated as misses so Redis outages never break reads.
type CacheService struct {
	store  cacheStore
	logger *zap.Logger
}

// NewCacheService constructs a CacheService.
func NewCacheService(store cacheStore, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{store: store, logger: logger}
}

// Get reports whether the key was found and, if so, fills dest.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if s.store == nil {
		return false, nil
	}
	if err := s.store.Get(ctx, key, dest); err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false, nil
	}
	return true, nil
}

// Set stores value under key for ttl.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.store == nil {
		return nil
	}
	return s.store.Set(ctx, key, value, ttl)
}

// Invalidate removes every key matching the pattern. A bare key works as
// its own pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if s.store == nil {
		return nil
	}
	return s.store.DeleteByPattern(ctx, pattern)
}
