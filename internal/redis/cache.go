package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"ridefare/internal/domain"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client    *redis.Client
	policyTTL time.Duration
}

// NewCacheStore creates a new CacheStore. A non-positive policyTTL uses
// DefaultPolicyCacheTTL.
func NewCacheStore(client *redis.Client, policyTTL time.Duration) *CacheStore {
	if policyTTL <= 0 {
		policyTTL = DefaultPolicyCacheTTL
	}
	return &CacheStore{client: client, policyTTL: policyTTL}
}

// DefaultPolicyCacheTTL bounds how stale a snapshot can be on another
// instance that missed the invalidation.
const DefaultPolicyCacheTTL = 60 * time.Second

const policyCacheKey = "cache:policy:deductions"

// GetPolicy retrieves the cached policy snapshot. A miss returns (nil, nil).
func (s *CacheStore) GetPolicy(ctx context.Context) (*domain.PolicySnapshot, error) {
	data, err := s.client.Get(ctx, policyCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var policy domain.PolicySnapshot
	if err := json.Unmarshal(data, &policy); err != nil {
		return nil, err
	}
	return &policy, nil
}

// SetPolicy stores the policy snapshot.
func (s *CacheStore) SetPolicy(ctx context.Context, policy *domain.PolicySnapshot) error {
	data, err := json.Marshal(policy)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, policyCacheKey, data, s.policyTTL).Err()
}

// InvalidatePolicy removes the cached snapshot.
func (s *CacheStore) InvalidatePolicy(ctx context.Context) error {
	return s.client.Del(ctx, policyCacheKey).Err()
}
