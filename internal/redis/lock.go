package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still holds our token, so a
// lock that expired and was taken by another settler is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore guards ride settlement with SETNX locks.
type LockStore struct {
	client *redis.Client
	tokens sync.Map // ride id -> token held by this process
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func rideLockKey(rideID int64) string {
	return fmt.Sprintf("lock:ride:%d", rideID)
}

// AcquireRideLock reports false when another settler holds the ride.
func (s *LockStore) AcquireRideLock(ctx context.Context, rideID int64, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, rideLockKey(rideID), token, ttl).Result()
	if err != nil || !ok {
		return false, err
	}

	s.tokens.Store(rideID, token)
	return true, nil
}

// ReleaseRideLock releases a lock taken by AcquireRideLock. Releasing a lock
// this store does not hold is a no-op.
func (s *LockStore) ReleaseRideLock(ctx context.Context, rideID int64) error {
	token, ok := s.tokens.LoadAndDelete(rideID)
	if !ok {
		return nil
	}
	return releaseScript.Run(ctx, s.client, []string{rideLockKey(rideID)}, token).Err()
}
