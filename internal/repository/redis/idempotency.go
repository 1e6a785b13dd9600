package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Harsh-BH/sentinel-judge/internal/repository"
)

var _ repository.IdempotencyStore = (*redisIdempotency)(nil)

const (
	lockKeyPrefix = "sentinel:judge:lock:"

	// DefaultLockTTL outlives the longest judging run so a redelivery during judging is rejected.
	DefaultLockTTL = 30 * time.Minute
)

type redisIdempotency struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewRedisIdempotencyStore creates a Redis-backed idempotency store using SETNX.
func NewRedisIdempotencyStore(client *goredis.Client, ttl time.Duration) repository.IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &redisIdempotency{client: client, ttl: ttl}
}

// AcquireLock uses Redis SETNX to atomically acquire a processing lock.
func (r *redisIdempotency) AcquireLock(ctx context.Context, submissionID uuid.UUID) (bool, error) {
	ok, err := r.client.SetNX(ctx, lockKey(submissionID), time.Now().Unix(), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: acquire lock: %w", err)
	}
	return ok, nil
}

// ReleaseLock refreshes the TTL on the lock key for eventual cleanup. The key is
// kept so a late redelivery of the same job is still recognised as a duplicate.
func (r *redisIdempotency) ReleaseLock(ctx context.Context, submissionID uuid.UUID) error {
	if err := r.client.Expire(ctx, lockKey(submissionID), r.ttl).Err(); err != nil {
		return fmt.Errorf("redis: release lock: %w", err)
	}
	return nil
}

// DeleteLock removes the lock key.
func (r *redisIdempotency) DeleteLock(ctx context.Context, submissionID uuid.UUID) error {
	if err := r.client.Del(ctx, lockKey(submissionID)).Err(); err != nil {
		return fmt.Errorf("redis: delete lock: %w", err)
	}
	return nil
}

func lockKey(id uuid.UUID) string {
	return lockKeyPrefix + id.String()
}
