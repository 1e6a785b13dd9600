package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *redisIdempotency) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisIdempotencyStore(client, ttl).(*redisIdempotency)
}

func TestAcquireLock_FirstWins(t *testing.T) {
	_, store := newTestStore(t, time.Minute)
	ctx := context.Background()
	id := uuid.New()

	ok, err := store.AcquireLock(ctx, id)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	ok, err = store.AcquireLock(ctx, id)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if ok {
		t.Fatal("expected duplicate to be rejected")
	}

	other, _ := store.AcquireLock(ctx, uuid.New())
	if !other {
		t.Error("locks must be per submission")
	}
}

func TestReleaseLock_KeepsKeyUntilTTL(t *testing.T) {
	mr, store := newTestStore(t, time.Minute)
	ctx := context.Background()
	id := uuid.New()

	store.AcquireLock(ctx, id)
	if err := store.ReleaseLock(ctx, id); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := store.AcquireLock(ctx, id); ok {
		t.Fatal("released lock must still reject redeliveries until it expires")
	}

	mr.FastForward(2 * time.Minute)
	if ok, _ := store.AcquireLock(ctx, id); !ok {
		t.Fatal("expected lock to be acquirable after TTL")
	}
}

func TestDeleteLock_AllowsRetry(t *testing.T) {
	_, store := newTestStore(t, time.Minute)
	ctx := context.Background()
	id := uuid.New()

	store.AcquireLock(ctx, id)
	if err := store.DeleteLock(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := store.AcquireLock(ctx, id); !ok {
		t.Fatal("expected lock to be acquirable after delete")
	}
}

func TestAcquireLock_RedisDown(t *testing.T) {
	mr, store := newTestStore(t, time.Minute)
	mr.Close()

	if _, err := store.AcquireLock(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error when redis is unreachable")
	}
}

func TestDefaultTTL(t *testing.T) {
	_, store := newTestStore(t, 0)
	if store.ttl != DefaultLockTTL {
		t.Errorf("expected default TTL, got %s", store.ttl)
	}
}
