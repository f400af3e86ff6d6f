package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultLockTTL = 25 * time.Hour

// ErrLeaseLost reports that the lock expired and may now belong to another
// worker by the time the cycle finished.
var ErrLeaseLost = errors.New("cron lock lease lost")

// Lock keeps a cycle from running on two cron workers at once. TryAcquire
// returns a nil Lease when another worker holds the lock.
type Lock interface {
	TryAcquire(ctx context.Context) (Lease, error)
}

type Lease interface {
	Release(ctx context.Context) error
}

// lockStore is implemented by pkg/redis.Client.
type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ReleaseIfOwner(ctx context.Context, key, owner string) (bool, error)
}

// RedisLock is a single key lock with a TTL, so a crashed worker frees it
// once the TTL passes.
type RedisLock struct {
	store lockStore
	key   string
	ttl   time.Duration
}

func NewRedisLock(store lockStore, key string, ttl time.Duration) (*RedisLock, error) {
	switch {
	case store == nil:
		return nil, errors.New("redis client required for lock")
	case key == "":
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl}, nil
}

func (l *RedisLock) TryAcquire(ctx context.Context) (Lease, error) {
	token := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if !ok {
		return nil, nil
	}
	return &redisLease{store: l.store, key: l.key, token: token}, nil
}

type redisLease struct {
	store lockStore
	key   string
	token string
}

func (l *redisLease) Release(ctx context.Context) error {
	deleted, err := l.store.ReleaseIfOwner(ctx, l.key, l.token)
	if err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	if !deleted {
		return ErrLeaseLost
	}
	return nil
}
