package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/zepzep/zepzep-backend/pkg/config"
)

func TestFixedWindowAllowCountsPerScope(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	client := &Client{store: store}

	for i := 1; i <= 2; i++ {
		allowed, count, err := client.FixedWindowAllow(ctx, "redeem:user-1", 2, time.Minute)
		require.NoError(t, err)
		require.True(t, allowed)
		require.EqualValues(t, i, count)
	}
	allowed, count, err := client.FixedWindowAllow(ctx, "redeem:user-1", 2, time.Minute)
	require.NoError(t, err)
	require.False(t, allowed)
	require.EqualValues(t, 3, count)

	require.Equal(t, map[string]int64{"zz:rate_limit:redeem:user-1": time.Minute.Milliseconds()}, store.ttlMillis)

	allowed, _, err = client.FixedWindowAllow(ctx, "redeem:user-2", 2, time.Minute)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestFixedWindowAllowSurfacesScriptErrors(t *testing.T) {
	store := newFakeStore()
	store.evalErr = errors.New("NOSCRIPT")
	client := &Client{store: store}

	allowed, _, err := client.FixedWindowAllow(context.Background(), "s", 1, time.Second)
	require.Error(t, err)
	require.False(t, allowed)
}

func TestReleaseIfOwner(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	client := &Client{store: store}

	ok, err := client.SetNX(ctx, "zz:lock:cron", "owner-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	deleted, err := client.ReleaseIfOwner(ctx, "zz:lock:cron", "owner-b")
	require.NoError(t, err)
	require.False(t, deleted)
	require.Contains(t, store.data, "zz:lock:cron")

	deleted, err = client.ReleaseIfOwner(ctx, "zz:lock:cron", "owner-a")
	require.NoError(t, err)
	require.True(t, deleted)
	require.NotContains(t, store.data, "zz:lock:cron")
}

func TestSetNXGet(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newFakeStore()}

	ok, err := client.SetNX(ctx, "k", "first", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = client.SetNX(ctx, "k", "second", time.Hour)
	require.NoError(t, err)
	require.False(t, ok)

	value, err := client.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "first", value)

	_, err = client.Get(ctx, "missing")
	require.ErrorIs(t, err, redis.Nil)
}

func TestReplaceIfOwner(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	client := &Client{store: store}

	_, err := client.SetNX(ctx, "zz:idempotency:k", "pending-a", time.Minute)
	require.NoError(t, err)

	replaced, err := client.ReplaceIfOwner(ctx, "zz:idempotency:k", "pending-b", "done-b", time.Hour)
	require.NoError(t, err)
	require.False(t, replaced)
	require.Equal(t, "pending-a", store.data["zz:idempotency:k"])

	replaced, err = client.ReplaceIfOwner(ctx, "zz:idempotency:k", "pending-a", "done-a", time.Hour)
	require.NoError(t, err)
	require.True(t, replaced)
	require.Equal(t, "done-a", store.data["zz:idempotency:k"])
	require.Equal(t, time.Hour.Milliseconds(), store.ttlMillis["zz:idempotency:k"])

	_, err = (&Client{}).ReplaceIfOwner(ctx, "k", "o", "v", time.Second)
	require.Error(t, err)
}

func TestKeyspace(t *testing.T) {
	client := &Client{}
	require.Equal(t, "zz:idempotency:scope:id", client.IdempotencyKey("scope", "id"))
	require.Equal(t, "zz:idempotency:id", client.IdempotencyKey("", "id"))
	require.Equal(t, "zz:rate_limit:scope", client.RateLimitKey("scope"))
	require.Equal(t, "zz:lock:cron", client.LockKey(" cron "))

	staging := &Client{keys: "zz-staging"}
	require.Equal(t, "zz-staging:lock:cron", staging.LockKey("cron"))
}

func TestUninitializedClient(t *testing.T) {
	ctx := context.Background()
	client := &Client{}
	require.Error(t, client.Ping(ctx))
	_, err := client.Get(ctx, "k")
	require.Error(t, err)
	_, _, err = client.FixedWindowAllow(ctx, "s", 1, time.Second)
	require.Error(t, err)
	_, err = client.ReleaseIfOwner(ctx, "k", "o")
	require.Error(t, err)
	require.NoError(t, client.Close())
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7})
	require.NoError(t, err)
	require.Equal(t, 2, opts.DB)
	require.Equal(t, 7, opts.PoolSize)

	opts, err = optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379", DB: 3})
	require.NoError(t, err)
	require.Equal(t, 3, opts.DB)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 1, DialTimeout: time.Second})
	require.NoError(t, err)
	require.Equal(t, "cache:6379", opts.Addr)
	require.Equal(t, 1, opts.DB)
	require.Equal(t, time.Second, opts.DialTimeout)

	_, err = optionsFromConfig(config.RedisConfig{URL: "http://nope"})
	require.Error(t, err)
}

// fakeStore interprets the scripts the client sends.
type fakeStore struct {
	data      map[string]string
	counters  map[string]int64
	ttlMillis map[string]int64
	evalErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		data:      map[string]string{},
		counters:  map[string]int64{},
		ttlMillis: map[string]int64{},
	}
}

func (f *fakeStore) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeStore) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeStore) Eval(_ context.Context, script string, keys []string, args ...any) *redis.Cmd {
	if f.evalErr != nil {
		return redis.NewCmdResult(nil, f.evalErr)
	}
	key := keys[0]
	switch script {
	case fixedWindowScript:
		f.counters[key]++
		if f.counters[key] == 1 {
			f.ttlMillis[key] = args[0].(int64)
		}
		return redis.NewCmdResult(f.counters[key], nil)
	case releaseIfOwnerScript:
		if f.data[key] == args[0] {
			delete(f.data, key)
			return redis.NewCmdResult(int64(1), nil)
		}
		return redis.NewCmdResult(int64(0), nil)
	case replaceIfOwnerScript:
		if f.data[key] == args[0] {
			f.data[key] = args[1].(string)
			f.ttlMillis[key] = args[2].(int64)
			return redis.NewCmdResult(int64(1), nil)
		}
		return redis.NewCmdResult(int64(0), nil)
	}
	return redis.NewCmdResult(nil, fmt.Errorf("unexpected script"))
}
