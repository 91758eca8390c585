package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/releasedesk/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestSetNXOnlyWritesOnce(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	key := client.IdempotencyKey("POST /api/v1/wizards", "abc")
	ok, err := client.SetNX(ctx, key, "first", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = client.SetNX(ctx, key, "second", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	value, err := client.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "first", value)
	require.Equal(t, time.Minute, mock.ttl[key])

	require.NoError(t, client.Set(ctx, key, "final", time.Hour))
	value, err = client.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "final", value)
	require.Equal(t, time.Hour, mock.ttl[key], "set replaces the ttl")

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	require.ErrorIs(t, err, ErrMiss)
}

func TestZeroClientReportsNotInitialized(t *testing.T) {
	ctx := context.Background()
	client := &Client{}

	_, err := client.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotInitialized)
	_, err = client.SetNX(ctx, "k", "v", time.Second)
	require.ErrorIs(t, err, ErrNotInitialized)
	require.ErrorIs(t, client.Set(ctx, "k", "v", time.Second), ErrNotInitialized)
	require.ErrorIs(t, client.Del(ctx, "k"), ErrNotInitialized)
	require.ErrorIs(t, client.Ping(ctx), ErrNotInitialized)
	require.NoError(t, client.Close())
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	require.Equal(t, "rd:idempotency:scope:id", client.IdempotencyKey("scope", "id"))
	require.Equal(t, "rd:idempotency:id", client.IdempotencyKey(" ", "id"), "empty parts are skipped")
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{
		Address:     "localhost:6380",
		Password:    "secret",
		DB:          2,
		PoolSize:    7,
		DialTimeout: time.Second,
	})
	require.NoError(t, err)
	require.Equal(t, "localhost:6380", opts.Addr)
	require.Equal(t, "secret", opts.Password)
	require.Equal(t, 2, opts.DB)
	require.Equal(t, 7, opts.PoolSize)
	require.Equal(t, time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/3", PoolSize: 4})
	require.NoError(t, err)
	require.Equal(t, 3, opts.DB)
	require.Equal(t, 4, opts.PoolSize)

	_, err = optionsFromConfig(config.RedisConfig{URL: "ftp://nope"})
	require.Error(t, err)
}

type mockCmdable struct {
	data map[string]string
	ttl  map[string]time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		ttl:  make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	m.ttl[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	m.ttl[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
