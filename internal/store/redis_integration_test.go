package store

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

var (
	testRedisURL   string
	redisContainer testcontainers.Container
)

func TestMain(m *testing.M) {
	flag.Parse()

	// Skip container setup if running in short mode
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var err error
	redisContainer, err = tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis container: %v\n", err)
		os.Exit(1)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get redis endpoint: %v\n", err)
		os.Exit(1)
	}
	testRedisURL = "redis://" + endpoint

	code := m.Run()
	if err := redisContainer.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate redis container: %v\n", err)
	}
	os.Exit(code)
}

func setupRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s, err := NewRedisStore(testRedisURL)
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisStore_SetGetExists(t *testing.T) {
	s := setupRedisStore(t)
	ctx := context.Background()
	key := "it:setget:" + t.Name()

	require.NoError(t, s.SetWithTTL(ctx, key, []byte("payload"), time.Minute))

	value, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("payload"), value)

	exists, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRedisStore_GetMissing(t *testing.T) {
	s := setupRedisStore(t)
	_, found, err := s.Get(context.Background(), "it:missing:"+t.Name())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	s := setupRedisStore(t)
	ctx := context.Background()
	key := "it:ttl:" + t.Name()

	require.NoError(t, s.SetWithTTL(ctx, key, []byte("v"), time.Second))

	time.Sleep(1500 * time.Millisecond)
	exists, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRedisStore_KeysByPrefix(t *testing.T) {
	s := setupRedisStore(t)
	ctx := context.Background()
	prefix := "it:prefix:" + t.Name() + ":"

	require.NoError(t, s.SetWithTTL(ctx, prefix+"a", []byte("1"), time.Minute))
	require.NoError(t, s.SetWithTTL(ctx, prefix+"b", []byte("2"), time.Minute))

	keys, err := s.KeysByPrefix(ctx, prefix)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{prefix + "a", prefix + "b"}, keys)
}
