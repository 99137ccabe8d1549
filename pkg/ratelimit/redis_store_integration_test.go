//go:build integration

package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T, ctx context.Context) string {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

func TestRedisStore_FixedWindow(t *testing.T) {
	ctx := context.Background()
	store, err := NewRedisStore(ctx, RedisConfig{URL: setupRedis(t, ctx), Prefix: "test:"})
	require.NoError(t, err)
	defer store.Close()

	for i := int64(1); i <= 3; i++ {
		hit, err := store.Hit(ctx, "k", 500*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, i, hit.Count)
	}

	time.Sleep(600 * time.Millisecond)
	hit, err := store.Hit(ctx, "k", 500*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), hit.Count, "window should have expired")
}

func TestRedisStore_LaterHitsKeepTheWindow(t *testing.T) {
	ctx := context.Background()
	store, err := NewRedisStore(ctx, RedisConfig{URL: setupRedis(t, ctx), Prefix: "test:"})
	require.NoError(t, err)
	defer store.Close()

	first, err := store.Hit(ctx, "w", 2*time.Second)
	require.NoError(t, err)
	time.Sleep(300 * time.Millisecond)
	second, err := store.Hit(ctx, "w", 2*time.Second)
	require.NoError(t, err)

	assert.Equal(t, int64(2), second.Count)
	assert.WithinDuration(t, first.ResetAt, second.ResetAt, 100*time.Millisecond,
		"the second hit must not push the expiry out")
}

func TestRedisStore_LimiterIntegration(t *testing.T) {
	ctx := context.Background()
	store, err := NewRedisStore(ctx, RedisConfig{URL: setupRedis(t, ctx)})
	require.NoError(t, err)
	defer store.Close()

	a := New(LoginConfig(), store)
	b := New(LoginConfig(), store)

	hitsA, hitsB := 0, 0
	for i := 0; i < 3; i++ {
		if a.Check(newLoginRequest(), "") == nil {
			hitsA++
		}
		if b.Check(newLoginRequest(), "") == nil {
			hitsB++
		}
	}
	assert.Equal(t, 5, hitsA+hitsB, "two instances share the same counter")
}

func newLoginRequest() *http.Request {
	return httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
}
