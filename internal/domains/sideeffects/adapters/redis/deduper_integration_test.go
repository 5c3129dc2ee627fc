//go:build integration
// +build integration

package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedisContainer(t *testing.T) (*goredis.Client, func()) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := NewClient(fmt.Sprintf("%s:%s", host, port.Port()))
	cleanup := func() {
		_ = client.Close()
		_ = container.Terminate(ctx)
	}
	return client, cleanup
}

func TestDeduper_SeenOnSecondCall(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client, cleanup := setupRedisContainer(t)
	defer cleanup()

	ctx := context.Background()
	dedup := NewDeduper(client, time.Minute)

	seen, err := dedup.Seen(ctx, "dedup:webhook:evt:sub")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = dedup.Seen(ctx, "dedup:webhook:evt:sub")
	require.NoError(t, err)
	assert.True(t, seen)

	ttl, err := client.TTL(ctx, "dedup:webhook:evt:sub").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestDeduper_KeysExpire(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client, cleanup := setupRedisContainer(t)
	defer cleanup()

	ctx := context.Background()
	dedup := NewDeduper(client, time.Second)

	seen, err := dedup.Seen(ctx, "dedup:notification:evt")
	require.NoError(t, err)
	require.False(t, seen)

	time.Sleep(1500 * time.Millisecond)

	seen, err = dedup.Seen(ctx, "dedup:notification:evt")
	require.NoError(t, err)
	assert.False(t, seen)
}
