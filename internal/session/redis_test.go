package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rishicodesforfun/menta-question/internal/domain"
)

func TestNewRedisStore_BadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), domain.RedisConfig{URL: "not a url"}, time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse Redis URL")
}

func TestRedisStore_Integration(t *testing.T) {
	integration(t)
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
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Redis container: %v", err)
		}
	}()

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	store, err := NewRedisStore(ctx, domain.RedisConfig{URL: "redis://" + endpoint, KeyPrefix: "test:"}, time.Hour)
	require.NoError(t, err)
	defer store.Close()

	testStoreContract(t, store)

	t.Run("ttl", func(t *testing.T) {
		short := NewRedisStoreFromClient(store.client, "ttl:", time.Second)
		s := New("gad-7", 7)
		require.NoError(t, short.Create(ctx, s))

		time.Sleep(1500 * time.Millisecond)
		_, err := short.Get(ctx, s.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
