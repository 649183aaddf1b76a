package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test")
	}

	ctx := context.Background()

	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)

	uri, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	require.NoError(t, client.Ping(ctx).Err())

	return client, func() {
		_ = client.Close()
		_ = redisContainer.Terminate(ctx)
	}
}

// cartStoreContract exercises the behaviour every CartRepository must share.
func cartStoreContract(t *testing.T, repo CartRepository) {
	ctx := context.Background()

	empty, err := repo.Get(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, "buyer-1", empty.BuyerID)
	assert.Empty(t, empty.Lines)

	cart := model.NewCart("buyer-1")
	cart.Lines["P001"] = 3
	cart.Lines["P002|%7B%22Size%22%3A%7B%22label%22%3A%22XL%22%7D%7D"] = 1
	cart.Lines["P003"] = 0
	require.NoError(t, repo.Save(ctx, cart))

	got, err := repo.Get(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		"P001": 3,
		"P002|%7B%22Size%22%3A%7B%22label%22%3A%22XL%22%7D%7D": 1,
	}, got.Lines)
	assert.WithinDuration(t, time.Now(), got.UpdatedAt, time.Minute)

	// Last writer wins: the whole ledger is replaced.
	replacement := model.NewCart("buyer-1")
	replacement.Lines["P009"] = 1
	require.NoError(t, repo.Save(ctx, replacement))

	got, err = repo.Get(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"P009": 1}, got.Lines)

	other, err := repo.Get(ctx, "buyer-2")
	require.NoError(t, err)
	assert.Empty(t, other.Lines, "carts are isolated per buyer")

	require.NoError(t, repo.Delete(ctx, "buyer-1"))
	got, err = repo.Get(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Empty(t, got.Lines)
}

func TestCartRepository_Postgres(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	cartStoreContract(t, NewCartRepository(pool, zerolog.Nop()))
}

func TestCartRepository_Redis(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cartStoreContract(t, NewRedisCartRepository(client, time.Hour, zerolog.Nop()))
}

func TestCartRepository_RedisTTL(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewRedisCartRepository(client, 10*time.Minute, zerolog.Nop())

	cart := model.NewCart("buyer-ttl")
	cart.Lines["P001"] = 1
	require.NoError(t, repo.Save(ctx, cart))

	ttl, err := client.TTL(ctx, cartItemsKey("buyer-ttl")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 10*time.Minute)
}
