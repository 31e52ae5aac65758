package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/pos-store/internal/config"
	"github.com/magabrotheeeer/pos-store/internal/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
		CacheTTL:     time.Minute,
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGetProduct(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	owner, id := uuid.New(), uuid.New()
	expected := models.Product{
		ID:       id,
		UserID:   owner,
		Name:     "Cola",
		PriceUSD: decimal.RequireFromString("1.25"),
		Stock:    4,
		MinStock: models.DefaultMinStock,
	}
	key := ProductKey(owner, id)
	require.NoError(t, cache.Set(ctx, key, expected, 0))

	var actual models.Product
	found, err := cache.Get(ctx, key, &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected.ID, actual.ID)
	assert.Equal(t, expected.UserID, actual.UserID)
	assert.True(t, expected.PriceUSD.Equal(actual.PriceUSD))
}

func TestSetUsesDefaultTTL(t *testing.T) {
	cache, mr := setupTestCache(t)

	require.NoError(t, cache.Set(context.Background(), "key", "value", 0))
	assert.Equal(t, time.Minute, mr.TTL("key"))

	mr.FastForward(2 * time.Minute)
	var out string
	found, err := cache.Get(context.Background(), "key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestProductKeyIsPerOwner(t *testing.T) {
	id := uuid.New()
	assert.NotEqual(t, ProductKey(uuid.New(), id), ProductKey(uuid.New(), id))
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out models.Product
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", "value", time.Minute))
	require.NoError(t, cache.Invalidate(ctx, "key"))

	var out string
	found, err := cache.Get(ctx, "key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetInvalidJSON(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.DB.Set(ctx, "bad", []byte("not-json"), time.Minute).Err())

	var out models.Product
	found, err := cache.Get(ctx, "bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestInitServerInvalidAddr(t *testing.T) {
	cfg := config.RedisConnection{
		AddressRedis: "127.0.0.1:1",
		DialTimeout:  100 * time.Millisecond,
	}

	cache, err := InitServer(context.Background(), cfg)
	assert.Nil(t, cache)
	assert.Error(t, err)
}
