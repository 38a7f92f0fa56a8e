package cache

import (
	"context"
	"testing"
	"time"

	"perfumeshop/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, time.Minute), mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	page := domain.ProductPage{
		Products: []domain.Product{{ID: 1, Name: "Sauvage", Price: decimal.RequireFromString("89.90")}},
		Page:     1,
		PerPage:  12,
		Total:    1,
	}
	require.NoError(t, c.Set(ctx, "products:1", page))
	assert.True(t, mr.Exists("catalog:products:1"))

	ttl := mr.TTL("catalog:products:1")
	assert.GreaterOrEqual(t, ttl, time.Minute)
	assert.Less(t, ttl, 2*time.Minute)

	var got domain.ProductPage
	require.NoError(t, c.Get(ctx, "products:1", &got))
	require.Len(t, got.Products, 1)
	assert.Equal(t, "Sauvage", got.Products[0].Name)
	assert.True(t, got.Products[0].Price.Equal(decimal.RequireFromString("89.90")))
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := setupTestRedis(t)
	var got domain.ProductPage
	assert.ErrorIs(t, c.Get(context.Background(), "nope", &got), ErrCacheMiss)
}

func TestRedisCache_InvalidJSON(t *testing.T) {
	c, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("catalog:broken", "{not json"))

	var got domain.ProductPage
	err := c.Get(context.Background(), "broken", &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_InvalidateDropsOnlyCatalogKeys(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "products:1", 1))
	require.NoError(t, c.Set(ctx, "lookups:brand", 2))
	require.NoError(t, mr.Set("session:other", "keep"))

	require.NoError(t, c.Invalidate(ctx))
	assert.False(t, mr.Exists("catalog:products:1"))
	assert.False(t, mr.Exists("catalog:lookups:brand"))
	assert.True(t, mr.Exists("session:other"))

	require.NoError(t, c.Invalidate(ctx))
}

func TestRedisCache_ServerDown(t *testing.T) {
	c, mr := setupTestRedis(t)
	mr.Close()
	var got int
	err := c.Get(context.Background(), "k", &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", 1))
	var got int
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
	assert.NoError(t, c.Invalidate(ctx))
}
