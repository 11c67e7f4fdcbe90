package sale_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sales-backoffice/internal/sale"
)

func newCache(t *testing.T) (*sale.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return sale.NewCache(client, time.Minute), mr
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()

	s := sale.Sale{
		ID:         uuid.New(),
		CustomerID: "customer-1",
		BranchID:   "branch-1",
		Items: []sale.Item{
			{ID: uuid.New(), ProductID: "product-a", Qty: 5, UnitPrice: 1000, TotalPrice: 4500, Percent: 10, CreatedAt: testNow},
		},
		Subtotal:    5000,
		Discount:    500,
		DiscountBps: 1000,
		Total:       4500,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}

	_, ok, err := cache.Get(ctx, s.ID)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Set(ctx, s))

	got, ok, err := cache.Get(ctx, s.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, s.Total, got.Total)
	require.Equal(t, s.Items, got.Items)
}

func TestCacheDrop(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()

	s := sale.Sale{ID: uuid.New(), Total: 100}
	require.NoError(t, cache.Set(ctx, s))
	require.NoError(t, cache.Drop(ctx, s.ID))

	_, ok, err := cache.Get(ctx, s.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	cache, mr := newCache(t)
	ctx := context.Background()

	s := sale.Sale{ID: uuid.New(), Total: 100}
	require.NoError(t, cache.Set(ctx, s))

	mr.FastForward(2 * time.Minute)

	_, ok, err := cache.Get(ctx, s.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheNilIsNoop(t *testing.T) {
	var cache *sale.Cache
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, sale.Sale{ID: uuid.New()}))
	_, ok, err := cache.Get(ctx, uuid.New())
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, cache.Drop(ctx, uuid.New()))
}
