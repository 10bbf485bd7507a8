package redisstore_test

import (
	"context"
	"testing"
	"time"

	"assetsync-service/internal/application"
	"assetsync-service/internal/domain"
	redisstore "assetsync-service/internal/infrastructure/redis"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSnapshotCache_RoundTrip(t *testing.T) {
	mr, client := newClient(t)
	cache := redisstore.NewSnapshotCache(client, time.Hour)
	ctx := context.Background()

	_, err := cache.Get(ctx, "AAPL")
	require.ErrorIs(t, err, application.ErrNotFound)

	payload := []byte(`{"symbol":"AAPL",  "price": 1.50}`)
	at := time.Date(2025, 3, 10, 8, 0, 0, 123, time.UTC)
	require.NoError(t, cache.Upsert(ctx, domain.CachedSnapshot{Key: "AAPL", Payload: payload, UpdatedAt: at}))

	got, err := cache.Get(ctx, "AAPL")
	require.NoError(t, err)
	require.Equal(t, payload, got.Payload)
	require.Equal(t, at, got.UpdatedAt)

	mr.FastForward(2 * time.Hour)
	_, err = cache.Get(ctx, "AAPL")
	require.ErrorIs(t, err, application.ErrNotFound)
}

func TestQuotaStore_Increment(t *testing.T) {
	_, client := newClient(t)
	store := redisstore.NewQuotaStore(client)
	ctx := context.Background()
	today := domain.NewDate(2025, 3, 10)

	_, err := store.Increment(ctx, "u1", today)
	require.ErrorIs(t, err, application.ErrNotFound)
	_, err = store.Get(ctx, "u1")
	require.ErrorIs(t, err, application.ErrNotFound)

	require.NoError(t, store.SetRole(ctx, "u1", domain.RolePro))
	for i := 1; i <= 3; i++ {
		rec, err := store.Increment(ctx, "u1", today)
		require.NoError(t, err)
		require.Equal(t, i, rec.CallsMadeToday)
		require.Equal(t, domain.RolePro, rec.Role)
	}

	rec, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 3, rec.CallsMadeToday)
	require.True(t, rec.LastCallDate.Equal(today.Time))

	rec, err = store.Increment(ctx, "u1", domain.NewDate(2025, 3, 11))
	require.NoError(t, err)
	require.Equal(t, 1, rec.CallsMadeToday)

	require.NoError(t, store.SetRole(ctx, "u1", domain.RoleAdmin))
	rec, err = store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, rec.Role)
	require.Equal(t, 1, rec.CallsMadeToday)
}
