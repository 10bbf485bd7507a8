package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"assetsync-service/internal/application"
	"assetsync-service/internal/domain"

	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "assetsync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSnapshotCache_RoundTripKeepsBytes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cache := NewSnapshotCache(openTemp(t))

	_, err := cache.Get(ctx, "AAPL")
	require.ErrorIs(t, err, application.ErrNotFound)

	payload := []byte(`{"symbol":"AAPL",  "price": 1.50}`)
	at := time.Date(2025, 3, 10, 8, 0, 0, 5, time.UTC)
	require.NoError(t, cache.Upsert(ctx, domain.CachedSnapshot{Key: "AAPL", Payload: payload, UpdatedAt: at}))
	require.NoError(t, cache.Upsert(ctx, domain.CachedSnapshot{Key: "grades-historical:AAPL", Payload: []byte(`[]`), UpdatedAt: at}))

	got, err := cache.Get(ctx, "AAPL")
	require.NoError(t, err)
	require.Equal(t, payload, got.Payload)
	require.Equal(t, at, got.UpdatedAt)
}

func TestQuotaStore_IncrementResetsDaily(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewQuotaStore(openTemp(t))
	today := domain.NewDate(2025, 3, 10)

	_, err := store.Increment(ctx, "u1", today)
	require.ErrorIs(t, err, application.ErrNotFound)

	require.NoError(t, store.SetRole(ctx, "u1", domain.RoleFree))
	rec, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Zero(t, rec.CallsMadeToday)
	require.True(t, rec.LastCallDate.IsZero())

	for i := 1; i <= 2; i++ {
		rec, err = store.Increment(ctx, "u1", today)
		require.NoError(t, err)
		require.Equal(t, i, rec.CallsMadeToday)
	}

	rec, err = store.Increment(ctx, "u1", domain.NewDate(2025, 3, 11))
	require.NoError(t, err)
	require.Equal(t, 1, rec.CallsMadeToday)

	require.NoError(t, store.SetRole(ctx, "u1", domain.RolePro))
	rec, err = store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, domain.RolePro, rec.Role)
	require.Equal(t, 1, rec.CallsMadeToday)
}
