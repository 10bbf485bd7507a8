package application

import (
	"context"
	"encoding/json"
	"time"

	"assetsync-service/internal/domain"
)

// SnapshotCache is the persisted snapshot store. Get returns ErrNotFound for unknown keys.
type SnapshotCache interface {
	Get(ctx context.Context, key string) (domain.CachedSnapshot, error)
	Upsert(ctx context.Context, s domain.CachedSnapshot) error
}

// QuotaStore persists per-user quota records. Increment must apply the same-day/reset rule
// atomically in the store.
type QuotaStore interface {
	Get(ctx context.Context, userID string) (domain.QuotaRecord, error)
	Increment(ctx context.Context, userID string, today domain.Date) (domain.QuotaRecord, error)
	SetRole(ctx context.Context, userID string, role domain.Role) error
}

// MarketDataProvider performs one upstream endpoint call for a symbol and returns the raw body.
type MarketDataProvider interface {
	Fetch(ctx context.Context, endpoint domain.Endpoint, symbol domain.Symbol) (json.RawMessage, error)
}

// CacheWriter persists snapshots without making the caller wait for the store.
type CacheWriter interface {
	Persist(ctx context.Context, s domain.CachedSnapshot)
}

// Observer receives pipeline events for metrics.
type Observer interface {
	SnapshotServed(tier domain.Tier, fromCache bool, notice *domain.Notice)
	QuotaDenied()
	UpstreamCall(endpoint domain.Endpoint, took time.Duration, err error)
}

type SnapshotGetter interface {
	GetSnapshot(ctx context.Context, req SnapshotRequest) (SnapshotResult, error)
}
