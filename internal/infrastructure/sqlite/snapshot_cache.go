package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"assetsync-service/internal/application"
	"assetsync-service/internal/domain"
)

type SnapshotCache struct{ db *DB }

var _ application.SnapshotCache = (*SnapshotCache)(nil)

func NewSnapshotCache(db *DB) *SnapshotCache { return &SnapshotCache{db: db} }

func (c *SnapshotCache) Get(ctx context.Context, key string) (domain.CachedSnapshot, error) {
	var (
		payload string
		nanos   int64
	)
	err := c.db.SQL.QueryRowContext(ctx,
		`SELECT payload, updated_at FROM snapshot_cache WHERE key = ?`, key,
	).Scan(&payload, &nanos)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CachedSnapshot{}, application.ErrNotFound
	}
	if err != nil {
		return domain.CachedSnapshot{}, err
	}
	return domain.CachedSnapshot{Key: key, Payload: []byte(payload), UpdatedAt: time.Unix(0, nanos).UTC()}, nil
}

func (c *SnapshotCache) Upsert(ctx context.Context, s domain.CachedSnapshot) error {
	_, err := c.db.SQL.ExecContext(ctx, `
		INSERT INTO snapshot_cache(key, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		s.Key, string(s.Payload), s.UpdatedAt.UnixNano(),
	)
	return err
}
