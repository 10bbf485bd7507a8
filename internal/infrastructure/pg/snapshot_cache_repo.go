package pg

import (
	"context"
	"errors"

	"assetsync-service/internal/application"
	"assetsync-service/internal/domain"
	"assetsync-service/internal/infrastructure/logx"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// SnapshotCacheRepo stores payloads in a json column, which keeps the text as written.
type SnapshotCacheRepo struct{ db *DB }

var _ application.SnapshotCache = (*SnapshotCacheRepo)(nil)

func NewSnapshotCacheRepo(db *DB) *SnapshotCacheRepo { return &SnapshotCacheRepo{db: db} }

func (r *SnapshotCacheRepo) Get(ctx context.Context, key string) (domain.CachedSnapshot, error) {
	const q = `SELECT key, payload::text, updated_at FROM snapshot_cache WHERE key=$1`
	log := logx.L().With(
		zap.String("repo", "snapshot_cache"),
		zap.String("operation", "Get"),
		zap.String("key", key),
	)
	var (
		out     domain.CachedSnapshot
		payload string
	)
	err := r.db.Pool.QueryRow(ctx, q, key).Scan(&out.Key, &payload, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debug("sql.query_no_rows")
		return domain.CachedSnapshot{}, application.ErrNotFound
	}
	if err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return domain.CachedSnapshot{}, err
	}
	out.Payload = []byte(payload)
	out.UpdatedAt = out.UpdatedAt.UTC()
	return out, nil
}

func (r *SnapshotCacheRepo) Upsert(ctx context.Context, s domain.CachedSnapshot) error {
	const up = `
        INSERT INTO snapshot_cache(key, payload, updated_at)
        VALUES ($1, $2::json, $3)
        ON CONFLICT (key) DO UPDATE
          SET payload=EXCLUDED.payload, updated_at=EXCLUDED.updated_at`
	log := logx.L().With(
		zap.String("repo", "snapshot_cache"),
		zap.String("operation", "Upsert"),
		zap.String("key", s.Key),
		zap.Int("payload_bytes", len(s.Payload)),
	)
	log.Debug("sql.exec_start")
	tag, err := r.db.Pool.Exec(ctx, up, s.Key, string(s.Payload), s.UpdatedAt)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return err
	}
	log.Debug("sql.exec_success", zap.Int64("rows_affected", tag.RowsAffected()))
	return nil
}
