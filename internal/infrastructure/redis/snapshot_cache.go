package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"assetsync-service/internal/application"
	"assetsync-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	snapshotPrefix = "snapshot:"
	fieldPayload   = "payload"
	fieldUpdatedAt = "updated_at"
)

// SnapshotCache keeps one hash per cache key. A zero TTL keeps rows forever.
type SnapshotCache struct {
	Client *redis.Client
	TTL    time.Duration
}

var _ application.SnapshotCache = (*SnapshotCache)(nil)

func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{Client: client, TTL: ttl}
}

func (s *SnapshotCache) Get(ctx context.Context, key string) (domain.CachedSnapshot, error) {
	vals, err := s.Client.HGetAll(ctx, snapshotPrefix+key).Result()
	if err != nil {
		return domain.CachedSnapshot{}, err
	}
	payload, ok := vals[fieldPayload]
	if !ok {
		return domain.CachedSnapshot{}, application.ErrNotFound
	}
	nanos, err := strconv.ParseInt(vals[fieldUpdatedAt], 10, 64)
	if err != nil {
		return domain.CachedSnapshot{}, fmt.Errorf("snapshot %s: bad %s: %w", key, fieldUpdatedAt, err)
	}
	return domain.CachedSnapshot{
		Key:       key,
		Payload:   []byte(payload),
		UpdatedAt: time.Unix(0, nanos).UTC(),
	}, nil
}

func (s *SnapshotCache) Upsert(ctx context.Context, row domain.CachedSnapshot) error {
	k := snapshotPrefix + row.Key
	_, err := s.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, k, fieldPayload, row.Payload, fieldUpdatedAt, row.UpdatedAt.UnixNano())
		if s.TTL > 0 {
			p.Expire(ctx, k, s.TTL)
		}
		return nil
	})
	return err
}
