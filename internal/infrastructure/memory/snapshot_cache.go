// Package memory holds process-local stores used for local runs and tests.
package memory

import (
	"bytes"
	"context"
	"sync"

	"assetsync-service/internal/application"
	"assetsync-service/internal/domain"
)

// SnapshotCache keeps cache rows in a map. Payloads are copied in and out.
type SnapshotCache struct {
	mu   sync.RWMutex
	rows map[string]domain.CachedSnapshot
}

var _ application.SnapshotCache = (*SnapshotCache)(nil)

func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{rows: make(map[string]domain.CachedSnapshot)}
}

func (c *SnapshotCache) Get(_ context.Context, key string) (domain.CachedSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	row, ok := c.rows[key]
	if !ok {
		return domain.CachedSnapshot{}, application.ErrNotFound
	}
	row.Payload = bytes.Clone(row.Payload)
	return row, nil
}

func (c *SnapshotCache) Upsert(_ context.Context, s domain.CachedSnapshot) error {
	if s.Key == "" {
		return application.ErrBadRequest
	}
	s.Payload = bytes.Clone(s.Payload)
	c.mu.Lock()
	c.rows[s.Key] = s
	c.mu.Unlock()
	return nil
}
