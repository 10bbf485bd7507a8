package application

import (
	"context"
	"time"

	"assetsync-service/internal/domain"

	"go.uber.org/zap"
)

type Clock interface{ Now() time.Time }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type deps struct {
	clock  Clock
	log    *zap.Logger
	obs    Observer
	writer CacheWriter
}

type Option func(*deps)

func WithClock(c Clock) Option             { return func(d *deps) { d.clock = c } }
func WithLogger(l *zap.Logger) Option      { return func(d *deps) { d.log = l } }
func WithObserver(o Observer) Option       { return func(d *deps) { d.obs = o } }
func WithCacheWriter(w CacheWriter) Option { return func(d *deps) { d.writer = w } }

func newDeps(opts []Option) deps {
	var d deps
	for _, opt := range opts {
		opt(&d)
	}
	if d.clock == nil {
		d.clock = realClock{}
	}
	if d.log == nil {
		d.log = zap.NewNop()
	}
	if d.obs == nil {
		d.obs = noopObserver{}
	}
	return d
}

type noopObserver struct{}

func (noopObserver) SnapshotServed(domain.Tier, bool, *domain.Notice)   {}
func (noopObserver) QuotaDenied()                                       {}
func (noopObserver) UpstreamCall(domain.Endpoint, time.Duration, error) {}

// DirectWriter upserts synchronously and logs failures. It is the default CacheWriter.
type DirectWriter struct {
	Cache SnapshotCache
	Log   *zap.Logger
}

func (w DirectWriter) Persist(ctx context.Context, s domain.CachedSnapshot) {
	if err := w.Cache.Upsert(ctx, s); err != nil && w.Log != nil {
		w.Log.Warn("cache.persist_failed", zap.String("key", s.Key), zap.Error(err))
	}
}
