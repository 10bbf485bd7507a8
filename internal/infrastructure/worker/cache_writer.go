package worker

import (
	"context"
	"time"

	"assetsync-service/internal/application"
	"assetsync-service/internal/domain"

	"go.uber.org/zap"
)

var (
	_ application.Worker      = (*CacheWriter)(nil)
	_ application.CacheWriter = (*CacheWriter)(nil)
)

// QueueMetrics receives the writer's backlog and drop counts.
type QueueMetrics interface {
	RecordCacheDrop()
	SetCacheQueue(n int)
}

const defaultWriteTimeout = 5 * time.Second

// CacheWriter persists snapshot rows off the request path. Persist never blocks: when the
// queue is full the row is dropped and the next refresh rewrites it.
type CacheWriter struct {
	Cache        application.SnapshotCache
	Log          *zap.Logger
	Metrics      QueueMetrics
	WriteTimeout time.Duration

	queue chan domain.CachedSnapshot
	done  chan struct{}
}

func NewCacheWriter(cache application.SnapshotCache, buffer int, log *zap.Logger) *CacheWriter {
	if buffer <= 0 {
		buffer = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CacheWriter{
		Cache:        cache,
		Log:          log,
		WriteTimeout: defaultWriteTimeout,
		queue:        make(chan domain.CachedSnapshot, buffer),
		done:         make(chan struct{}),
	}
}

func (w *CacheWriter) Persist(_ context.Context, row domain.CachedSnapshot) {
	select {
	case w.queue <- row:
		w.report()
	default:
		w.Log.Warn("cache_writer.dropped", zap.String("key", row.Key))
		if w.Metrics != nil {
			w.Metrics.RecordCacheDrop()
		}
	}
}

// Start writes queued rows until ctx ends, then drains what is left.
func (w *CacheWriter) Start(ctx context.Context) {
	defer close(w.done)
	log := w.Log.With(zap.String("worker", "cache_writer"))
	log.Info("cache_writer.started", zap.Int("buffer", cap(w.queue)))
	for {
		select {
		case <-ctx.Done():
			n := w.drain(log)
			log.Info("cache_writer.stopped", zap.Int("drained", n))
			return
		case row := <-w.queue:
			w.write(context.WithoutCancel(ctx), log, row)
		}
	}
}

// Done is closed once Start has returned.
func (w *CacheWriter) Done() <-chan struct{} { return w.done }

func (w *CacheWriter) drain(log *zap.Logger) int {
	n := 0
	for {
		select {
		case row := <-w.queue:
			w.write(context.Background(), log, row)
			n++
		default:
			return n
		}
	}
}

func (w *CacheWriter) write(ctx context.Context, log *zap.Logger, row domain.CachedSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("cache_writer.panic", zap.Any("r", r), zap.String("key", row.Key))
		}
	}()
	c, cancel := context.WithTimeout(ctx, w.WriteTimeout)
	defer cancel()
	if err := w.Cache.Upsert(c, row); err != nil {
		log.Warn("cache_writer.upsert_failed", zap.String("key", row.Key), zap.Error(err))
	}
	w.report()
}

func (w *CacheWriter) report() {
	if w.Metrics != nil {
		w.Metrics.SetCacheQueue(len(w.queue))
	}
}
