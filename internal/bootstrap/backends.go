package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"assetsync-service/internal/application"
	"assetsync-service/internal/config"
	"assetsync-service/internal/infrastructure/logx"
	"assetsync-service/internal/infrastructure/memory"
	"assetsync-service/internal/infrastructure/pg"
	redisstore "assetsync-service/internal/infrastructure/redis"
	"assetsync-service/internal/infrastructure/sqlite"

	"github.com/redis/go-redis/v9"
)

var ErrMissingDBURL = errors.New("DATABASE_URL is required for STORAGE=pg")

// Backends opens each storage connection on first use so the cache and the quota store can
// share one, or live on different backends.
type Backends struct {
	ctx context.Context
	cfg config.Config

	mu   sync.Mutex
	pg   *pg.DB
	rdb  *redis.Client
	lite *sqlite.DB
}

func (b *Backends) PG() (*pg.DB, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pg != nil {
		return b.pg, nil
	}
	if b.cfg.DatabaseURL == "" {
		return nil, ErrMissingDBURL
	}
	db, err := pg.Connect(b.ctx, b.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := pg.RunMigrations(b.ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	b.pg = db
	return db, nil
}

func (b *Backends) Redis() *redis.Client {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rdb == nil {
		b.rdb = redis.NewClient(&redis.Options{
			Addr:     b.cfg.RedisAddr,
			Password: b.cfg.RedisPassword,
			DB:       b.cfg.RedisDB,
		})
	}
	return b.rdb
}

func (b *Backends) SQLite() (*sqlite.DB, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lite != nil {
		return b.lite, nil
	}
	db, err := sqlite.Open(b.ctx, b.cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	b.lite = db
	return db, nil
}

func (b *Backends) SnapshotCache(kind string) (application.SnapshotCache, error) {
	switch kind {
	case "pg":
		db, err := b.PG()
		if err != nil {
			return nil, err
		}
		return pg.NewSnapshotCacheRepo(db), nil
	case "redis":
		return redisstore.NewSnapshotCache(b.Redis(), b.cfg.RedisTTL), nil
	case "sqlite":
		db, err := b.SQLite()
		if err != nil {
			return nil, err
		}
		return sqlite.NewSnapshotCache(db), nil
	case "memory", "":
		return memory.NewSnapshotCache(), nil
	default:
		return nil, fmt.Errorf("unsupported STORAGE=%q", kind)
	}
}

func (b *Backends) QuotaStore(kind string) (application.QuotaStore, error) {
	switch kind {
	case "pg":
		db, err := b.PG()
		if err != nil {
			return nil, err
		}
		return pg.NewQuotaRepo(db), nil
	case "redis":
		return redisstore.NewQuotaStore(b.Redis()), nil
	case "sqlite":
		db, err := b.SQLite()
		if err != nil {
			return nil, err
		}
		return sqlite.NewQuotaStore(db), nil
	case "memory", "":
		return memory.NewQuotaStore(), nil
	default:
		return nil, fmt.Errorf("unsupported QUOTA_STORAGE=%q", kind)
	}
}

// Ping checks every opened backend.
func (b *Backends) Ping(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var errs []error
	if b.pg != nil {
		errs = append(errs, b.pg.Ping(ctx))
	}
	if b.rdb != nil {
		errs = append(errs, b.rdb.Ping(ctx).Err())
	}
	if b.lite != nil {
		errs = append(errs, b.lite.Ping(ctx))
	}
	return errors.Join(errs...)
}

func (b *Backends) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	log := logx.L()
	if b.pg != nil {
		log.Info("closing pg")
		b.pg.Close()
	}
	if b.rdb != nil {
		log.Info("closing redis")
		_ = b.rdb.Close()
	}
	if b.lite != nil {
		log.Info("closing sqlite")
		_ = b.lite.Close()
	}
}
