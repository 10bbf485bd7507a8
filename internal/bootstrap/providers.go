package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"assetsync-service/internal/application"
	"assetsync-service/internal/config"
	"assetsync-service/internal/domain"
	httpserver "assetsync-service/internal/infrastructure/http"
	"assetsync-service/internal/infrastructure/httpx"
	"assetsync-service/internal/infrastructure/logx"
	"assetsync-service/internal/infrastructure/observability"
	"assetsync-service/internal/infrastructure/provider"
	"assetsync-service/internal/infrastructure/worker"

	"go.uber.org/zap"
)

// API is everything cmd/api needs to serve and shut down.
type API struct {
	Config  config.Config
	Handler http.Handler
	Writer  *worker.CacheWriter
}

// CLI holds the services behind the assetctl commands. Cache writes are synchronous.
type CLI struct {
	Snapshots  *application.SnapshotService
	Valuations *application.ValuationService
	Portfolio  *application.PortfolioService
	Ledger     *application.QuotaLedger
}

func ProvideLogger() *zap.Logger { return logx.L() }

func ProvideConfig() config.Config { return config.Load() }

func ProvidePipeline(cfg config.Config) (config.Pipeline, error) {
	return config.LoadPipeline(cfg.PipelineConfig, cfg)
}

func ProvideBackends(ctx context.Context, cfg config.Config) (*Backends, func(), error) {
	b := &Backends{ctx: ctx, cfg: cfg}
	return b, b.Close, nil
}

func ProvideSnapshotCache(b *Backends, cfg config.Config) (application.SnapshotCache, error) {
	return b.SnapshotCache(cfg.Storage)
}

func ProvideQuotaStore(b *Backends, cfg config.Config) (application.QuotaStore, error) {
	return b.QuotaStore(cfg.QuotaStorage)
}

func ProvideMarketDataProvider(cfg config.Config, p config.Pipeline) (application.MarketDataProvider, error) {
	switch cfg.Provider {
	case "fmp":
		if cfg.FMPAPIKey == "" {
			return nil, fmt.Errorf("FMP_API_KEY is required for PROVIDER=fmp")
		}
		return &provider.FMP{
			BaseURL: cfg.FMPBaseURL,
			APIKey:  cfg.FMPAPIKey,
			Paths:   p.EndpointPaths(),
			Client:  &httpx.Client{HTTP: &http.Client{Timeout: p.Thresholds.UpstreamTimeout}},
		}, nil
	case "fake", "":
		return provider.NewFake(), nil
	default:
		return nil, fmt.Errorf("unsupported PROVIDER=%q", cfg.Provider)
	}
}

func ProvideMetrics() *observability.Metrics { return observability.DefaultMetrics }

func ProvideCacheWriter(cache application.SnapshotCache, cfg config.Config, log *zap.Logger, m *observability.Metrics) *worker.CacheWriter {
	w := worker.NewCacheWriter(cache, cfg.CacheWriteBuffer, log)
	w.Metrics = m
	return w
}

func ProvideDirectWriter(cache application.SnapshotCache, log *zap.Logger) application.CacheWriter {
	return application.DirectWriter{Cache: cache, Log: log}
}

// ProvideQuotaLedger builds the ledger and applies SEED_USERS.
func ProvideQuotaLedger(ctx context.Context, store application.QuotaStore, p config.Pipeline, cfg config.Config, log *zap.Logger) (*application.QuotaLedger, error) {
	ledger := application.NewQuotaLedger(store, p.RoleLimits(), application.WithLogger(log))
	seeds, err := config.ParseSeedUsers(cfg.SeedUsers)
	if err != nil {
		return nil, err
	}
	for user, role := range seeds {
		if err := ledger.SetRole(ctx, user, domain.Role(role)); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", user, err)
		}
	}
	if len(seeds) > 0 {
		log.Info("quota.seeded", zap.Int("users", len(seeds)))
	}
	return ledger, nil
}

func ProvideSnapshotService(
	cache application.SnapshotCache,
	ledger *application.QuotaLedger,
	md application.MarketDataProvider,
	p config.Pipeline,
	w application.CacheWriter,
	m *observability.Metrics,
	log *zap.Logger,
) *application.SnapshotService {
	th := application.Thresholds{
		Fresh:       p.Thresholds.Fresh,
		Degraded:    p.Thresholds.Degraded,
		CallTimeout: p.Thresholds.UpstreamTimeout,
	}
	return application.NewSnapshotService(cache, ledger, md, th,
		application.WithLogger(log),
		application.WithObserver(m),
		application.WithCacheWriter(w),
	)
}

func ProvidePortfolioService(s *application.SnapshotService, log *zap.Logger) *application.PortfolioService {
	return application.NewPortfolioService(s, application.WithLogger(log))
}

func ProvideHTTPServer(
	s *application.SnapshotService,
	v *application.ValuationService,
	pf *application.PortfolioService,
	ledger *application.QuotaLedger,
	b *Backends,
	m *observability.Metrics,
) *httpserver.Server {
	srv := httpserver.NewServer(s, v, pf, ledger)
	srv.SetReadyCheck(func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return b.Ping(ctx)
	})
	srv.SetMetrics(observability.Handler(), m)
	return srv
}

func ProvideAPI(cfg config.Config, srv *httpserver.Server, w *worker.CacheWriter) *API {
	return &API{Config: cfg, Handler: httpserver.NewRouter(srv), Writer: w}
}

func ProvideCLI(s *application.SnapshotService, v *application.ValuationService, pf *application.PortfolioService, ledger *application.QuotaLedger) *CLI {
	return &CLI{Snapshots: s, Valuations: v, Portfolio: pf, Ledger: ledger}
}
