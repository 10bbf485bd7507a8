//go:build wireinject

package bootstrap

import (
	"context"

	"assetsync-service/internal/application"
	"assetsync-service/internal/infrastructure/worker"

	"github.com/google/wire"
)

var coreSet = wire.NewSet(
	ProvideLogger,
	ProvideConfig,
	ProvidePipeline,
	ProvideBackends,
	ProvideSnapshotCache,
	ProvideQuotaStore,
	ProvideMarketDataProvider,
	ProvideMetrics,
	ProvideQuotaLedger,
	ProvideSnapshotService,
	wire.Bind(new(application.SnapshotGetter), new(*application.SnapshotService)),
	application.NewValuationService,
	ProvidePortfolioService,
)

// InitAPI wires the HTTP service with the background cache writer.
func InitAPI(ctx context.Context) (*API, func(), error) {
	wire.Build(
		coreSet,
		ProvideCacheWriter,
		wire.Bind(new(application.CacheWriter), new(*worker.CacheWriter)),
		ProvideHTTPServer,
		ProvideAPI,
	)
	return nil, nil, nil
}

// InitCLI wires the services for one-shot commands.
func InitCLI(ctx context.Context) (*CLI, func(), error) {
	wire.Build(
		coreSet,
		ProvideDirectWriter,
		ProvideCLI,
	)
	return nil, nil, nil
}
