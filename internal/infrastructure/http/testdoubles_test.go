package httpserver

import (
	"context"
	"testing"
	"time"

	"assetsync-service/internal/application"
	"assetsync-service/internal/domain"
	"assetsync-service/internal/infrastructure/memory"
	"assetsync-service/internal/infrastructure/provider"

	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

type testEnv struct {
	cache *memory.SnapshotCache
	quota *memory.QuotaStore
	fake  *provider.Fake
	srv   *Server
}

// NewInMemoryServer wires the real services over memory stores and the fake provider.
func NewInMemoryServer(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		cache: memory.NewSnapshotCache(),
		quota: memory.NewQuotaStore(),
		fake:  &provider.Fake{Days: 300, Anchor: domain.DateOf(testNow), Unknown: map[domain.Symbol]bool{"NOPE": true}},
	}
	ctx := context.Background()
	require.NoError(t, env.quota.SetRole(ctx, "u1", domain.RoleFree))
	require.NoError(t, env.quota.SetRole(ctx, "broke", domain.RoleFree))
	for i := 0; i < 2; i++ {
		_, err := env.quota.Increment(ctx, "broke", domain.DateOf(testNow))
		require.NoError(t, err)
	}

	clock := application.WithClock(fixedClock{t: testNow})
	ledger := application.NewQuotaLedger(env.quota, domain.RoleLimitTable{"free": 2}, clock)
	snaps := application.NewSnapshotService(env.cache, ledger, env.fake, application.DefaultThresholds(), clock)
	env.srv = NewServer(snaps, application.NewValuationService(snaps), application.NewPortfolioService(snaps), ledger)
	return env
}
