package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"assetsync-service/internal/domain"

	"github.com/stretchr/testify/require"
)

const sampleHistory = `{"symbol":"AAPL","historical":[{"date":"2024-01-03","close":12},{"date":"2024-01-02","close":11}]}`

type harness struct {
	cache    *fakeCache
	quota    *fakeQuotaStore
	provider *fakeProvider
	obs      *recordingObserver
	svc      *SnapshotService
}

func newHarness(now time.Time, th Thresholds) *harness {
	h := &harness{
		cache: &fakeCache{store: map[string]domain.CachedSnapshot{}},
		quota: &fakeQuotaStore{recs: map[string]domain.QuotaRecord{
			"u1": {UserID: "u1", Role: domain.RoleFree},
		}},
		provider: newFakeProvider("AAPL", sampleHistory),
		obs:      &recordingObserver{},
	}
	clock := WithClock(fakeClock{t: now})
	ledger := NewQuotaLedger(h.quota, domain.RoleLimitTable{"free": 2}, clock)
	h.svc = NewSnapshotService(h.cache, ledger, h.provider, th, clock, WithObserver(h.obs))
	return h
}

func (h *harness) exhaust(now time.Time) {
	h.quota.recs["u1"] = domain.QuotaRecord{UserID: "u1", Role: domain.RoleFree, CallsMadeToday: 2, LastCallDate: domain.DateOf(now)}
}

var written = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func TestGetSnapshot_FreshBoundary(t *testing.T) {
	t.Parallel()
	at119 := newHarness(written.Add(119*time.Minute), DefaultThresholds())
	at119.cache.store["AAPL"] = snapshotRow(t, "AAPL", written)
	res, err := at119.svc.GetSnapshot(context.Background(), SnapshotRequest{Symbol: "aapl", UserID: "u1"})
	require.NoError(t, err)
	require.True(t, res.FromCache)
	require.Equal(t, domain.TierFresh, res.Tier)
	require.Nil(t, res.Notice)
	require.Equal(t, "cached", res.Snapshot.Profile.CompanyName)
	require.Zero(t, at119.provider.calls())
	require.Zero(t, at119.quota.calls("u1"))

	at121 := newHarness(written.Add(121*time.Minute), DefaultThresholds())
	at121.cache.store["AAPL"] = snapshotRow(t, "AAPL", written)
	res, err = at121.svc.GetSnapshot(context.Background(), SnapshotRequest{Symbol: "AAPL", UserID: "u1"})
	require.NoError(t, err)
	require.False(t, res.FromCache)
	require.Equal(t, len(domain.SnapshotEndpoints), at121.provider.calls())
	require.Equal(t, "AAPL Corp", res.Snapshot.Profile.CompanyName)
	require.Len(t, res.Snapshot.History, 2)
	require.Equal(t, 1, at121.quota.calls("u1"))

	row, ok := at121.cache.row("AAPL")
	require.True(t, ok)
	require.Equal(t, written.Add(121*time.Minute), row.UpdatedAt)
}

func TestGetSnapshot_TrustedModeServesDegradedCache(t *testing.T) {
	t.Parallel()
	h := newHarness(written.Add(5*time.Hour), DefaultThresholds())
	h.cache.store["AAPL"] = snapshotRow(t, "AAPL", written)

	res, err := h.svc.GetSnapshot(context.Background(), SnapshotRequest{Symbol: "AAPL", UserID: "nobody", Trusted: true})
	require.NoError(t, err)
	require.True(t, res.FromCache)
	require.Equal(t, domain.TierDegraded, res.Tier)
	require.NotNil(t, res.Notice)
	require.Equal(t, domain.NoticeTrustedCache, res.Notice.Kind)
	require.Zero(t, h.provider.calls())
}

func TestGetSnapshot_QuotaExhaustedFallsBackToDegradedCache(t *testing.T) {
	t.Parallel()
	now := written.Add(3 * time.Hour)
	h := newHarness(now, DefaultThresholds())
	h.exhaust(now)
	h.cache.store["AAPL"] = snapshotRow(t, "AAPL", written)

	res, err := h.svc.GetSnapshot(context.Background(), SnapshotRequest{Symbol: "AAPL", UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, domain.NoticeQuotaExhausted, res.Notice.Kind)
	require.Equal(t, written, res.Notice.AsOf)
	require.Zero(t, h.provider.calls())
	require.Equal(t, 1, h.obs.denied)
}

func TestGetSnapshot_QuotaExhaustedWithoutUsableCache(t *testing.T) {
	t.Parallel()
	now := written.Add(25 * time.Hour)
	h := newHarness(now, DefaultThresholds())
	h.exhaust(now)
	h.cache.store["AAPL"] = snapshotRow(t, "AAPL", written)

	_, err := h.svc.GetSnapshot(context.Background(), SnapshotRequest{Symbol: "AAPL", UserID: "u1"})
	require.ErrorIs(t, err, domain.ErrQuotaExceeded)

	_, err = h.svc.GetSnapshot(context.Background(), SnapshotRequest{Symbol: "MSFT", UserID: "u1"})
	require.ErrorIs(t, err, domain.ErrQuotaExceeded)
}

func TestGetSnapshot_UnknownUserFailsClosed(t *testing.T) {
	t.Parallel()
	h := newHarness(written, DefaultThresholds())
	_, err := h.svc.GetSnapshot(context.Background(), SnapshotRequest{Symbol: "AAPL", UserID: "ghost"})
	require.ErrorIs(t, err, domain.ErrQuotaExceeded)
	require.Zero(t, h.provider.calls())
}

func TestGetSnapshot_UpstreamFailureServesAnyCache(t *testing.T) {
	t.Parallel()
	now := written.Add(72 * time.Hour)
	h := newHarness(now, DefaultThresholds())
	h.cache.store["AAPL"] = snapshotRow(t, "AAPL", written)
	h.provider.errs = map[domain.Endpoint]error{domain.EndpointRatios: errors.New("status 502")}

	res, err := h.svc.GetSnapshot(context.Background(), SnapshotRequest{Symbol: "AAPL", UserID: "u1"})
	require.NoError(t, err)
	require.True(t, res.FromCache)
	require.Equal(t, domain.TierExpired, res.Tier)
	require.Equal(t, domain.NoticeRefreshFailed, res.Notice.Kind)
	require.Contains(t, res.Notice.Message, "could not refresh, showing data from 2025-03-10T08:00:00Z")
	require.Zero(t, h.quota.calls("u1"))
}

func TestGetSnapshot_UpstreamFailureWithoutCache(t *testing.T) {
	t.Parallel()
	h := newHarness(written, DefaultThresholds())
	h.provider.errs = map[domain.Endpoint]error{domain.EndpointQuote: errors.New("connection reset")}

	_, err := h.svc.GetSnapshot(context.Background(), SnapshotRequest{Symbol: "AAPL", UserID: "u1"})
	require.ErrorIs(t, err, domain.ErrUpstream)
	require.Zero(t, h.quota.calls("u1"))
	_, ok := h.cache.row("AAPL")
	require.False(t, ok)
}

func TestGetSnapshot_PerCallTimeout(t *testing.T) {
	t.Parallel()
	th := DefaultThresholds()
	th.CallTimeout = 20 * time.Millisecond
	h := newHarness(written, th)
	h.provider.block = map[domain.Endpoint]bool{domain.EndpointAnalystEstimates: true}

	start := time.Now()
	_, err := h.svc.GetSnapshot(context.Background(), SnapshotRequest{Symbol: "AAPL", UserID: "u1"})
	require.ErrorIs(t, err, domain.ErrUpstreamTimeout)
	require.Less(t, time.Since(start), 2*time.Second)
	require.Zero(t, h.quota.calls("u1"))
}

func TestGetSnapshot_NotFoundIsNeverMasked(t *testing.T) {
	t.Parallel()
	now := written.Add(30 * time.Hour)
	h := newHarness(now, DefaultThresholds())
	h.cache.store["AAPL"] = snapshotRow(t, "AAPL", written)
	h.provider.bodies[domain.EndpointProfile] = `[]`

	_, err := h.svc.GetSnapshot(context.Background(), SnapshotRequest{Symbol: "AAPL", UserID: "u1"})
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Zero(t, h.quota.calls("u1"))
}

func TestGetSnapshot_InvalidSymbol(t *testing.T) {
	t.Parallel()
	h := newHarness(written, DefaultThresholds())
	_, err := h.svc.GetSnapshot(context.Background(), SnapshotRequest{Symbol: "  ", UserID: "u1"})
	require.ErrorIs(t, err, domain.ErrInvalidSymbol)
	_, err = h.svc.GetGradesHistory(context.Background(), SnapshotRequest{Symbol: "AA PL", UserID: "u1"})
	require.ErrorIs(t, err, domain.ErrInvalidSymbol)
	require.Zero(t, h.provider.calls())
}

func TestGetSnapshot_CacheReadErrorTreatedAsMiss(t *testing.T) {
	t.Parallel()
	h := newHarness(written, DefaultThresholds())
	h.cache.err = ErrRepo

	_, err := h.svc.GetSnapshot(context.Background(), SnapshotRequest{Symbol: "AAPL", UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, 1, h.quota.calls("u1"))
}

func TestGetGradesHistory_UsesPrefixedKey(t *testing.T) {
	t.Parallel()
	h := newHarness(written, DefaultThresholds())

	res, err := h.svc.GetGradesHistory(context.Background(), SnapshotRequest{Symbol: "AAPL", UserID: "u1"})
	require.NoError(t, err)
	require.False(t, res.FromCache)
	require.Len(t, res.Grades, 1)
	require.Equal(t, 1, h.provider.calls())

	_, ok := h.cache.row("grades-historical:AAPL")
	require.True(t, ok)

	res, err = h.svc.GetGradesHistory(context.Background(), SnapshotRequest{Symbol: "AAPL", UserID: "u1"})
	require.NoError(t, err)
	require.True(t, res.FromCache)
	require.Equal(t, 1, h.provider.calls())
}

func TestGetSnapshot_WrongShapeCacheIsMiss(t *testing.T) {
	t.Parallel()
	for _, payload := range []string{`[]`, `{"symbol":"MSFT"}`, `"text"`} {
		h := newHarness(written.Add(time.Minute), DefaultThresholds())
		h.cache.store["AAPL"] = domain.CachedSnapshot{Key: "AAPL", Payload: []byte(payload), UpdatedAt: written}

		res, err := h.svc.GetSnapshot(context.Background(), SnapshotRequest{Symbol: "AAPL", UserID: "u1"})
		require.NoError(t, err, payload)
		require.False(t, res.FromCache, payload)
		require.Equal(t, domain.Symbol("AAPL"), res.Snapshot.Symbol)
		require.Equal(t, 1, h.quota.calls("u1"), payload)

		row, ok := h.cache.row("AAPL")
		require.True(t, ok)
		require.Equal(t, written.Add(time.Minute), row.UpdatedAt)
	}
}

func TestGetGradesHistory_WrongShapeCacheIsMiss(t *testing.T) {
	t.Parallel()
	h := newHarness(written.Add(time.Minute), DefaultThresholds())
	key := "grades-historical:AAPL"
	h.cache.store[key] = domain.CachedSnapshot{Key: key, Payload: []byte(`{"grades":1}`), UpdatedAt: written}

	res, err := h.svc.GetGradesHistory(context.Background(), SnapshotRequest{Symbol: "AAPL", UserID: "u1"})
	require.NoError(t, err)
	require.False(t, res.FromCache)
	require.Len(t, res.Grades, 1)
}

func TestGetGradesHistory_MalformedEntryDropped(t *testing.T) {
	t.Parallel()
	h := newHarness(written, DefaultThresholds())
	h.provider.bodies[domain.EndpointGradesHistorical] = `[
		{"symbol":"AAPL","date":"2024-05-01","gradingCompany":"X","newGrade":"Buy"},
		{"symbol":"AAPL","date":"05/02/2024","gradingCompany":"Y","newGrade":"Sell"}
	]`

	res, err := h.svc.GetGradesHistory(context.Background(), SnapshotRequest{Symbol: "AAPL", UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, res.Grades, 1)
	require.Equal(t, "X", res.Grades[0].GradingCompany)
	require.Equal(t, 1, h.quota.calls("u1"))
}
