package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"assetsync-service/internal/domain"

	"github.com/stretchr/testify/require"
)

var ErrRepo = errors.New("repo error")

type fakeClock struct{ t time.Time }

func (f fakeClock) Now() time.Time { return f.t }

type fakeCache struct {
	mu    sync.Mutex
	store map[string]domain.CachedSnapshot
	err   error
}

func (f *fakeCache) Get(_ context.Context, key string) (domain.CachedSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.CachedSnapshot{}, f.err
	}
	s, ok := f.store[key]
	if !ok {
		return domain.CachedSnapshot{}, ErrNotFound
	}
	return s, nil
}

func (f *fakeCache) Upsert(_ context.Context, s domain.CachedSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.store == nil {
		f.store = map[string]domain.CachedSnapshot{}
	}
	f.store[s.Key] = s
	return nil
}

func (f *fakeCache) row(key string) (domain.CachedSnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.store[key]
	return s, ok
}

type fakeQuotaStore struct {
	mu   sync.Mutex
	recs map[string]domain.QuotaRecord
	err  error
}

func (f *fakeQuotaStore) Get(_ context.Context, userID string) (domain.QuotaRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.QuotaRecord{}, f.err
	}
	r, ok := f.recs[userID]
	if !ok {
		return domain.QuotaRecord{}, ErrNotFound
	}
	return r, nil
}

func (f *fakeQuotaStore) Increment(_ context.Context, userID string, today domain.Date) (domain.QuotaRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.QuotaRecord{}, f.err
	}
	r, ok := f.recs[userID]
	if !ok {
		return domain.QuotaRecord{}, ErrNotFound
	}
	if r.LastCallDate.Equal(today.Time) {
		r.CallsMadeToday++
	} else {
		r.CallsMadeToday, r.LastCallDate = 1, today
	}
	f.recs[userID] = r
	return r, nil
}

func (f *fakeQuotaStore) SetRole(_ context.Context, userID string, role domain.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recs == nil {
		f.recs = map[string]domain.QuotaRecord{}
	}
	r := f.recs[userID]
	r.UserID, r.Role = userID, role
	f.recs[userID] = r
	return nil
}

func (f *fakeQuotaStore) calls(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recs[userID].CallsMadeToday
}

// fakeProvider serves canned bodies per endpoint. Endpoints listed in block wait for the
// call context to expire.
type fakeProvider struct {
	mu     sync.Mutex
	bodies map[domain.Endpoint]string
	errs   map[domain.Endpoint]error
	block  map[domain.Endpoint]bool
	n      int
}

func (f *fakeProvider) Fetch(ctx context.Context, ep domain.Endpoint, _ domain.Symbol) (json.RawMessage, error) {
	f.mu.Lock()
	f.n++
	body, hasBody := f.bodies[ep]
	err := f.errs[ep]
	block := f.block[ep]
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	if !hasBody {
		return json.RawMessage(`[]`), nil
	}
	return json.RawMessage(body), nil
}

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n
}

func newFakeProvider(symbol string, history string) *fakeProvider {
	return &fakeProvider{bodies: map[domain.Endpoint]string{
		domain.EndpointProfile:          `[{"symbol":"` + symbol + `","companyName":"` + symbol + ` Corp","price":100}]`,
		domain.EndpointQuote:            `[{"symbol":"` + symbol + `","price":100}]`,
		domain.EndpointHistoricalPrices: history,
		domain.EndpointLeveredDCF:       `[{"symbol":"` + symbol + `","date":"2024-06-01","dcf":110}]`,
		domain.EndpointGradesHistorical: `[{"symbol":"` + symbol + `","date":"2024-05-01","gradingCompany":"X","newGrade":"Buy"}]`,
	}}
}

type recordingObserver struct {
	mu      sync.Mutex
	denied  int
	served  []domain.Tier
	upCalls int
}

func (o *recordingObserver) SnapshotServed(t domain.Tier, _ bool, _ *domain.Notice) {
	o.mu.Lock()
	o.served = append(o.served, t)
	o.mu.Unlock()
}
func (o *recordingObserver) QuotaDenied() {
	o.mu.Lock()
	o.denied++
	o.mu.Unlock()
}
func (o *recordingObserver) UpstreamCall(domain.Endpoint, time.Duration, error) {
	o.mu.Lock()
	o.upCalls++
	o.mu.Unlock()
}

func snapshotRow(t *testing.T, sym string, at time.Time) domain.CachedSnapshot {
	t.Helper()
	b, err := json.Marshal(domain.CanonicalAssetSnapshot{
		Symbol:  domain.Symbol(sym),
		Profile: domain.Profile{Symbol: sym, CompanyName: "cached"},
	})
	require.NoError(t, err)
	return domain.CachedSnapshot{Key: sym, Payload: b, UpdatedAt: at}
}
