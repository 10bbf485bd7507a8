package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"assetsync-service/internal/domain"
	"assetsync-service/internal/normalizer"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Thresholds split cache age into the fresh, degraded and expired tiers.
type Thresholds struct {
	Fresh       time.Duration
	Degraded    time.Duration
	CallTimeout time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{Fresh: 2 * time.Hour, Degraded: 24 * time.Hour, CallTimeout: 15 * time.Second}
}

func (t Thresholds) tier(age time.Duration) domain.Tier {
	switch {
	case age < t.Fresh:
		return domain.TierFresh
	case age < t.Degraded:
		return domain.TierDegraded
	default:
		return domain.TierExpired
	}
}

type SnapshotRequest struct {
	Symbol string
	UserID string
	// Trusted callers (bulk portfolio loads) accept degraded cache without spending quota.
	Trusted bool
}

type SnapshotResult struct {
	Snapshot  domain.CanonicalAssetSnapshot
	UpdatedAt time.Time
	Tier      domain.Tier
	Notice    *domain.Notice
	FromCache bool
}

type GradesResult struct {
	Symbol    domain.Symbol
	Grades    []domain.GradeChange
	UpdatedAt time.Time
	Tier      domain.Tier
	Notice    *domain.Notice
	FromCache bool
}

// SnapshotService decides per request between cache, upstream refresh and degraded fallback.
type SnapshotService struct {
	cache    SnapshotCache
	ledger   *QuotaLedger
	provider MarketDataProvider
	th       Thresholds
	deps
}

func NewSnapshotService(cache SnapshotCache, ledger *QuotaLedger, provider MarketDataProvider, th Thresholds, opts ...Option) *SnapshotService {
	s := &SnapshotService{cache: cache, ledger: ledger, provider: provider, th: th, deps: newDeps(opts)}
	if s.writer == nil {
		s.writer = DirectWriter{Cache: cache, Log: s.log}
	}
	return s
}

func (s *SnapshotService) GetSnapshot(ctx context.Context, req SnapshotRequest) (SnapshotResult, error) {
	sym, ok := domain.NormalizeSymbol(req.Symbol)
	if !ok {
		return SnapshotResult{}, fmt.Errorf("symbol %q: %w", req.Symbol, domain.ErrInvalidSymbol)
	}
	log := s.log.With(zap.String("symbol", string(sym)), zap.String("user_id", req.UserID))

	var cachedSnap, refreshed *domain.CanonicalAssetSnapshot
	decode := func(b []byte) error {
		var snap domain.CanonicalAssetSnapshot
		if err := json.Unmarshal(b, &snap); err != nil {
			return err
		}
		if snap.Symbol != sym {
			return fmt.Errorf("payload symbol %q", snap.Symbol)
		}
		cachedSnap = &snap
		return nil
	}
	res, err := s.resolve(ctx, log, string(sym), req, decode, func(ctx context.Context) ([]byte, error) {
		bodies, err := s.fetchAll(ctx, sym, domain.SnapshotEndpoints)
		if err != nil {
			return nil, err
		}
		snap, issues, err := normalizer.Normalize(sym, bodies)
		if err != nil {
			return nil, err
		}
		for _, is := range issues {
			log.Warn("normalize.endpoint_skipped", zap.String("endpoint", string(is.Endpoint)), zap.Error(is.Err))
		}
		refreshed = &snap
		return json.Marshal(snap)
	})
	if err != nil {
		return SnapshotResult{}, err
	}

	out := SnapshotResult{UpdatedAt: res.updatedAt, Tier: res.tier, Notice: res.notice, FromCache: res.fromCache}
	if res.fromCache {
		out.Snapshot = *cachedSnap
	} else {
		out.Snapshot = *refreshed
	}
	s.obs.SnapshotServed(out.Tier, out.FromCache, out.Notice)
	return out, nil
}

// GetGradesHistory serves the analyst grade history through the prefixed auxiliary cache
// row, with the same tiering and quota rules as snapshots.
func (s *SnapshotService) GetGradesHistory(ctx context.Context, req SnapshotRequest) (GradesResult, error) {
	sym, ok := domain.NormalizeSymbol(req.Symbol)
	if !ok {
		return GradesResult{}, fmt.Errorf("symbol %q: %w", req.Symbol, domain.ErrInvalidSymbol)
	}
	key := domain.AuxKey(domain.GradesHistoryPrefix, sym)
	log := s.log.With(zap.String("key", key), zap.String("user_id", req.UserID))

	var grades []domain.GradeChange
	decode := func(b []byte) error {
		grades = nil
		return json.Unmarshal(b, &grades)
	}
	res, err := s.resolve(ctx, log, key, req, decode, func(ctx context.Context) ([]byte, error) {
		bodies, err := s.fetchAll(ctx, sym, []domain.Endpoint{domain.EndpointGradesHistorical})
		if err != nil {
			return nil, err
		}
		fetched, err := normalizer.GradesHistory(bodies[domain.EndpointGradesHistorical])
		var partial *normalizer.PartialError
		switch {
		case errors.As(err, &partial):
			log.Warn("normalize.items_skipped", zap.Int("skipped", partial.Skipped), zap.Error(err))
		case err != nil:
			return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
		if fetched == nil {
			fetched = []domain.GradeChange{}
		}
		grades = fetched
		return json.Marshal(fetched)
	})
	if err != nil {
		return GradesResult{}, err
	}
	return GradesResult{Symbol: sym, Grades: grades, UpdatedAt: res.updatedAt, Tier: res.tier, Notice: res.notice, FromCache: res.fromCache}, nil
}

type resolved struct {
	payload   []byte
	updatedAt time.Time
	tier      domain.Tier
	notice    *domain.Notice
	fromCache bool
}

// resolve picks between cache and refresh for key. decode must accept a cached payload for
// the row to count as cached; rows it rejects are treated as a miss.
func (s *SnapshotService) resolve(ctx context.Context, log *zap.Logger, key string, req SnapshotRequest, decode func([]byte) error, refresh func(context.Context) ([]byte, error)) (resolved, error) {
	now := s.clock.Now()
	cached, hasCache := s.loadCache(ctx, log, key, decode)
	var age time.Duration
	if hasCache {
		age = cached.Age(now)
		if age < s.th.Fresh {
			return fromCache(cached, domain.TierFresh, nil), nil
		}
		if req.Trusted && age < s.th.Degraded {
			return fromCache(cached, s.th.tier(age), domain.NewNotice(domain.NoticeTrustedCache, cached.UpdatedAt)), nil
		}
	}

	if !s.ledger.CheckAvailability(ctx, req.UserID) {
		s.obs.QuotaDenied()
		if hasCache && age < s.th.Degraded {
			log.Info("quota.exhausted_serving_cache", zap.Duration("age", age))
			return fromCache(cached, s.th.tier(age), domain.NewNotice(domain.NoticeQuotaExhausted, cached.UpdatedAt)), nil
		}
		return resolved{}, fmt.Errorf("user %q: %w", req.UserID, domain.ErrQuotaExceeded)
	}

	payload, err := refresh(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return resolved{}, err
		}
		log.Warn("refresh.failed", zap.Error(err), zap.Bool("has_cache", hasCache))
		if hasCache {
			return fromCache(cached, s.th.tier(age), domain.NewNotice(domain.NoticeRefreshFailed, cached.UpdatedAt)), nil
		}
		return resolved{}, err
	}

	if err := s.ledger.Increment(ctx, req.UserID); err != nil {
		log.Warn("quota.increment_failed", zap.Error(err))
	}
	row := domain.CachedSnapshot{Key: key, Payload: payload, UpdatedAt: now}
	s.writer.Persist(context.WithoutCancel(ctx), row)
	log.Info("refresh.done", zap.Int("payload_bytes", len(payload)))
	return resolved{payload: payload, updatedAt: now, tier: domain.TierFresh}, nil
}

func fromCache(c domain.CachedSnapshot, tier domain.Tier, n *domain.Notice) resolved {
	return resolved{payload: c.Payload, updatedAt: c.UpdatedAt, tier: tier, notice: n, fromCache: true}
}

func (s *SnapshotService) loadCache(ctx context.Context, log *zap.Logger, key string, decode func([]byte) error) (domain.CachedSnapshot, bool) {
	c, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warn("cache.load_failed", zap.Error(err))
		}
		return domain.CachedSnapshot{}, false
	}
	if len(c.Payload) == 0 {
		log.Warn("cache.payload_invalid")
		return domain.CachedSnapshot{}, false
	}
	if err := decode(c.Payload); err != nil {
		log.Warn("cache.payload_invalid", zap.Error(err))
		return domain.CachedSnapshot{}, false
	}
	return c, true
}

// fetchAll calls every endpoint concurrently, each under its own timeout, and waits for all
// of them. Any failure fails the whole fetch.
func (s *SnapshotService) fetchAll(ctx context.Context, sym domain.Symbol, endpoints []domain.Endpoint) (normalizer.Responses, error) {
	bodies := make([]json.RawMessage, len(endpoints))
	var g errgroup.Group
	for i, ep := range endpoints {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, s.th.CallTimeout)
			defer cancel()
			start := time.Now()
			body, err := s.provider.Fetch(callCtx, ep, sym)
			s.obs.UpstreamCall(ep, time.Since(start), err)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
					return fmt.Errorf("%s %s: %w: %v", ep, sym, domain.ErrUpstreamTimeout, err)
				}
				return fmt.Errorf("%s %s: %w: %v", ep, sym, domain.ErrUpstream, err)
			}
			bodies[i] = body
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(normalizer.Responses, len(endpoints))
	for i, ep := range endpoints {
		out[ep] = bodies[i]
	}
	return out, nil
}
