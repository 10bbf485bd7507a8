package application

import (
	"context"
	"fmt"
	"sync"

	"assetsync-service/internal/analytics"
	"assetsync-service/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const portfolioFetchConcurrency = 4

// PortfolioService builds holdings-weighted timelines from snapshot histories.
type PortfolioService struct {
	snapshots SnapshotGetter
	deps
}

func NewPortfolioService(snapshots SnapshotGetter, opts ...Option) *PortfolioService {
	return &PortfolioService{snapshots: snapshots, deps: newDeps(opts)}
}

// BuildTimeline loads every holding in trusted mode, aligns the histories and summarizes
// the aggregate series.
func (p *PortfolioService) BuildTimeline(ctx context.Context, userID string, holdings []domain.Holding) (domain.PortfolioTimeline, error) {
	merged, err := mergeHoldings(holdings)
	if err != nil {
		return domain.PortfolioTimeline{}, err
	}

	series := make([]domain.HoldingSeries, len(merged))
	notices := map[domain.Symbol]domain.Notice{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(portfolioFetchConcurrency)
	for i, h := range merged {
		g.Go(func() error {
			res, err := p.snapshots.GetSnapshot(gctx, SnapshotRequest{Symbol: string(h.Symbol), UserID: userID, Trusted: true})
			if err != nil {
				return fmt.Errorf("holding %s: %w", h.Symbol, err)
			}
			series[i] = domain.HoldingSeries{Holding: h, History: res.Snapshot.History}
			if res.Notice != nil {
				mu.Lock()
				notices[h.Symbol] = *res.Notice
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.PortfolioTimeline{}, err
	}

	aligned := analytics.AlignTimeline(series)
	p.log.Info("portfolio.timeline_built",
		zap.String("user_id", userID),
		zap.Int("holdings", len(merged)),
		zap.Int("points", len(aligned.Points)),
		zap.String("driver", string(aligned.DriverSymbol)),
	)
	out := domain.PortfolioTimeline{
		Points:       aligned.Points,
		DriverSymbol: aligned.DriverSymbol,
		Summary:      analytics.Summarize(aligned.Points),
	}
	if len(notices) > 0 {
		out.Notices = notices
	}
	return out, nil
}

func mergeHoldings(in []domain.Holding) ([]domain.Holding, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("holdings required: %w", ErrBadRequest)
	}
	idx := map[domain.Symbol]int{}
	var out []domain.Holding
	for _, h := range in {
		sym, ok := domain.NormalizeSymbol(string(h.Symbol))
		if !ok {
			return nil, fmt.Errorf("holding symbol %q: %w", h.Symbol, domain.ErrInvalidSymbol)
		}
		if !h.Quantity.GreaterThan(decimal.Zero) {
			return nil, fmt.Errorf("holding %s quantity %s: %w", sym, h.Quantity, ErrBadRequest)
		}
		if i, seen := idx[sym]; seen {
			out[i].Quantity = out[i].Quantity.Add(h.Quantity)
			continue
		}
		idx[sym] = len(out)
		out = append(out, domain.Holding{Symbol: sym, Quantity: h.Quantity})
	}
	return out, nil
}
