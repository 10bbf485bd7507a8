package application

import (
	"context"
	"fmt"

	"assetsync-service/internal/analytics"
	"assetsync-service/internal/domain"
)

type ValuationInput struct {
	Price      float64
	Levered    *float64
	Historical []domain.DCFEstimate
}

type SymbolValuation struct {
	Symbol    domain.Symbol
	Valuation domain.Valuation
	Notice    *domain.Notice
}

type ValuationService struct {
	snapshots SnapshotGetter
}

func NewValuationService(snapshots SnapshotGetter) *ValuationService {
	return &ValuationService{snapshots: snapshots}
}

func (v *ValuationService) Reconcile(in ValuationInput) (domain.Valuation, error) {
	if in.Price < 0 {
		return domain.Valuation{}, fmt.Errorf("negative price: %w", ErrBadRequest)
	}
	return analytics.Reconcile(in.Price, in.Levered, in.Historical)
}

// ForSymbol reconciles the DCF figures of the symbol's current snapshot.
func (v *ValuationService) ForSymbol(ctx context.Context, req SnapshotRequest) (SymbolValuation, error) {
	res, err := v.snapshots.GetSnapshot(ctx, req)
	if err != nil {
		return SymbolValuation{}, err
	}
	val, err := analytics.ReconcileSnapshot(res.Snapshot)
	if err != nil {
		return SymbolValuation{}, fmt.Errorf("%s: %w", res.Snapshot.Symbol, err)
	}
	return SymbolValuation{Symbol: res.Snapshot.Symbol, Valuation: val, Notice: res.Notice}, nil
}
