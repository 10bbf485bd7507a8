package application

import (
	"context"
	"testing"

	"assetsync-service/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestValuationService_ForSymbol(t *testing.T) {
	t.Parallel()
	lev := domain.Float(6000)
	stub := &stubSnapshots{bySymbol: map[string]SnapshotResult{
		"AAPL": {Snapshot: domain.CanonicalAssetSnapshot{
			Symbol:     "AAPL",
			Quote:      &domain.Quote{Price: 100},
			LeveredDCF: &domain.DCFEstimate{Value: lev},
			DCFSeries: []domain.DCFEstimate{
				{Date: domain.NewDate(2023, 9, 30), Value: domain.Float(108)},
				{Date: domain.NewDate(2022, 9, 24), Value: domain.Float(3500)},
			},
		}},
	}}
	got, err := NewValuationService(stub).ForSymbol(context.Background(), SnapshotRequest{Symbol: "AAPL", UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, domain.LabelAdjusted, got.Valuation.Label)
	require.InDelta(t, 108, got.Valuation.Value, 1e-9)
}

func TestValuationService_Reconcile(t *testing.T) {
	t.Parallel()
	svc := NewValuationService(&stubSnapshots{})
	_, err := svc.Reconcile(ValuationInput{Price: 100})
	require.ErrorIs(t, err, domain.ErrValuationUnavailable)

	_, err = svc.Reconcile(ValuationInput{Price: -1})
	require.ErrorIs(t, err, ErrBadRequest)
}

func TestValuationService_ForSymbolWithoutEstimates(t *testing.T) {
	t.Parallel()
	stub := &stubSnapshots{bySymbol: map[string]SnapshotResult{
		"AAPL": {Snapshot: domain.CanonicalAssetSnapshot{Symbol: "AAPL", Quote: &domain.Quote{Price: 100}}},
	}}
	_, err := NewValuationService(stub).ForSymbol(context.Background(), SnapshotRequest{Symbol: "AAPL"})
	require.ErrorIs(t, err, domain.ErrValuationUnavailable)
}
