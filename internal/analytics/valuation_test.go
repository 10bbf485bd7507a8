package analytics

import (
	"testing"
	"time"

	"assetsync-service/internal/domain"

	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func dcf(date string, v float64) domain.DCFEstimate {
	d, _ := domain.ParseDate(date)
	return domain.DCFEstimate{Date: d, Value: domain.Float(v)}
}

func TestReconcile_PriorityTable(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name       string
		levered    *float64
		historical []domain.DCFEstimate
		want       float64
		label      domain.ValuationLabel
	}{
		{"levered sane", f(110), nil, 110, domain.LabelPrimary},
		{"levered insane historical sane", f(3000), []domain.DCFEstimate{dcf("2024-01-01", 108)}, 108, domain.LabelAdjusted},
		{"both insane", f(3000), []domain.DCFEstimate{dcf("2024-01-01", 3500)}, 3000, domain.LabelUnadjustedAnomalous},
		{"historical only insane", nil, []domain.DCFEstimate{dcf("2024-01-01", 1)}, 1, domain.LabelHistoricalAnomalous},
		{"historical only sane", nil, []domain.DCFEstimate{dcf("2024-01-01", 90)}, 90, domain.LabelAdjusted},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			got, err := Reconcile(100, c.levered, c.historical)
			require.NoError(t, err)
			require.InDelta(t, c.want, got.Value, 1e-9)
			require.Equal(t, c.label, got.Label)
		})
	}
}

func TestReconcile_NoCandidates(t *testing.T) {
	t.Parallel()
	_, err := Reconcile(100, nil, nil)
	require.ErrorIs(t, err, domain.ErrValuationUnavailable)

	_, err = Reconcile(100, nil, []domain.DCFEstimate{{Date: domain.NewDate(2024, time.January, 1)}})
	require.ErrorIs(t, err, domain.ErrValuationUnavailable)
}

func TestReconcile_MispricingAndRanking(t *testing.T) {
	t.Parallel()
	got, err := Reconcile(100, f(110), nil)
	require.NoError(t, err)
	require.NotNil(t, got.MispricingPct)
	require.InDelta(t, 10, *got.MispricingPct, 1e-9)
	require.True(t, got.Rankable)

	got, err = Reconcile(10, f(600), nil)
	require.NoError(t, err)
	require.Equal(t, domain.LabelUnadjustedAnomalous, got.Label)
	require.InDelta(t, 600, got.Value, 1e-9)
	require.InDelta(t, 5900, *got.MispricingPct, 1e-9)
	require.False(t, got.Rankable)
}

func TestReconcile_ZeroPriceIsTriviallySane(t *testing.T) {
	t.Parallel()
	got, err := Reconcile(0, f(123), []domain.DCFEstimate{dcf("2024-01-01", 1)})
	require.NoError(t, err)
	require.Equal(t, domain.LabelPrimary, got.Label)
	require.Nil(t, got.MispricingPct)
	require.False(t, got.Rankable)
}

func TestReconcile_SaneBoundsAreExclusive(t *testing.T) {
	t.Parallel()
	require.False(t, sane(2, 100))
	require.True(t, sane(2.01, 100))
	require.False(t, sane(5000, 100))
	require.True(t, sane(4999, 100))
	require.False(t, sane(10, -1))
}

func TestReconcile_UsesNewestHistoricalEntry(t *testing.T) {
	t.Parallel()
	hist := []domain.DCFEstimate{
		dcf("2021-09-25", 70),
		dcf("2023-09-30", 105),
		dcf("2022-09-24", 95),
	}
	got, err := Reconcile(100, nil, hist)
	require.NoError(t, err)
	require.InDelta(t, 105, got.Value, 1e-9)
	require.Equal(t, domain.SourceHistorical, got.Source)
}

func TestReconcileSnapshot(t *testing.T) {
	t.Parallel()
	snap := domain.CanonicalAssetSnapshot{
		Profile:    domain.Profile{Symbol: "AAPL", Price: domain.Float(95)},
		Quote:      &domain.Quote{Price: 100},
		LeveredDCF: &domain.DCFEstimate{Value: domain.Float(120)},
	}
	got, err := ReconcileSnapshot(snap)
	require.NoError(t, err)
	require.InDelta(t, 20, *got.MispricingPct, 1e-9)
	require.Equal(t, domain.LabelPrimary, got.Label)
}
