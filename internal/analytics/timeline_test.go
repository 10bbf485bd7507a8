package analytics

import (
	"testing"

	"assetsync-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func series(sym string, qty int64, prices map[string]float64) domain.HoldingSeries {
	s := domain.HoldingSeries{Holding: domain.Holding{Symbol: domain.Symbol(sym), Quantity: decimal.NewFromInt(qty)}}
	for d, p := range prices {
		date, _ := domain.ParseDate(d)
		s.History = append(s.History, domain.PriceHistoryPoint{Date: date, Close: p})
	}
	return s
}

func TestAlignTimeline_DropsPartiallyPricedDates(t *testing.T) {
	t.Parallel()
	a := series("A", 2, map[string]float64{"2024-01-01": 10, "2024-01-02": 11, "2024-01-03": 12})
	b := series("B", 1, map[string]float64{"2024-01-01": 100, "2024-01-03": 90})

	got := AlignTimeline([]domain.HoldingSeries{a, b})
	require.Len(t, got.Points, 2)
	require.Equal(t, "2024-01-01", got.Points[0].Date.String())
	require.Equal(t, "2024-01-03", got.Points[1].Date.String())
	require.InDelta(t, 120, got.Points[0].AggregateValue, 1e-9)
	require.InDelta(t, 114, got.Points[1].AggregateValue, 1e-9)
}

func TestAlignTimeline_DriverIsShortestHistory(t *testing.T) {
	t.Parallel()
	long := series("OLD", 1, map[string]float64{"2023-12-28": 5, "2023-12-29": 5, "2024-01-02": 6, "2024-01-03": 7})
	short := series("NEW", 1, map[string]float64{"2024-01-02": 1, "2024-01-03": 2, "2024-01-04": 3})

	got := AlignTimeline([]domain.HoldingSeries{long, short})
	require.Equal(t, domain.Symbol("NEW"), got.DriverSymbol)
	require.Len(t, got.Points, 2)
	require.Equal(t, "2024-01-02", got.Points[0].Date.String())
	require.InDelta(t, 7, got.Points[0].AggregateValue, 1e-9)
	require.InDelta(t, 9, got.Points[1].AggregateValue, 1e-9)
}

func TestAlignTimeline_EmptyInputs(t *testing.T) {
	t.Parallel()
	require.Empty(t, AlignTimeline(nil).Points)

	a := series("A", 1, map[string]float64{"2024-01-01": 10})
	empty := series("B", 1, nil)
	require.Empty(t, AlignTimeline([]domain.HoldingSeries{a, empty}).Points)
}

func TestAlignTimeline_FractionalQuantities(t *testing.T) {
	t.Parallel()
	s := series("A", 0, map[string]float64{"2024-01-01": 0.1})
	s.Holding.Quantity = decimal.RequireFromString("0.3")
	got := AlignTimeline([]domain.HoldingSeries{s})
	require.Len(t, got.Points, 1)
	require.Equal(t, 0.03, got.Points[0].AggregateValue)
}
