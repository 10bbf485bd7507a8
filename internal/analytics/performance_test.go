package analytics

import (
	"testing"

	"assetsync-service/internal/domain"

	"github.com/stretchr/testify/require"
)

func pts(pairs ...any) []domain.TimelinePoint {
	var out []domain.TimelinePoint
	for i := 0; i < len(pairs); i += 2 {
		d, _ := domain.ParseDate(pairs[i].(string))
		out = append(out, domain.TimelinePoint{Date: d, AggregateValue: pairs[i+1].(float64)})
	}
	return out
}

func TestMaxDrawdown(t *testing.T) {
	t.Parallel()
	require.Equal(t, 0.0, MaxDrawdown(nil))
	require.Equal(t, 0.0, MaxDrawdown(pts("2024-01-01", 10.0)))
	require.Equal(t, 0.0, MaxDrawdown(pts("2024-01-01", 10.0, "2024-01-02", 11.0, "2024-01-03", 15.0)))

	dd := MaxDrawdown(pts("2024-01-01", 100.0, "2024-01-02", 120.0, "2024-01-03", 90.0, "2024-01-04", 130.0, "2024-01-05", 117.0))
	require.InDelta(t, -0.25, dd, 1e-9)
}

func TestMaxDrawdown_IgnoresNonPositive(t *testing.T) {
	t.Parallel()
	dd := MaxDrawdown(pts("2024-01-01", 100.0, "2024-01-02", 0.0, "2024-01-03", 80.0))
	require.InDelta(t, -0.2, dd, 1e-9)
	require.LessOrEqual(t, dd, 0.0)
}

func TestAnnualReturns_UsesPreviousYearClose(t *testing.T) {
	t.Parallel()
	years, best, worst := AnnualReturns(pts(
		"2022-01-03", 80.0,
		"2022-12-30", 100.0,
		"2023-01-03", 120.0,
		"2023-12-29", 130.0,
	))
	require.Len(t, years, 2)
	require.Equal(t, 2022, years[0].Year)
	require.InDelta(t, 0.25, years[0].Return, 1e-9)
	require.InDelta(t, 0.30, years[1].Return, 1e-9)
	require.Equal(t, 2022, best.Year)
	require.Equal(t, 2023, worst.Year)
}

func TestAnnualReturns_TooFewPoints(t *testing.T) {
	t.Parallel()
	years, best, worst := AnnualReturns(pts("2024-01-01", 10.0))
	require.Nil(t, years)
	require.Nil(t, best)
	require.Nil(t, worst)
}

func TestSummarize(t *testing.T) {
	t.Parallel()
	s := Summarize(pts("2023-06-01", 50.0, "2023-12-29", 40.0, "2024-12-31", 60.0))
	require.InDelta(t, -0.2, s.MaxDrawdown, 1e-9)
	require.NotNil(t, s.Best)
	require.Equal(t, 2024, s.Best.Year)
	require.InDelta(t, 0.5, s.Best.Return, 1e-9)
	require.Equal(t, 2023, s.Worst.Year)
}

func TestHistoryPoints_FeedsSummary(t *testing.T) {
	t.Parallel()
	d := func(s string) domain.Date { v, _ := domain.ParseDate(s); return v }
	history := []domain.PriceHistoryPoint{
		{Date: d("2023-12-29"), Close: 100},
		{Date: d("2024-06-28"), Close: 80},
		{Date: d("2024-12-31"), Close: 120},
	}
	got := HistoryPoints(history)
	require.Equal(t, pts("2023-12-29", 100.0, "2024-06-28", 80.0, "2024-12-31", 120.0), got)

	sum := Summarize(got)
	require.InDelta(t, -0.2, sum.MaxDrawdown, 1e-9)
	require.Len(t, sum.Years, 2)
	require.Equal(t, 2024, sum.Best.Year)
	require.InDelta(t, 0.2, sum.Best.Return, 1e-9)
}
