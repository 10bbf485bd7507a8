package analytics

import (
	"math"

	"assetsync-service/internal/domain"
)

// MaxDrawdown returns the deepest peak-to-trough decline of an ascending series as a
// fraction (-0.25 is a 25% drawdown). Points priced at or below zero are ignored.
func MaxDrawdown(points []domain.TimelinePoint) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	valid := 0
	for _, p := range points {
		if p.AggregateValue <= 0 {
			continue
		}
		valid++
		peak = math.Max(peak, p.AggregateValue)
		if dd := (p.AggregateValue - peak) / peak; dd < worst {
			worst = dd
		}
	}
	if valid < 2 {
		return 0
	}
	return worst
}

// AnnualReturns computes one return per calendar year. The base of a year is the previous
// year's last close, or its own first close when it is the first year of the series.
// Best and worst are nil when fewer than two usable points exist.
func AnnualReturns(points []domain.TimelinePoint) (years []domain.YearReturn, best, worst *domain.YearReturn) {
	type yearBounds struct {
		year        int
		first, last float64
	}
	var groups []yearBounds
	usable := 0
	for _, p := range points {
		if p.AggregateValue <= 0 {
			continue
		}
		usable++
		y := p.Date.Year()
		if n := len(groups); n > 0 && groups[n-1].year == y {
			groups[n-1].last = p.AggregateValue
			continue
		}
		groups = append(groups, yearBounds{year: y, first: p.AggregateValue, last: p.AggregateValue})
	}
	if usable < 2 {
		return nil, nil, nil
	}

	years = make([]domain.YearReturn, 0, len(groups))
	for i, g := range groups {
		base := g.first
		if i > 0 {
			base = groups[i-1].last
		}
		years = append(years, domain.YearReturn{Year: g.year, Return: (g.last - base) / base})
	}
	for i := range years {
		if best == nil || years[i].Return > best.Return {
			best = &years[i]
		}
		if worst == nil || years[i].Return < worst.Return {
			worst = &years[i]
		}
	}
	b, w := *best, *worst
	return years, &b, &w
}

// Summarize derives drawdown and annual return extremes from an ascending series.
func Summarize(points []domain.TimelinePoint) domain.PerformanceSummary {
	years, best, worst := AnnualReturns(points)
	return domain.PerformanceSummary{
		MaxDrawdown: MaxDrawdown(points),
		Years:       years,
		Best:        best,
		Worst:       worst,
	}
}

// HistoryPoints adapts a single instrument's price history to the series type used here.
func HistoryPoints(history []domain.PriceHistoryPoint) []domain.TimelinePoint {
	out := make([]domain.TimelinePoint, 0, len(history))
	for _, h := range history {
		out = append(out, domain.TimelinePoint{Date: h.Date, AggregateValue: h.Close})
	}
	return out
}
