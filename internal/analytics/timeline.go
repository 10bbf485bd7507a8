package analytics

import (
	"sort"

	"assetsync-service/internal/domain"

	"github.com/shopspring/decimal"
)

// TimelineResult is the aligned aggregate series and the holding that bounded it.
type TimelineResult struct {
	Points       []domain.TimelinePoint
	DriverSymbol domain.Symbol
}

type pricedSeries struct {
	holding domain.Holding
	byDate  map[string]decimal.Decimal
	dates   []domain.Date // newest first
	oldest  domain.Date
}

// AlignTimeline sums quantity x price per date across holdings. The holding with the
// shortest history drives the dates, and a date is kept only when every holding has a
// price on exactly that day. No interpolation or carry-forward is done.
func AlignTimeline(series []domain.HoldingSeries) TimelineResult {
	if len(series) == 0 {
		return TimelineResult{}
	}
	priced := make([]pricedSeries, 0, len(series))
	for _, s := range series {
		if len(s.History) == 0 {
			return TimelineResult{}
		}
		priced = append(priced, index(s))
	}

	driver := 0
	for i := 1; i < len(priced); i++ {
		if priced[i].oldest.After(priced[driver].oldest.Time) {
			driver = i
		}
	}
	d := priced[driver]

	points := make([]domain.TimelinePoint, 0, len(d.dates))
	for _, date := range d.dates {
		if date.Before(d.oldest.Time) {
			continue
		}
		key := date.String()
		total := decimal.Zero
		complete := true
		for _, p := range priced {
			price, ok := p.byDate[key]
			if !ok {
				complete = false
				break
			}
			total = total.Add(p.holding.Quantity.Mul(price))
		}
		if !complete {
			continue
		}
		points = append(points, domain.TimelinePoint{Date: date, AggregateValue: total.InexactFloat64()})
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date.Time) })
	return TimelineResult{Points: points, DriverSymbol: d.holding.Symbol}
}

func index(s domain.HoldingSeries) pricedSeries {
	hist := make([]domain.PriceHistoryPoint, len(s.History))
	copy(hist, s.History)
	sort.SliceStable(hist, func(i, j int) bool { return hist[i].Date.After(hist[j].Date.Time) })

	p := pricedSeries{
		holding: s.Holding,
		byDate:  make(map[string]decimal.Decimal, len(hist)),
		dates:   make([]domain.Date, 0, len(hist)),
		oldest:  hist[len(hist)-1].Date,
	}
	for _, h := range hist {
		key := h.Date.String()
		if _, dup := p.byDate[key]; dup {
			continue
		}
		p.byDate[key] = decimal.NewFromFloat(h.Close)
		p.dates = append(p.dates, h.Date)
	}
	return p
}
