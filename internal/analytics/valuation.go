// Package analytics holds the pure valuation, alignment and performance calculations.
package analytics

import (
	"fmt"
	"math"
	"sort"

	"assetsync-service/internal/domain"
)

const (
	minSaneRatio = 0.02
	maxSaneRatio = 50.0
	// MaxRankableMispricingPct bounds mispricings that are still trusted for ranking.
	MaxRankableMispricingPct = 5000.0
)

// Reconcile selects one intrinsic value from the levered estimate and the newest historical
// estimate. It returns domain.ErrValuationUnavailable when neither exists.
func Reconcile(price float64, levered *float64, historical []domain.DCFEstimate) (domain.Valuation, error) {
	var candidates []domain.ValuationCandidate
	if levered != nil && !math.IsNaN(*levered) {
		candidates = append(candidates, domain.ValuationCandidate{Value: *levered, Source: domain.SourceLevered})
	}
	if b, ok := latestEstimate(historical); ok {
		candidates = append(candidates, domain.ValuationCandidate{Value: b, Source: domain.SourceHistorical})
	}
	return selectCandidate(price, candidates)
}

func selectCandidate(price float64, candidates []domain.ValuationCandidate) (domain.Valuation, error) {
	var a, b *domain.ValuationCandidate
	for i := range candidates {
		switch candidates[i].Source {
		case domain.SourceLevered:
			a = &candidates[i]
		case domain.SourceHistorical:
			b = &candidates[i]
		}
	}

	var (
		sel   *domain.ValuationCandidate
		label domain.ValuationLabel
	)
	switch {
	case a != nil && sane(a.Value, price):
		sel, label = a, domain.LabelPrimary
	case b != nil && sane(b.Value, price):
		sel, label = b, domain.LabelAdjusted
	case a != nil:
		sel, label = a, domain.LabelUnadjustedAnomalous
	case b != nil:
		sel, label = b, domain.LabelHistoricalAnomalous
	default:
		return domain.Valuation{}, fmt.Errorf("reconcile: %w", domain.ErrValuationUnavailable)
	}

	out := domain.Valuation{Value: sel.Value, Label: label, Source: sel.Source, Price: price}
	if price != 0 {
		pct := (sel.Value - price) / price * 100
		out.MispricingPct = &pct
		out.Rankable = math.Abs(pct) <= MaxRankableMispricingPct
	}
	return out, nil
}

// sane reports whether c is within roughly 2%..5000% of price. A zero price defers the check.
func sane(c, price float64) bool {
	if price == 0 {
		return true
	}
	if price < 0 {
		return false
	}
	r := c / price
	return r > minSaneRatio && r < maxSaneRatio
}

// latestEstimate returns the value of the most recent dated estimate that carries a number.
func latestEstimate(series []domain.DCFEstimate) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	sorted := make([]domain.DCFEstimate, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date.Time) })
	for _, e := range sorted {
		if e.Value.Valid && !math.IsNaN(e.Value.Value) {
			return e.Value.Value, true
		}
	}
	return 0, false
}

// ReconcileSnapshot runs Reconcile on a snapshot's market price and DCF sub-records.
func ReconcileSnapshot(s domain.CanonicalAssetSnapshot) (domain.Valuation, error) {
	var levered *float64
	if s.LeveredDCF != nil {
		levered = s.LeveredDCF.Value.Ptr()
	}
	return Reconcile(s.MarketPrice(), levered, s.DCFSeries)
}
