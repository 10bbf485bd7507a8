// Package normalizer merges the raw per-endpoint upstream payloads of one symbol into a
// CanonicalAssetSnapshot.
package normalizer

import (
	"encoding/json"
	"fmt"

	"assetsync-service/internal/domain"
)

// Responses holds the raw body of each endpoint call, keyed by endpoint.
type Responses map[domain.Endpoint]json.RawMessage

// Issue records an optional endpoint whose payload could not be fully decoded. The affected
// sub-record is left nil, unless Err is a *PartialError: then it keeps the elements that
// decoded.
type Issue struct {
	Endpoint domain.Endpoint
	Err      error
}

func (i Issue) Error() string { return fmt.Sprintf("%s: %v", i.Endpoint, i.Err) }

// Normalize builds the canonical snapshot. It fails with domain.ErrNotFound when the profile
// is missing or empty; every other sub-record is optional.
func Normalize(symbol domain.Symbol, res Responses) (domain.CanonicalAssetSnapshot, []Issue, error) {
	profile, err := decodeProfile(res[domain.EndpointProfile])
	if err != nil {
		return domain.CanonicalAssetSnapshot{}, nil, fmt.Errorf("normalize %s: %w", symbol, err)
	}

	snap := domain.CanonicalAssetSnapshot{Symbol: symbol, Profile: profile}
	var issues []Issue
	note := func(ep domain.Endpoint, err error) {
		if err != nil {
			issues = append(issues, Issue{Endpoint: ep, Err: err})
		}
	}

	snap.Quote, err = decodeOne[domain.Quote](res[domain.EndpointQuote])
	note(domain.EndpointQuote, err)
	snap.KeyMetricsTTM, err = rawOne(res[domain.EndpointKeyMetricsTTM])
	note(domain.EndpointKeyMetricsTTM, err)
	snap.History, err = decodeHistory(res[domain.EndpointHistoricalPrices])
	note(domain.EndpointHistoricalPrices, err)
	snap.PriceTarget, err = decodeOne[domain.PriceTarget](res[domain.EndpointPriceTarget])
	note(domain.EndpointPriceTarget, err)
	snap.DCFSeries, err = decodeDCFSeries(res[domain.EndpointDCF])
	note(domain.EndpointDCF, err)
	snap.LeveredDCF, err = decodeOne[domain.DCFEstimate](res[domain.EndpointLeveredDCF])
	note(domain.EndpointLeveredDCF, err)
	snap.Rating, err = decodeOne[domain.Rating](res[domain.EndpointRating])
	note(domain.EndpointRating, err)
	snap.GeographicRevenue, err = decodeRevenue(res[domain.EndpointGeographicRevenue])
	note(domain.EndpointGeographicRevenue, err)
	snap.ProductRevenue, err = decodeRevenue(res[domain.EndpointProductRevenue])
	note(domain.EndpointProductRevenue, err)
	snap.PriceTargetConsensus, err = decodeOne[domain.PriceTargetConsensus](res[domain.EndpointPriceTargetConsensus])
	note(domain.EndpointPriceTargetConsensus, err)
	snap.GradesConsensus, err = decodeOne[domain.GradesConsensus](res[domain.EndpointGradesConsensus])
	note(domain.EndpointGradesConsensus, err)
	snap.AnalystEstimates, err = rawList(res[domain.EndpointAnalystEstimates])
	note(domain.EndpointAnalystEstimates, err)
	snap.Ratios, err = rawList(res[domain.EndpointRatios])
	note(domain.EndpointRatios, err)
	snap.KeyMetricsAnnual, err = rawList(res[domain.EndpointKeyMetricsAnnual])
	note(domain.EndpointKeyMetricsAnnual, err)
	snap.StockPriceChange, err = decodePriceChange(res[domain.EndpointStockPriceChange])
	note(domain.EndpointStockPriceChange, err)

	return snap, issues, nil
}

func decodeProfile(raw json.RawMessage) (domain.Profile, error) {
	item, ok, err := singleton(raw)
	if err != nil || !ok {
		return domain.Profile{}, fmt.Errorf("profile: %w", domain.ErrNotFound)
	}
	var p domain.Profile
	if err := json.Unmarshal(item, &p); err != nil || p.Symbol == "" {
		return domain.Profile{}, fmt.Errorf("profile: %w", domain.ErrNotFound)
	}
	return p, nil
}

func decodeOne[T any](raw json.RawMessage) (*T, error) {
	item, ok, err := singleton(raw)
	if err != nil || !ok {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(item, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func rawOne(raw json.RawMessage) (json.RawMessage, error) {
	item, ok, err := singleton(raw)
	if err != nil || !ok {
		return nil, err
	}
	return item, nil
}

func decodePriceChange(raw json.RawMessage) (domain.StockPriceChange, error) {
	ch, err := decodeOne[domain.StockPriceChange](raw)
	if err != nil || ch == nil {
		return nil, err
	}
	out := *ch
	for k, v := range out {
		if !v.Valid {
			delete(out, k)
		}
	}
	return out, nil
}
