package provider

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"math"
	"time"

	"assetsync-service/internal/application"
	"assetsync-service/internal/domain"
)

// Ensure Fake implements application.MarketDataProvider.
var _ application.MarketDataProvider = (*Fake)(nil)

// Fake serves deterministic, upstream-shaped payloads for any symbol. Symbols in Unknown
// answer with empty lists, like the real API does for unlisted tickers.
type Fake struct {
	Days    int
	Anchor  domain.Date
	Unknown map[domain.Symbol]bool
}

func NewFake() *Fake {
	return &Fake{Days: 520, Anchor: domain.DateOf(time.Now())}
}

type obj = map[string]any

func (f *Fake) Fetch(ctx context.Context, ep domain.Endpoint, sym domain.Symbol) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Unknown[sym] {
		return json.RawMessage(`[]`), nil
	}
	s := string(sym)
	hist := f.history(sym)
	last := hist[len(hist)-1]["close"].(float64)
	day := f.Anchor.String()

	var v any
	switch ep {
	case domain.EndpointProfile:
		v = []obj{{"symbol": s, "companyName": s + " Inc.", "currency": "USD", "exchange": "NASDAQ",
			"sector": "Technology", "industry": "Software", "country": "US", "price": last,
			"marketCap": last * 1e9, "beta": 1.1, "ipoDate": "2004-08-19"}}
	case domain.EndpointQuote:
		v = []obj{{"symbol": s, "price": last, "dayLow": last * 0.98, "dayHigh": last * 1.01,
			"marketCap": last * 1e9, "volume": 1_250_000, "timestamp": f.Anchor.Unix()}}
	case domain.EndpointKeyMetricsTTM:
		v = []obj{{"symbol": s, "peRatioTTM": 21.4, "returnOnEquityTTM": 0.18}}
	case domain.EndpointHistoricalPrices:
		v = obj{"symbol": s, "historical": hist}
	case domain.EndpointPriceTarget:
		v = []obj{{"symbol": s, "lastMonthAvgPriceTarget": last * 1.1, "lastYearAvgPriceTarget": last * 1.05, "lastMonthCount": 4}}
	case domain.EndpointDCF:
		v = []obj{{"symbol": s, "date": day, "dcf": last * 1.08, "Stock Price": last}}
	case domain.EndpointLeveredDCF:
		v = []obj{{"symbol": s, "date": day, "dcf": last * 1.15, "Stock Price": last}}
	case domain.EndpointRating:
		v = []obj{{"symbol": s, "date": day, "rating": "B+", "overallScore": 4}}
	case domain.EndpointGeographicRevenue:
		v = []obj{{"date": day, "data": obj{"Americas": 6.1e9, "Europe": 3.2e9}}}
	case domain.EndpointProductRevenue:
		v = []obj{{"date": day, "data": obj{"Services": 4.4e9, "Devices": 4.9e9}}}
	case domain.EndpointPriceTargetConsensus:
		v = []obj{{"symbol": s, "targetHigh": last * 1.4, "targetLow": last * 0.8, "targetMedian": last * 1.1, "targetConsensus": last * 1.12}}
	case domain.EndpointGradesConsensus:
		v = []obj{{"symbol": s, "strongBuy": 2, "buy": 11, "hold": 6, "sell": 1, "consensus": "Buy"}}
	case domain.EndpointAnalystEstimates, domain.EndpointRatios, domain.EndpointKeyMetricsAnnual:
		v = []obj{{"symbol": s, "date": day, "period": "FY"}}
	case domain.EndpointStockPriceChange:
		v = []obj{{"symbol": s, "1D": 0.4, "5D": -1.2, "1Y": 14.8}}
	case domain.EndpointGradesHistorical:
		v = []obj{{"symbol": s, "date": day, "gradingCompany": "Fake Research", "previousGrade": "Hold", "newGrade": "Buy", "action": "upgrade"}}
	default:
		v = []obj{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// history returns Days weekday closes ending at Anchor, newest first like the upstream.
func (f *Fake) history(sym domain.Symbol) []obj {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sym))
	seed := h.Sum32()
	base := 20 + float64(seed%200)
	phase := float64(seed % 97)

	days := max(f.Days, 2)
	out := make([]obj, 0, days)
	d := f.Anchor.Time
	for len(out) < days {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n := float64(days - len(out))
			c := math.Round(base*(1+0.15*math.Sin((n+phase)/23)+0.0004*n)*100) / 100
			out = append(out, obj{"date": d.Format(domain.DateLayout), "close": c, "adjClose": c, "volume": 1_000_000})
		}
		d = d.AddDate(0, 0, -1)
	}
	return out
}
