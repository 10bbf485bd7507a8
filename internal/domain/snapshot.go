package domain

import (
	"encoding/json"
	"time"
)

// Endpoint names one upstream call of the fixed per-symbol set.
type Endpoint string

const (
	EndpointProfile              Endpoint = "profile"
	EndpointKeyMetricsTTM        Endpoint = "key-metrics-ttm"
	EndpointQuote                Endpoint = "quote"
	EndpointHistoricalPrices     Endpoint = "historical-prices"
	EndpointPriceTarget          Endpoint = "price-target"
	EndpointDCF                  Endpoint = "discounted-cash-flow"
	EndpointLeveredDCF           Endpoint = "levered-discounted-cash-flow"
	EndpointRating               Endpoint = "rating"
	EndpointGeographicRevenue    Endpoint = "revenue-geographic-segmentation"
	EndpointProductRevenue       Endpoint = "revenue-product-segmentation"
	EndpointPriceTargetConsensus Endpoint = "price-target-consensus"
	EndpointGradesConsensus      Endpoint = "grades-consensus"
	EndpointAnalystEstimates     Endpoint = "analyst-estimates"
	EndpointRatios               Endpoint = "ratios"
	EndpointKeyMetricsAnnual     Endpoint = "key-metrics"
	EndpointStockPriceChange     Endpoint = "stock-price-change"

	// EndpointGradesHistorical backs the analyst-grade history auxiliary cache.
	EndpointGradesHistorical Endpoint = "grades-historical"
)

// SnapshotEndpoints is the fixed set fetched on every snapshot refresh.
var SnapshotEndpoints = []Endpoint{
	EndpointProfile,
	EndpointKeyMetricsTTM,
	EndpointQuote,
	EndpointHistoricalPrices,
	EndpointPriceTarget,
	EndpointDCF,
	EndpointRating,
	EndpointGeographicRevenue,
	EndpointProductRevenue,
	EndpointPriceTargetConsensus,
	EndpointGradesConsensus,
	EndpointAnalystEstimates,
	EndpointRatios,
	EndpointKeyMetricsAnnual,
	EndpointLeveredDCF,
	EndpointStockPriceChange,
}

type Profile struct {
	Symbol      string    `json:"symbol"`
	CompanyName string    `json:"companyName"`
	Currency    string    `json:"currency"`
	Exchange    string    `json:"exchange"`
	Sector      string    `json:"sector"`
	Industry    string    `json:"industry"`
	Country     string    `json:"country"`
	Price       FlexFloat `json:"price"`
	MarketCap   FlexFloat `json:"marketCap"`
	Beta        FlexFloat `json:"beta"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	IPODate     string    `json:"ipoDate"`
}

type PriceTarget struct {
	Symbol         string    `json:"symbol"`
	LastMonthAvg   FlexFloat `json:"lastMonthAvgPriceTarget"`
	LastQuarterAvg FlexFloat `json:"lastQuarterAvgPriceTarget"`
	LastYearAvg    FlexFloat `json:"lastYearAvgPriceTarget"`
	AllTimeAvg     FlexFloat `json:"allTimeAvgPriceTarget"`
	LastMonthCount int       `json:"lastMonthCount"`
	LastYearCount  int       `json:"lastYearCount"`
	AllTimeCount   int       `json:"allTimeCount"`
}

type PriceTargetConsensus struct {
	Symbol string    `json:"symbol"`
	High   FlexFloat `json:"targetHigh"`
	Low    FlexFloat `json:"targetLow"`
	Median FlexFloat `json:"targetMedian"`
	Mean   FlexFloat `json:"targetConsensus"`
}

type GradesConsensus struct {
	Symbol     string `json:"symbol"`
	StrongBuy  int    `json:"strongBuy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strongSell"`
	Consensus  string `json:"consensus"`
}

type Rating struct {
	Symbol         string `json:"symbol"`
	Date           Date   `json:"date"`
	Rating         string `json:"rating"`
	OverallScore   int    `json:"overallScore"`
	DCFScore       int    `json:"discountedCashFlowScore"`
	ROEScore       int    `json:"returnOnEquityScore"`
	ROAScore       int    `json:"returnOnAssetsScore"`
	DebtToEqScore  int    `json:"debtToEquityScore"`
	PEScore        int    `json:"priceToEarningsScore"`
	PBScore        int    `json:"priceToBookScore"`
	Recommendation string `json:"recommendation,omitempty"`
}

// RevenueSegment is one reporting period of a revenue breakdown.
type RevenueSegment struct {
	Date     Date               `json:"date"`
	Segments map[string]float64 `json:"segments"`
}

// CanonicalAssetSnapshot merges every endpoint of SnapshotEndpoints for one symbol.
// Profile is the only required sub-record.
type CanonicalAssetSnapshot struct {
	Symbol               Symbol                `json:"symbol"`
	Profile              Profile               `json:"profile"`
	Quote                *Quote                `json:"quote"`
	KeyMetricsTTM        json.RawMessage       `json:"keyMetricsTTM"`
	History              []PriceHistoryPoint   `json:"history"`
	PriceTarget          *PriceTarget          `json:"priceTarget"`
	DCFSeries            []DCFEstimate         `json:"dcfSeries"`
	LeveredDCF           *DCFEstimate          `json:"leveredDcf"`
	Rating               *Rating               `json:"rating"`
	GeographicRevenue    []RevenueSegment      `json:"geographicRevenue"`
	ProductRevenue       []RevenueSegment      `json:"productRevenue"`
	PriceTargetConsensus *PriceTargetConsensus `json:"priceTargetConsensus"`
	GradesConsensus      *GradesConsensus      `json:"gradesConsensus"`
	AnalystEstimates     json.RawMessage       `json:"analystEstimates"`
	Ratios               json.RawMessage       `json:"ratios"`
	KeyMetricsAnnual     json.RawMessage       `json:"keyMetricsAnnual"`
	StockPriceChange     StockPriceChange      `json:"stockPriceChange"`
}

// MarketPrice prefers the live quote and falls back to the profile price.
func (s CanonicalAssetSnapshot) MarketPrice() float64 {
	if s.Quote != nil && s.Quote.Price > 0 {
		return s.Quote.Price
	}
	return s.Profile.Price.Value
}

// CachedSnapshot is one persisted cache row. Payload is stored and returned verbatim.
type CachedSnapshot struct {
	Key       string
	Payload   []byte
	UpdatedAt time.Time
}

// Age returns how old the row is at now.
func (c CachedSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(c.UpdatedAt)
}

// GradeChange is one historical analyst grade action.
type GradeChange struct {
	Symbol         string `json:"symbol"`
	Date           Date   `json:"date"`
	GradingCompany string `json:"gradingCompany"`
	PreviousGrade  string `json:"previousGrade"`
	NewGrade       string `json:"newGrade"`
	Action         string `json:"action"`
}
