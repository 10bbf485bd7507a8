package domain

// DCFEstimate is one intrinsic value estimate. Value may arrive as a number or a numeric string.
type DCFEstimate struct {
	Symbol     string    `json:"symbol"`
	Date       Date      `json:"date"`
	Value      FlexFloat `json:"dcf"`
	StockPrice FlexFloat `json:"Stock Price"`
}

type CandidateSource string

const (
	SourceLevered    CandidateSource = "levered"
	SourceHistorical CandidateSource = "historical"
)

type ValuationCandidate struct {
	Value  float64
	Source CandidateSource
}

type ValuationLabel string

const (
	LabelPrimary             ValuationLabel = "primary"
	LabelAdjusted            ValuationLabel = "adjusted"
	LabelUnadjustedAnomalous ValuationLabel = "unadjusted_anomalous"
	LabelHistoricalAnomalous ValuationLabel = "historical_anomalous"
)

// Valuation is the reconciled intrinsic value. Rankable is false when the mispricing could
// not be computed or is too large to be trusted.
type Valuation struct {
	Value         float64         `json:"value"`
	Label         ValuationLabel  `json:"label"`
	Source        CandidateSource `json:"source"`
	Price         float64         `json:"price"`
	MispricingPct *float64        `json:"mispricing_pct"`
	Rankable      bool            `json:"rankable"`
}
