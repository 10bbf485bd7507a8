package domain

import "github.com/shopspring/decimal"

// Holding is a position owned by the portfolio collaborator.
type Holding struct {
	Symbol   Symbol          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
}

// HoldingSeries pairs a holding with its price history.
type HoldingSeries struct {
	Holding Holding
	History []PriceHistoryPoint
}

type TimelinePoint struct {
	Date           Date    `json:"date"`
	AggregateValue float64 `json:"aggregate_value"`
}

type YearReturn struct {
	Year   int     `json:"year"`
	Return float64 `json:"return"`
}

type PerformanceSummary struct {
	MaxDrawdown float64      `json:"max_drawdown"`
	Years       []YearReturn `json:"years"`
	Best        *YearReturn  `json:"best_year"`
	Worst       *YearReturn  `json:"worst_year"`
}

type PortfolioTimeline struct {
	Points       []TimelinePoint    `json:"points"`
	DriverSymbol Symbol             `json:"driver_symbol"`
	Summary      PerformanceSummary `json:"summary"`
	Notices      map[Symbol]Notice  `json:"notices,omitempty"`
}
