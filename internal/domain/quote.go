package domain

// Quote is the latest trading quote of a symbol.
type Quote struct {
	Symbol            string    `json:"symbol"`
	Price             float64   `json:"price"`
	Change            FlexFloat `json:"change"`
	ChangesPercentage FlexFloat `json:"changesPercentage"`
	DayLow            FlexFloat `json:"dayLow"`
	DayHigh           FlexFloat `json:"dayHigh"`
	YearLow           FlexFloat `json:"yearLow"`
	YearHigh          FlexFloat `json:"yearHigh"`
	MarketCap         FlexFloat `json:"marketCap"`
	Volume            FlexFloat `json:"volume"`
	Timestamp         int64     `json:"timestamp"`
}

// StockPriceChange holds trailing price changes in percent keyed by window, e.g. "1D", "1Y".
type StockPriceChange map[string]FlexFloat
