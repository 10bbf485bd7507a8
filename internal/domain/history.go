package domain

import "sort"

// PriceHistoryPoint is one daily bar. After normalization Close holds the adjusted close when
// the provider reported one.
type PriceHistoryPoint struct {
	Date     Date      `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose FlexFloat `json:"adjClose"`
	Volume   float64   `json:"volume"`
}

// SortHistoryAsc sorts points by date, oldest first.
func SortHistoryAsc(points []PriceHistoryPoint) {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date.Time) })
}
