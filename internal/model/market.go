package model

import "time"

// DateFormat is the wire and display format for calendar dates.
const DateFormat = "2006-01-02"

// PriceObservation is one daily close for one ticker.
type PriceObservation struct {
	Date   time.Time `json:"date"`
	Ticker string    `json:"ticker"`
	Price  float64   `json:"price"`
}

// NormalizedObservation extends a PriceObservation with returns relative to
// the first observation of its ticker in the selected window.
type NormalizedObservation struct {
	PriceObservation
	PriceStart    float64  `json:"price_start"`
	PricePctDaily *float64 `json:"price_pct_daily"` // nil on a ticker's first row
	PricePct      float64  `json:"price_pct"`
}

// TickerSummary is a per-ticker overview of a normalized window.
// RangePosition is where the last return sits between the window's low and
// high return (0.0~1.0).
type TickerSummary struct {
	Ticker        string    `json:"ticker"`
	FirstDate     time.Time `json:"first_date"`
	LastDate      time.Time `json:"last_date"`
	PriceStart    float64   `json:"price_start"`
	PriceLast     float64   `json:"price_last"`
	PricePctLast  float64   `json:"price_pct_last"`
	PricePctHigh  float64   `json:"price_pct_high"`
	PricePctLow   float64   `json:"price_pct_low"`
	RangePosition float64   `json:"range_position"`
	Observations  int       `json:"observations"`
}

// Warning is a user-visible, non-fatal problem tied to a symbol.
type Warning struct {
	Symbol  string `json:"symbol"`
	Message string `json:"message"`
}

// Logo is the display decision for a ticker badge.
// When Fallback is set the UI shows Symbol as plain text.
type Logo struct {
	Symbol   string `json:"symbol"`
	ImageURL string `json:"image_url,omitempty"`
	Fallback bool   `json:"fallback"`
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
