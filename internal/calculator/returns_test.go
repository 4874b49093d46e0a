package calculator

import (
	"math"
	"testing"
	"time"

	"PortfolioAnalysis/internal/model"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func obs(ticker string, prices ...float64) []model.PriceObservation {
	out := make([]model.PriceObservation, len(prices))
	for i, p := range prices {
		out[i] = model.PriceObservation{Date: day(i), Ticker: ticker, Price: p}
	}
	return out
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestNormalize_SingleTicker(t *testing.T) {
	norm := Normalize(obs("AAA", 100, 110, 90))
	if len(norm) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(norm))
	}
	want := []float64{0, 0.10, -0.10}
	for i, n := range norm {
		if n.PriceStart != 100 {
			t.Errorf("row %d: price_start = %v, want 100", i, n.PriceStart)
		}
		if !near(n.PricePct, want[i]) {
			t.Errorf("row %d: price_pct = %v, want %v", i, n.PricePct, want[i])
		}
	}
	if norm[0].PricePct != 0 {
		t.Errorf("first row price_pct must be exactly 0, got %v", norm[0].PricePct)
	}
	if norm[0].PricePctDaily != nil {
		t.Errorf("first row must have no daily change, got %v", *norm[0].PricePctDaily)
	}
	if norm[2].PricePctDaily == nil || !near(*norm[2].PricePctDaily, 90.0/110.0-1) {
		t.Errorf("unexpected daily change on day 3: %v", norm[2].PricePctDaily)
	}
}

func TestNormalize_OneRowPerTickerDate(t *testing.T) {
	in := append(obs("AAA", 10, 11, 12), obs("BBB", 50, 40)...)
	in = append(in, model.PriceObservation{Date: day(1), Ticker: "AAA", Price: 11})
	norm := Normalize(in)
	if len(norm) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(norm))
	}
	seen := map[string]bool{}
	for _, n := range norm {
		k := n.Ticker + n.Date.Format(model.DateFormat)
		if seen[k] {
			t.Errorf("duplicate row %s", k)
		}
		seen[k] = true
	}
	for i := 1; i < len(norm); i++ {
		if norm[i].Date.Before(norm[i-1].Date) {
			t.Fatalf("output not ordered by date at row %d", i)
		}
	}
}

func TestNormalize_UnsortedInput(t *testing.T) {
	in := []model.PriceObservation{
		{Date: day(2), Ticker: "AAA", Price: 120},
		{Date: day(0), Ticker: "AAA", Price: 100},
		{Date: day(1), Ticker: "AAA", Price: 80},
	}
	norm := Normalize(in)
	for _, n := range norm {
		if n.PriceStart != 100 {
			t.Errorf("price_start must come from the earliest date, got %v", n.PriceStart)
		}
	}
	if !near(norm[2].PricePct, 0.2) {
		t.Errorf("expected last price_pct 0.2, got %v", norm[2].PricePct)
	}
}

func TestNormalize_RoundTrip(t *testing.T) {
	norm := Normalize(append(obs("AAA", 3.3, 7.1, 2.9, 4.4), obs("BBB", 0.01, 0.02, 0.015)...))
	for _, n := range norm {
		if got := n.Price/n.PriceStart - 1; math.Abs(got-n.PricePct) > 1e-12 {
			t.Errorf("%s %s: round trip %v != %v", n.Ticker, n.Date.Format(model.DateFormat), got, n.PricePct)
		}
	}
}

func TestNormalize_SingleObservation(t *testing.T) {
	norm := Normalize(obs("ONE", 42))
	if len(norm) != 1 {
		t.Fatalf("expected 1 row, got %d", len(norm))
	}
	if norm[0].PricePct != 0 || norm[0].PricePctDaily != nil {
		t.Errorf("single observation: got pct=%v daily=%v", norm[0].PricePct, norm[0].PricePctDaily)
	}
}

func TestNormalize_DropsInvalidPrices(t *testing.T) {
	in := obs("AAA", 0, math.NaN(), 50, 55)
	norm := Normalize(in)
	if len(norm) != 2 {
		t.Fatalf("expected 2 valid rows, got %d", len(norm))
	}
	if norm[0].PriceStart != 50 {
		t.Errorf("expected price_start 50, got %v", norm[0].PriceStart)
	}
}

func TestNormalize_Empty(t *testing.T) {
	if got := Normalize(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestSummarize(t *testing.T) {
	sum := Summarize(Normalize(append(obs("BBB", 10, 5, 20, 15), obs("AAA", 100)...)))
	if len(sum) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(sum))
	}
	if sum[0].Ticker != "AAA" || sum[1].Ticker != "BBB" {
		t.Fatalf("summaries not sorted: %s, %s", sum[0].Ticker, sum[1].Ticker)
	}
	b := sum[1]
	if b.Observations != 4 || b.PriceLast != 15 || !near(b.PricePctLast, 0.5) {
		t.Errorf("unexpected summary %+v", b)
	}
	if !near(b.PricePctHigh, 1.0) || !near(b.PricePctLow, -0.5) {
		t.Errorf("unexpected range high=%v low=%v", b.PricePctHigh, b.PricePctLow)
	}
	if !near(b.RangePosition, 2.0/3.0) {
		t.Errorf("unexpected range position %v", b.RangePosition)
	}
	if sum[0].RangePosition != 0.5 {
		t.Errorf("flat series should sit mid-range, got %v", sum[0].RangePosition)
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.05, "+5.00%"},
		{-0.1, "-10.00%"},
		{0, "+0.00%"},
	}
	for _, tt := range tests {
		if got := FormatPercent(tt.in); got != tt.want {
			t.Errorf("FormatPercent(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
