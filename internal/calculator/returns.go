package calculator

import (
	"fmt"
	"math"
	"sort"

	"PortfolioAnalysis/internal/model"
)

// Normalize converts long-form closes into per-ticker returns relative to the
// earliest date of each ticker. The input is never mutated.
//
// Rows with non-finite or non-positive prices are dropped. When a (ticker, date)
// pair appears more than once the last row wins. The output is ordered by date,
// then ticker.
func Normalize(obs []model.PriceObservation) []model.NormalizedObservation {
	if len(obs) == 0 {
		return nil
	}

	type key struct {
		ticker string
		date   int64
	}
	latest := make(map[key]model.PriceObservation, len(obs))
	for _, o := range obs {
		if math.IsNaN(o.Price) || math.IsInf(o.Price, 0) || o.Price <= 0 {
			continue
		}
		o.Date = model.Day(o.Date)
		latest[key{o.Ticker, o.Date.Unix()}] = o
	}

	rows := make([]model.PriceObservation, 0, len(latest))
	for _, o := range latest {
		rows = append(rows, o)
	}
	// Source ordering is not trusted: price_start must be the earliest date.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Ticker != rows[j].Ticker {
			return rows[i].Ticker < rows[j].Ticker
		}
		return rows[i].Date.Before(rows[j].Date)
	})

	out := make([]model.NormalizedObservation, len(rows))
	var start, prev float64
	for i, o := range rows {
		n := model.NormalizedObservation{PriceObservation: o}
		if i == 0 || rows[i-1].Ticker != o.Ticker {
			start = o.Price
		} else {
			daily := o.Price/prev - 1
			n.PricePctDaily = &daily
		}
		n.PriceStart = start
		n.PricePct = (o.Price - start) / start
		prev = o.Price
		out[i] = n
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out
}

// Summarize returns one TickerSummary per ticker, sorted by ticker.
func Summarize(norm []model.NormalizedObservation) []model.TickerSummary {
	byTicker := make(map[string][]model.NormalizedObservation)
	var tickers []string
	for _, n := range norm {
		if _, ok := byTicker[n.Ticker]; !ok {
			tickers = append(tickers, n.Ticker)
		}
		byTicker[n.Ticker] = append(byTicker[n.Ticker], n)
	}
	sort.Strings(tickers)

	out := make([]model.TickerSummary, 0, len(tickers))
	for _, t := range tickers {
		rows := byTicker[t]
		pcts := make([]float64, len(rows))
		for i, r := range rows {
			pcts[i] = r.PricePct
		}
		high, low, err := SeriesRange(pcts)
		if err != nil {
			continue
		}
		first, last := rows[0], rows[len(rows)-1]
		pos, err := PositionInRange(last.PricePct, high, low)
		if err != nil {
			pos = 0.5
		}
		out = append(out, model.TickerSummary{
			Ticker:        t,
			FirstDate:     first.Date,
			LastDate:      last.Date,
			PriceStart:    first.PriceStart,
			PriceLast:     last.Price,
			PricePctLast:  last.PricePct,
			PricePctHigh:  high,
			PricePctLow:   low,
			RangePosition: pos,
			Observations:  len(rows),
		})
	}
	return out
}

// FormatPercent renders a fractional change for display, e.g. 0.05 -> "+5.00%".
func FormatPercent(frac float64) string {
	return fmt.Sprintf("%+.2f%%", frac*100)
}
