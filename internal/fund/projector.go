package fund

import (
	"fmt"
	"sort"
	"time"

	"PortfolioAnalysis/internal/model"

	"github.com/shopspring/decimal"
)

// Project computes the hypothetical value of each position over the window,
// the portfolio total per date, and the earliest date the total meets goal.
//
// Tickers absent from amounts are treated as a zero investment. Reaching the
// goal is reported through Projection.Reached, never as an error.
func Project(norm []model.NormalizedObservation, amounts model.InvestmentAmounts, goal decimal.Decimal) (*model.Projection, error) {
	if goal.IsNegative() {
		return nil, fmt.Errorf("goal %s: %w", goal, model.ErrNegativeAmount)
	}
	for ticker, amt := range amounts {
		if amt.IsNegative() {
			return nil, fmt.Errorf("investment in %s (%s): %w", ticker, amt, model.ErrNegativeAmount)
		}
	}

	p := &model.Projection{
		Series:        make([]model.ProjectedValue, 0, len(norm)),
		TotalInvested: amounts.Total(),
		FinalValue:    decimal.Zero,
		Goal:          goal,
	}

	one := decimal.NewFromInt(1)
	totals := make(map[int64]decimal.Decimal)
	dates := make(map[int64]time.Time)
	for _, n := range norm {
		amt, ok := amounts[n.Ticker]
		if !ok {
			amt = decimal.Zero
		}
		value := amt.Mul(one.Add(decimal.NewFromFloat(n.PricePct)))
		p.Series = append(p.Series, model.ProjectedValue{Date: n.Date, Ticker: n.Ticker, Amount: value})

		k := n.Date.Unix()
		if _, seen := dates[k]; !seen {
			dates[k] = n.Date
			totals[k] = decimal.Zero
		}
		totals[k] = totals[k].Add(value)
	}

	keys := make([]int64, 0, len(dates))
	for k := range dates {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	p.Totals = make([]model.AggregateValue, len(keys))
	for i, k := range keys {
		total := totals[k]
		p.Totals[i] = model.AggregateValue{Date: dates[k], Total: total}
		if !p.Reached && total.GreaterThanOrEqual(goal) {
			p.Reached = true
			p.GoalDate = dates[k]
		}
	}
	if len(p.Totals) > 0 {
		p.FinalValue = p.Totals[len(p.Totals)-1].Total
	}
	return p, nil
}

// ParseAmounts converts raw ticker -> dollar inputs into InvestmentAmounts.
func ParseAmounts(raw map[string]float64) (model.InvestmentAmounts, error) {
	out := make(model.InvestmentAmounts, len(raw))
	for ticker, v := range raw {
		if v < 0 {
			return nil, fmt.Errorf("investment in %s (%v): %w", ticker, v, model.ErrNegativeAmount)
		}
		out[ticker] = decimal.NewFromFloat(v)
	}
	return out, nil
}
