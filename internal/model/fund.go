package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentAmounts maps a ticker to a hypothetical dollar amount invested at
// the start of the window.
type InvestmentAmounts map[string]decimal.Decimal

// Total returns the sum of all amounts.
func (a InvestmentAmounts) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range a {
		total = total.Add(v)
	}
	return total
}

// ProjectedValue is the value of one ticker's position on one date.
type ProjectedValue struct {
	Date   time.Time       `json:"date"`
	Ticker string          `json:"ticker"`
	Amount decimal.Decimal `json:"amount"`
}

// AggregateValue is the portfolio value on one date, summed over tickers.
type AggregateValue struct {
	Date  time.Time       `json:"date"`
	Total decimal.Decimal `json:"total"`
}

// Projection is the output of the goal calculator.
type Projection struct {
	Series        []ProjectedValue `json:"series"`
	Totals        []AggregateValue `json:"totals"`
	TotalInvested decimal.Decimal  `json:"total_invested"`
	FinalValue    decimal.Decimal  `json:"final_value"`
	Goal          decimal.Decimal  `json:"goal"`
	Reached       bool             `json:"reached"`
	GoalDate      time.Time        `json:"goal_date,omitzero"`
}
