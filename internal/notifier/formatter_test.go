package notifier

import (
	"strings"
	"testing"
	"time"

	"PortfolioAnalysis/internal/dashboard"
	"PortfolioAnalysis/internal/model"

	"github.com/shopspring/decimal"
)

func TestFormatMoney(t *testing.T) {
	if got := FormatMoney(decimal.NewFromFloat(1100)); got != "$1,100.00" {
		t.Errorf("unexpected money format %q", got)
	}
}

func TestFormatPortfolio_Empty(t *testing.T) {
	msg := FormatPortfolio(&dashboard.PortfolioResult{Empty: true, Message: dashboard.MsgSelectTickers})
	if !strings.Contains(msg, dashboard.MsgSelectTickers) {
		t.Errorf("expected empty-state message, got %q", msg)
	}
}

func TestFormatPortfolio_Summaries(t *testing.T) {
	res := &dashboard.PortfolioResult{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		Summaries: []model.TickerSummary{{
			Ticker: "AAA", PriceStart: 100, PriceLast: 90, PricePctLast: -0.1,
			PricePctHigh: 0.1, PricePctLow: -0.1, Observations: 3,
		}},
		Warnings: []model.Warning{{Symbol: "BBB", Message: "no market data"}},
	}
	msg := FormatPortfolio(res)
	for _, want := range []string{"2024-01-01", "<b>AAA</b>: -10.00%", "high +10.00%", "BBB: no market data"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestFormatGoal(t *testing.T) {
	res := &dashboard.GoalResult{
		PortfolioResult: &dashboard.PortfolioResult{},
		Projection: &model.Projection{
			TotalInvested: decimal.NewFromInt(1000),
			Goal:          decimal.NewFromInt(1050),
			FinalValue:    decimal.NewFromInt(900),
			Reached:       true,
			GoalDate:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		},
	}
	msg := FormatGoal(res)
	for _, want := range []string{"Total Investments: $1,000.00", "Goal: $1,050.00", "Goal reached on 2024-01-02"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}

	res.Projection.Reached = false
	if msg := FormatGoal(res); !strings.Contains(msg, dashboard.MsgGoalUnreachable) {
		t.Errorf("expected unreachable message, got %q", msg)
	}
}

func TestFormatSearch(t *testing.T) {
	msg := FormatSearch("app", []model.SymbolRecord{model.NewSymbolRecord("AAPL", "Apple Inc.", model.AssetEquity)})
	if !strings.Contains(msg, "<code>AAPL</code> Apple Inc. (equity)") {
		t.Errorf("unexpected search output %q", msg)
	}
	if msg := FormatSearch("zz", nil); !strings.Contains(msg, "No symbols") {
		t.Errorf("unexpected empty search output %q", msg)
	}
}

func TestPlainText(t *testing.T) {
	got := PlainText("• <code>AT&amp;T</code> <b>Telecom</b>")
	if got != "• AT&T Telecom" {
		t.Errorf("unexpected plain text %q", got)
	}
}
