package dashboard

import (
	"context"
	"fmt"
	"log"
	"time"

	"PortfolioAnalysis/internal/calculator"
	"PortfolioAnalysis/internal/collector"
	"PortfolioAnalysis/internal/fund"
	"PortfolioAnalysis/internal/model"

	"github.com/shopspring/decimal"
)

const (
	MsgSelectTickers   = "Select tickers to view plots"
	MsgNoMarketData    = "No market data is available for the selected tickers"
	MsgGoalUnreachable = "The goal cannot be reached within this time frame"
)

// SymbolResolver maps UI selections to catalog symbols.
type SymbolResolver interface {
	Resolve(ctx context.Context, selections []string) ([]string, []model.Warning, error)
}

// PriceCollector fetches the long-form price table.
type PriceCollector interface {
	Collect(ctx context.Context, symbols []string, start, end time.Time) (*collector.Collection, error)
}

// LogoSource resolves ticker badges. It never fails.
type LogoSource interface {
	Resolve(ctx context.Context, symbol string) model.Logo
}

// Selection is a snapshot of the user's watchlist inputs.
// A zero Start uses the configured default, a zero End means today.
type Selection struct {
	Tickers []string
	Start   time.Time
	End     time.Time
}

// GoalRequest adds the calculator inputs to a Selection.
type GoalRequest struct {
	Selection
	Amounts model.InvestmentAmounts
	Goal    decimal.Decimal
}

// PortfolioResult holds everything the returns chart needs.
// When Empty is set, Message explains why there is nothing to plot.
type PortfolioResult struct {
	Tickers      []string                      `json:"tickers"`
	Start        time.Time                     `json:"start"`
	End          time.Time                     `json:"end"`
	Observations []model.NormalizedObservation `json:"observations"`
	Summaries    []model.TickerSummary         `json:"summaries"`
	Warnings     []model.Warning               `json:"warnings"`
	Empty        bool                          `json:"empty"`
	Message      string                        `json:"message,omitempty"`
}

// GoalResult holds everything the projected value chart needs.
type GoalResult struct {
	*PortfolioResult
	Projection *model.Projection `json:"projection,omitempty"`
}

// Service runs the pipeline for one request at a time. It holds no
// per-session state.
type Service struct {
	Symbols      SymbolResolver
	Prices       PriceCollector
	Badges       LogoSource
	DefaultStart time.Time
	now          func() time.Time
}

// NewService wires the pipeline.
func NewService(symbols SymbolResolver, prices PriceCollector, logos LogoSource, defaultStart time.Time) *Service {
	return &Service{
		Symbols:      symbols,
		Prices:       prices,
		Badges:       logos,
		DefaultStart: defaultStart,
		now:          time.Now,
	}
}

// Portfolio fetches and normalizes prices for the selection.
func (s *Service) Portfolio(ctx context.Context, sel Selection) (*PortfolioResult, error) {
	start := sel.Start
	if start.IsZero() {
		start = s.DefaultStart
	}
	start, end, err := collector.ValidateRange(start, sel.End, s.now())
	if err != nil {
		return nil, err
	}

	res := &PortfolioResult{Start: start, End: end}
	symbols, warnings, err := s.Symbols.Resolve(ctx, sel.Tickers)
	if err != nil {
		return nil, fmt.Errorf("resolve tickers: %w", err)
	}
	res.Warnings = append(res.Warnings, warnings...)
	res.Tickers = symbols
	if len(symbols) == 0 {
		res.Empty = true
		res.Message = MsgSelectTickers
		return res, nil
	}

	col, err := s.Prices.Collect(ctx, symbols, start, end)
	if err != nil {
		return nil, fmt.Errorf("collect prices: %w", err)
	}
	res.Warnings = append(res.Warnings, col.Warnings...)

	res.Observations = calculator.Normalize(col.Observations)
	res.Summaries = calculator.Summarize(res.Observations)
	if len(res.Observations) == 0 {
		res.Empty = true
		res.Message = MsgNoMarketData
	}
	return res, nil
}

// Goal runs Portfolio and then the goal projection. Amounts for tickers not
// in the selection are ignored.
func (s *Service) Goal(ctx context.Context, req GoalRequest) (*GoalResult, error) {
	pr, err := s.Portfolio(ctx, req.Selection)
	if err != nil {
		return nil, err
	}
	res := &GoalResult{PortfolioResult: pr}
	if pr.Empty {
		return res, nil
	}

	amounts := make(model.InvestmentAmounts, len(pr.Tickers))
	for _, t := range pr.Tickers {
		if v, ok := req.Amounts[t]; ok {
			amounts[t] = v
		}
	}
	proj, err := fund.Project(pr.Observations, amounts, req.Goal)
	if err != nil {
		return nil, err
	}
	res.Projection = proj
	if proj.Reached {
		res.Message = "Goal reached on " + proj.GoalDate.Format(model.DateFormat)
	} else {
		res.Message = MsgGoalUnreachable
	}
	log.Printf("[INFO] goal %s over %d tickers: reached=%v", req.Goal, len(pr.Tickers), proj.Reached)
	return res, nil
}

// Logos resolves a badge for every symbol, falling back to text.
func (s *Service) Logos(ctx context.Context, symbols []string) []model.Logo {
	out := make([]model.Logo, len(symbols))
	for i, sym := range symbols {
		if s.Badges == nil {
			out[i] = model.Logo{Symbol: sym, Fallback: true}
			continue
		}
		out[i] = s.Badges.Resolve(ctx, sym)
	}
	return out
}
