package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"PortfolioAnalysis/internal/dashboard"
	"PortfolioAnalysis/internal/model"
	"PortfolioAnalysis/internal/notifier"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// searchCmd looks up symbols in the reference catalog.
type searchCmd struct {
	limit int
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search the reference catalog" }
func (*searchCmd) Usage() string {
	return `search [-n <limit>] <query>

  Lists catalog symbols whose "SYMBOL - Name" contains the query.
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 20, "maximum number of matches")
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: missing query")
		return subcommands.ExitUsageError
	}
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	recs, err := a.catalog.Search(ctx, strings.Join(f.Args(), " "), c.limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	for _, r := range recs {
		fmt.Printf("%-10s %-6s %s\n", r.Symbol, r.AssetClass, r.Name)
	}
	return subcommands.ExitSuccess
}

// rangeFlags are the date window flags shared by portfolio and goal.
type rangeFlags struct {
	start string
	end   string
}

func (r *rangeFlags) set(f *flag.FlagSet) {
	f.StringVar(&r.start, "start", "", "first date of the window (defaults to dashboard.default_start)")
	f.StringVar(&r.end, "end", "", "last date of the window, inclusive (defaults to today)")
}

func (r *rangeFlags) selection(layout string, tickers []string) (dashboard.Selection, error) {
	sel := dashboard.Selection{Tickers: tickers}
	var err error
	if r.start != "" {
		if sel.Start, err = time.Parse(layout, r.start); err != nil {
			return sel, fmt.Errorf("invalid -start: %w", err)
		}
	}
	if r.end != "" {
		if sel.End, err = time.Parse(layout, r.end); err != nil {
			return sel, fmt.Errorf("invalid -end: %w", err)
		}
	}
	return sel, nil
}

func printJSON(v any) subcommands.ExitStatus {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// portfolioCmd prints normalized returns for a set of tickers.
type portfolioCmd struct {
	window rangeFlags
	json   bool
}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "normalized returns for a set of tickers" }
func (*portfolioCmd) Usage() string {
	return `portfolio [-start <date>] [-end <date>] [-json] <ticker>...

  Fetches daily closes and prints returns relative to the first close.
`
}

func (c *portfolioCmd) SetFlags(f *flag.FlagSet) {
	c.window.set(f)
	f.BoolVar(&c.json, "json", false, "print the full result as JSON")
}

func (c *portfolioCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	sel, err := c.window.selection(a.cfg.Dashboard.DateFormat, f.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	res, err := a.service.Portfolio(ctx, sel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.json {
		return printJSON(res)
	}
	fmt.Print(notifier.PlainText(notifier.FormatPortfolio(res)))
	return subcommands.ExitSuccess
}

// goalCmd runs the goal calculator.
type goalCmd struct {
	window  rangeFlags
	amounts string
	goal    string
	json    bool
}

func (*goalCmd) Name() string     { return "goal" }
func (*goalCmd) Synopsis() string { return "project investments against a dollar goal" }
func (*goalCmd) Usage() string {
	return `goal -amounts T1=1000,T2=500 -goal <dollars> [-start <date>] [-end <date>] [-json]

  Reports the first date the combined value reaches the goal.
`
}

func (c *goalCmd) SetFlags(f *flag.FlagSet) {
	c.window.set(f)
	f.StringVar(&c.amounts, "amounts", "", "comma separated TICKER=DOLLARS pairs")
	f.StringVar(&c.goal, "goal", "0", "target portfolio value in dollars")
	f.BoolVar(&c.json, "json", false, "print the full result as JSON")
}

func (c *goalCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tickers, amounts, err := parseAmounts(c.amounts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	goal, err := decimal.NewFromString(c.goal)
	if err != nil || goal.IsNegative() {
		fmt.Fprintf(os.Stderr, "Error: invalid -goal %q\n", c.goal)
		return subcommands.ExitUsageError
	}

	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	sel, err := c.window.selection(a.cfg.Dashboard.DateFormat, tickers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	res, err := a.service.Goal(ctx, dashboard.GoalRequest{Selection: sel, Amounts: amounts, Goal: goal})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.json {
		return printJSON(res)
	}
	fmt.Print(notifier.PlainText(notifier.FormatGoal(res)))
	return subcommands.ExitSuccess
}

// parseAmounts reads "T1=1000,T2=500", keeping ticker order.
func parseAmounts(s string) ([]string, model.InvestmentAmounts, error) {
	var tickers []string
	amounts := make(model.InvestmentAmounts)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		ticker, amount, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, nil, fmt.Errorf("invalid amount %q, expected TICKER=DOLLARS", pair)
		}
		v, err := decimal.NewFromString(strings.TrimSpace(amount))
		if err != nil {
			return nil, nil, fmt.Errorf("invalid amount for %s: %w", ticker, err)
		}
		if v.IsNegative() {
			return nil, nil, fmt.Errorf("investment in %s (%s): %w", ticker, v, model.ErrNegativeAmount)
		}
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		tickers = append(tickers, ticker)
		amounts[ticker] = v
	}
	if len(tickers) == 0 {
		return nil, nil, fmt.Errorf("-amounts is required")
	}
	return tickers, amounts, nil
}
