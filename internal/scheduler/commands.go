package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"PortfolioAnalysis/internal/dashboard"
	"PortfolioAnalysis/internal/model"
	"PortfolioAnalysis/internal/notifier"

	"github.com/shopspring/decimal"
)

const searchLimit = 10

const helpText = "Available commands:\n" +
	"• /search &lt;query&gt;\n" +
	"• /portfolio T1,T2 [start] [end]\n" +
	"• /goal T1=1000,T2=500 &lt;goal&gt; [start] [end]\n" +
	"• /refresh"

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	name := strings.ToLower(fields[0])
	// "/cmd@botname" in group chats
	if i := strings.IndexByte(name, '@'); i > 0 {
		name = name[:i]
	}
	args := fields[1:]

	switch name {
	case "/search":
		if len(args) == 0 {
			return "Usage: /search &lt;query&gt;"
		}
		query := strings.Join(args, " ")
		recs, err := s.Catalog.Search(ctx, query, searchLimit)
		if err != nil {
			return replyError(err)
		}
		return notifier.FormatSearch(query, recs)
	case "/portfolio":
		sel, err := s.parseSelection(args)
		if err != nil {
			return replyError(err)
		}
		res, err := s.Service.Portfolio(ctx, sel)
		if err != nil {
			return replyError(err)
		}
		return notifier.FormatPortfolio(res)
	case "/goal":
		req, err := s.parseGoal(args)
		if err != nil {
			return replyError(err)
		}
		res, err := s.Service.Goal(ctx, req)
		if err != nil {
			return replyError(err)
		}
		return notifier.FormatGoal(res)
	case "/refresh":
		n, err := s.refresh(ctx)
		if err != nil {
			return "❌ catalog refresh failed: " + html.EscapeString(err.Error())
		}
		return fmt.Sprintf("✅ catalog refreshed: %d symbols", n)
	default:
		return helpText
	}
}

func replyError(err error) string {
	log.Printf("[WARN] command failed: %v", err)
	switch {
	case errors.Is(err, model.ErrCatalogUnavailable):
		return "❌ The reference catalog is unavailable, try again later"
	default:
		return "❌ " + html.EscapeString(err.Error())
	}
}

// parseSelection reads "T1,T2 [start] [end]".
func (s *Scheduler) parseSelection(args []string) (dashboard.Selection, error) {
	if len(args) == 0 {
		return dashboard.Selection{}, errors.New("usage: /portfolio T1,T2 [start] [end]")
	}
	sel := dashboard.Selection{Tickers: splitTickers(args[0])}
	var err error
	sel.Start, sel.End, err = s.parseDates(args[1:])
	return sel, err
}

// parseGoal reads "T1=1000,T2=500 <goal> [start] [end]".
func (s *Scheduler) parseGoal(args []string) (dashboard.GoalRequest, error) {
	var req dashboard.GoalRequest
	if len(args) < 2 {
		return req, errors.New("usage: /goal T1=1000,T2=500 <goal> [start] [end]")
	}
	req.Amounts = make(model.InvestmentAmounts)
	for _, pair := range strings.Split(args[0], ",") {
		if pair == "" {
			continue
		}
		ticker, amount, ok := strings.Cut(pair, "=")
		if !ok {
			return req, fmt.Errorf("invalid amount %q, expected TICKER=AMOUNT", pair)
		}
		v, err := decimal.NewFromString(amount)
		if err != nil {
			return req, fmt.Errorf("invalid amount for %s: %w", ticker, err)
		}
		if v.IsNegative() {
			return req, fmt.Errorf("investment in %s (%s): %w", ticker, v, model.ErrNegativeAmount)
		}
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		req.Tickers = append(req.Tickers, ticker)
		req.Amounts[ticker] = v
	}

	var err error
	req.Goal, err = decimal.NewFromString(args[1])
	if err != nil {
		return req, fmt.Errorf("invalid goal %q: %w", args[1], err)
	}
	if req.Goal.IsNegative() {
		return req, fmt.Errorf("goal %s: %w", req.Goal, model.ErrNegativeAmount)
	}
	req.Start, req.End, err = s.parseDates(args[2:])
	return req, err
}

func (s *Scheduler) parseDates(args []string) (start, end time.Time, err error) {
	if len(args) > 2 {
		return start, end, fmt.Errorf("unexpected arguments: %s", strings.Join(args[2:], " "))
	}
	if len(args) > 0 {
		if start, err = time.Parse(s.DateFormat, args[0]); err != nil {
			return start, end, fmt.Errorf("invalid start date %q: %w", args[0], err)
		}
	}
	if len(args) > 1 {
		if end, err = time.Parse(s.DateFormat, args[1]); err != nil {
			return start, end, fmt.Errorf("invalid end date %q: %w", args[1], err)
		}
	}
	return start, end, nil
}

func splitTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, strings.ToUpper(t))
		}
	}
	return out
}
