package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"PortfolioAnalysis/internal/model"
)

var errNoData = errors.New("no prices in the selected range")

// MockFetcher returns controllable fixed data for development and testing.
// Delay holds a symbol's response back until it elapses or ctx is done.
type MockFetcher struct {
	Data  map[string][]model.PriceObservation
	Errs  map[string]error
	Delay map[string]time.Duration

	mu    sync.Mutex
	calls []string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchCloses(ctx context.Context, symbol string, _, _ time.Time) ([]model.PriceObservation, error) {
	m.mu.Lock()
	m.calls = append(m.calls, symbol)
	m.mu.Unlock()
	if d := m.Delay[symbol]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.Errs[symbol]; err != nil {
		return nil, err
	}
	return m.Data[symbol], nil
}

// Calls returns the symbols requested so far, in order.
func (m *MockFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Collection is the long-form price table for one request.
type Collection struct {
	Observations []model.PriceObservation
	Warnings     []model.Warning
	Failed       []string
}

// Collector fetches closes for a ticker selection.
type Collector struct {
	Fetcher Fetcher
	Timeout time.Duration
	now     func() time.Time
}

// NewCollector creates a new Collector. A zero timeout disables the limit.
func NewCollector(fetcher Fetcher, timeout time.Duration) *Collector {
	return &Collector{Fetcher: fetcher, Timeout: timeout, now: time.Now}
}

// ValidateRange normalizes a date range. A zero end means today, and the end
// is inclusive: while today's session is open its bar carries the latest
// trade, not a close.
func ValidateRange(start, end, today time.Time) (time.Time, time.Time, error) {
	if end.IsZero() {
		end = today
	}
	start, end = model.Day(start), model.Day(end)
	if start.After(end) {
		return start, end, fmt.Errorf("%s > %s: %w",
			start.Format(model.DateFormat), end.Format(model.DateFormat), model.ErrInvalidDateRange)
	}
	return start, end, nil
}

// Collect fetches daily closes for every symbol between start and end.
//
// A symbol that fails or returns no rows is reported in Warnings and Failed;
// the others are still collected. Once the timeout expires every remaining
// symbol is reported as unavailable. An empty symbol list never reaches the
// fetcher.
func (c *Collector) Collect(ctx context.Context, symbols []string, start, end time.Time) (*Collection, error) {
	start, end, err := ValidateRange(start, end, c.now())
	if err != nil {
		return nil, err
	}
	out := &Collection{}
	if len(symbols) == 0 {
		return out, nil
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	for _, sym := range symbols {
		rows, err := c.fetchOne(ctx, sym, start, end)
		if err != nil {
			mdErr := &model.MarketDataError{Symbol: sym, Err: err}
			log.Printf("[WARN] %v", mdErr)
			out.Failed = append(out.Failed, sym)
			out.Warnings = append(out.Warnings, model.Warning{
				Symbol:  sym,
				Message: fmt.Sprintf("no market data for %s: %v", sym, err),
			})
			continue
		}
		out.Observations = append(out.Observations, rows...)
	}
	log.Printf("[INFO] collected %d rows for %d/%d symbols from %s",
		len(out.Observations), len(symbols)-len(out.Failed), len(symbols), c.Fetcher.Name())
	return out, nil
}

func (c *Collector) fetchOne(ctx context.Context, sym string, start, end time.Time) ([]model.PriceObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := c.Fetcher.FetchCloses(ctx, sym, start, end)
	if err != nil {
		return nil, err
	}
	kept := make([]model.PriceObservation, 0, len(rows))
	for _, r := range rows {
		d := model.Day(r.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		kept = append(kept, model.PriceObservation{Date: d, Ticker: sym, Price: r.Price})
	}
	if len(kept) == 0 {
		return nil, errNoData
	}
	return kept, nil
}
