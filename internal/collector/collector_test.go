package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"PortfolioAnalysis/internal/model"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func closes(ticker string, prices ...float64) []model.PriceObservation {
	out := make([]model.PriceObservation, len(prices))
	for i, p := range prices {
		out[i] = model.PriceObservation{Date: day(i), Ticker: ticker, Price: p}
	}
	return out
}

func TestCollect_PerSymbolFailure(t *testing.T) {
	m := &MockFetcher{
		Data: map[string][]model.PriceObservation{"AAA": closes("AAA", 100, 110, 90)},
		Errs: map[string]error{"BBB": errors.New("rate limited")},
	}
	col, err := NewCollector(m, time.Second).Collect(context.Background(), []string{"AAA", "BBB"}, day(0), day(2))
	if err != nil {
		t.Fatal(err)
	}
	if len(col.Observations) != 3 {
		t.Errorf("expected 3 rows, got %d", len(col.Observations))
	}
	for _, o := range col.Observations {
		if o.Ticker != "AAA" {
			t.Errorf("unexpected ticker %s", o.Ticker)
		}
	}
	if len(col.Failed) != 1 || col.Failed[0] != "BBB" {
		t.Errorf("expected BBB to fail, got %v", col.Failed)
	}
	if len(col.Warnings) != 1 || col.Warnings[0].Symbol != "BBB" {
		t.Errorf("expected a warning naming BBB, got %v", col.Warnings)
	}
}

func TestCollect_EmptyResultIsFailure(t *testing.T) {
	m := &MockFetcher{Data: map[string][]model.PriceObservation{"AAA": closes("AAA", 1, 2)}}
	col, err := NewCollector(m, 0).Collect(context.Background(), []string{"AAA", "GONE"}, day(0), day(5))
	if err != nil {
		t.Fatal(err)
	}
	if len(col.Failed) != 1 || col.Failed[0] != "GONE" {
		t.Errorf("expected GONE to be reported, got %v", col.Failed)
	}
}

func TestCollect_ClipsToRange(t *testing.T) {
	m := &MockFetcher{Data: map[string][]model.PriceObservation{"AAA": closes("AAA", 1, 2, 3, 4, 5)}}
	col, err := NewCollector(m, 0).Collect(context.Background(), []string{"AAA"}, day(1), day(3))
	if err != nil {
		t.Fatal(err)
	}
	if len(col.Observations) != 3 || col.Observations[0].Price != 2 || col.Observations[2].Price != 4 {
		t.Errorf("unexpected clipped rows %+v", col.Observations)
	}
}

func TestCollect_EmptySelectionSkipsFetcher(t *testing.T) {
	m := &MockFetcher{}
	col, err := NewCollector(m, 0).Collect(context.Background(), nil, day(0), day(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Calls()) != 0 {
		t.Errorf("fetcher must not be called, got %v", m.Calls())
	}
	if len(col.Observations) != 0 {
		t.Errorf("expected no rows, got %d", len(col.Observations))
	}
}

func TestCollect_InvalidRange(t *testing.T) {
	m := &MockFetcher{}
	_, err := NewCollector(m, 0).Collect(context.Background(), []string{"AAA"}, day(5), day(1))
	if !errors.Is(err, model.ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
	if len(m.Calls()) != 0 {
		t.Error("fetcher must not be called for an invalid range")
	}
}

func TestCollect_DefaultEndIsToday(t *testing.T) {
	m := &MockFetcher{Data: map[string][]model.PriceObservation{"AAA": closes("AAA", 1, 2, 3, 4)}}
	c := NewCollector(m, 0)
	c.now = func() time.Time { return day(2).Add(15 * time.Hour) }
	col, err := c.Collect(context.Background(), []string{"AAA"}, day(0), time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(col.Observations) != 3 {
		t.Errorf("expected rows through today only, got %d", len(col.Observations))
	}
}

func TestCollect_TimeoutMarksRemaining(t *testing.T) {
	m := &MockFetcher{Data: map[string][]model.PriceObservation{"AAA": closes("AAA", 1)}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	col, err := NewCollector(m, time.Second).Collect(ctx, []string{"AAA", "BBB"}, day(0), day(1))
	if err != nil {
		t.Fatalf("timeout must not fail the request: %v", err)
	}
	if len(col.Failed) != 2 {
		t.Errorf("expected both symbols unavailable, got %v", col.Failed)
	}
}

func TestCollect_TimeoutMidCollection(t *testing.T) {
	m := &MockFetcher{
		Data: map[string][]model.PriceObservation{
			"AAA": closes("AAA", 100, 101),
			"BBB": closes("BBB", 50, 51),
			"CCC": closes("CCC", 10, 11),
		},
		Delay: map[string]time.Duration{"BBB": 5 * time.Second},
	}
	c := NewCollector(m, 50*time.Millisecond)
	col, err := c.Collect(context.Background(), []string{"AAA", "BBB", "CCC"}, day(0), day(1))
	if err != nil {
		t.Fatalf("timeout must not fail the request: %v", err)
	}
	if len(col.Observations) != 2 || col.Observations[0].Ticker != "AAA" {
		t.Errorf("expected the first symbol's rows to survive, got %+v", col.Observations)
	}
	if len(col.Failed) != 2 || col.Failed[0] != "BBB" || col.Failed[1] != "CCC" {
		t.Errorf("expected BBB and CCC unavailable, got %v", col.Failed)
	}
	if len(col.Warnings) != 2 {
		t.Errorf("expected a warning per timed out symbol, got %v", col.Warnings)
	}
	// CCC is never requested once the deadline has passed.
	if calls := m.Calls(); len(calls) != 2 {
		t.Errorf("expected fetches for AAA and BBB only, got %v", calls)
	}
}
