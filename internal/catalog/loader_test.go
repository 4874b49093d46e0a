package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"PortfolioAnalysis/internal/model"
)

func etfs() *StaticSource {
	return &StaticSource{Label: "etf", Records: []model.SymbolRecord{
		model.NewSymbolRecord("SPY", "SPDR S&P 500 ETF Trust", model.AssetETF),
		model.NewSymbolRecord("QQQ", "Invesco QQQ Trust", model.AssetETF),
		model.NewSymbolRecord("", "No Symbol Fund", model.AssetETF),
	}}
}

func equities() *StaticSource {
	return &StaticSource{Label: "equity", Records: []model.SymbolRecord{
		model.NewSymbolRecord("AAPL", "Apple Inc.", model.AssetEquity),
		model.NewSymbolRecord("SPY", "Duplicate Listing", model.AssetEquity),
		model.NewSymbolRecord("MSFT", "Microsoft Corporation", model.AssetEquity),
	}}
}

func TestRecords_MergeFilterDedupe(t *testing.T) {
	l := NewLoader(nil, 0, etfs(), equities())
	recs, err := l.Records(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"SPY", "QQQ", "AAPL", "MSFT"}
	if len(recs) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(recs))
	}
	for i, w := range want {
		if recs[i].Symbol != w {
			t.Errorf("record %d: got %s, want %s", i, recs[i].Symbol, w)
		}
	}
	if recs[0].AssetClass != model.AssetETF || recs[0].Name != "SPDR S&P 500 ETF Trust" {
		t.Errorf("first occurrence must win, got %+v", recs[0])
	}
	if recs[2].SymbolName != "AAPL - Apple Inc." {
		t.Errorf("unexpected symbol name %q", recs[2].SymbolName)
	}
}

func TestRecords_CacheHit(t *testing.T) {
	e, q := etfs(), equities()
	l := NewLoader(nil, 0, e, q)
	first, err := l.Records(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := l.Records(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if e.Calls() != 1 || q.Calls() != 1 {
		t.Errorf("expected one load per source, got %d and %d", e.Calls(), q.Calls())
	}
	if &first[0] != &second[0] {
		t.Error("expected the same cached slice")
	}
}

func TestRecords_TTLAndInvalidate(t *testing.T) {
	e := etfs()
	l := NewLoader(nil, 24*time.Hour, e)
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ctx := context.Background()
	if _, err := l.Records(ctx); err != nil {
		t.Fatal(err)
	}
	now = now.Add(23 * time.Hour)
	l.Records(ctx)
	if e.Calls() != 1 {
		t.Fatalf("expected cache hit within TTL, got %d loads", e.Calls())
	}
	now = now.Add(2 * time.Hour)
	l.Records(ctx)
	if e.Calls() != 2 {
		t.Fatalf("expected reload after TTL, got %d loads", e.Calls())
	}
	l.Invalidate()
	l.Records(ctx)
	if e.Calls() != 3 {
		t.Fatalf("expected reload after Invalidate, got %d loads", e.Calls())
	}
}

func TestRecords_SingleFlight(t *testing.T) {
	gate := make(chan struct{})
	src := etfs()
	src.Gate = gate
	l := NewLoader(nil, 0, src)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Records(context.Background())
			errs <- err
		}()
	}
	// Let every caller reach the in-flight load before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	if src.Calls() != 1 {
		t.Errorf("expected exactly one shared load, got %d", src.Calls())
	}
}

func TestRecords_OneSourceDown(t *testing.T) {
	bad := &StaticSource{Label: "etf", Err: errors.New("timeout")}
	l := NewLoader(nil, 0, bad, equities())
	recs, err := l.Records(context.Background())
	if err != nil {
		t.Fatalf("expected partial catalog, got %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("expected 3 equity records, got %d", len(recs))
	}
}

func TestRecords_AllSourcesDown(t *testing.T) {
	l := NewLoader(nil, 0,
		&StaticSource{Label: "etf", Err: errors.New("dns")},
		&StaticSource{Label: "equity", Err: errors.New("reset")})
	_, err := l.Records(context.Background())
	if !errors.Is(err, model.ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}

func TestRecords_StaleOnRefreshFailure(t *testing.T) {
	src := etfs()
	l := NewLoader(nil, 0, src)
	if _, err := l.Records(context.Background()); err != nil {
		t.Fatal(err)
	}
	src.Err = errors.New("down")
	n, err := l.Refresh(context.Background())
	if !errors.Is(err, model.ErrCatalogUnavailable) {
		t.Fatalf("expected refresh to report the outage, got %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 stale records, got %d", n)
	}

	recs, err := l.Records(context.Background())
	if err != nil {
		t.Fatalf("expected stale records to keep serving, got %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("expected 2 stale records, got %d", len(recs))
	}
	if src.Calls() != 2 {
		t.Errorf("stale records must be served without reloading, got %d loads", src.Calls())
	}
}

func TestRecords_MirrorFallback(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	warm := NewLoader(store, 0, etfs(), equities())
	if _, err := warm.Records(ctx); err != nil {
		t.Fatal(err)
	}

	cold := NewLoader(store, 0, &StaticSource{Label: "etf", Err: errors.New("down")})
	recs, err := cold.Records(ctx)
	if err != nil {
		t.Fatalf("expected mirror fallback, got %v", err)
	}
	if len(recs) != 4 || recs[0].Symbol != "SPY" || recs[3].Symbol != "MSFT" {
		t.Errorf("unexpected mirrored records %+v", recs)
	}

	n, err := cold.Refresh(ctx)
	if !errors.Is(err, model.ErrCatalogUnavailable) || n != 4 {
		t.Errorf("expected refresh failure with 4 mirrored records, got %d, %v", n, err)
	}
}

func TestResolve(t *testing.T) {
	l := NewLoader(nil, 0, etfs(), equities())
	syms, warns, err := l.Resolve(context.Background(),
		[]string{"AAPL - Apple Inc.", "spy", "SPY - SPDR S&P 500 ETF Trust", "ZZZZ", " "})
	if err != nil {
		t.Fatal(err)
	}
	if len(syms) != 2 || syms[0] != "AAPL" || syms[1] != "SPY" {
		t.Errorf("unexpected symbols %v", syms)
	}
	if len(warns) != 1 || warns[0].Symbol != "ZZZZ" {
		t.Errorf("unexpected warnings %v", warns)
	}
}

func TestSearch(t *testing.T) {
	l := NewLoader(nil, 0, etfs(), equities())
	ctx := context.Background()

	got, err := l.Search(ctx, "q", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 || got[0].Symbol != "QQQ" {
		t.Errorf("expected symbol-prefix hit first, got %+v", got)
	}

	got, _ = l.Search(ctx, "microsoft", 10)
	if len(got) != 1 || got[0].Symbol != "MSFT" {
		t.Errorf("expected name match MSFT, got %+v", got)
	}

	got, _ = l.Search(ctx, "", 2)
	if len(got) != 2 {
		t.Errorf("expected limit 2, got %d", len(got))
	}
}

func TestLookup(t *testing.T) {
	l := NewLoader(nil, 0, etfs(), equities())
	rec, ok, err := l.Lookup(context.Background(), "msft")
	if err != nil || !ok || rec.Name != "Microsoft Corporation" {
		t.Errorf("unexpected lookup result %+v %v %v", rec, ok, err)
	}
	if _, ok, _ := l.Lookup(context.Background(), "NOPE"); ok {
		t.Error("expected miss")
	}
}
