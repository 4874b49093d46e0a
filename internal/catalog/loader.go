package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"PortfolioAnalysis/internal/model"

	"golang.org/x/sync/singleflight"
)

// Loader memoizes the merged reference catalog.
//
// Records are loaded at most once per TTL (0 keeps them for the process
// lifetime). Concurrent callers share one in-flight load. The returned slices
// are shared and must not be modified.
type Loader struct {
	sources []Source
	store   Store
	ttl     time.Duration
	now     func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	records  []model.SymbolRecord
	bySymbol map[string]int
	byLabel  map[string]int
	loadedAt time.Time
}

// NewLoader creates a Loader over the given sources, merged in order.
func NewLoader(store Store, ttl time.Duration, sources ...Source) *Loader {
	if store == nil {
		store = NewNoopStore()
	}
	return &Loader{sources: sources, store: store, ttl: ttl, now: time.Now}
}

func (l *Loader) fresh() bool {
	if l.loadedAt.IsZero() {
		return false
	}
	return l.ttl <= 0 || l.now().Sub(l.loadedAt) < l.ttl
}

// Records returns the catalog, loading it if the cache is empty or expired.
func (l *Loader) Records(ctx context.Context) ([]model.SymbolRecord, error) {
	l.mu.RLock()
	if l.fresh() {
		recs := l.records
		l.mu.RUnlock()
		return recs, nil
	}
	l.mu.RUnlock()

	recs, err := l.reload(ctx)
	if len(recs) > 0 {
		// Degraded loads still serve the kept copy.
		return recs, nil
	}
	return nil, err
}

// reload runs one shared load. When every source fails but a cached or
// mirrored copy exists, it returns that copy together with the failure.
func (l *Loader) reload(ctx context.Context) ([]model.SymbolRecord, error) {
	v, err, _ := l.group.Do("catalog", func() (interface{}, error) {
		// A caller that waited on the lock may find the work already done.
		l.mu.RLock()
		if l.fresh() {
			recs := l.records
			l.mu.RUnlock()
			return recs, nil
		}
		l.mu.RUnlock()
		return l.load(context.WithoutCancel(ctx))
	})
	recs, _ := v.([]model.SymbolRecord)
	return recs, err
}

// Invalidate marks the cache stale. The previous records stay available as a
// fallback if the next load fails.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.loadedAt = time.Time{}
	l.mu.Unlock()
}

// Refresh invalidates and reloads the catalog. If every source fails it
// reports ErrCatalogUnavailable along with the number of records still
// served from the cache or the mirror.
func (l *Loader) Refresh(ctx context.Context) (int, error) {
	l.Invalidate()
	recs, err := l.reload(ctx)
	return len(recs), err
}

// LoadedAt reports when the cached records were loaded.
func (l *Loader) LoadedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loadedAt
}

func (l *Loader) load(ctx context.Context) ([]model.SymbolRecord, error) {
	var (
		merged []model.SymbolRecord
		errs   []error
	)
	for _, src := range l.sources {
		recs, err := src.Load(ctx)
		if err != nil {
			log.Printf("[WARN] catalog source %s failed: %v", src.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		log.Printf("[INFO] catalog source %s: %d records", src.Name(), len(recs))
		merged = append(merged, recs...)
	}

	if len(l.sources) > 0 && len(errs) < len(l.sources) {
		recs := dedupe(merged)
		if err := l.store.Save(ctx, recs); err != nil {
			log.Printf("[WARN] save catalog mirror: %v", err)
		}
		l.set(recs)
		return recs, nil
	}

	cause := errors.Join(errs...)
	if cause == nil {
		cause = errors.New("no catalog sources configured")
	}

	l.mu.RLock()
	stale := l.records
	l.mu.RUnlock()
	if len(stale) > 0 {
		log.Printf("[WARN] all catalog sources failed, keeping %d cached records: %v", len(stale), cause)
		l.set(stale)
		return stale, fmt.Errorf("%w: keeping %d cached records: %w", model.ErrCatalogUnavailable, len(stale), cause)
	}

	snap, savedAt, err := l.store.Snapshot(ctx)
	if err != nil {
		log.Printf("[WARN] read catalog mirror: %v", err)
	}
	if len(snap) > 0 {
		log.Printf("[WARN] all catalog sources failed, serving mirror from %s: %v",
			savedAt.Format("2006-01-02 15:04"), cause)
		recs := dedupe(snap)
		l.set(recs)
		return recs, fmt.Errorf("%w: serving %d mirrored records: %w", model.ErrCatalogUnavailable, len(recs), cause)
	}
	return nil, fmt.Errorf("%w: %w", model.ErrCatalogUnavailable, cause)
}

func (l *Loader) set(recs []model.SymbolRecord) {
	bySymbol := make(map[string]int, len(recs))
	byLabel := make(map[string]int, len(recs))
	for i, r := range recs {
		if _, ok := bySymbol[strings.ToUpper(r.Symbol)]; !ok {
			bySymbol[strings.ToUpper(r.Symbol)] = i
		}
		byLabel[r.SymbolName] = i
	}
	l.mu.Lock()
	l.records = recs
	l.bySymbol = bySymbol
	l.byLabel = byLabel
	l.loadedAt = l.now()
	l.mu.Unlock()
}

// dedupe drops records with an empty symbol and keeps the first occurrence of
// each symbol.
func dedupe(in []model.SymbolRecord) []model.SymbolRecord {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.SymbolRecord, 0, len(in))
	for _, r := range in {
		if strings.TrimSpace(r.Symbol) == "" {
			continue
		}
		if _, ok := seen[r.Symbol]; ok {
			continue
		}
		seen[r.Symbol] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Lookup finds a record by symbol, case-insensitively.
func (l *Loader) Lookup(ctx context.Context, symbol string) (model.SymbolRecord, bool, error) {
	if _, err := l.Records(ctx); err != nil {
		return model.SymbolRecord{}, false, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.bySymbol[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return model.SymbolRecord{}, false, nil
	}
	return l.records[i], true, nil
}

// Resolve maps UI selections ("SYM - Name" labels or bare symbols) to
// symbols, in selection order without duplicates. Unknown selections are
// reported as warnings.
func (l *Loader) Resolve(ctx context.Context, selections []string) ([]string, []model.Warning, error) {
	if _, err := l.Records(ctx); err != nil {
		return nil, nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	recs := l.records

	var (
		symbols  []string
		warnings []model.Warning
	)
	seen := make(map[string]bool)
	for _, sel := range selections {
		sel = strings.TrimSpace(sel)
		if sel == "" {
			continue
		}
		i, ok := l.byLabel[sel]
		if !ok {
			i, ok = l.bySymbol[strings.ToUpper(sel)]
		}
		if !ok {
			warnings = append(warnings, model.Warning{Symbol: sel, Message: "not found in the reference catalog"})
			continue
		}
		sym := recs[i].Symbol
		if !seen[sym] {
			seen[sym] = true
			symbols = append(symbols, sym)
		}
	}
	return symbols, warnings, nil
}

// Search returns up to limit records whose "SYM - Name" label contains query,
// case-insensitively. Exact symbol matches rank first, then symbol prefixes.
func (l *Loader) Search(ctx context.Context, query string, limit int) ([]model.SymbolRecord, error) {
	recs, err := l.Records(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	q := strings.ToLower(strings.TrimSpace(query))

	type hit struct {
		rank int
		pos  int
	}
	var hits []hit
	for i, r := range recs {
		sym := strings.ToLower(r.Symbol)
		switch {
		case q == "":
			hits = append(hits, hit{2, i})
		case sym == q:
			hits = append(hits, hit{0, i})
		case strings.HasPrefix(sym, q):
			hits = append(hits, hit{1, i})
		case strings.Contains(strings.ToLower(r.SymbolName), q):
			hits = append(hits, hit{2, i})
		}
		if q == "" && len(hits) >= limit {
			break
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].rank < hits[j].rank })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]model.SymbolRecord, len(hits))
	for i, h := range hits {
		out[i] = recs[h.pos]
	}
	return out, nil
}
