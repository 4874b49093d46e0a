package catalog

import (
	"compress/bzip2"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"PortfolioAnalysis/internal/model"
)

// Source yields the raw records of one reference catalog.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]model.SymbolRecord, error)
}

// HTTPSource reads a FinanceDatabase-style CSV with "symbol" and "name"
// columns from a URL. Bodies served from a ".bz2" path are decompressed.
type HTTPSource struct {
	URL    string
	Class  model.AssetClass
	Client *http.Client
}

// NewHTTPSource creates a CSV catalog source with optional proxy support.
func NewHTTPSource(rawURL string, class model.AssetClass, proxyURL string) *HTTPSource {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &HTTPSource{
		URL:   rawURL,
		Class: class,
		Client: &http.Client{
			Timeout:   2 * time.Minute,
			Transport: transport,
		},
	}
}

func (s *HTTPSource) Name() string { return string(s.Class) }

func (s *HTTPSource) Load(ctx context.Context) ([]model.SymbolRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s catalog: %w", s.Class, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s catalog: status %d, body: %s", s.Class, resp.StatusCode, string(body))
	}

	var r io.Reader = resp.Body
	if strings.HasSuffix(req.URL.Path, ".bz2") {
		r = bzip2.NewReader(resp.Body)
	}
	return ParseCSV(r, s.Class)
}

// ParseCSV reads symbol/name pairs from a CSV with a header row.
// Rows with an empty symbol are skipped.
func ParseCSV(r io.Reader, class model.AssetClass) ([]model.SymbolRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	symCol, nameCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "symbol":
			symCol = i
		case "name":
			nameCol = i
		}
	}
	if symCol < 0 {
		return nil, errors.New("csv has no symbol column")
	}

	var out []model.SymbolRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if symCol >= len(row) {
			continue
		}
		sym := strings.TrimSpace(row[symCol])
		if sym == "" {
			continue
		}
		var name string
		if nameCol >= 0 && nameCol < len(row) {
			name = strings.TrimSpace(row[nameCol])
		}
		out = append(out, model.NewSymbolRecord(sym, name, class))
	}
	return out, nil
}

// StaticSource serves a fixed list. Used for tests and offline runs.
// When Gate is set, Load blocks until it is closed or ctx is done.
type StaticSource struct {
	Label   string
	Records []model.SymbolRecord
	Err     error
	Gate    <-chan struct{}

	calls atomic.Int32
}

func (s *StaticSource) Name() string { return s.Label }

// Calls reports how many times Load ran.
func (s *StaticSource) Calls() int { return int(s.calls.Load()) }

func (s *StaticSource) Load(ctx context.Context) ([]model.SymbolRecord, error) {
	s.calls.Add(1)
	if s.Gate != nil {
		select {
		case <-s.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Records, nil
}
