package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"PortfolioAnalysis/internal/dashboard"
	"PortfolioAnalysis/internal/fund"
	"PortfolioAnalysis/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	headerRequestID = "X-Request-ID"
	maxBodyBytes    = 1 << 20
	defaultLimit    = 20
)

// Catalog is the part of the reference catalog the API serves.
type Catalog interface {
	Search(ctx context.Context, query string, limit int) ([]model.SymbolRecord, error)
	LoadedAt() time.Time
}

// Server serves the dashboard HTTP API.
type Server struct {
	Catalog    Catalog
	Service    *dashboard.Service
	DateFormat string
}

// New creates a Server. An empty dateFormat uses model.DateFormat.
func New(cat Catalog, svc *dashboard.Service, dateFormat string) *Server {
	if dateFormat == "" {
		dateFormat = model.DateFormat
	}
	return &Server{Catalog: cat, Service: svc, DateFormat: dateFormat}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/logo/{symbol}", s.handleLogo)
	mux.HandleFunc("POST /api/portfolio", s.handlePortfolio)
	mux.HandleFunc("POST /api/goal", s.handleGoal)
}

// Handler returns an http.Handler with request ID middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return requestIDMiddleware(mux)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[INFO] %s %s %s (%v)", id, r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] encode JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidDateRange), errors.Is(err, model.ErrNegativeAmount):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[ERROR] %s %s: %v", r.Method, r.URL.Path, err)
	} else {
		log.Printf("[WARN] %s %s: %v", r.Method, r.URL.Path, err)
	}
	writeError(w, status, err.Error())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{"status": "ok"}
	if at := s.Catalog.LoadedAt(); !at.IsZero() {
		resp["catalog_loaded_at"] = at
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}
	recs, err := s.Catalog.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if recs == nil {
		recs = []model.SymbolRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleLogo(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(r.PathValue("symbol")))
	logos := s.Service.Logos(r.Context(), []string{symbol})
	writeJSON(w, http.StatusOK, logos[0])
}

// selectionRequest is the JSON body of /api/portfolio.
// Dates are optional strings in the configured date format.
type selectionRequest struct {
	Tickers []string `json:"tickers"`
	Start   string   `json:"start"`
	End     string   `json:"end"`
}

// goalRequest is the JSON body of /api/goal.
type goalRequest struct {
	selectionRequest
	Amounts map[string]float64 `json:"amounts"`
	Goal    float64            `json:"goal"`
}

func (s *Server) selection(req selectionRequest) (dashboard.Selection, error) {
	sel := dashboard.Selection{Tickers: req.Tickers}
	var err error
	if req.Start != "" {
		if sel.Start, err = time.Parse(s.DateFormat, req.Start); err != nil {
			return sel, fmt.Errorf("invalid start date %q: %w", req.Start, err)
		}
	}
	if req.End != "" {
		if sel.End, err = time.Parse(s.DateFormat, req.End); err != nil {
			return sel, fmt.Errorf("invalid end date %q: %w", req.End, err)
		}
	}
	return sel, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sel, err := s.selection(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.Service.Portfolio(r.Context(), sel)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sel, err := s.selection(req.selectionRequest)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	raw := make(map[string]float64, len(req.Amounts))
	for ticker, v := range req.Amounts {
		raw[strings.ToUpper(strings.TrimSpace(ticker))] = v
	}
	amounts, err := fund.ParseAmounts(raw)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Goal < 0 {
		s.fail(w, r, fmt.Errorf("goal %v: %w", req.Goal, model.ErrNegativeAmount))
		return
	}
	res, err := s.Service.Goal(r.Context(), dashboard.GoalRequest{
		Selection: sel,
		Amounts:   amounts,
		Goal:      decimal.NewFromFloat(req.Goal),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
