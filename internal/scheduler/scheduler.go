package scheduler

import (
	"context"
	"fmt"
	"html"
	"log"

	"PortfolioAnalysis/internal/dashboard"
	"PortfolioAnalysis/internal/model"

	"github.com/robfig/cron/v3"
)

// Catalog is the part of the reference catalog the scheduler drives.
type Catalog interface {
	Refresh(ctx context.Context) (int, error)
	Search(ctx context.Context, query string, limit int) ([]model.SymbolRecord, error)
}

// Sender delivers an out-of-band report.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages cron tasks and dispatches bot commands.
type Scheduler struct {
	Cron       *cron.Cron
	Catalog    Catalog
	Service    *dashboard.Service
	Notifier   Sender
	Ctx        context.Context
	DateFormat string
}

// NewScheduler creates a new Scheduler. tn may be nil when no chat is configured.
func NewScheduler(ctx context.Context, cat Catalog, svc *dashboard.Service, tn Sender, dateFormat string) *Scheduler {
	if dateFormat == "" {
		dateFormat = model.DateFormat
	}
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Catalog:    cat,
		Service:    svc,
		Notifier:   tn,
		Ctx:        ctx,
		DateFormat: dateFormat,
	}
}

// RegisterAll registers the catalog refresh task.
func (s *Scheduler) RegisterAll(refreshCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register catalog refresh: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

func (s *Scheduler) refreshTask() {
	if _, err := s.refresh(s.Ctx); err != nil {
		s.trySend("❌ catalog refresh failed: " + html.EscapeString(err.Error()))
	}
}

func (s *Scheduler) refresh(ctx context.Context) (int, error) {
	log.Println("[INFO] refreshing reference catalog")
	n, err := s.Catalog.Refresh(ctx)
	if err != nil {
		log.Printf("[ERROR] catalog refresh (%d symbols still served): %v", n, err)
		return n, err
	}
	log.Printf("[INFO] catalog refreshed: %d symbols", n)
	return n, nil
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
