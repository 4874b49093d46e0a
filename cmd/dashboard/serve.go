package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"PortfolioAnalysis/internal/notifier"
	"PortfolioAnalysis/internal/scheduler"
	"PortfolioAnalysis/internal/server"

	"github.com/google/subcommands"
)

// serveCmd runs the HTTP API, the catalog refresh cron and the Telegram bot.
type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the dashboard API and Telegram bot" }
func (*serveCmd) Usage() string {
	return `serve [-addr <host:port>]

  Loads the reference catalog, then serves the HTTP API until interrupted.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "listen address (defaults to server.addr)")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log.Println("[INFO] PortfolioAnalysis starting...")
	a, err := newApp()
	if err != nil {
		log.Printf("[FATAL] %v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The catalog backs every selection; without it there is nothing to serve.
	recs, err := a.catalog.Records(ctx)
	if err != nil {
		log.Printf("[FATAL] load reference catalog: %v", err)
		return subcommands.ExitFailure
	}
	log.Printf("[INFO] reference catalog ready: %d symbols", len(recs))

	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if a.cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy)
		sender = tn
	}

	sched := scheduler.NewScheduler(ctx, a.catalog, a.service, sender, a.cfg.Dashboard.DateFormat)
	if err := sched.RegisterAll(a.cfg.Catalog.RefreshCron); err != nil {
		log.Printf("[FATAL] register cron tasks: %v", err)
		return subcommands.ExitFailure
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	addr := c.addr
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(a.catalog, a.service, a.cfg.Dashboard.DateFormat).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] HTTP API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[FATAL] http server: %v", err)
			return subcommands.ExitFailure
		}
	case <-ctx.Done():
		log.Println("[INFO] shutdown signal received, stopping...")
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] http shutdown: %v", err)
	}
	log.Println("[INFO] PortfolioAnalysis stopped")
	return subcommands.ExitSuccess
}
