package main

import (
	"fmt"
	"log"
	"os"

	"PortfolioAnalysis/internal/catalog"
	"PortfolioAnalysis/internal/collector"
	"PortfolioAnalysis/internal/config"
	"PortfolioAnalysis/internal/dashboard"
	"PortfolioAnalysis/internal/model"
)

// app is the wired pipeline shared by every subcommand.
type app struct {
	cfg     *config.Config
	store   catalog.Store
	catalog *catalog.Loader
	service *dashboard.Service
}

func loadConfig() (*config.Config, error) {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	ttl, _ := cfg.CatalogTTL()
	timeout, _ := cfg.MarketDataTimeout()
	defaultStart, _ := cfg.DefaultStartDate()

	// Init catalog mirror
	var store catalog.Store
	if cfg.Database.SQLitePath != "" {
		ss, err := catalog.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite mirror failed, using noop: %v", err)
			store = catalog.NewNoopStore()
		} else {
			store = ss
		}
	} else {
		store = catalog.NewNoopStore()
	}

	loader := catalog.NewLoader(store, ttl,
		catalog.NewHTTPSource(cfg.Catalog.ETFURL, model.AssetETF, cfg.Proxy),
		catalog.NewHTTPSource(cfg.Catalog.EquityURL, model.AssetEquity, cfg.Proxy),
	)

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.DataSource.BaseURL != "" {
		fetcher = collector.NewVsTraderFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.Proxy, *cfg.DataSource.Adjusted)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	svc := dashboard.NewService(
		loader,
		collector.NewCollector(fetcher, timeout),
		collector.NewLogoResolver(cfg.Proxy, cfg.Dashboard.LogoBaseURL),
		defaultStart,
	)
	return &app{cfg: cfg, store: store, catalog: loader, service: svc}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		log.Printf("[WARN] close catalog mirror: %v", err)
	}
}
