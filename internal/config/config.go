package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultETFURL    = "https://raw.githubusercontent.com/JerBouma/FinanceDatabase/main/database/etfs.csv"
	defaultEquityURL = "https://raw.githubusercontent.com/JerBouma/FinanceDatabase/main/database/equities.csv"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL  string `yaml:"base_url"`
		APIKey   string `yaml:"api_key"`
		Adjusted *bool  `yaml:"adjusted"`
		Timeout  string `yaml:"timeout"`
	} `yaml:"data_source"`
	Catalog struct {
		ETFURL      string `yaml:"etf_url"`
		EquityURL   string `yaml:"equity_url"`
		TTL         string `yaml:"ttl"`
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"catalog"`
	Dashboard struct {
		DateFormat   string `yaml:"date_format"`
		DefaultStart string `yaml:"default_start"`
		LogoBaseURL  string `yaml:"logo_base_url"`
	} `yaml:"dashboard"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("VSTRADER_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("VSTRADER_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("MARKET_DATA_TIMEOUT"); v != "" {
		cfg.DataSource.Timeout = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CATALOG_TTL"); v != "" {
		cfg.Catalog.TTL = v
	}
	if v := os.Getenv("CRON_CATALOG_REFRESH"); v != "" {
		cfg.Catalog.RefreshCron = v
	}
	if v := os.Getenv("DEFAULT_START_DATE"); v != "" {
		cfg.Dashboard.DefaultStart = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("ADJUSTED_CLOSE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.DataSource.Adjusted = &b
		}
	}

	// Defaults
	if cfg.DataSource.Adjusted == nil {
		adjusted := true
		cfg.DataSource.Adjusted = &adjusted
	}
	if cfg.DataSource.Timeout == "" {
		cfg.DataSource.Timeout = "30s"
	}
	if cfg.Catalog.ETFURL == "" {
		cfg.Catalog.ETFURL = defaultETFURL
	}
	if cfg.Catalog.EquityURL == "" {
		cfg.Catalog.EquityURL = defaultEquityURL
	}
	if cfg.Catalog.TTL == "" {
		cfg.Catalog.TTL = "24h"
	}
	if cfg.Catalog.RefreshCron == "" {
		cfg.Catalog.RefreshCron = "0 0 6 * * *"
	}
	if cfg.Dashboard.DateFormat == "" {
		cfg.Dashboard.DateFormat = "2006-01-02"
	}
	if cfg.Dashboard.DefaultStart == "" {
		cfg.Dashboard.DefaultStart = "2024-01-01"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/catalog.db"
	}

	return cfg, nil
}

// Validate checks that all fields parse.
func (c *Config) Validate() error {
	if _, err := c.MarketDataTimeout(); err != nil {
		return fmt.Errorf("data_source.timeout: %w", err)
	}
	if _, err := c.CatalogTTL(); err != nil {
		return fmt.Errorf("catalog.ttl: %w", err)
	}
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).
		Parse(c.Catalog.RefreshCron); err != nil {
		return fmt.Errorf("catalog.refresh_cron: %w", err)
	}
	if _, err := c.DefaultStartDate(); err != nil {
		return fmt.Errorf("dashboard.default_start: %w", err)
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	return nil
}

// MarketDataTimeout bounds one market data collection.
func (c *Config) MarketDataTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.DataSource.Timeout)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return d, nil
}

// CatalogTTL is how long a loaded catalog stays fresh. Zero never expires.
func (c *Config) CatalogTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Catalog.TTL)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return d, nil
}

// DefaultStartDate is the start of the window when a request omits it.
func (c *Config) DefaultStartDate() (time.Time, error) {
	return time.Parse(c.Dashboard.DateFormat, c.Dashboard.DefaultStart)
}

// TelegramEnabled reports whether the bot should run.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != ""
}
