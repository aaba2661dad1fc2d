// Package config loads the simulator configuration from an optional YAML file
// overlaid with FMCGSIM_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"fmcgsim/internal/engine"
	"fmcgsim/pkg/domain"
)

// Defaults sized for a regional FMCG distributor.
const (
	DefaultEmployees     = 350
	DefaultProducts      = 150
	DefaultRetailers     = 500
	DefaultCampaigns     = 50
	DefaultInitialAmount = 8_000_000_000 // full-history backfill target, PHP
	DefaultDailyAmount   = 2_000_000     // per-day target for scheduled runs
)

// Config is the full runtime configuration.
type Config struct {
	// Sink selects the warehouse driver: "sqlite" or "postgres".
	Sink string `yaml:"sink"`
	// SQLitePath is the database file for the sqlite sink.
	SQLitePath string `yaml:"sqlite_path"`
	// PostgresDSN is the connection string for the postgres sink.
	PostgresDSN string `yaml:"postgres_dsn"`

	// Seed fixes the random source; 0 means derive from the clock.
	Seed uint64 `yaml:"seed"`

	Employees int `yaml:"employees"`
	Products  int `yaml:"products"`
	Retailers int `yaml:"retailers"`
	Campaigns int `yaml:"campaigns"`

	// InitialAmount is the monetary target for the historical backfill run.
	InitialAmount float64 `yaml:"initial_amount"`
	// DailyAmount is the target for a single daily run.
	DailyAmount float64 `yaml:"daily_amount"`
	// StartDate is the first day of the backfill horizon, YYYY-MM-DD.
	StartDate string `yaml:"start_date"`

	// Fallback selects pool-degradation behavior: "widen" or "skip".
	Fallback string `yaml:"fallback"`

	Schedule engine.ScheduleConfig `yaml:"schedule"`

	// ExportDir is the local directory for run artifacts. Ignored when the
	// S3 export bucket env vars are set.
	ExportDir string `yaml:"export_dir"`

	// MetricsAddr serves Prometheus metrics when non-empty, e.g. ":9090".
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the configuration used when no file or env overrides exist.
func Default() Config {
	return Config{
		Sink:          "sqlite",
		SQLitePath:    "fmcgsim.db",
		Employees:     DefaultEmployees,
		Products:      DefaultProducts,
		Retailers:     DefaultRetailers,
		Campaigns:     DefaultCampaigns,
		InitialAmount: DefaultInitialAmount,
		DailyAmount:   DefaultDailyAmount,
		StartDate:     "2015-01-01",
		Fallback:      string(engine.FallbackWiden),
		Schedule:      engine.DefaultScheduleConfig(),
		ExportDir:     "./exports",
	}
}

// Load reads path (when non-empty) over the defaults, then applies env
// overrides and validates.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	strVar(&c.Sink, "FMCGSIM_SINK")
	strVar(&c.SQLitePath, "FMCGSIM_SQLITE_PATH")
	strVar(&c.PostgresDSN, "FMCGSIM_POSTGRES_DSN")
	strVar(&c.StartDate, "FMCGSIM_START_DATE")
	strVar(&c.Fallback, "FMCGSIM_FALLBACK")
	strVar(&c.ExportDir, "FMCGSIM_EXPORT_DIR")
	strVar(&c.MetricsAddr, "FMCGSIM_METRICS_ADDR")
	intVar(&c.Employees, "FMCGSIM_EMPLOYEES")
	intVar(&c.Products, "FMCGSIM_PRODUCTS")
	intVar(&c.Retailers, "FMCGSIM_RETAILERS")
	intVar(&c.Campaigns, "FMCGSIM_CAMPAIGNS")
	floatVar(&c.InitialAmount, "FMCGSIM_INITIAL_AMOUNT")
	floatVar(&c.DailyAmount, "FMCGSIM_DAILY_AMOUNT")
	if v := os.Getenv("FMCGSIM_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			c.Seed = n
		}
	}
}

func strVar(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func intVar(dst *int, name string) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func floatVar(dst *float64, name string) {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	switch c.Sink {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unknown sink %q", c.Sink)
	}
	switch engine.FallbackPolicy(c.Fallback) {
	case engine.FallbackWiden, engine.FallbackSkipDay:
	default:
		return fmt.Errorf("config: unknown fallback policy %q", c.Fallback)
	}
	if c.Employees <= 0 || c.Products <= 0 || c.Retailers <= 0 {
		return fmt.Errorf("config: dimension counts must be positive")
	}
	if c.InitialAmount <= 0 || c.DailyAmount <= 0 {
		return fmt.Errorf("config: monetary targets must be positive")
	}
	if _, err := c.Start(); err != nil {
		return err
	}
	return nil
}

// Start parses the configured backfill start date.
func (c Config) Start() (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, c.StartDate, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("config: start_date %q: %w", c.StartDate, err)
	}
	return domain.DayOf(t), nil
}
