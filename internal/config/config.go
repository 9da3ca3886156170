package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL = "https://api.tarkov.dev/graphql"

	GameModeRegular = "regular"
	GameModePVE     = "pve"

	PriceModeCurrent = "current"
	PriceModeAverage = "average"
)

// Config holds everything the commands need to reach the API and write reports.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Paths    PathsConfig    `yaml:"paths"`
	Analysis AnalysisConfig `yaml:"analysis"`
	LogLevel string         `yaml:"log_level"`
}

// APIConfig controls the tarkov.dev client
type APIConfig struct {
	URL          string        `yaml:"url"`
	Lang         string        `yaml:"lang"`
	GameMode     string        `yaml:"game_mode"`
	HistoryDays  int           `yaml:"history_days"`
	RequestDelay time.Duration `yaml:"request_delay"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   uint64        `yaml:"max_retries"`
}

// PathsConfig lists the directories reports and snapshots go to
type PathsConfig struct {
	DataDir   string `yaml:"data_dir"`
	OutputDir string `yaml:"output_dir"`
	ChartsDir string `yaml:"charts_dir"`
	TradesDir string `yaml:"trades_dir"`
}

// AnalysisConfig tunes the screener and the resale calculator
type AnalysisConfig struct {
	ExcludedTraders []string      `yaml:"excluded_traders"`
	OfferFeeRate    float64       `yaml:"offer_fee_rate"`
	RequirementRate float64       `yaml:"requirement_rate"`
	PriceMode       string        `yaml:"price_mode"`
	MovingAverage   int           `yaml:"moving_average"`
	SnapshotMaxAge  time.Duration `yaml:"snapshot_max_age"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		API: APIConfig{
			URL:          DefaultAPIURL,
			Lang:         "ru",
			GameMode:     GameModeRegular,
			HistoryDays:  7,
			RequestDelay: 100 * time.Millisecond,
			Timeout:      30 * time.Second,
			MaxRetries:   3,
		},
		Paths: PathsConfig{
			DataDir:   "~/.local/share/tarkov-market",
			OutputDir: ".",
			ChartsDir: "charts",
			TradesDir: "trades",
		},
		Analysis: AnalysisConfig{
			// Fence buys only, Lightkeeper and the BTR driver are quest-gated,
			// Ref prices in GP coins.
			ExcludedTraders: []string{"fence", "lightkeeper", "btr-driver", "ref"},
			OfferFeeRate:    0.03,
			RequirementRate: 0.03,
			PriceMode:       PriceModeCurrent,
			MovingAverage:   24,
			SnapshotMaxAge:  time.Hour,
		},
		LogLevel: "info",
	}
}

// Load reads the YAML file at path (if any), then applies .env and TARKOV_*
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overrides fields from TARKOV_* variables
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("TARKOV_API_URL", &c.API.URL)
	str("TARKOV_LANG", &c.API.Lang)
	str("TARKOV_GAME_MODE", &c.API.GameMode)
	str("TARKOV_DATA_DIR", &c.Paths.DataDir)
	str("TARKOV_OUTPUT_DIR", &c.Paths.OutputDir)
	str("TARKOV_PRICE_MODE", &c.Analysis.PriceMode)
	str("TARKOV_LOG_LEVEL", &c.LogLevel)

	if v, ok := lookup("TARKOV_HISTORY_DAYS"); ok && v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TARKOV_HISTORY_DAYS %q: %w", v, err)
		}
		c.API.HistoryDays = days
	}

	if v, ok := lookup("TARKOV_REQUEST_DELAY"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TARKOV_REQUEST_DELAY %q: %w", v, err)
		}
		c.API.RequestDelay = d
	}

	if v, ok := lookup("TARKOV_EXCLUDED_TRADERS"); ok {
		c.Analysis.ExcludedTraders = splitList(v)
	}

	return nil
}

// Validate checks that the configuration can be used
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.URL) == "" {
		return fmt.Errorf("api url is required")
	}
	switch c.API.GameMode {
	case GameModeRegular, GameModePVE:
	default:
		return fmt.Errorf("invalid game mode: %s (must be 'regular' or 'pve')", c.API.GameMode)
	}
	switch c.Analysis.PriceMode {
	case PriceModeCurrent, PriceModeAverage:
	default:
		return fmt.Errorf("invalid price mode: %s (must be 'current' or 'average')", c.Analysis.PriceMode)
	}
	if c.API.HistoryDays <= 0 {
		return fmt.Errorf("history days must be positive, got %d", c.API.HistoryDays)
	}
	if c.API.RequestDelay < 0 {
		return fmt.Errorf("request delay must not be negative")
	}
	if c.Analysis.MovingAverage <= 0 {
		return fmt.Errorf("moving average window must be positive, got %d", c.Analysis.MovingAverage)
	}
	return nil
}

// IsExcludedTrader reports whether a trader's normalized name is on the skip list
func (c *Config) IsExcludedTrader(normalizedName string) bool {
	for _, name := range c.Analysis.ExcludedTraders {
		if strings.EqualFold(name, normalizedName) {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
