package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pfrederiksen/tarkov-market/internal/config"
	"github.com/pfrederiksen/tarkov-market/internal/logger"
	"github.com/pfrederiksen/tarkov-market/internal/storage"
	"github.com/pfrederiksen/tarkov-market/internal/tarkov"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagConfig    string
	flagDataDir   string
	flagOutputDir string
	flagLang      string
	flagGameMode  string
	flagFormat    string
	flagVerbose   bool
	flagOffline   bool
	flagMaxAge    time.Duration
)

// app carries what every command needs once flags and config are resolved
type app struct {
	cfg     *config.Config
	store   *storage.Storage
	client  *tarkov.Client
	format  OutputFormat
	out     io.Writer
	offline bool
	maxAge  time.Duration
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tarkov-market",
		Short: "Analyze Escape from Tarkov flea market prices",
		Long: `A CLI tool that fetches item prices and price history from the tarkov.dev API,
screens items for short-term price trends, estimates trader-to-flea resale
profit and exports the results as spreadsheets and charts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "tarkov-market.yaml", "Path to YAML config file")
	pf.StringVar(&flagDataDir, "data-dir", "", "Data directory for snapshots")
	pf.StringVar(&flagOutputDir, "output-dir", "", "Directory reports are written to")
	pf.StringVar(&flagLang, "lang", "", "Language of item names (e.g., ru, en)")
	pf.StringVar(&flagGameMode, "game-mode", "", "Game mode: regular or pve")
	pf.StringVar(&flagFormat, "format", "text", "Output format: text or json")
	pf.BoolVar(&flagVerbose, "verbose", false, "Enable verbose logging")
	pf.BoolVar(&flagOffline, "offline", false, "Use stored snapshots only, never call the API")
	pf.DurationVar(&flagMaxAge, "max-age", 0, "Reuse snapshots younger than this instead of fetching (0 = config value)")

	cmd.AddCommand(
		newItemsCmd(),
		newHistoryCmd(),
		newScreenCmd(),
		newPlotCmd(),
		newResellCmd(),
		newWatchCmd(),
	)

	return cmd
}

// setup resolves config, logging, storage and the API client for a command.
// Flags override the config file and environment.
func setup(cmd *cobra.Command) (*app, error) {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return nil, fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.Paths.DataDir = flagDataDir
	}
	if flags.Changed("output-dir") {
		cfg.Paths.OutputDir = flagOutputDir
	}
	if flags.Changed("lang") {
		cfg.API.Lang = flagLang
	}
	if flags.Changed("game-mode") {
		cfg.API.GameMode = strings.ToLower(flagGameMode)
	}
	if flagVerbose {
		cfg.LogLevel = string(logger.LevelDebug)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if flagVerbose {
		logger.SetDefault(logger.NewConsole(logger.LevelDebug, os.Stderr))
	} else {
		logger.SetDefault(logger.New(logger.ParseLevel(cfg.LogLevel), os.Stderr))
	}

	store, err := storage.New(cfg.Paths.DataDir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	maxAge := cfg.Analysis.SnapshotMaxAge
	if flags.Changed("max-age") {
		maxAge = flagMaxAge
	}

	logger.Debug("Configuration resolved", logger.Fields{
		"api_url":   cfg.API.URL,
		"lang":      cfg.API.Lang,
		"game_mode": cfg.API.GameMode,
		"data_dir":  store.Dir(),
		"output":    cfg.Paths.OutputDir,
		"offline":   flagOffline,
		"max_age":   maxAge.String(),
	})

	return &app{
		cfg:     cfg,
		store:   store,
		client:  newClient(cfg, format),
		format:  format,
		out:     cmd.OutOrStdout(),
		offline: flagOffline,
		maxAge:  maxAge,
	}, nil
}

func newClient(cfg *config.Config, format OutputFormat) *tarkov.Client {
	opts := []tarkov.Option{
		tarkov.WithURL(cfg.API.URL),
		tarkov.WithLang(cfg.API.Lang),
		tarkov.WithGameMode(cfg.API.GameMode),
		tarkov.WithHistoryDays(cfg.API.HistoryDays),
		tarkov.WithRequestDelay(cfg.API.RequestDelay),
		tarkov.WithTimeout(cfg.API.Timeout),
		tarkov.WithMaxRetries(cfg.API.MaxRetries),
	}
	// The progress bar would interleave with JSON on stdout
	if format == FormatJSON {
		opts = append(opts, tarkov.WithProgress(tarkov.NopProgress))
	}
	return tarkov.New(opts...)
}

// finish flushes the logger and prints metrics in verbose mode
func finish() {
	if flagVerbose {
		if err := writeMetrics(os.Stderr, logger.GetMetricsSnapshot()); err != nil {
			logger.Warn("Failed to print metrics", logger.Fields{"error": err.Error()})
		}
	}
	logger.Sync()
}

// Execute runs the CLI. Interrupts cancel the running command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
