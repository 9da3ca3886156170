package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pfrederiksen/tarkov-market/internal/analysis"
	"github.com/pfrederiksen/tarkov-market/internal/chart"
	"github.com/pfrederiksen/tarkov-market/internal/config"
	"github.com/pfrederiksen/tarkov-market/internal/logger"
	"github.com/pfrederiksen/tarkov-market/internal/market"
	"github.com/pfrederiksen/tarkov-market/internal/report"
	"github.com/pfrederiksen/tarkov-market/internal/tarkov"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

const (
	defaultTop      = 10
	defaultSchedule = "0 0 * * * *"
)

func (a *app) writer() *report.Writer {
	return &report.Writer{
		OutputDir: a.cfg.Paths.OutputDir,
		TradesDir: a.cfg.Paths.TradesDir,
	}
}

// chartsDir resolves the charts directory relative to the output directory
func (a *app) chartsDir() string {
	dir := a.cfg.Paths.ChartsDir
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(a.cfg.Paths.OutputDir, dir)
}

// run wraps a command body with setup, output and cleanup
func run(cmd *cobra.Command, body func(ctx context.Context, a *app) (result, error)) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer finish()

	res, err := body(cmd.Context(), a)
	if err != nil {
		return err
	}

	if err := WriteOutput(a.out, res, a.format, flagVerbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func newItemsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "items",
		Short: "Fetch the item catalog and export it to items.xlsx",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) (result, error) {
				return runItems(ctx, a)
			})
		},
	}
}

func runItems(ctx context.Context, a *app) (*ItemsResult, error) {
	items, err := a.loadItems(ctx, true)
	if err != nil {
		return nil, err
	}

	rows := make([]market.ItemRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, market.FlattenItem(item))
	}

	path, err := a.writer().Items(market.ItemsTable(rows))
	if err != nil {
		return nil, fmt.Errorf("writing items report: %w", err)
	}

	return &ItemsResult{
		FetchedAt: time.Now().UTC(),
		GameMode:  a.cfg.API.GameMode,
		ItemCount: len(items),
		File:      path,
	}, nil
}

func newHistoryCmd() *cobra.Command {
	sel := &selection{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Fetch price history for selected items and store it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel.resolve(cmd)
			return run(cmd, func(ctx context.Context, a *app) (result, error) {
				return runHistory(ctx, a, sel)
			})
		},
	}
	addSelectionFlags(cmd, sel)
	return cmd
}

func runHistory(ctx context.Context, a *app, sel *selection) (*HistoryResult, error) {
	ids, histories, err := a.loadHistories(ctx, sel, true)
	if err != nil {
		return nil, err
	}

	res := &HistoryResult{
		FetchedAt: time.Now().UTC(),
		GameMode:  a.cfg.API.GameMode,
		ItemCount: len(ids),
		Points:    make(map[string]int, len(ids)),
	}
	for _, id := range ids {
		n := len(histories[id])
		res.Points[id] = n
		if n > 0 {
			res.WithData++
		}
	}
	return res, nil
}

func newScreenCmd() *cobra.Command {
	sel := &selection{}
	var top int
	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Find under- and overvalued items from recent price history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel.resolve(cmd)
			return run(cmd, func(ctx context.Context, a *app) (result, error) {
				return runScreen(ctx, a, sel, top, false)
			})
		},
	}
	addSelectionFlags(cmd, sel)
	cmd.Flags().IntVar(&top, "top", defaultTop, "Number of items to print per side (0 = all)")
	return cmd
}

func runScreen(ctx context.Context, a *app, sel *selection, top int, force bool) (*ScreenResult, error) {
	ids, histories, err := a.loadHistories(ctx, sel, force)
	if err != nil {
		return nil, err
	}
	names, err := a.namesFor(ctx)
	if err != nil {
		return nil, err
	}

	rows := analysis.Screen(names, buildSeries(ids, histories))
	buy := analysis.BuyList(rows)
	sell := analysis.SellList(rows)

	files, err := a.writer().Screener(analysis.ScreenTable(buy), analysis.ScreenTable(sell))
	if err != nil {
		return nil, fmt.Errorf("writing screener reports: %w", err)
	}

	logger.SetGauge("screen.buy", float64(len(buy)))
	logger.SetGauge("screen.sell", float64(len(sell)))

	return &ScreenResult{
		CheckedAt: time.Now().UTC(),
		GameMode:  a.cfg.API.GameMode,
		Screened:  len(rows),
		BuyCount:  len(buy),
		SellCount: len(sell),
		Buy:       newScreenEntries(buy, top),
		Sell:      newScreenEntries(sell, top),
		Files:     files,
	}, nil
}

func newPlotCmd() *cobra.Command {
	sel := &selection{}
	var workers int
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render price charts for stored histories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel.resolve(cmd)
			return run(cmd, func(ctx context.Context, a *app) (result, error) {
				return runPlot(ctx, a, sel, workers)
			})
		},
	}
	addSelectionFlags(cmd, sel)
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "Number of charts rendered in parallel")
	return cmd
}

func runPlot(ctx context.Context, a *app, sel *selection, workers int) (*PlotResult, error) {
	ids, histories, err := a.loadHistories(ctx, sel, false)
	if err != nil {
		return nil, err
	}
	names, err := a.namesFor(ctx)
	if err != nil {
		return nil, err
	}

	dir := a.chartsDir()
	out, err := chart.New(a.cfg.Analysis.MovingAverage).RenderAll(ctx, names, buildSeries(ids, histories), dir, workers)
	if err != nil {
		return nil, fmt.Errorf("rendering charts: %w", err)
	}

	return &PlotResult{
		Dir:     dir,
		Written: len(out.Written),
		Failed:  out.Failed,
	}, nil
}

func newResellCmd() *cobra.Command {
	var (
		useAverage bool
		top        int
		sortBy     string
	)
	cmd := &cobra.Command{
		Use:   "resell",
		Short: "Estimate profit of reselling trader offers on the flea market",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := parseSortOrder(sortBy)
			if err != nil {
				return err
			}
			return run(cmd, func(ctx context.Context, a *app) (result, error) {
				if cmd.Flags().Changed("use-average") {
					a.cfg.Analysis.PriceMode = config.PriceModeCurrent
					if useAverage {
						a.cfg.Analysis.PriceMode = config.PriceModeAverage
					}
				}
				return runResell(ctx, a, top, order)
			})
		},
	}
	cmd.Flags().BoolVar(&useAverage, "use-average", false, "Sell at the 24h average price instead of the lowest current offer")
	cmd.Flags().IntVar(&top, "top", defaultTop, "Number of offers to print (0 = all profitable)")
	cmd.Flags().StringVar(&sortBy, "sort", string(SortByProfit), "Sort printed offers by: profit, percent, or name")
	return cmd
}

func runResell(ctx context.Context, a *app, top int, order SortOrder) (*ResellResult, error) {
	traders, err := a.loadTraders(ctx)
	if err != nil {
		return nil, err
	}

	opts := analysis.ResaleOptions{
		Rates: analysis.FeeRates{
			Ti: a.cfg.Analysis.OfferFeeRate,
			Tr: a.cfg.Analysis.RequirementRate,
		},
		UseAverage: a.cfg.Analysis.PriceMode == config.PriceModeAverage,
	}
	reports := analysis.AnalyzeTraders(traders, opts, func(t tarkov.Trader) bool {
		return a.cfg.IsExcludedTrader(t.NormalizedName)
	})

	res := &ResellResult{
		CheckedAt: time.Now().UTC(),
		GameMode:  a.cfg.API.GameMode,
		PriceMode: a.cfg.Analysis.PriceMode,
		Traders:   make([]string, 0, len(reports)),
		Files:     make([]string, 0, len(reports)),
	}

	w := a.writer()
	for _, r := range reports {
		path, err := w.Trades(r.TraderName, analysis.ResaleTable(r.Rows))
		if err != nil {
			return nil, fmt.Errorf("writing trades for %s: %w", r.TraderName, err)
		}
		res.Traders = append(res.Traders, r.TraderName)
		res.Files = append(res.Files, path)
		res.OfferCount += len(r.Rows)
	}

	best := analysis.Best(reports, top)
	sortOffers(best, order)
	res.Best = newResellEntries(best)

	return res, nil
}

func newWatchCmd() *cobra.Command {
	sel := &selection{}
	var (
		schedule string
		startup  bool
		top      int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the screener on a schedule",
		Long: `Fetches fresh price history and runs the screener on a cron schedule
(with seconds, e.g. "0 0 * * * *" for every hour) until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel.resolve(cmd)
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer finish()
			return runWatch(cmd.Context(), a, sel, schedule, startup, top)
		},
	}
	addSelectionFlags(cmd, sel)
	cmd.Flags().StringVar(&schedule, "schedule", defaultSchedule, "Cron schedule with seconds field")
	cmd.Flags().BoolVar(&startup, "startup", false, "Also run once immediately")
	cmd.Flags().IntVar(&top, "top", defaultTop, "Number of items to print per side (0 = all)")
	return cmd
}

// runWatch screens on every tick of schedule until ctx is done. A failed run
// is logged and the next tick still fires.
func runWatch(ctx context.Context, a *app, sel *selection, schedule string, startup bool, top int) error {
	if a.offline {
		return fmt.Errorf("watch needs the API and cannot run with --offline")
	}

	job := func() {
		start := time.Now()
		res, err := runScreen(ctx, a, sel, top, true)
		if err != nil {
			logger.Error("Scheduled screen failed", logger.Fields{"schedule": schedule}, err)
			logger.IncrCounter("watch.failures")
			return
		}
		logger.RecordTiming("watch.run", time.Since(start))
		if err := WriteOutput(a.out, res, a.format, flagVerbose); err != nil {
			logger.Error("Failed to write output", nil, err)
		}
	}

	// A tick that lands while the previous screen is still running is dropped
	cr := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{})),
	)
	if _, err := cr.AddFunc(schedule, job); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	if startup {
		job()
	}

	logger.Info("Watching market", logger.Fields{
		"schedule":  schedule,
		"game_mode": a.cfg.API.GameMode,
	})

	cr.Start()
	<-ctx.Done()
	<-cr.Stop().Done()

	logger.Info("Stopped watching", nil)
	return nil
}

// cronLogger routes scheduler messages to the package logger. Skipped ticks
// are counted so verbose metrics show how often runs outlast the schedule.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	if msg == "skip" {
		logger.IncrCounter("watch.skipped")
		logger.Warn("Skipping scheduled screen, previous run still in progress", nil)
		return
	}
	logger.Debug("Scheduler: "+msg, cronFields(keysAndValues))
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("Scheduler: "+msg, cronFields(keysAndValues), err)
}

func cronFields(keysAndValues []interface{}) logger.Fields {
	if len(keysAndValues) == 0 {
		return nil
	}
	fields := make(logger.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
