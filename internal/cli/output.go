package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/pfrederiksen/tarkov-market/internal/analysis"
	"github.com/tidwall/pretty"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// result is implemented by every command summary
type result interface {
	writeText(w io.Writer, verbose bool) error
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, res result, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, res)
	case FormatText:
		return res.writeText(w, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, res result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(res)
}

// finite drops NaN and infinite values, which JSON cannot carry
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func formatPrice(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

// ItemsResult summarizes the items command
type ItemsResult struct {
	FetchedAt time.Time `json:"fetched_at"`
	GameMode  string    `json:"game_mode"`
	ItemCount int       `json:"item_count"`
	File      string    `json:"file"`
}

func (r *ItemsResult) writeText(w io.Writer, verbose bool) error {
	fmt.Fprintf(w, "Exported %d items (%s) to %s\n", r.ItemCount, r.GameMode, r.File)
	return nil
}

// HistoryResult summarizes the history command
type HistoryResult struct {
	FetchedAt time.Time      `json:"fetched_at"`
	GameMode  string         `json:"game_mode"`
	ItemCount int            `json:"item_count"`
	WithData  int            `json:"with_data"`
	Points    map[string]int `json:"points,omitempty"`
}

func (r *HistoryResult) writeText(w io.Writer, verbose bool) error {
	fmt.Fprintf(w, "Fetched price history for %d items (%d with data)\n", r.ItemCount, r.WithData)
	if verbose {
		ids := make([]string, 0, len(r.Points))
		for id := range r.Points {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(w, "  %s: %d points\n", id, r.Points[id])
		}
	}
	return nil
}

// ScreenEntry is the printed part of a screener row
type ScreenEntry struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	LowAvg7       *float64 `json:"low_avg_7"`
	Last2HoursLow *float64 `json:"last_2_hours_low"`
	ChangeLow     *float64 `json:"change_low"`
	ChangeLowPrc  *float64 `json:"change_low_prc"`
}

func newScreenEntries(rows []analysis.ScreenRow, top int) []ScreenEntry {
	if top > 0 && len(rows) > top {
		rows = rows[:top]
	}
	entries := make([]ScreenEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, ScreenEntry{
			ID:            r.ID,
			Name:          r.Name,
			LowAvg7:       finite(r.LowAvg7),
			Last2HoursLow: finite(r.Last2HoursLow),
			ChangeLow:     finite(r.ChangeLow),
			ChangeLowPrc:  finite(r.ChangeLowPrc),
		})
	}
	return entries
}

// ScreenResult summarizes the screen command
type ScreenResult struct {
	CheckedAt time.Time     `json:"checked_at"`
	GameMode  string        `json:"game_mode"`
	Screened  int           `json:"screened"`
	BuyCount  int           `json:"buy_count"`
	SellCount int           `json:"sell_count"`
	Buy       []ScreenEntry `json:"buy"`
	Sell      []ScreenEntry `json:"sell"`
	Files     []string      `json:"files"`
}

func (r *ScreenResult) writeText(w io.Writer, verbose bool) error {
	if r.Screened == 0 {
		fmt.Fprintln(w, "No items with price history.")
		return nil
	}

	writeEntries := func(title string, entries []ScreenEntry, total int) {
		fmt.Fprintf(w, "\n%s (%d of %d):\n", title, len(entries), total)
		for _, e := range entries {
			fmt.Fprintf(w, "  %s: %s%% (%s -> %s)\n",
				e.Name, formatPrice(e.ChangeLowPrc), formatPrice(e.LowAvg7), formatPrice(e.Last2HoursLow))
			if verbose {
				fmt.Fprintf(w, "       ID: %s\n", e.ID)
			}
		}
	}
	writeEntries("Undervalued, consider buying", r.Buy, r.BuyCount)
	writeEntries("Overvalued, consider selling", r.Sell, r.SellCount)

	fmt.Fprintf(w, "\nScreened %d items (%s)\n", r.Screened, r.GameMode)
	for _, f := range r.Files {
		fmt.Fprintf(w, "Wrote %s\n", f)
	}
	return nil
}

// PlotResult summarizes the plot command
type PlotResult struct {
	Dir     string   `json:"dir"`
	Written int      `json:"written"`
	Failed  []string `json:"failed,omitempty"`
}

func (r *PlotResult) writeText(w io.Writer, verbose bool) error {
	fmt.Fprintf(w, "Wrote %d charts to %s\n", r.Written, r.Dir)
	if len(r.Failed) > 0 {
		fmt.Fprintf(w, "Skipped %d items without data\n", len(r.Failed))
		if verbose {
			for _, id := range r.Failed {
				fmt.Fprintf(w, "  %s\n", id)
			}
		}
	}
	return nil
}

// ResellEntry is the printed part of a resale row
type ResellEntry struct {
	Trader         string   `json:"trader"`
	ItemID         string   `json:"item_id"`
	Name           string   `json:"name"`
	MinTraderLevel int      `json:"min_trader_level"`
	PriceRUB       *float64 `json:"price_rub"`
	BuyLimit       int      `json:"buy_limit"`
	Prof1          *float64 `json:"prof_1"`
	ProfFull       *float64 `json:"prof_full"`
	Profit1Perc    *float64 `json:"profit_1_perc"`
	MinProfitPrice *float64 `json:"min_profit_price"`
	TaskUnlock     string   `json:"task_unlock,omitempty"`
}

func newResellEntries(rows []analysis.ResaleRow) []ResellEntry {
	entries := make([]ResellEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, ResellEntry{
			Trader:         r.TraderName,
			ItemID:         r.ItemID,
			Name:           r.Name,
			MinTraderLevel: r.MinTraderLevel,
			PriceRUB:       r.PriceRUB,
			BuyLimit:       r.BuyLimit,
			Prof1:          r.Prof1,
			ProfFull:       r.ProfFull,
			Profit1Perc:    r.Profit1Perc,
			MinProfitPrice: r.MinProfitPrice,
			TaskUnlock:     r.TaskUnlock,
		})
	}
	return entries
}

// ResellResult summarizes the resell command
type ResellResult struct {
	CheckedAt  time.Time     `json:"checked_at"`
	GameMode   string        `json:"game_mode"`
	PriceMode  string        `json:"price_mode"`
	Traders    []string      `json:"traders"`
	OfferCount int           `json:"offer_count"`
	Best       []ResellEntry `json:"best"`
	Files      []string      `json:"files"`
}

func (r *ResellResult) writeText(w io.Writer, verbose bool) error {
	if len(r.Best) == 0 {
		fmt.Fprintln(w, "No profitable offers found.")
	} else {
		fmt.Fprintf(w, "Most profitable offers (%s price):\n", r.PriceMode)
		for _, e := range r.Best {
			fmt.Fprintf(w, "  %s LL%d: %s for %s, profit %s (%s%%), full limit %s\n",
				e.Trader, e.MinTraderLevel, e.Name, formatPrice(e.PriceRUB),
				formatPrice(e.Prof1), formatPrice(e.Profit1Perc), formatPrice(e.ProfFull))
			if verbose {
				fmt.Fprintf(w, "       ID: %s\n", e.ItemID)
				fmt.Fprintf(w, "       Min profitable price: %s\n", formatPrice(e.MinProfitPrice))
				if e.TaskUnlock != "" {
					fmt.Fprintf(w, "       Unlocked by: %s\n", e.TaskUnlock)
				}
			}
		}
	}

	fmt.Fprintf(w, "\nAnalyzed %d offers from %d traders\n", r.OfferCount, len(r.Traders))
	for _, f := range r.Files {
		fmt.Fprintf(w, "Wrote %s\n", f)
	}
	return nil
}

// writeMetrics prints a metrics snapshot as indented JSON
func writeMetrics(w io.Writer, snapshot map[string]interface{}) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding metrics: %w", err)
	}
	fmt.Fprintln(w, "Metrics:")
	_, err = w.Write(pretty.Pretty(data))
	return err
}
