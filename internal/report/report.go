// Package report writes analysis tables to Excel workbooks.
package report

import (
	"path/filepath"

	"github.com/pfrederiksen/tarkov-market/internal/market"
)

const (
	ItemsFile  = "items.xlsx"
	BuyFile    = "items_to_buy.xlsx"
	SellFile   = "items_to_sell.xlsx"
	tradesFile = "___trades.xlsx"
)

// TradesFile returns the workbook name for a trader's resale report
func TradesFile(traderName string) string {
	return market.FileName(traderName) + tradesFile
}

// Writer places reports under an output directory
type Writer struct {
	OutputDir string
	TradesDir string
}

// Items writes the flattened item catalog
func (w *Writer) Items(t *market.Table) (string, error) {
	path := filepath.Join(w.OutputDir, ItemsFile)
	return path, WriteXLSX(path, t)
}

// Screener writes the buy and sell candidate workbooks
func (w *Writer) Screener(buy, sell *market.Table) ([]string, error) {
	buyPath := filepath.Join(w.OutputDir, BuyFile)
	if err := WriteXLSX(buyPath, buy); err != nil {
		return nil, err
	}
	sellPath := filepath.Join(w.OutputDir, SellFile)
	if err := WriteXLSX(sellPath, sell); err != nil {
		return nil, err
	}
	return []string{buyPath, sellPath}, nil
}

// Trades writes one trader's resale workbook
func (w *Writer) Trades(traderName string, t *market.Table) (string, error) {
	dir := w.TradesDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(w.OutputDir, dir)
	}
	path := filepath.Join(dir, TradesFile(traderName))
	return path, WriteXLSX(path, t)
}
