package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"github.com/pfrederiksen/tarkov-market/internal/market"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName = "Sheet1"

	// columnPadding is added to the longest value when sizing a column
	columnPadding  = 2
	maxColumnWidth = 255
)

// WriteXLSX writes the table to a single-sheet workbook at path, creating the
// parent directory if needed. Missing, NaN and infinite numbers are left blank.
func WriteXLSX(path string, table *market.Table) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range table.Rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := fitColumns(f, table); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

// cellValue maps missing and non-finite numbers to an empty cell
func cellValue(v interface{}) interface{} {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}

// fitColumns sets every column to the width of its longest value plus padding
func fitColumns(f *excelize.File, table *market.Table) error {
	for col, name := range table.Columns {
		width := utf8.RuneCountInString(name)
		for _, row := range table.Rows {
			if w := utf8.RuneCountInString(FormatCell(row[col])); w > width {
				width = w
			}
		}
		width += columnPadding
		if width > maxColumnWidth {
			width = maxColumnWidth
		}

		colName, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, colName, colName, float64(width)); err != nil {
			return fmt.Errorf("setting width of %s: %w", colName, err)
		}
	}
	return nil
}

// FormatCell renders a cell the way it appears in text output
func FormatCell(v interface{}) string {
	switch x := cellValue(v).(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
