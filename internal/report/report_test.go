package report

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pfrederiksen/tarkov-market/internal/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// readRows loads a written workbook back as strings, header first
func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	return rows
}

func sampleTable() *market.Table {
	t := market.NewTable("id", "name", "change_low_prc", "buyLimit")
	t.Append("gpu", "Graphics card", -11.76, 2)
	t.Append("salewa", "Salewa first aid kit", math.NaN(), nil)
	t.Append("inf", "Infinity", math.Inf(1), 0)
	return t
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.xlsx")

	require.NoError(t, WriteXLSX(path, sampleTable()))

	rows := readRows(t, path)
	require.Len(t, rows, 4)

	assert.Equal(t, []string{"id", "name", "change_low_prc", "buyLimit"}, rows[0])
	assert.Equal(t, []string{"gpu", "Graphics card", "-11.76", "2"}, rows[1])
	// NaN and missing values are blank; trailing blanks are trimmed on read
	assert.Equal(t, []string{"salewa", "Salewa first aid kit"}, rows[2])
	assert.Equal(t, []string{"inf", "Infinity", "", "0"}, rows[3])
}

func TestWriteXLSX_ColumnWidths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widths.xlsx")
	require.NoError(t, WriteXLSX(path, sampleTable()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	width, err := f.GetColWidth(SheetName, "B")
	require.NoError(t, err)
	assert.Equal(t, float64(len("Salewa first aid kit")+columnPadding), width)

	width, err = f.GetColWidth(SheetName, "C")
	require.NoError(t, err)
	assert.Equal(t, float64(len("change_low_prc")+columnPadding), width)
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"text", "text"},
		{42, "42"},
		{3.5, "3.5"},
		{405000.0, "405000"},
		{math.NaN(), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCell(tt.in))
	}
}

func TestWriter(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{OutputDir: dir, TradesDir: "trades"}

	path, err := w.Items(sampleTable())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ItemsFile), path)

	paths, err := w.Screener(sampleTable(), sampleTable())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, BuyFile), filepath.Join(dir, SellFile)}, paths)

	path, err = w.Trades("Прапор", sampleTable())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "trades", "Прапор___trades.xlsx"), path)

	for _, p := range append(paths, path) {
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}
}
