package market

import "fmt"

// Table is a header plus rows of cells. Cells hold string, int, float64 or nil
// for a missing value.
type Table struct {
	Columns []string
	Rows    [][]interface{}
}

// NewTable creates an empty table with the given columns
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns, Rows: make([][]interface{}, 0)}
}

// Append adds a row. Rows shorter than the header are padded with nil.
func (t *Table) Append(cells ...interface{}) {
	row := make([]interface{}, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Column returns the index of a column or -1
func (t *Table) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at row i in the named column
func (t *Table) Cell(i int, column string) (interface{}, error) {
	idx := t.Column(column)
	if idx < 0 {
		return nil, fmt.Errorf("unknown column: %s", column)
	}
	if i < 0 || i >= len(t.Rows) {
		return nil, fmt.Errorf("row %d out of range", i)
	}
	return t.Rows[i][idx], nil
}

// Float dereferences an optional number for a table cell
func Float(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// Int dereferences an optional integer for a table cell
func Int(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
