package models

import (
	"encoding/json"
	"fmt"

	"github.com/ekaya-inc/ekaya-dictionary/pkg/apperrors"
)

// Table is a named, ordered row-set with a fixed column list.
// It is the unit exchanged between the catalog core and the workbook, HTTP and storage layers.
type Table struct {
	Name    string
	columns []string
	index   map[string]int
	rows    [][]Cell
}

// NewTable creates an empty table with the given columns.
// Repeated column names keep their first position.
func NewTable(name string, columns ...string) *Table {
	t := &Table{
		Name:  name,
		index: make(map[string]int, len(columns)),
	}
	for _, col := range columns {
		if _, ok := t.index[col]; ok {
			continue
		}
		t.index[col] = len(t.columns)
		t.columns = append(t.columns, col)
	}
	return t
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	cp := make([]string, len(t.columns))
	copy(cp, t.columns)
	return cp
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// RequireColumns returns a *apperrors.MissingColumnError for the first absent column.
func (t *Table) RequireColumns(names ...string) error {
	for _, name := range names {
		if !t.HasColumn(name) {
			return &apperrors.MissingColumnError{Table: t.Name, Column: name}
		}
	}
	return nil
}

// AppendRow adds a row. Missing trailing cells are absent, extra cells are dropped.
func (t *Table) AppendRow(cells ...Cell) {
	row := make([]Cell, len(t.columns))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// AppendRecord adds a row from a column → value map. Unknown columns are ignored.
func (t *Table) AppendRecord(record map[string]Cell) {
	row := make([]Cell, len(t.columns))
	for col, v := range record {
		if i, ok := t.index[col]; ok {
			row[i] = v
		}
	}
	t.rows = append(t.rows, row)
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []Cell {
	cp := make([]Cell, len(t.columns))
	copy(cp, t.rows[i])
	return cp
}

// Record returns row i keyed by column name.
func (t *Table) Record(i int) map[string]Cell {
	rec := make(map[string]Cell, len(t.columns))
	for j, col := range t.columns {
		rec[col] = t.rows[i][j]
	}
	return rec
}

// Value returns the cell at row i in the named column, or an absent cell when the
// column does not exist.
func (t *Table) Value(i int, column string) Cell {
	j, ok := t.index[column]
	if !ok {
		return Null()
	}
	return t.rows[i][j]
}

// Text is shorthand for Value(i, column).String().
func (t *Table) Text(i int, column string) string {
	return t.Value(i, column).String()
}

// Set replaces the cell at row i in the named column.
func (t *Table) Set(i int, column string, v Cell) error {
	j, ok := t.index[column]
	if !ok {
		return &apperrors.MissingColumnError{Table: t.Name, Column: column}
	}
	t.rows[i][j] = v
	return nil
}

// Column returns every value of the named column in row order.
func (t *Table) Column(name string) []Cell {
	j, ok := t.index[name]
	if !ok {
		return nil
	}
	out := make([]Cell, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[j]
	}
	return out
}

// SetColumn appends the named column, or replaces its values when it already exists.
// values must hold one cell per row.
func (t *Table) SetColumn(name string, values []Cell) error {
	if len(values) != len(t.rows) {
		return fmt.Errorf("%w: column %q has %d values for %d rows", apperrors.ErrInvalidInput, name, len(values), len(t.rows))
	}
	j, ok := t.index[name]
	if !ok {
		j = len(t.columns)
		t.index[name] = j
		t.columns = append(t.columns, name)
		for i := range t.rows {
			t.rows[i] = append(t.rows[i], Null())
		}
	}
	for i := range t.rows {
		t.rows[i][j] = values[i]
	}
	return nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := NewTable(t.Name, t.columns...)
	c.rows = make([][]Cell, len(t.rows))
	for i, row := range t.rows {
		c.rows[i] = make([]Cell, len(row))
		copy(c.rows[i], row)
	}
	return c
}

type tableJSON struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    [][]Cell `json:"rows"`
}

func (t *Table) MarshalJSON() ([]byte, error) {
	rows := t.rows
	if rows == nil {
		rows = [][]Cell{}
	}
	return json.Marshal(tableJSON{Name: t.Name, Columns: t.Columns(), Rows: rows})
}

func (t *Table) UnmarshalJSON(data []byte) error {
	var raw tableJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = *NewTable(raw.Name, raw.Columns...)
	for _, row := range raw.Rows {
		t.AppendRow(row...)
	}
	return nil
}
