package dataset

import (
	"fmt"

	"pisaresilience/domain/core"
)

// Table is an ordered set of named columns with rows of nullable values.
//
// Methods that transform a table return a new table holding its own copy of
// the rows; the receiver is never modified. AppendRow is the only mutating
// method and exists for building tables from external sources.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// NewTable creates an empty table with the given column names.
func NewTable(columns ...string) (*Table, error) {
	t := &Table{
		columns: make([]string, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for _, c := range columns {
		if _, dup := t.index[c]; dup {
			return nil, fmt.Errorf("%w: %s", core.ErrDuplicateColumn, c)
		}
		t.index[c] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// AppendRow adds one row. The slice is copied.
func (t *Table) AppendRow(values ...Value) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("%w: got %d values for %d columns", core.ErrRowWidth, len(values), len(t.columns))
	}
	row := make([]Value, len(values))
	copy(row, values)
	t.rows = append(t.rows, row)
	return nil
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

func (t *Table) NumRows() int { return len(t.rows) }

func (t *Table) NumColumns() int { return len(t.columns) }

func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Value returns the cell at (row, column), or null when the column is absent.
func (t *Table) Value(row int, column string) Value {
	i, ok := t.index[column]
	if !ok {
		return Null()
	}
	return t.rows[row][i]
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.rows[i]))
	copy(out, t.rows[i])
	return out
}

// Column returns a copy of one column's values.
func (t *Table) Column(name string) ([]Value, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, core.NewColumnNotFoundError(name)
	}
	out := make([]Value, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out, nil
}

// NullCount returns the number of null cells in row i.
func (t *Table) NullCount(i int) int {
	n := 0
	for _, v := range t.rows[i] {
		if v.IsNull() {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	return t.FilterRows(func(int) bool { return true })
}

// FilterRows returns a new table with the rows for which keep returns true.
func (t *Table) FilterRows(keep func(i int) bool) *Table {
	out := t.emptyLike()
	for i, row := range t.rows {
		if !keep(i) {
			continue
		}
		cp := make([]Value, len(row))
		copy(cp, row)
		out.rows = append(out.rows, cp)
	}
	return out
}

// WithColumn returns a new table where name holds values. An existing column
// is overwritten in place; a new column is appended at the end.
func (t *Table) WithColumn(name string, values []Value) (*Table, error) {
	if len(values) != len(t.rows) {
		return nil, fmt.Errorf("%w: column %s has %d values for %d rows", core.ErrRowWidth, name, len(values), len(t.rows))
	}
	out := t.emptyLike()
	pos, exists := out.index[name]
	if !exists {
		pos = len(out.columns)
		out.index[name] = pos
		out.columns = append(out.columns, name)
	}
	out.rows = make([][]Value, len(t.rows))
	for r, row := range t.rows {
		cp := make([]Value, len(out.columns))
		copy(cp, row)
		cp[pos] = values[r]
		out.rows[r] = cp
	}
	return out, nil
}

// DropColumns returns a new table without the named columns. Unknown names
// are ignored.
func (t *Table) DropColumns(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	keep := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		if !drop[c] {
			keep = append(keep, c)
		}
	}
	out, _ := t.SelectColumns(keep...)
	return out
}

// SelectColumns returns a new table with exactly the named columns in the
// given order.
func (t *Table) SelectColumns(names ...string) (*Table, error) {
	src := make([]int, len(names))
	for i, n := range names {
		idx, ok := t.index[n]
		if !ok {
			return nil, core.NewColumnNotFoundError(n)
		}
		src[i] = idx
	}
	out, err := NewTable(names...)
	if err != nil {
		return nil, err
	}
	out.rows = make([][]Value, len(t.rows))
	for r, row := range t.rows {
		cp := make([]Value, len(names))
		for i, s := range src {
			cp[i] = row[s]
		}
		out.rows[r] = cp
	}
	return out, nil
}

// Reorder moves the lead columns to the front in the given order and keeps
// the remaining columns in their original relative order.
func (t *Table) Reorder(lead ...string) (*Table, error) {
	seen := make(map[string]bool, len(lead))
	order := make([]string, 0, len(t.columns))
	for _, c := range lead {
		if !t.HasColumn(c) {
			return nil, core.NewColumnNotFoundError(c)
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		order = append(order, c)
	}
	for _, c := range t.columns {
		if !seen[c] {
			order = append(order, c)
		}
	}
	return t.SelectColumns(order...)
}

// Equal reports whether both tables have the same columns and cells.
func (t *Table) Equal(o *Table) bool {
	if t.NumColumns() != o.NumColumns() || t.NumRows() != o.NumRows() {
		return false
	}
	for i, c := range t.columns {
		if o.columns[i] != c {
			return false
		}
	}
	for r, row := range t.rows {
		for i, v := range row {
			if !v.Equal(o.rows[r][i]) {
				return false
			}
		}
	}
	return true
}

func (t *Table) emptyLike() *Table {
	out := &Table{
		columns: t.Columns(),
		index:   make(map[string]int, len(t.columns)),
	}
	for k, v := range t.index {
		out.index[k] = v
	}
	return out
}

// Concat stacks tables vertically. The result's columns are the union of the
// inputs' columns in first-seen order; cells for columns a table lacks are
// null.
func Concat(tables ...*Table) (*Table, error) {
	var names []string
	seen := make(map[string]bool)
	for _, t := range tables {
		for _, c := range t.columns {
			if !seen[c] {
				seen[c] = true
				names = append(names, c)
			}
		}
	}
	out, err := NewTable(names...)
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		for _, row := range t.rows {
			cp := make([]Value, len(names))
			for i, c := range t.columns {
				cp[out.index[c]] = row[i]
			}
			out.rows = append(out.rows, cp)
		}
	}
	return out, nil
}
