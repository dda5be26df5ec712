// Package table provides the labeled, column-typed container the scaler works on.
//
// A Table is an ordered set of uniquely named columns of equal length. Each
// column holds float64, int64 or string values. Numeric matrices convert to
// tables with auto-labeled columns "0".."n-1".
package table

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/robout/pkg/errors"
)

// Kind is the value type of a column.
type Kind int

const (
	// Float columns hold []float64. NaN marks a missing cell.
	Float Kind = iota
	// Int columns hold []int64.
	Int
	// String columns hold []string and are never scaled.
	String
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Int:
		return "int"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// Column is a named, typed sequence of values. Only the slice matching Kind is set.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Ints    []int64
	Strings []string
}

// NewFloatColumn creates a Float column. values is not copied.
func NewFloatColumn(name string, values []float64) *Column {
	return &Column{Name: name, Kind: Float, Floats: values}
}

// NewIntColumn creates an Int column. values is not copied.
func NewIntColumn(name string, values []int64) *Column {
	return &Column{Name: name, Kind: Int, Ints: values}
}

// NewStringColumn creates a String column. values is not copied.
func NewStringColumn(name string, values []string) *Column {
	return &Column{Name: name, Kind: String, Strings: values}
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	switch c.Kind {
	case Int:
		return len(c.Ints)
	case String:
		return len(c.Strings)
	default:
		return len(c.Floats)
	}
}

// IsNumeric reports whether the column is Float or Int.
func (c *Column) IsNumeric() bool {
	return c.Kind == Float || c.Kind == Int
}

// Values returns the column as a fresh []float64. Int values are converted;
// a String column returns nil.
func (c *Column) Values() []float64 {
	switch c.Kind {
	case Float:
		out := make([]float64, len(c.Floats))
		copy(out, c.Floats)
		return out
	case Int:
		out := make([]float64, len(c.Ints))
		for i, v := range c.Ints {
			out[i] = float64(v)
		}
		return out
	default:
		return nil
	}
}

// Cell returns row i formatted as text. NaN renders as an empty cell.
func (c *Column) Cell(i int) string {
	switch c.Kind {
	case Int:
		return strconv.FormatInt(c.Ints[i], 10)
	case String:
		return c.Strings[i]
	default:
		v := c.Floats[i]
		if math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	switch c.Kind {
	case Float:
		out.Floats = append([]float64(nil), c.Floats...)
	case Int:
		out.Ints = append([]int64(nil), c.Ints...)
	case String:
		out.Strings = append([]string(nil), c.Strings...)
	}
	return out
}

func (c *Column) slice(n int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	switch c.Kind {
	case Float:
		out.Floats = append([]float64(nil), c.Floats[:n]...)
	case Int:
		out.Ints = append([]int64(nil), c.Ints[:n]...)
	case String:
		out.Strings = append([]string(nil), c.Strings[:n]...)
	}
	return out
}

// Table is an ordered set of uniquely named columns of equal length.
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// New builds a table from columns. It fails with an InvalidInputError when no
// column is given, a name is empty or repeated, or the lengths differ.
func New(cols ...*Column) (*Table, error) {
	if len(cols) == 0 {
		return nil, errors.NewInvalidInputError("table.New", "table has no columns")
	}

	t := &Table{
		cols:  make([]*Column, 0, len(cols)),
		index: make(map[string]int, len(cols)),
		rows:  cols[0].Len(),
	}
	for _, c := range cols {
		if c == nil {
			return nil, errors.NewInvalidInputError("table.New", "nil column")
		}
		if c.Name == "" {
			return nil, errors.NewInvalidInputError("table.New", "column name is empty")
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, errors.NewInvalidColumnError("table.New", c.Name, "duplicate column name")
		}
		if c.Len() != t.rows {
			return nil, errors.NewDimensionError("table.New", t.rows, c.Len(), 0)
		}
		t.index[c.Name] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// MustNew is New that panics on error. Intended for tests and examples.
func MustNew(cols ...*Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// FromMatrix copies m into a table of Float columns labeled "0".."c-1".
func FromMatrix(m mat.Matrix) (*Table, error) {
	if m == nil {
		return nil, errors.NewInvalidInputError("table.FromMatrix", "nil matrix")
	}
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewInvalidInputError("table.FromMatrix", "matrix is empty")
	}

	cols := make([]*Column, c)
	for j := 0; j < c; j++ {
		values := make([]float64, r)
		for i := 0; i < r; i++ {
			values[i] = m.At(i, j)
		}
		cols[j] = NewFloatColumn(strconv.Itoa(j), values)
	}
	return New(cols...)
}

// FromRows copies a rectangular row-major array into a table of Float columns
// labeled "0".."c-1".
func FromRows(rows [][]float64) (*Table, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.NewInvalidInputError("table.FromRows", "array is empty")
	}
	c := len(rows[0])
	cols := make([]*Column, c)
	for j := range cols {
		cols[j] = NewFloatColumn(strconv.Itoa(j), make([]float64, len(rows)))
	}
	for i, row := range rows {
		if len(row) != c {
			return nil, errors.NewInvalidInputError("table.FromRows",
				"row "+strconv.Itoa(i)+" has "+strconv.Itoa(len(row))+" values, expected "+strconv.Itoa(c))
		}
		for j, v := range row {
			cols[j].Floats[i] = v
		}
	}
	return New(cols...)
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Column returns the column called name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// ColumnAt returns the i-th column.
func (t *Table) ColumnAt(i int) *Column { return t.cols[i] }

// Columns returns the columns in order. The slice must not be modified.
func (t *Table) Columns() []*Column { return t.cols }

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.Clone()
	}
	return &Table{cols: cols, index: t.cloneIndex(), rows: t.rows}
}

func (t *Table) cloneIndex() map[string]int {
	idx := make(map[string]int, len(t.index))
	for k, v := range t.index {
		idx[k] = v
	}
	return idx
}

// Head returns a copy of the first n rows (all rows when n exceeds the length).
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > t.rows {
		n = t.rows
	}
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.slice(n)
	}
	return &Table{cols: cols, index: t.cloneIndex(), rows: n}
}

// Select returns a table holding the named columns, in the given order.
// The columns are shared with t.
func (t *Table) Select(names ...string) (*Table, error) {
	cols := make([]*Column, 0, len(names))
	for _, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, errors.NewUnknownColumnError("table.Select", name, t.Names())
		}
		cols = append(cols, c)
	}
	return New(cols...)
}

// ToMatrix copies the table into a dense matrix. String columns are rejected.
func (t *Table) ToMatrix() (*mat.Dense, error) {
	if t.rows == 0 {
		return nil, errors.NewInvalidInputError("table.ToMatrix", "table has no rows")
	}
	m := mat.NewDense(t.rows, len(t.cols), nil)
	for j, c := range t.cols {
		if !c.IsNumeric() {
			return nil, errors.NewInvalidColumnError("table.ToMatrix", c.Name, "string column cannot be converted to a matrix")
		}
		m.SetCol(j, c.Values())
	}
	return m, nil
}

// Rows returns the table as a row-major array. String columns are rejected.
func (t *Table) Rows() ([][]float64, error) {
	out := make([][]float64, t.rows)
	for i := range out {
		out[i] = make([]float64, len(t.cols))
	}
	for j, c := range t.cols {
		if !c.IsNumeric() {
			return nil, errors.NewInvalidColumnError("table.Rows", c.Name, "string column cannot be converted to numbers")
		}
		for i, v := range c.Values() {
			out[i][j] = v
		}
	}
	return out, nil
}

// Records returns the header and the cells formatted as text, ready for
// encoding/csv or a spreadsheet writer.
func (t *Table) Records() (header []string, records [][]string) {
	header = t.Names()
	records = make([][]string, t.rows)
	for i := range records {
		row := make([]string, len(t.cols))
		for j, c := range t.cols {
			row[j] = c.Cell(i)
		}
		records[i] = row
	}
	return header, records
}
