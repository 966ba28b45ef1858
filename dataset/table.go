// Package dataset provides the column-oriented Table that raw tabular data
// is loaded into, plus CSV reading and submission writing. A Table holds
// immutable passenger records: numeric columns mark missing values with NaN,
// string columns with the empty string.
package dataset

import (
	"math"

	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

// ColumnKind discriminates numeric from string columns.
type ColumnKind int

const (
	// Numeric columns hold float64 values, NaN for missing.
	Numeric ColumnKind = iota
	// String columns hold raw text, "" for missing.
	String
)

// Column is one named column of a Table.
type Column struct {
	Name    string
	Kind    ColumnKind
	Floats  []float64
	Strings []string
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// IsMissing reports whether row i holds a missing value.
func (c *Column) IsMissing(i int) bool {
	if c.Kind == Numeric {
		return math.IsNaN(c.Floats[i])
	}
	return c.Strings[i] == ""
}

// Table is an ordered collection of equally sized named columns.
type Table struct {
	Source string // origin, used in error messages
	cols   []*Column
	index  map[string]int
	nRows  int
}

// NewTable creates an empty table with the given source name.
func NewTable(source string) *Table {
	return &Table{
		Source: source,
		index:  make(map[string]int),
	}
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.nRows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column, or an error when absent.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, errors.NewDataFormatError(t.Source, name, "column not found")
	}
	return t.cols[i], nil
}

// Columns returns the columns in table order.
func (t *Table) Columns() []*Column { return t.cols }

// AddColumn appends a column. All columns of a table must have the same
// number of rows; the first column fixes it.
func (t *Table) AddColumn(c *Column) error {
	if _, ok := t.index[c.Name]; ok {
		return errors.NewDataFormatError(t.Source, c.Name, "duplicate column")
	}
	if len(t.cols) == 0 {
		t.nRows = c.Len()
	} else if c.Len() != t.nRows {
		return errors.NewDimensionError("Table.AddColumn", t.nRows, c.Len(), 0)
	}
	t.index[c.Name] = len(t.cols)
	t.cols = append(t.cols, c)
	return nil
}

// AddNumeric appends a numeric column.
func (t *Table) AddNumeric(name string, values []float64) error {
	return t.AddColumn(&Column{Name: name, Kind: Numeric, Floats: values})
}

// AddString appends a string column.
func (t *Table) AddString(name string, values []string) error {
	return t.AddColumn(&Column{Name: name, Kind: String, Strings: values})
}

// Drop returns a new table without the named columns. Unknown names are
// ignored so callers can drop optional columns unconditionally.
func (t *Table) Drop(names ...string) *Table {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	out := NewTable(t.Source)
	for _, c := range t.cols {
		if skip[c.Name] {
			continue
		}
		// Columns are immutable once loaded; sharing the backing slices is safe.
		_ = out.AddColumn(c)
	}
	return out
}

// Select returns a new table with only the named columns, in the given
// order. Missing columns yield an error.
func (t *Table) Select(names ...string) (*Table, error) {
	out := NewTable(t.Source)
	for _, n := range names {
		c, err := t.Column(n)
		if err != nil {
			return nil, err
		}
		if err := out.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return out, nil
}
