// Package dataset holds the in-memory tabular dataset every pipeline stage
// consumes and produces.
//
// A Dataset is an immutable value: operations that change rows or columns
// return a new Dataset and leave the receiver untouched. Rows carry an index
// label, like a dataframe index; SelectRows keeps labels and Reindex resets
// them to 0..n-1.
package dataset

import (
	"fmt"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// Dataset is an ordered set of uniquely named columns of equal length.
type Dataset struct {
	columns []*Column
	byName  map[string]int
	index   []int
}

// New builds a dataset from columns. Names must be unique and every column
// must have the same length. The index is 0..n-1.
func New(cols ...*Column) (*Dataset, error) {
	ds := &Dataset{
		columns: make([]*Column, 0, len(cols)),
		byName:  make(map[string]int, len(cols)),
	}
	n := -1
	for _, c := range cols {
		if c == nil {
			return nil, errors.NewValueError("dataset.New", "nil column")
		}
		if _, dup := ds.byName[c.Name]; dup {
			return nil, errors.NewValueError("dataset.New", fmt.Sprintf("duplicate column name '%s'", c.Name))
		}
		if n >= 0 && c.Len() != n {
			return nil, errors.NewDimensionError("dataset.New", n, c.Len(), 0)
		}
		n = c.Len()
		ds.byName[c.Name] = len(ds.columns)
		ds.columns = append(ds.columns, c)
	}
	if n < 0 {
		n = 0
	}
	ds.index = sequence(n)
	return ds, nil
}

// MustNew is like New but panics on error. Intended for tests and literals.
func MustNew(cols ...*Column) *Dataset {
	ds, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return ds
}

func sequence(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// NumRows returns the number of rows.
func (d *Dataset) NumRows() int { return len(d.index) }

// NumCols returns the number of columns.
func (d *Dataset) NumCols() int { return len(d.columns) }

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in order. The returned columns are shared.
func (d *Dataset) Columns() []*Column {
	out := make([]*Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// HasColumn reports whether a column named name exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.byName[name]
	return ok
}

// Column returns the named column or a ColumnNotFoundError.
func (d *Dataset) Column(name string) (*Column, error) {
	i, ok := d.byName[name]
	if !ok {
		return nil, errors.NewColumnNotFoundError("Column", name)
	}
	return d.columns[i], nil
}

// NumericNames returns the names of numeric columns in order.
func (d *Dataset) NumericNames() []string {
	var names []string
	for _, c := range d.columns {
		if c.Kind == Numeric {
			names = append(names, c.Name)
		}
	}
	return names
}

// Index returns a copy of the row labels.
func (d *Dataset) Index() []int {
	out := make([]int, len(d.index))
	copy(out, d.index)
	return out
}

// Row returns the cells of row i in column order.
func (d *Dataset) Row(i int) []any {
	row := make([]any, len(d.columns))
	for j, c := range d.columns {
		row[j] = c.Values[i]
	}
	return row
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	cols := make([]*Column, len(d.columns))
	for i, c := range d.columns {
		cols[i] = c.Clone()
	}
	return d.withColumns(cols, d.Index())
}

func (d *Dataset) withColumns(cols []*Column, index []int) *Dataset {
	byName := make(map[string]int, len(cols))
	for i, c := range cols {
		byName[c.Name] = i
	}
	return &Dataset{columns: cols, byName: byName, index: index}
}

// SelectRows returns the rows at the given positions, in the given order,
// keeping their index labels.
func (d *Dataset) SelectRows(rows []int) *Dataset {
	cols := make([]*Column, len(d.columns))
	for j, c := range d.columns {
		values := make([]any, len(rows))
		for k, r := range rows {
			values[k] = c.Values[r]
		}
		cols[j] = &Column{Name: c.Name, Kind: c.Kind, Values: values}
	}
	index := make([]int, len(rows))
	for k, r := range rows {
		index[k] = d.index[r]
	}
	return d.withColumns(cols, index)
}

// Head returns the first n rows.
func (d *Dataset) Head(n int) *Dataset {
	if n > d.NumRows() {
		n = d.NumRows()
	}
	if n < 0 {
		n = 0
	}
	return d.SelectRows(sequence(n))
}

// WithColumn returns a dataset where the column with the same name is
// replaced, or col is appended when no such column exists.
func (d *Dataset) WithColumn(col *Column) (*Dataset, error) {
	if col.Len() != d.NumRows() && d.NumCols() > 0 {
		return nil, errors.NewDimensionError("WithColumn", d.NumRows(), col.Len(), 0)
	}
	cols := d.Columns()
	if i, ok := d.byName[col.Name]; ok {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	index := d.Index()
	if d.NumCols() == 0 {
		index = sequence(col.Len())
	}
	return d.withColumns(cols, index), nil
}

// Reindex returns the same rows labelled 0..n-1.
func (d *Dataset) Reindex() *Dataset {
	return d.withColumns(d.Columns(), sequence(d.NumRows()))
}

// Equal reports whether both datasets have the same columns, kinds, cells
// and index labels.
func (d *Dataset) Equal(other *Dataset) bool {
	if other == nil || d.NumCols() != other.NumCols() || d.NumRows() != other.NumRows() {
		return false
	}
	for i := range d.index {
		if d.index[i] != other.index[i] {
			return false
		}
	}
	for j, c := range d.columns {
		o := other.columns[j]
		if c.Name != o.Name || c.Kind != o.Kind {
			return false
		}
		for i := range c.Values {
			if !cellEqual(c.Values[i], o.Values[i]) {
				return false
			}
		}
	}
	return true
}

// String renders a short description for logs and debugging.
func (d *Dataset) String() string {
	return fmt.Sprintf("Dataset(rows=%d, columns=%v)", d.NumRows(), d.Names())
}
