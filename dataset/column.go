package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// Kind is the declared type of a column.
type Kind int

const (
	Numeric Kind = iota
	Categorical
	Boolean
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	case Boolean:
		return "boolean"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Column is a named, typed sequence of cells. A nil cell is missing.
// Numeric cells are float64, boolean cells bool and categorical cells string.
//
// Columns reachable from a Dataset are shared between dataset values and
// must not be modified in place; use Clone first.
type Column struct {
	Name   string
	Kind   Kind
	Values []any
}

// NewColumn validates and normalizes values for the given kind. Integer
// cells in a numeric column become float64 and NaN becomes missing.
func NewColumn(name string, kind Kind, values []any) (*Column, error) {
	if name == "" {
		return nil, errors.NewValueError("NewColumn", "column name must not be empty")
	}
	out := make([]any, len(values))
	for i, v := range values {
		cell, err := normalizeCell(kind, v)
		if err != nil {
			return nil, errors.Wrapf(err, "column '%s' row %d", name, i)
		}
		out[i] = cell
	}
	return &Column{Name: name, Kind: kind, Values: out}, nil
}

// MustNewColumn is like NewColumn but panics on error.
func MustNewColumn(name string, kind Kind, values []any) *Column {
	c, err := NewColumn(name, kind, values)
	if err != nil {
		panic(err)
	}
	return c
}

// NewNumericColumn builds a numeric column; NaN entries are missing.
func NewNumericColumn(name string, values []float64) *Column {
	out := make([]any, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		out[i] = v
	}
	return &Column{Name: name, Kind: Numeric, Values: out}
}

// NewStringColumn builds a categorical column; empty strings are kept as values.
func NewStringColumn(name string, values []string) *Column {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return &Column{Name: name, Kind: Categorical, Values: out}
}

// NewBoolColumn builds a boolean column.
func NewBoolColumn(name string, values []bool) *Column {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return &Column{Name: name, Kind: Boolean, Values: out}
}

func normalizeCell(kind Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case Numeric:
		switch x := v.(type) {
		case float64:
			if math.IsNaN(x) {
				return nil, nil
			}
			return x, nil
		case float32:
			if math.IsNaN(float64(x)) {
				return nil, nil
			}
			return float64(x), nil
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case int32:
			return float64(x), nil
		}
	case Boolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case Categorical:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil
	}
	return nil, errors.NewValueError("NewColumn", fmt.Sprintf("value %v (%T) is not valid for a %s column", v, v, kind))
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.Values) }

// IsMissing reports whether cell i is missing.
func (c *Column) IsMissing(i int) bool { return c.Values[i] == nil }

// MissingCount returns the number of missing cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.Values {
		if v == nil {
			n++
		}
	}
	return n
}

// Clone returns a copy that can be modified freely.
func (c *Column) Clone() *Column {
	values := make([]any, len(c.Values))
	copy(values, c.Values)
	return &Column{Name: c.Name, Kind: c.Kind, Values: values}
}

// Floats coerces every cell to float64. ok[i] is false for missing or
// unparseable cells, in which case values[i] is NaN.
func (c *Column) Floats() (values []float64, ok []bool) {
	values = make([]float64, len(c.Values))
	ok = make([]bool, len(c.Values))
	for i, v := range c.Values {
		f, good := ToFloat(v)
		if !good {
			values[i] = math.NaN()
			continue
		}
		values[i] = f
		ok[i] = true
	}
	return values, ok
}

// ToNumeric returns a numeric copy of the column. Cells that cannot be
// parsed as numbers become missing.
func (c *Column) ToNumeric() *Column {
	if c.Kind == Numeric {
		return c.Clone()
	}
	out := make([]any, len(c.Values))
	for i, v := range c.Values {
		if f, ok := ToFloat(v); ok {
			out[i] = f
		}
	}
	return &Column{Name: c.Name, Kind: Numeric, Values: out}
}

// ToFloat converts a cell to float64. Booleans map to 1 and 0; strings are
// parsed after trimming. NaN and infinities are rejected.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatCell renders a cell for text output. Missing cells render as "".
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// cellEqual compares cells of the same column.
func cellEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}
