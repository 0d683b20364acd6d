package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

func sample(t *testing.T) *Dataset {
	t.Helper()
	ds, err := New(
		NewNumericColumn("x", []float64{1, 2, math.NaN(), 4}),
		NewStringColumn("name", []string{"a", "b", "c", "d"}),
		NewBoolColumn("flag", []bool{true, false, true, false}),
	)
	require.NoError(t, err)
	return ds
}

func TestNew(t *testing.T) {
	ds := sample(t)
	assert.Equal(t, 4, ds.NumRows())
	assert.Equal(t, 3, ds.NumCols())
	assert.Equal(t, []string{"x", "name", "flag"}, ds.Names())
	assert.Equal(t, []int{0, 1, 2, 3}, ds.Index())
	assert.Equal(t, []string{"x"}, ds.NumericNames())

	x, err := ds.Column("x")
	require.NoError(t, err)
	assert.True(t, x.IsMissing(2), "NaN should be stored as missing")
	assert.Equal(t, 1, x.MissingCount())
}

func TestNewRejectsInvalidShapes(t *testing.T) {
	tests := []struct {
		name string
		cols []*Column
	}{
		{
			name: "duplicate names",
			cols: []*Column{NewNumericColumn("a", []float64{1}), NewNumericColumn("a", []float64{2})},
		},
		{
			name: "unequal lengths",
			cols: []*Column{NewNumericColumn("a", []float64{1, 2}), NewNumericColumn("b", []float64{2})},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cols...)
			assert.Error(t, err)
		})
	}
}

func TestColumnNotFound(t *testing.T) {
	ds := sample(t)
	_, err := ds.Column("missing")
	var target *errors.ColumnNotFoundError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "missing", target.Column)
}

func TestSelectRowsKeepsLabelsAndReindexResets(t *testing.T) {
	ds := sample(t)
	sub := ds.SelectRows([]int{3, 1})

	assert.Equal(t, []int{3, 1}, sub.Index())
	name, _ := sub.Column("name")
	assert.Equal(t, []any{"d", "b"}, name.Values)

	re := sub.Reindex()
	assert.Equal(t, []int{0, 1}, re.Index())
	assert.Equal(t, []int{3, 1}, sub.Index(), "receiver must not change")
}

func TestWithColumn(t *testing.T) {
	ds := sample(t)

	replaced, err := ds.WithColumn(NewNumericColumn("x", []float64{9, 9, 9, 9}))
	require.NoError(t, err)
	x, _ := replaced.Column("x")
	assert.Equal(t, 9.0, x.Values[0])

	orig, _ := ds.Column("x")
	assert.Equal(t, 1.0, orig.Values[0], "original dataset must be untouched")

	appended, err := ds.WithColumn(NewNumericColumn("y", []float64{0, 0, 0, 0}))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "name", "flag", "y"}, appended.Names())

	_, err = ds.WithColumn(NewNumericColumn("z", []float64{1}))
	assert.Error(t, err)
}

func TestCloneAndEqual(t *testing.T) {
	ds := sample(t)
	cp := ds.Clone()
	assert.True(t, ds.Equal(cp))

	col, _ := cp.Column("name")
	col.Values[0] = "changed"
	assert.False(t, ds.Equal(cp))
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{in: 1.5, want: 1.5, ok: true},
		{in: 3, want: 3, ok: true},
		{in: " 42 ", want: 42, ok: true},
		{in: true, want: 1, ok: true},
		{in: "abc", ok: false},
		{in: "NaN", ok: false},
		{in: math.Inf(1), ok: false},
		{in: nil, ok: false},
	}
	for _, tt := range tests {
		got, ok := ToFloat(tt.in)
		assert.Equal(t, tt.ok, ok, "ToFloat(%v)", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestToNumeric(t *testing.T) {
	col := NewStringColumn("v", []string{"1", "x", "3.5"})
	num := col.ToNumeric()
	assert.Equal(t, Numeric, num.Kind)
	assert.Equal(t, []any{1.0, nil, 3.5}, num.Values)

	values, ok := col.Floats()
	assert.Equal(t, []bool{true, false, true}, ok)
	assert.True(t, math.IsNaN(values[1]))
}

func TestInferColumn(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		kind Kind
		want []any
	}{
		{name: "numeric with missing", raw: []string{"1", "NA", "2.5"}, kind: Numeric, want: []any{1.0, nil, 2.5}},
		{name: "boolean", raw: []string{"true", "False", ""}, kind: Boolean, want: []any{true, false, nil}},
		{name: "categorical", raw: []string{"a", "1", "null"}, kind: Categorical, want: []any{"a", "1", nil}},
		{name: "all missing", raw: []string{"", "NaN"}, kind: Numeric, want: []any{nil, nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := InferColumn("c", tt.raw)
			assert.Equal(t, tt.kind, col.Kind)
			assert.Equal(t, tt.want, col.Values)
		})
	}
}

func TestNewColumnNormalizes(t *testing.T) {
	col, err := NewColumn("n", Numeric, []any{1, int64(2), math.NaN(), nil})
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0, nil, nil}, col.Values)

	_, err = NewColumn("n", Numeric, []any{"text"})
	assert.Error(t, err)
}
