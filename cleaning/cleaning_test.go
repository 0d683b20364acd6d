package cleaning

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataset"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/log"
)

func quietEngine() *Engine {
	logger, _ := log.NewTestLogger(log.LevelError)
	return NewEngine(WithLogger(logger))
}

func floatPtr(v float64) *float64 { return &v }

func values(t *testing.T, ds *dataset.Dataset, name string) []any {
	t.Helper()
	c, err := ds.Column(name)
	require.NoError(t, err)
	return c.Values
}

func TestHandleOutliers(t *testing.T) {
	ds := dataset.MustNew(dataset.NewNumericColumn("v", []float64{1, 2, 3, 4, 1000}))

	t.Run("drop flagged rows", func(t *testing.T) {
		out, err := HandleOutliers(ds, "v", 1.5, nil)
		require.NoError(t, err)
		assert.Equal(t, []any{1.0, 2.0, 3.0, 4.0}, values(t, out, "v"))
	})

	t.Run("replace flagged values", func(t *testing.T) {
		out, err := HandleOutliers(ds, "v", 1.5, floatPtr(0))
		require.NoError(t, err)
		assert.Equal(t, []any{1.0, 2.0, 3.0, 4.0, 0.0}, values(t, out, "v"))
		assert.Equal(t, 5, out.NumRows())
	})

	t.Run("five points never exceed z of two", func(t *testing.T) {
		// With population std the largest |z| among n points is sqrt(n-1).
		z, err := ZScores([]float64{1, 2, 3, 4, 1000})
		require.NoError(t, err)
		assert.InDelta(t, 2.0, z[4], 1e-4)
		assert.Less(t, z[4], 2.0)

		out, err := HandleOutliers(ds, "v", 2, nil)
		require.NoError(t, err)
		assert.Equal(t, 5, out.NumRows())
	})

	t.Run("input untouched", func(t *testing.T) {
		_, err := HandleOutliers(ds, "v", 1.5, floatPtr(0))
		require.NoError(t, err)
		assert.Equal(t, 1000.0, values(t, ds, "v")[4])
	})
}

func TestHandleOutliersDegenerateColumn(t *testing.T) {
	ds := dataset.MustNew(dataset.NewNumericColumn("v", []float64{5, 5, 5, 5, 5}))
	for _, thr := range []float64{0.01, 1, 3} {
		out, err := HandleOutliers(ds, "v", thr, nil)
		require.NoError(t, err)
		assert.Equal(t, 5, out.NumRows())
	}

	_, err := ZScores([]float64{5, 5, 5})
	var degenerate *errors.DegenerateInputError
	assert.True(t, errors.As(err, &degenerate))
}

func TestHandleOutliersCoercesAndDropsUnparseable(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewStringColumn("v", []string{"1", "oops", "2", "3"}),
		dataset.NewStringColumn("k", []string{"a", "b", "c", "d"}),
	)
	out, err := HandleOutliers(ds, "v", 3, nil)
	require.NoError(t, err)

	col, _ := out.Column("v")
	assert.Equal(t, dataset.Numeric, col.Kind)
	assert.Equal(t, []any{1.0, 2.0, 3.0}, col.Values)
	assert.Equal(t, []any{"a", "c", "d"}, values(t, out, "k"))
}

func TestHandleOutliersErrors(t *testing.T) {
	ds := dataset.MustNew(dataset.NewNumericColumn("v", []float64{1, 2}))

	_, err := HandleOutliers(ds, "missing", 3, nil)
	var notFound *errors.ColumnNotFoundError
	assert.True(t, errors.As(err, &notFound))

	_, err = HandleOutliers(ds, "v", 0, nil)
	var cfg *errors.ConfigError
	assert.True(t, errors.As(err, &cfg))
}

func TestHandleMissingValues(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewNumericColumn("x", []float64{1, math.NaN(), 3}),
		dataset.MustNewColumn("name", dataset.Categorical, []any{"a", "b", nil}),
		dataset.MustNewColumn("ok", dataset.Boolean, []any{true, nil, false}),
	)

	tests := []struct {
		name     string
		policy   MissingPolicy
		fill     any
		wantRows int
		check    func(t *testing.T, out *dataset.Dataset)
	}{
		{
			name:     "drop",
			policy:   MissingDrop,
			wantRows: 1,
			check: func(t *testing.T, out *dataset.Dataset) {
				assert.Equal(t, []any{1.0}, values(t, out, "x"))
			},
		},
		{
			name:     "fill with zero",
			policy:   MissingFill,
			fill:     0,
			wantRows: 3,
			check: func(t *testing.T, out *dataset.Dataset) {
				assert.Equal(t, []any{1.0, 0.0, 3.0}, values(t, out, "x"))
				assert.Equal(t, []any{"a", "b", "0"}, values(t, out, "name"))
				assert.Equal(t, []any{true, false, false}, values(t, out, "ok"))
			},
		},
		{
			name:     "none",
			policy:   MissingNone,
			wantRows: 3,
			check: func(t *testing.T, out *dataset.Dataset) {
				assert.True(t, out.Equal(ds))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := HandleMissingValues(ds, tt.policy, tt.fill)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRows, out.NumRows())
			tt.check(t, out)
		})
	}
}

func TestFillWithoutValueIsConfigError(t *testing.T) {
	ds := dataset.MustNew(dataset.NewNumericColumn("x", []float64{1, math.NaN()}))
	snapshot := ds.Clone()

	_, err := quietEngine().Apply(ds, RuleSet{MissingValues: &MissingValueRule{Policy: MissingFill}})
	var cfg *errors.ConfigError
	require.True(t, errors.As(err, &cfg))
	assert.Equal(t, "missing_values.fill_value", cfg.Field)
	assert.True(t, ds.Equal(snapshot), "dataset must be left unmutated")

	_, err = HandleMissingValues(ds, MissingFill, "not a number")
	assert.True(t, errors.As(err, &cfg))
	assert.True(t, ds.Equal(snapshot))
}

func TestHandleDuplicates(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewNumericColumn("n", []float64{1, 2, 1}),
		dataset.NewStringColumn("s", []string{"a", "b", "a"}),
	)

	out, err := HandleDuplicates(ds, DuplicateDrop)
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0}, values(t, out, "n"))
	assert.Equal(t, []any{"a", "b"}, values(t, out, "s"))

	marked, err := HandleDuplicates(ds, DuplicateMark)
	require.NoError(t, err)
	assert.Equal(t, []any{false, false, true}, values(t, marked, DuplicateColumn))

	again, err := HandleDuplicates(marked, DuplicateMark)
	require.NoError(t, err)
	assert.True(t, marked.Equal(again), "marking twice must not change the result")
}

func TestDuplicatesDoNotCollideOnSeparators(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewStringColumn("a", []string{"x;", "x"}),
		dataset.NewStringColumn("b", []string{"y", ";y"}),
	)
	out, err := HandleDuplicates(ds, DuplicateDrop)
	require.NoError(t, err)
	assert.Equal(t, 2, out.NumRows())
}

func TestDuplicatesTreatSignedZeroAsEqual(t *testing.T) {
	ds := dataset.MustNew(dataset.NewNumericColumn("n", []float64{math.Copysign(0, -1), 0}))

	out, err := HandleDuplicates(ds, DuplicateDrop)
	require.NoError(t, err)
	assert.Equal(t, 1, out.NumRows())

	marked, err := HandleDuplicates(ds, DuplicateMark)
	require.NoError(t, err)
	assert.Equal(t, []any{false, true}, values(t, marked, DuplicateColumn))
}

func TestApplyReindexesAndReports(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewNumericColumn("n", []float64{math.NaN(), 1, 2, 1}),
		dataset.NewStringColumn("s", []string{"z", "a", "b", "a"}),
	)
	logger, _ := log.NewTestLogger(log.LevelDebug)
	engine := NewEngine(WithLogger(logger))

	out, report, err := engine.ApplyWithReport(ds, RuleSet{
		MissingValues: &MissingValueRule{Policy: MissingDrop},
		Duplicates:    &DuplicateRule{Policy: DuplicateDrop},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, out.Index())
	assert.Equal(t, []any{1.0, 2.0}, values(t, out, "n"))

	require.Len(t, report.Stages, 2)
	assert.Equal(t, StageReport{Stage: "missing_values", Policy: "drop", RowsBefore: 4, RowsAfter: 3, ValuesChanged: 1}, report.Stages[0])
	assert.Equal(t, StageReport{Stage: "duplicates", Policy: "drop", RowsBefore: 3, RowsAfter: 2, ValuesChanged: 1}, report.Stages[1])

	assert.True(t, logger.ContainsField(log.StageKey, "duplicates"))
	assert.True(t, logger.ContainsField(log.ComponentKey, "cleaning"))
}

func TestApplyIsIdempotentForDropPolicies(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewNumericColumn("n", []float64{1, math.NaN(), 1, 3}),
		dataset.NewStringColumn("s", []string{"a", "b", "a", "c"}),
	)
	rules := RuleSet{
		MissingValues: &MissingValueRule{Policy: MissingDrop},
		Duplicates:    &DuplicateRule{Policy: DuplicateDrop},
	}
	engine := quietEngine()

	once, err := engine.Apply(ds, rules)
	require.NoError(t, err)
	twice, err := engine.Apply(once, rules)
	require.NoError(t, err)
	assert.True(t, once.Equal(twice))
}

func TestRuleOrderIsFixed(t *testing.T) {
	// Filling before deduplicating leaves one row; the reverse would leave two.
	ds := dataset.MustNew(
		dataset.NewNumericColumn("n", []float64{1, math.NaN()}),
		dataset.NewStringColumn("s", []string{"a", "a"}),
	)
	documents := []string{
		"duplicates: {policy: drop}\nmissing_values: {policy: fill, fill_value: 1}\n",
		"missing_values: {policy: fill, fill_value: 1}\nduplicates: {policy: drop}\n",
		`{"duplicates": {"method": "drop"}, "missing_values": {"method": "fill", "fill_value": 1}}`,
	}
	engine := quietEngine()
	for _, doc := range documents {
		rules, err := ParseRuleSet([]byte(doc))
		require.NoError(t, err)
		out, err := engine.Apply(ds, rules)
		require.NoError(t, err)
		assert.Equal(t, 1, out.NumRows(), doc)
	}
}

func TestParseRuleSet(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    RuleSet
		wantErr bool
	}{
		{
			name: "defaults",
			doc:  "missing_values: {}\noutliers: {column: price}\nduplicates: {}\nunknown: 1\n",
			want: RuleSet{
				MissingValues: &MissingValueRule{},
				Outliers:      &OutlierRule{Column: "price"},
				Duplicates:    &DuplicateRule{},
			},
		},
		{
			name: "legacy threshold key",
			doc:  "outliers: {column: price, threshold: 2.5, replacement: 0}\n",
			want: RuleSet{Outliers: &OutlierRule{Column: "price", Threshold: 2.5, Replacement: floatPtr(0)}},
		},
		{name: "zero threshold", doc: "outliers: {column: price, z_threshold: 0}\n", wantErr: true},
		{name: "fill without value", doc: "missing_values: {policy: fill}\n", wantErr: true},
		{name: "unknown policy", doc: "duplicates: {policy: squash}\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRuleSet([]byte(tt.doc))
			if tt.wantErr {
				var cfg *errors.ConfigError
				assert.True(t, errors.As(err, &cfg), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyOutlierDefaultThreshold(t *testing.T) {
	vals := make([]float64, 20)
	for i := range vals {
		vals[i] = float64(i % 4)
	}
	vals[19] = 500
	ds := dataset.MustNew(dataset.NewNumericColumn("v", vals))

	out, err := quietEngine().Apply(ds, RuleSet{Outliers: &OutlierRule{Column: "v"}})
	require.NoError(t, err)
	assert.Equal(t, 19, out.NumRows())
}
