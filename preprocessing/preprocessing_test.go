package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataset"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/log"
)

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
		4, 10,
	})

	scaler := NewStandardScalerDefault()
	Xs, err := scaler.FitTransform(X)
	require.NoError(t, err)

	assert.InDelta(t, 2.5, scaler.Mean[0], 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), scaler.Scale[0], 1e-12)
	assert.Equal(t, 1.0, scaler.Scale[1], "constant feature keeps unit scale")
	assert.Equal(t, []int{1}, scaler.ConstantFeatures())

	var sum float64
	for i := 0; i < 4; i++ {
		sum += Xs.At(i, 0)
		assert.Equal(t, 0.0, Xs.At(i, 1))
	}
	assert.InDelta(t, 0, sum, 1e-12)

	for i := 0; i < 4; i++ {
		assert.InDelta(t, X.At(i, 0), Xs.At(i, 0)*scaler.Scale[0]+scaler.Mean[0], 1e-12)
	}
}

func TestStandardScalerErrors(t *testing.T) {
	scaler := NewStandardScalerDefault()
	_, err := scaler.Transform(mat.NewDense(1, 1, []float64{1}))
	var notFitted *errors.NotFittedError
	assert.True(t, errors.As(err, &notFitted))

	require.NoError(t, scaler.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
	_, err = scaler.Transform(mat.NewDense(1, 3, nil))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestTrainTestSplit(t *testing.T) {
	n := 10
	X := mat.NewDense(n, 1, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		y.SetVec(i, float64(i)*2)
	}

	a, err := TrainTestSplit(X, y, 0.2, 42)
	require.NoError(t, err)
	b, err := TrainTestSplit(X, y, 0.2, 42)
	require.NoError(t, err)

	assert.Len(t, a.TestIndex, 2)
	assert.Len(t, a.TrainIndex, 8)
	assert.Equal(t, a.TestIndex, b.TestIndex, "same seed must give the same split")

	for k, row := range a.TestIndex {
		assert.Equal(t, float64(row), a.XTest.At(k, 0))
		assert.Equal(t, float64(row)*2, a.YTest.AtVec(k))
	}

	seen := map[int]bool{}
	for _, r := range append(append([]int{}, a.TrainIndex...), a.TestIndex...) {
		assert.False(t, seen[r], "row %d used twice", r)
		seen[r] = true
	}
	assert.Len(t, seen, n)
}

func TestTrainTestSplitRoundsTestSizeUp(t *testing.T) {
	X := mat.NewDense(7, 1, nil)
	s, err := TrainTestSplit(X, nil, 0.2, 1)
	require.NoError(t, err)
	assert.Len(t, s.TestIndex, 2)
	assert.Nil(t, s.YTrain)
}

func TestTrainTestSplitRejectsBadSizes(t *testing.T) {
	X := mat.NewDense(3, 1, nil)
	for _, size := range []float64{0, 1, -0.5, 0.99} {
		_, err := TrainTestSplit(X, nil, size, 1)
		var cfg *errors.ConfigError
		assert.True(t, errors.As(err, &cfg), "size %g", size)
	}
}

func quietPreparer(opts ...PreparerOption) *Preparer {
	logger, _ := log.NewTestLogger(log.LevelError)
	return NewPreparer(append(opts, WithPreparerLogger(logger))...)
}

func TestPrepareCoercionTolerance(t *testing.T) {
	// 10 rows: "a" has 1 unparseable cell (10%), "b" has 3 (30%).
	a := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "x"}
	b := []string{"1", "2", "3", "4", "5", "6", "7", "x", "y", "z"}
	ds := dataset.MustNew(
		dataset.NewStringColumn("a", a),
		dataset.NewStringColumn("b", b),
		dataset.NewNumericColumn("c", []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}),
	)

	prep, err := quietPreparer().Prepare(ds, []string{"a", "b", "c"}, "", TargetNone)
	require.NoError(t, err)

	require.Len(t, prep.Result.Columns, 3)
	colA := prep.Result.Columns[0]
	assert.True(t, colA.Coerced)
	assert.InDelta(t, 0.1, colA.MissingRatioAfterCoercion, 1e-12)
	require.NotNil(t, colA.ImputedValue)
	assert.InDelta(t, 5.0, *colA.ImputedValue, 1e-12)
	assert.InDelta(t, 5.0, prep.X.At(9, 0), 1e-12)

	colB := prep.Result.Columns[1]
	assert.InDelta(t, 0.3, colB.MissingRatioAfterCoercion, 1e-12)
	assert.InDelta(t, 4.0, prep.X.At(9, 1), 1e-12)

	assert.False(t, prep.Result.Columns[2].Coerced)
	assert.Nil(t, prep.Result.Columns[2].ImputedValue)

	codes := map[string]string{}
	for _, d := range prep.Result.Diagnostics {
		codes[d.Column] = d.Code
	}
	assert.Equal(t, CodeAutoConverted, codes["a"])
	assert.Equal(t, CodeProblematic, codes["b"])
	assert.True(t, prep.Result.HasWarnings())
}

func TestPrepareWarnsOnConversion(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	ds := dataset.MustNew(
		dataset.NewStringColumn("price", []string{"1.5", "2", "n/a", "4"}),
		dataset.NewNumericColumn("qty", []float64{1, 2, 3, 4}),
	)
	_, err := quietPreparer().Prepare(ds, []string{"price", "qty"}, "", TargetNone)
	require.NoError(t, err)

	require.Len(t, warnings, 1, "only the converted column warns")
	var conv *errors.DataConversionWarning
	require.True(t, errors.As(warnings[0], &conv))
	assert.Equal(t, "price", conv.Column)
	assert.Equal(t, "categorical", conv.FromType)
	assert.Equal(t, "numeric", conv.ToType)
	assert.Equal(t, "25.0% missing after conversion", conv.Reason)
}

func TestPrepareToleranceIsConfigurable(t *testing.T) {
	ds := dataset.MustNew(dataset.NewStringColumn("b", []string{"1", "2", "x", "4"}))

	strict, err := quietPreparer(WithTolerance(0.1)).Prepare(ds, []string{"b"}, "", TargetNone)
	require.NoError(t, err)
	assert.Equal(t, CodeProblematic, strict.Result.Diagnostics[0].Code)

	lenient, err := quietPreparer(WithTolerance(0.3)).Prepare(ds, []string{"b"}, "", TargetNone)
	require.NoError(t, err)
	assert.Equal(t, CodeAutoConverted, lenient.Result.Diagnostics[0].Code)
}

func TestPrepareFeatureWithoutNumbers(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewStringColumn("name", []string{"a", "b"}),
		dataset.NewNumericColumn("y", []float64{1, 2}),
	)
	prep, err := quietPreparer().Prepare(ds, []string{"name"}, "y", TargetNumeric)
	require.NoError(t, err)
	assert.Equal(t, 0.0, prep.X.At(0, 0))
	assert.Equal(t, CodeProblematic, prep.Result.Diagnostics[0].Code)
	assert.Equal(t, 2.0, prep.Y.AtVec(1))
}

func TestPrepareTargetErrors(t *testing.T) {
	ds := dataset.MustNew(
		dataset.NewNumericColumn("x", []float64{1, 2}),
		dataset.NewStringColumn("label", []string{"cat", "dog"}),
		dataset.MustNewColumn("partial", dataset.Categorical, []any{"cat", nil}),
	)
	p := quietPreparer()

	_, err := p.Prepare(ds, []string{"x"}, "label", TargetNumeric)
	var format *errors.FormatError
	assert.True(t, errors.As(err, &format))

	_, err = p.Prepare(ds, []string{"x"}, "partial", TargetLabels)
	assert.True(t, errors.As(err, &format))

	_, err = p.Prepare(ds, []string{"nope"}, "", TargetNone)
	var notFound *errors.ColumnNotFoundError
	assert.True(t, errors.As(err, &notFound))

	_, err = p.Prepare(ds, nil, "", TargetNone)
	var cfg *errors.ConfigError
	assert.True(t, errors.As(err, &cfg))
}

func TestEncodeLabels(t *testing.T) {
	tests := []struct {
		name    string
		col     *dataset.Column
		classes []string
		codes   []float64
	}{
		{
			name:    "strings sorted",
			col:     dataset.NewStringColumn("s", []string{"dog", "cat", "dog"}),
			classes: []string{"cat", "dog"},
			codes:   []float64{1, 0, 1},
		},
		{
			name:    "numbers sorted numerically",
			col:     dataset.NewNumericColumn("n", []float64{10, 2, 10}),
			classes: []string{"2", "10"},
			codes:   []float64{1, 0, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y, classes, err := EncodeLabels(tt.col)
			require.NoError(t, err)
			assert.Equal(t, tt.classes, classes)
			assert.Equal(t, tt.codes, y.RawVector().Data)
		})
	}
}
