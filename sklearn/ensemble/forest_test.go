package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

func blobs() (*mat.Dense, *mat.VecDense) {
	X := mat.NewDense(30, 2, nil)
	y := mat.NewVecDense(30, nil)
	for i := 0; i < 30; i++ {
		class := i % 3
		X.Set(i, 0, float64(class*10)+float64(i%5)*0.1)
		X.Set(i, 1, float64(class*-10)+float64(i%7)*0.1)
		y.SetVec(i, float64(class))
	}
	return X, y
}

func TestRandomForestClassifier(t *testing.T) {
	X, y := blobs()

	rf := NewRandomForestClassifier(WithNEstimators(20), WithRandomState(42))
	require.NoError(t, rf.Fit(X, y))

	score, err := rf.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
	assert.Equal(t, []int{0, 1, 2}, rf.Classes())

	proba, err := rf.PredictProba(X)
	require.NoError(t, err)
	r, c := proba.Dims()
	assert.Equal(t, 30, r)
	assert.Equal(t, 3, c)
	for i := 0; i < r; i++ {
		assert.InDelta(t, 1.0, mat.Sum(proba.RowView(i)), 1e-9)
	}

	imp := rf.FeatureImportances()
	require.Len(t, imp, 2)
	assert.InDelta(t, 1.0, imp[0]+imp[1], 1e-9)
}

func TestRandomForestReproducible(t *testing.T) {
	X := mat.NewDense(40, 3, nil)
	y := mat.NewVecDense(40, nil)
	for i := 0; i < 40; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64((i*7)%11))
		X.Set(i, 2, float64((i*5)%3))
		y.SetVec(i, 2*float64(i)+X.At(i, 1))
	}

	predict := func(seed int64) []float64 {
		rf := NewRandomForestRegressor(WithNEstimators(15), WithRandomState(seed))
		require.NoError(t, rf.Fit(X, y))
		pred, err := rf.Predict(X)
		require.NoError(t, err)
		return mat.Col(nil, 0, pred)
	}

	assert.Equal(t, predict(3), predict(3), "same seed must give identical predictions")
	assert.NotEqual(t, predict(3), predict(4))
}

func TestRandomForestRegressorFitsTrend(t *testing.T) {
	X := mat.NewDense(50, 1, nil)
	y := mat.NewVecDense(50, nil)
	for i := 0; i < 50; i++ {
		X.Set(i, 0, float64(i))
		y.SetVec(i, 3*float64(i))
	}

	rf := NewRandomForestRegressor(WithNEstimators(30), WithRandomState(1))
	require.NoError(t, rf.Fit(X, y))

	score, err := rf.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, score, 0.95)
	assert.Equal(t, []float64{1}, rf.FeatureImportances())
}

func TestRandomForestErrors(t *testing.T) {
	rf := NewRandomForestRegressor()
	_, err := rf.Predict(mat.NewDense(1, 1, nil))
	var notFitted *errors.NotFittedError
	assert.True(t, errors.As(err, &notFitted))

	err = NewRandomForestRegressor(WithNEstimators(0)).Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewVecDense(2, []float64{1, 2}))
	var validation *errors.ValidationError
	assert.True(t, errors.As(err, &validation))

	err = NewRandomForestClassifier().Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewVecDense(2, []float64{0, 1.5}))
	var valueErr *errors.ValueError
	assert.True(t, errors.As(err, &valueErr))

	clf := NewRandomForestClassifier(WithNEstimators(3))
	require.NoError(t, clf.Fit(mat.NewDense(4, 1, []float64{1, 2, 3, 4}), mat.NewVecDense(4, []float64{0, 0, 1, 1})))
	_, err = clf.Predict(mat.NewDense(1, 2, nil))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}
