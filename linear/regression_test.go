package linear

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

func TestLinearRegression(t *testing.T) {
	tests := []struct {
		name          string
		X             *mat.Dense
		y             *mat.VecDense
		wantWeights   []float64
		wantIntercept float64
	}{
		{
			name:          "y = 2x",
			X:             mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5}),
			y:             mat.NewVecDense(5, []float64{2, 4, 6, 8, 10}),
			wantWeights:   []float64{2},
			wantIntercept: 0,
		},
		{
			name:          "y = 2x + 1",
			X:             mat.NewDense(4, 1, []float64{1, 2, 3, 4}),
			y:             mat.NewVecDense(4, []float64{3, 5, 7, 9}),
			wantWeights:   []float64{2},
			wantIntercept: 1,
		},
		{
			name: "y = 2*x1 + 3*x2 + 1",
			X: mat.NewDense(5, 2, []float64{
				1, 1,
				2, 1,
				3, 2,
				4, 2,
				5, 3,
			}),
			y:             mat.NewVecDense(5, []float64{6, 8, 13, 15, 20}),
			wantWeights:   []float64{2, 3},
			wantIntercept: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr := NewLinearRegression()
			require.NoError(t, lr.Fit(tt.X, tt.y))

			assert.InDeltaSlice(t, tt.wantWeights, lr.GetWeights(), 1e-9)
			assert.InDelta(t, tt.wantIntercept, lr.GetIntercept(), 1e-9)

			score, err := lr.Score(tt.X, tt.y)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, score, 1e-9)
		})
	}
}

func TestLinearRegressionPredict(t *testing.T) {
	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(
		mat.NewDense(4, 1, []float64{1, 2, 3, 4}),
		mat.NewDense(4, 1, []float64{3, 5, 7, 9}),
	))

	pred, err := lr.Predict(mat.NewDense(2, 1, []float64{5, 6}))
	require.NoError(t, err)
	assert.InDelta(t, 11, pred.At(0, 0), 1e-9)
	assert.InDelta(t, 13, pred.At(1, 0), 1e-9)

	_, err = lr.Predict(mat.NewDense(1, 2, nil))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestLinearRegressionNoIntercept(t *testing.T) {
	lr := NewLinearRegression(WithFitIntercept(false))
	require.NoError(t, lr.Fit(
		mat.NewDense(4, 1, []float64{1, 2, 3, 4}),
		mat.NewVecDense(4, []float64{2, 4, 6, 8}),
	))
	assert.InDelta(t, 2, lr.GetWeights()[0], 1e-9)
	assert.Equal(t, 0.0, lr.GetIntercept())
}

func TestLinearRegressionRankDeficient(t *testing.T) {
	// 2列目は標準化後の定数列と同じく全て0
	X := mat.NewDense(4, 2, []float64{
		-1.5, 0,
		-0.5, 0,
		0.5, 0,
		1.5, 0,
	})
	y := mat.NewVecDense(4, []float64{1, 2, 3, 4})

	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))
	assert.Equal(t, 2, lr.Rank)
	assert.InDelta(t, 1.0, lr.GetWeights()[0], 1e-9)
	assert.InDelta(t, 0.0, lr.GetWeights()[1], 1e-9)
	assert.InDelta(t, 2.5, lr.GetIntercept(), 1e-9)
}

func TestLinearRegressionErrors(t *testing.T) {
	lr := NewLinearRegression()

	_, err := lr.Predict(mat.NewDense(1, 1, []float64{1}))
	var notFitted *errors.NotFittedError
	assert.True(t, errors.As(err, &notFitted))

	err = lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewVecDense(2, []float64{1, 2}))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	err = lr.Fit(mat.NewDense(2, 1, []float64{1, math.NaN()}), mat.NewVecDense(2, []float64{1, 2}))
	assert.Error(t, err)

	// 目的変数が定数なら R² は定義されない
	require.NoError(t, lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewVecDense(3, []float64{5, 5, 5})))
	_, err = lr.Score(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewVecDense(3, []float64{5, 5, 5}))
	var degenerate *errors.DegenerateInputError
	assert.True(t, errors.As(err, &degenerate))
}
