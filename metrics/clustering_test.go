package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

func TestSilhouetteScore(t *testing.T) {
	// 2 well separated pairs on a line.
	X := mat.NewDense(4, 1, []float64{0, 1, 10, 11})

	got, err := SilhouetteScore(X, []int{0, 0, 1, 1})
	require.NoError(t, err)

	// point 0: a=1, b=mean(10,11)=10.5 -> s=(10.5-1)/10.5
	// point 1: a=1, b=mean(9,10)=9.5   -> s=(9.5-1)/9.5
	want := ((10.5-1)/10.5 + (9.5-1)/9.5) / 2
	assert.InDelta(t, want, got, 1e-12)

	bad, err := SilhouetteScore(X, []int{0, 1, 0, 1})
	require.NoError(t, err)
	assert.Less(t, bad, 0.0)
}

func TestSilhouetteScoreSingletonCluster(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{0, 1, 50})
	got, err := SilhouetteScore(X, []int{0, 0, 1})
	require.NoError(t, err)
	// the singleton contributes 0
	want := ((50.0-1)/50 + (49.0-1)/49) / 3
	assert.InDelta(t, want, got, 1e-12)
}

func TestSilhouetteScoreUndefined(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{0, 1, 2})
	tests := []struct {
		name   string
		labels []int
	}{
		{name: "single cluster", labels: []int{0, 0, 0}},
		{name: "every point its own cluster", labels: []int{0, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SilhouetteScore(X, tt.labels)
			var degenerate *errors.DegenerateInputError
			assert.True(t, errors.As(err, &degenerate))
		})
	}

	_, err := SilhouetteScore(X, []int{0, 1})
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}
