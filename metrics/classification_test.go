package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func vec(values ...float64) mat.Vector {
	if len(values) == 0 {
		return nil
	}
	return mat.NewVecDense(len(values), values)
}

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name  string
		yTrue mat.Vector
		yPred mat.Vector
		want  float64
	}{
		{name: "all correct", yTrue: vec(2, 0, 1, 1), yPred: vec(2, 0, 1, 1), want: 1},
		{name: "three of four", yTrue: vec(2, 0, 1, 1), yPred: vec(2, 0, 1, 0), want: 0.75},
		{name: "none correct", yTrue: vec(1, 1), yPred: vec(0, 0), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Accuracy(tt.yTrue, tt.yPred)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestAccuracyErrors(t *testing.T) {
	_, err := Accuracy(nil, nil)
	assert.Error(t, err)
	_, err = Accuracy(vec(0, 1), vec(0))
	assert.Error(t, err)
}
