package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// twoBlobs は (0,0) と (10,10) 付近の2つの塊を返す
func twoBlobs() *mat.Dense {
	return mat.NewDense(8, 2, []float64{
		0, 0,
		0.1, 0,
		0, 0.1,
		0.1, 0.1,
		10, 10,
		10.1, 10,
		10, 10.1,
		10.1, 10.1,
	})
}

func TestKMeansSeparatesBlobs(t *testing.T) {
	X := twoBlobs()
	km := NewKMeans(WithKMeansNClusters(2), WithKMeansRandomState(42))
	require.NoError(t, km.Fit(X, nil))

	labels := km.Labels()
	require.Len(t, labels, 8)
	for i := 1; i < 4; i++ {
		assert.Equal(t, labels[0], labels[i])
		assert.Equal(t, labels[4], labels[4+i])
	}
	assert.NotEqual(t, labels[0], labels[4])
	assert.Equal(t, 2, km.NClusters())

	centers := km.ClusterCenters()
	assert.InDeltaSlice(t, []float64{0.05, 0.05}, centers[labels[0]], 1e-9)
	assert.InDeltaSlice(t, []float64{10.05, 10.05}, centers[labels[4]], 1e-9)
	assert.InDelta(t, 8*0.005, km.Inertia(), 1e-9)

	pred, err := km.Predict(mat.NewDense(1, 2, []float64{9, 9}))
	require.NoError(t, err)
	assert.Equal(t, float64(labels[4]), pred.At(0, 0))

	dist, err := km.Transform(mat.NewDense(1, 2, []float64{0.05, 0.05}))
	require.NoError(t, err)
	assert.InDelta(t, 0, dist.At(0, labels[0]), 1e-9)
}

func TestKMeansDeterministic(t *testing.T) {
	X := mat.NewDense(12, 1, []float64{1, 2, 3, 7, 8, 9, 15, 16, 17, 30, 31, 32})
	run := func() []int {
		km := NewKMeans(WithKMeansNClusters(3), WithKMeansRandomState(7), WithKMeansNInit(3))
		labels, err := km.FitPredict(X)
		require.NoError(t, err)
		return labels
	}
	assert.Equal(t, run(), run())
}

func TestKMeansSingleCluster(t *testing.T) {
	km := NewKMeans(WithKMeansNClusters(1))
	labels, err := km.FitPredict(twoBlobs())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0, 0, 0}, labels)
	assert.Equal(t, 1, km.NClusters())
}

func TestKMeansErrors(t *testing.T) {
	_, err := NewKMeans(WithKMeansNClusters(5)).FitPredict(mat.NewDense(3, 1, []float64{1, 2, 3}))
	var validation *errors.ValidationError
	assert.True(t, errors.As(err, &validation))

	_, err = NewKMeans().Predict(mat.NewDense(1, 1, nil))
	var notFitted *errors.NotFittedError
	assert.True(t, errors.As(err, &notFitted))
}

func TestDBSCAN(t *testing.T) {
	X := mat.NewDense(9, 2, []float64{
		0, 0,
		0.2, 0,
		0, 0.2,
		5, 5,
		5.2, 5,
		5, 5.2,
		5.2, 5.2,
		20, 20, // 孤立点
		0.2, 0.2,
	})

	db := NewDBSCAN(WithEps(0.5), WithMinSamples(3))
	require.NoError(t, db.Fit(X, nil))

	labels := db.Labels()
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1, 1, Noise, 0}, labels)
	assert.Equal(t, 2, db.NClusters())
	assert.Equal(t, 1, db.NNoise())
	assert.Len(t, db.CoreSampleIndices(), 8)
}

func TestDBSCANBorderPoint(t *testing.T) {
	// 3 はコア点 2 の近傍にあるがコア点ではない
	X := mat.NewDense(4, 1, []float64{0, 0.4, 0.8, 1.2})
	db := NewDBSCAN(WithEps(0.45), WithMinSamples(3))
	labels, err := db.FitPredict(X)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0}, labels)
	assert.Equal(t, []int{1, 2}, db.CoreSampleIndices())
}

func TestDBSCANAllNoise(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{0, 10, 20})
	labels, err := NewDBSCAN().FitPredict(X)
	require.NoError(t, err)
	assert.Equal(t, []int{Noise, Noise, Noise}, labels)

	_, err = NewDBSCAN(WithEps(0)).FitPredict(X)
	var validation *errors.ValidationError
	assert.True(t, errors.As(err, &validation))
}
