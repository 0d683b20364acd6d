package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

func TestBaseEstimatorLifecycle(t *testing.T) {
	var e BaseEstimator
	assert.False(t, e.IsFitted())

	err := e.RequireFitted("KMeans", "Predict")
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	e.SetFitted()
	assert.True(t, e.IsFitted())
	assert.NoError(t, e.RequireFitted("KMeans", "Predict"))

	e.Reset()
	assert.False(t, e.IsFitted())
}
