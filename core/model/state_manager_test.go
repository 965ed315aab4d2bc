package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	assert.False(t, s.IsFitted())

	err := s.RequireFitted("DecisionTreeRegressor", "Predict")
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Predict", nf.Method)

	s.SetDimensions(3, 10)
	s.SetFitted()
	assert.NoError(t, s.RequireFitted("DecisionTreeRegressor", "Predict"))

	assert.NoError(t, s.CheckFeatures("Predict", mat.NewDense(2, 3, nil)))
	err = s.CheckFeatures("Predict", mat.NewDense(2, 4, nil))
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 3, dimErr.Expected)

	s.Reset()
	assert.False(t, s.IsFitted())
	f, n := s.GetDimensions()
	assert.Zero(t, f)
	assert.Zero(t, n)
}
