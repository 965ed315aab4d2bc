package linear_model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

func TestLinearRegression_RecoversCoefficients(t *testing.T) {
	// y = 1 + 2*x0 - 3*x1
	X := mat.NewDense(6, 2, []float64{
		0, 0,
		1, 0,
		0, 1,
		1, 1,
		2, 1,
		3, 5,
	})
	y := mat.NewDense(6, 1, nil)
	for i := 0; i < 6; i++ {
		y.Set(i, 0, 1+2*X.At(i, 0)-3*X.At(i, 1))
	}

	lr := NewLinearRegression()
	require.NoError(t, lr.Fit(X, y))

	assert.InDelta(t, 1.0, lr.GetIntercept(), 1e-9)
	w := lr.GetWeights()
	require.Len(t, w, 2)
	assert.InDelta(t, 2.0, w[0], 1e-9)
	assert.InDelta(t, -3.0, w[1], 1e-9)

	score, err := lr.Score(X, y)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestLinearRegression_WithoutIntercept(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{2, 4, 6})

	lr := NewLinearRegression(WithFitIntercept(false))
	require.NoError(t, lr.Fit(X, y))
	assert.Equal(t, 0.0, lr.GetIntercept())
	assert.InDelta(t, 2.0, lr.GetWeights()[0], 1e-9)
}

func TestLinearRegression_Errors(t *testing.T) {
	lr := NewLinearRegression()

	_, err := lr.Predict(mat.NewDense(1, 1, nil))
	var notFitted *errors.NotFittedError
	assert.True(t, errors.As(err, &notFitted))

	err = lr.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(2, 1, nil))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	// duplicated column
	X := mat.NewDense(3, 2, []float64{1, 1, 2, 2, 3, 3})
	err = lr.Fit(X, mat.NewDense(3, 1, []float64{1, 2, 3}))
	assert.True(t, errors.Is(err, errors.ErrSingularMatrix))

	require.NoError(t, lr.SetParams(map[string]interface{}{"fit_intercept": false}))
	assert.Equal(t, false, lr.GetParams()["fit_intercept"])
	assert.Error(t, lr.SetParams(map[string]interface{}{"alpha": 1.0}))
}
