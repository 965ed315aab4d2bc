package linear_model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

func separable() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(6, 2, []float64{
		0.5, 0.5,
		1.0, 1.5,
		1.5, 1.0,
		3.0, 2.5,
		2.5, 3.0,
		3.5, 3.5,
	})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})
	return X, y
}

func TestLogisticRegression_FitPredict_Binary(t *testing.T) {
	X, y := separable()
	errors.SetWarningHandler(func(error) {})
	defer errors.SetWarningHandler(func(error) {})

	lr := NewLogisticRegression(WithLRMaxIter(1000), WithLRTol(1e-4))
	require.NoError(t, lr.Fit(X, y))

	pred, err := lr.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(y, pred))

	testPreds, err := lr.Predict(mat.NewDense(2, 2, []float64{1, 1, 3, 3}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, testPreds.At(0, 0))
	assert.Equal(t, 1.0, testPreds.At(1, 0))

	acc, err := lr.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc)
}

func TestLogisticRegression_PredictProba(t *testing.T) {
	X, y := separable()
	errors.SetWarningHandler(func(error) {})
	defer errors.SetWarningHandler(func(error) {})

	lr := NewLogisticRegression(WithLRMaxIter(500))
	require.NoError(t, lr.Fit(X, y))

	proba, err := lr.PredictProba(X)
	require.NoError(t, err)
	r, c := proba.Dims()
	require.Equal(t, 6, r)
	require.Equal(t, 2, c)
	for i := 0; i < r; i++ {
		assert.InDelta(t, 1.0, proba.At(i, 0)+proba.At(i, 1), 1e-12)
	}
	assert.Greater(t, proba.At(5, 1), proba.At(0, 1))
}

func TestLogisticRegression_ArbitraryLabels(t *testing.T) {
	X, _ := separable()
	y := mat.NewDense(6, 1, []float64{-1, -1, -1, 7, 7, 7})
	errors.SetWarningHandler(func(error) {})
	defer errors.SetWarningHandler(func(error) {})

	lr := NewLogisticRegression(WithLRMaxIter(1000))
	require.NoError(t, lr.Fit(X, y))
	assert.Equal(t, []float64{-1, 7}, lr.Classes())

	pred, err := lr.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(y, pred))
}

func TestLogisticRegression_Regularization(t *testing.T) {
	X, y := separable()
	errors.SetWarningHandler(func(error) {})
	defer errors.SetWarningHandler(func(error) {})

	strong := NewLogisticRegression(WithLRC(0.1), WithLRMaxIter(1000))
	weak := NewLogisticRegression(WithLRC(100), WithLRMaxIter(1000))
	require.NoError(t, strong.Fit(X, y))
	require.NoError(t, weak.Fit(X, y))

	norm := func(w []float64) float64 {
		var s float64
		for _, v := range w {
			s += v * v
		}
		return s
	}
	assert.Less(t, norm(strong.Coef()), norm(weak.Coef()))
}

func TestLogisticRegression_ConvergenceWarning(t *testing.T) {
	X, y := separable()

	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(func(error) {})

	lr := NewLogisticRegression(WithLRMaxIter(2))
	require.NoError(t, lr.Fit(X, y))

	require.Len(t, warnings, 1)
	var convErr *errors.ConvergenceWarning
	require.True(t, errors.As(warnings[0], &convErr))
	assert.Equal(t, 2, convErr.Iterations)
	assert.Equal(t, 2, lr.NIter())
}

func TestLogisticRegression_RequiresTwoClasses(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{0, 1, 2})
	err := NewLogisticRegression().Fit(X, mat.NewDense(3, 1, []float64{0, 1, 2}))
	var valueErr *errors.ValueError
	assert.True(t, errors.As(err, &valueErr))
}

func TestLogisticRegression_GetSetParams(t *testing.T) {
	lr := NewLogisticRegression()
	params := lr.GetParams()
	assert.Equal(t, 1.0, params["C"])
	assert.Equal(t, 100, params["max_iter"])

	require.NoError(t, lr.SetParams(map[string]interface{}{
		"C":        2.0,
		"max_iter": 200,
		"tol":      1e-5,
	}))
	assert.Equal(t, 2.0, lr.C)
	assert.Equal(t, 200, lr.maxIter)
	assert.Equal(t, 1e-5, lr.tol)

	assert.Error(t, lr.SetParams(map[string]interface{}{"penalty": "l1"}))

	err := NewLogisticRegression(WithLRC(0)).Fit(separable())
	var valErr *errors.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "C", valErr.ParamName)
}

func TestLogisticRegression_NotFitted(t *testing.T) {
	lr := NewLogisticRegression()
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	_, err := lr.Predict(X)
	var notFitted *errors.NotFittedError
	assert.True(t, errors.As(err, &notFitted))

	_, err = lr.PredictProba(X)
	assert.Error(t, err)
}
