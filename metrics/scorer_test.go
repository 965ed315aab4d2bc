package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

func TestScorer_Better(t *testing.T) {
	assert.True(t, RMSEScorer.Better(0.1, 0.2))
	assert.False(t, RMSEScorer.Better(0.2, 0.1))
	assert.True(t, AccuracyScorer.Better(0.9, 0.8))

	// equal scores are never an improvement
	assert.False(t, RMSEScorer.Better(0.5, 0.5))
	assert.False(t, AccuracyScorer.Better(0.5, 0.5))

	assert.False(t, RMSEScorer.Better(math.NaN(), 1))
	assert.True(t, RMSEScorer.Better(1, math.NaN()))
	assert.True(t, RMSEScorer.Better(1e9, RMSEScorer.Worst()))
	assert.True(t, AccuracyScorer.Better(0, AccuracyScorer.Worst()))
}

func TestGetScorer(t *testing.T) {
	for _, name := range []string{"rmse", "MSE", "mae", "r2", "accuracy", " error_rate "} {
		s, err := GetScorer(name)
		require.NoError(t, err, name)
		assert.NotNil(t, s.Score)
	}

	s, err := GetScorer("accuracy")
	require.NoError(t, err)
	assert.Equal(t, Classification, s.Task)
	assert.True(t, s.GreaterIsBetter)

	_, err = GetScorer("f1")
	var valErr *errors.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "scoring", valErr.ParamName)
}

func TestScorer_Score(t *testing.T) {
	yTrue := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	yPred := mat.NewDense(4, 1, []float64{1, 2, 3, 6})

	rmse, err := RMSEScorer.Score(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rmse, 1e-12)

	labels := mat.NewDense(4, 1, []float64{0, 1, 1, 0})
	preds := mat.NewDense(4, 1, []float64{0, 1, 0, 0})

	errRate, err := ErrorRateScorer.Score(labels, preds)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, errRate, 1e-12)

	acc, err := AccuracyScorer.Score(labels, preds)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, acc, 1e-12)
}

func TestRMSEMatrix(t *testing.T) {
	got, err := RMSEMatrix(mat.NewDense(2, 1, []float64{0, 0}), mat.NewDense(2, 1, []float64{3, 4}))
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(12.5), got, 1e-12)

	_, err = RMSEMatrix(mat.NewDense(2, 1, nil), mat.NewDense(3, 1, nil))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))

	_, err = RMSEMatrix(nil, mat.NewDense(1, 1, nil))
	assert.Error(t, err)
}
