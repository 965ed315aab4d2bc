package ensemble

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// regressionData returns y = 2*x0 + sin(x1) with a distractor column.
func regressionData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x0 := float64(i%17) / 4
		x1 := float64(i%7) - 3
		X.Set(i, 0, x0)
		X.Set(i, 1, x1)
		X.Set(i, 2, float64((i*31)%11))
		y.Set(i, 0, 2*x0+math.Sin(x1))
	}
	return X, y
}

// blobs returns two well separated classes labelled 0 and 1.
func blobs(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		label := float64(i % 2)
		X.Set(i, 0, label*5+float64(i%5)*0.1)
		X.Set(i, 1, float64(i%3))
		y.Set(i, 0, label)
	}
	return X, y
}

func TestRandomForestRegressor_Fit(t *testing.T) {
	X, y := regressionData(80)
	rf := NewRandomForestRegressor(WithNEstimators(30), WithRandomState(1))
	require.NoError(t, rf.Fit(X, y))

	score, err := rf.Score(X, y)
	require.NoError(t, err)
	assert.Greater(t, score, 0.9)

	imp := rf.FeatureImportances()
	require.Len(t, imp, 3)
	assert.Greater(t, imp[0], imp[2], "signal feature should outrank the distractor")
	assert.Len(t, rf.Estimators(), 30)
}

func TestRandomForestRegressor_Deterministic(t *testing.T) {
	X, y := regressionData(60)

	fit := func(nJobs int) mat.Matrix {
		rf := NewRandomForestRegressor(WithNEstimators(12), WithRandomState(42), WithNJobs(nJobs))
		require.NoError(t, rf.Fit(X, y))
		pred, err := rf.Predict(X)
		require.NoError(t, err)
		return pred
	}

	first := fit(1)
	assert.True(t, mat.Equal(first, fit(1)), "same seed must give identical forests")
	assert.True(t, mat.Equal(first, fit(4)), "results must not depend on n_jobs")
}

func TestRandomForestRegressor_OOBMask(t *testing.T) {
	X, y := regressionData(40)

	for _, nTrees := range []int{1, 3, 25} {
		rf := NewRandomForestRegressor(WithNEstimators(nTrees), WithRandomState(7))
		require.NoError(t, rf.Fit(X, y))

		pred, mask, err := rf.OOBPrediction()
		require.NoError(t, err)
		require.Len(t, mask, 40)

		inBag := rf.InBag()
		require.Len(t, inBag, nTrees)
		for i := 0; i < 40; i++ {
			outOfBag := 0
			for tr := range inBag {
				if !inBag[tr][i] {
					outOfBag++
				}
			}
			assert.Equal(t, outOfBag > 0, mask[i], "trees=%d row=%d", nTrees, i)
			if mask[i] {
				assert.False(t, math.IsNaN(pred.At(i, 0)))
			}
		}
	}
}

func TestRandomForestRegressor_OOBPredictionUsesOnlyOutOfBagTrees(t *testing.T) {
	X, y := regressionData(30)
	rf := NewRandomForestRegressor(WithNEstimators(5), WithRandomState(3))
	require.NoError(t, rf.Fit(X, y))

	pred, mask, err := rf.OOBPrediction()
	require.NoError(t, err)

	inBag := rf.InBag()
	for i := 0; i < 30; i++ {
		if !mask[i] {
			continue
		}
		var sum float64
		count := 0
		for tr, dt := range rf.Estimators() {
			if inBag[tr][i] {
				continue
			}
			p, err := dt.Predict(X.Slice(i, i+1, 0, 3))
			require.NoError(t, err)
			sum += p.At(0, 0)
			count++
		}
		assert.InDelta(t, sum/float64(count), pred.At(i, 0), 1e-12)
	}
}

func TestRandomForestRegressor_NoBootstrapHasNoOOBRows(t *testing.T) {
	X, y := regressionData(20)
	rf := NewRandomForestRegressor(WithNEstimators(3), WithBootstrap(false))
	require.NoError(t, rf.Fit(X, y))

	_, mask, err := rf.OOBPrediction()
	require.NoError(t, err)
	for _, ok := range mask {
		assert.False(t, ok)
	}

	err = NewRandomForestRegressor(WithNEstimators(3), WithBootstrap(false), WithOOBScore(true)).Fit(X, y)
	var valueErr *errors.ValueError
	assert.True(t, errors.As(err, &valueErr))
}

func TestRandomForestRegressor_OOBScore(t *testing.T) {
	X, y := regressionData(80)
	rf := NewRandomForestRegressor(WithNEstimators(40), WithOOBScore(true), WithRandomState(5))
	require.NoError(t, rf.Fit(X, y))

	score, err := rf.OOBScore()
	require.NoError(t, err)
	assert.Greater(t, score, 0.5)

	plain := NewRandomForestRegressor(WithNEstimators(2))
	require.NoError(t, plain.Fit(X, y))
	_, err = plain.OOBScore()
	assert.Error(t, err)
}

func TestRandomForest_NotFitted(t *testing.T) {
	X := mat.NewDense(1, 2, nil)

	_, err := NewRandomForestRegressor().Predict(X)
	var notFitted *errors.NotFittedError
	assert.True(t, errors.As(err, &notFitted))

	_, _, err = NewRandomForestClassifier().OOBPrediction()
	assert.True(t, errors.As(err, &notFitted))
}

func TestRandomForestClassifier_Fit(t *testing.T) {
	X, y := blobs(40)
	rf := NewRandomForestClassifier(WithNEstimators(15), WithRandomState(2), WithOOBScore(true))
	require.NoError(t, rf.Fit(X, y))

	assert.Equal(t, []float64{0, 1}, rf.Classes())

	acc, err := rf.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc)

	oob, err := rf.OOBScore()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, oob, 0.9)

	proba, err := rf.PredictProba(X)
	require.NoError(t, err)
	r, c := proba.Dims()
	require.Equal(t, 2, c)
	for i := 0; i < r; i++ {
		assert.InDelta(t, 1.0, proba.At(i, 0)+proba.At(i, 1), 1e-9)
	}
}

func TestRandomForestClassifier_OOBMask(t *testing.T) {
	X, y := blobs(30)
	rf := NewRandomForestClassifier(WithNEstimators(2), WithRandomState(11))
	require.NoError(t, rf.Fit(X, y))

	pred, mask, err := rf.OOBPrediction()
	require.NoError(t, err)
	inBag := rf.InBag()
	for i := range mask {
		assert.Equal(t, !inBag[0][i] || !inBag[1][i], mask[i])
		if mask[i] {
			label := pred.At(i, 0)
			assert.True(t, label == 0 || label == 1)
		}
	}
}

func TestBagging_UsesAllFeatures(t *testing.T) {
	reg := NewBaggingRegressor(WithMaxFeatures(1), WithNEstimators(5))
	assert.Equal(t, 0, reg.GetParams()["max_features"])

	clf := NewBaggingClassifier(WithNEstimators(5))
	assert.Equal(t, 0, clf.GetParams()["max_features"])

	X, y := blobs(20)
	require.NoError(t, clf.Fit(X, y))
	acc, err := clf.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc)
}

func TestResolveMaxFeatures(t *testing.T) {
	p := defaultForestParams()
	assert.Equal(t, 3, p.resolveMaxFeatures(9, false))
	assert.Equal(t, 3, p.resolveMaxFeatures(9, true))
	assert.Equal(t, 1, p.resolveMaxFeatures(2, false))
	assert.Equal(t, 0, p.resolveMaxFeatures(1, true), "a single feature means all features")

	p.maxFeatures = 0
	assert.Equal(t, 0, p.resolveMaxFeatures(9, false))
	p.maxFeatures = 20
	assert.Equal(t, 0, p.resolveMaxFeatures(9, false))
}

func TestForest_SetParams(t *testing.T) {
	rf := NewRandomForestClassifier()
	require.NoError(t, rf.SetParams(map[string]interface{}{
		"n_estimators": 7.0,
		"max_features": 2,
		"bootstrap":    false,
	}))
	params := rf.GetParams()
	assert.Equal(t, 7, params["n_estimators"])
	assert.Equal(t, 2, params["max_features"])
	assert.Equal(t, false, params["bootstrap"])

	err := rf.SetParams(map[string]interface{}{"learning_rate": 0.1})
	var valErr *errors.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "learning_rate", valErr.ParamName)

	err = NewRandomForestRegressor(WithNEstimators(0)).Fit(regressionData(5))
	assert.True(t, errors.As(err, &valErr))
}

func TestBagging_RejectsMaxFeatures(t *testing.T) {
	for _, est := range []interface {
		SetParams(map[string]interface{}) error
		GetParams() map[string]interface{}
	}{NewBaggingRegressor(), NewBaggingClassifier()} {
		err := est.SetParams(map[string]interface{}{"max_features": 1})
		var valErr *errors.ValidationError
		require.True(t, errors.As(err, &valErr))
		assert.Equal(t, "max_features", valErr.ParamName)
		assert.Equal(t, 0, est.GetParams()["max_features"])

		assert.NoError(t, est.SetParams(map[string]interface{}{"n_estimators": 3}))
	}
}
