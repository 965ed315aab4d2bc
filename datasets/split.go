package datasets

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// TrainTestSplit shuffles the rows with seed and holds out
// ceil(testSize * n) of them as the test set.
func TrainTestSplit(X, y mat.Matrix, testSize float64, seed int64) (XTrain, XTest, yTrain, yTest *mat.Dense, err error) {
	n, p := X.Dims()
	yRows, yCols := y.Dims()
	if n != yRows {
		return nil, nil, nil, nil, errors.NewDimensionError("TrainTestSplit", n, yRows, 0)
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, nil, nil, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return nil, nil, nil, nil, errors.NewValueError("TrainTestSplit",
			"test_size leaves an empty train or test set")
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	perm := rng.Perm(n)

	XTrain, yTrain = takeRows(X, y, perm[nTest:], p, yCols)
	XTest, yTest = takeRows(X, y, perm[:nTest], p, yCols)
	return XTrain, XTest, yTrain, yTest, nil
}

// Binarize maps y to 1 where y > threshold and 0 elsewhere.
func Binarize(y mat.Matrix, threshold float64) *mat.Dense {
	r, c := y.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, _ int, v float64) float64 {
		if v > threshold {
			return 1
		}
		return 0
	}, y)
	return out
}

func takeRows(X, y mat.Matrix, idx []int, p, yCols int) (*mat.Dense, *mat.Dense) {
	xs := mat.NewDense(len(idx), p, nil)
	ys := mat.NewDense(len(idx), yCols, nil)
	for i, row := range idx {
		for j := 0; j < p; j++ {
			xs.Set(i, j, X.At(row, j))
		}
		for j := 0; j < yCols; j++ {
			ys.Set(i, j, y.At(row, j))
		}
	}
	return xs, ys
}
