package datasets

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// MakeCircles generates a large circle containing a smaller one in 2d.
// The outer ring is labelled 0 and the inner ring, scaled by factor, is
// labelled 1. Gaussian noise with standard deviation noise is added to each
// coordinate and the rows are shuffled.
func MakeCircles(n int, noise, factor float64, seed int64) (*mat.Dense, *mat.Dense, error) {
	if n < 2 {
		return nil, nil, errors.NewValidationError("n_samples", "must be at least 2", n)
	}
	if factor < 0 || factor >= 1 {
		return nil, nil, errors.NewValidationError("factor", "must be in [0, 1)", factor)
	}
	if noise < 0 {
		return nil, nil, errors.NewValidationError("noise", "must be non-negative", noise)
	}

	src := rand.NewPCG(uint64(seed), uint64(seed))
	rng := rand.New(src)

	nOut := n / 2
	nIn := n - nOut
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)

	ring := func(offset, count int, radius, label float64) {
		for i := 0; i < count; i++ {
			theta := 2 * math.Pi * float64(i) / float64(count)
			X.Set(offset+i, 0, radius*math.Cos(theta))
			X.Set(offset+i, 1, radius*math.Sin(theta))
			y.Set(offset+i, 0, label)
		}
	}
	ring(0, nOut, 1, 0)
	ring(nOut, nIn, factor, 1)

	if noise > 0 {
		gauss := distuv.Normal{Mu: 0, Sigma: noise, Src: src}
		for i := 0; i < n; i++ {
			X.Set(i, 0, X.At(i, 0)+gauss.Rand())
			X.Set(i, 1, X.At(i, 1)+gauss.Rand())
		}
	}

	perm := rng.Perm(n)
	Xs, ys := takeRows(X, y, perm, 2, 1)
	return Xs, ys, nil
}
