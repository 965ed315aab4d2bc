package ensemble

import (
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/core/parallel"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
	"github.com/YuminosukeSato/scigo-ensemble/sklearn/tree"
)

func defaultForestParams() params {
	return params{
		nEstimators:     100,
		maxFeatures:     maxFeaturesAuto,
		maxDepth:        -1,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		bootstrap:       true,
		randomState:     0,
		nJobs:           1,
	}
}

// resolveMaxFeatures turns the max_features setting into a tree option
// value, where 0 means every feature.
func (p *params) resolveMaxFeatures(nFeatures int, classification bool) int {
	k := p.maxFeatures
	if k == maxFeaturesAuto {
		if classification {
			k = int(math.Sqrt(float64(nFeatures)))
		} else {
			k = nFeatures / 3
		}
		if k < 1 {
			k = 1
		}
	}
	if k >= nFeatures {
		return 0
	}
	return k
}

func (p *params) treeOptions(maxFeatures int, seed int64) []tree.Option {
	return []tree.Option{
		tree.WithMaxDepth(p.maxDepth),
		tree.WithMinSamplesSplit(p.minSamplesSplit),
		tree.WithMinSamplesLeaf(p.minSamplesLeaf),
		tree.WithMaxFeatures(maxFeatures),
		tree.WithRandomState(seed),
	}
}

// bootstrapSample draws n row indices with replacement and marks which rows
// were drawn. Without bootstrap every row is used once.
func bootstrapSample(n int, seed int64, bootstrap bool) ([]int, []bool) {
	idx := make([]int, n)
	inBag := make([]bool, n)
	if !bootstrap {
		for i := range idx {
			idx[i] = i
			inBag[i] = true
		}
		return idx, inBag
	}

	rng := rand.New(rand.NewPCG(uint64(seed), 0x5eed))
	for i := range idx {
		j := rng.IntN(n)
		idx[i] = j
		inBag[j] = true
	}
	return idx, inBag
}

// fitTrees calls fit for every tree index on up to nJobs goroutines and
// returns the error of the lowest failing index.
func fitTrees(n, nJobs int, fit func(t int) error) error {
	errs := make([]error, n)
	parallel.ParallelizeN(n, nJobs, func(start, end int) {
		for t := start; t < end; t++ {
			errs[t] = errors.SafeExecute("tree fit", func() error { return fit(t) })
		}
	})
	for t, err := range errs {
		if err != nil {
			return errors.Wrapf(err, "tree %d", t)
		}
	}
	return nil
}

// predictTrees evaluates predict for every tree concurrently.
func predictTrees(n, nJobs int, predict func(t int) (mat.Matrix, error)) ([]mat.Matrix, error) {
	out := make([]mat.Matrix, n)
	errs := make([]error, n)
	parallel.ParallelizeN(n, nJobs, func(start, end int) {
		for t := start; t < end; t++ {
			out[t], errs[t] = predict(t)
		}
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func checkXY(X, y mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "ensemble: fit")
	}
	yr, yc := y.Dims()
	if yr != r {
		return errors.NewDimensionError("Fit", r, yr, 0)
	}
	if yc != 1 {
		return errors.NewValueError("Fit", "y must be a column vector (n×1 matrix)")
	}
	return nil
}

// oobCache lazily computes out-of-bag predictions for one fit. compute is
// only run on the first request.
type oobCache struct {
	once    sync.Once
	compute func() (*mat.Dense, []bool, error)

	pred *mat.Dense
	mask []bool
	err  error
}

func newOOBCache(compute func() (*mat.Dense, []bool, error)) *oobCache {
	return &oobCache{compute: compute}
}

func (c *oobCache) get() (*mat.Dense, []bool, error) {
	c.once.Do(func() {
		c.pred, c.mask, c.err = c.compute()
	})
	return c.pred, c.mask, c.err
}

// maskedRows copies the rows of m whose mask entry is true.
func maskedRows(m mat.Matrix, mask []bool) *mat.Dense {
	_, c := m.Dims()
	count := 0
	for _, ok := range mask {
		if ok {
			count++
		}
	}
	if count == 0 {
		return nil
	}
	out := mat.NewDense(count, c, nil)
	row := 0
	for i, ok := range mask {
		if !ok {
			continue
		}
		for j := 0; j < c; j++ {
			out.Set(row, j, m.At(i, j))
		}
		row++
	}
	return out
}

func meanImportances(all [][]float64, nFeatures int) []float64 {
	out := make([]float64, nFeatures)
	if len(all) == 0 {
		return out
	}
	for _, imp := range all {
		for j, v := range imp {
			out[j] += v
		}
	}
	for j := range out {
		out[j] /= float64(len(all))
	}
	return out
}
