package ensemble

import (
	"math"
	"math/rand/v2"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/core/model"
	"github.com/YuminosukeSato/scigo-ensemble/core/parallel"
	"github.com/YuminosukeSato/scigo-ensemble/metrics"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
	"github.com/YuminosukeSato/scigo-ensemble/sklearn/tree"
)

// parallelRowThreshold is the row count above which staged prediction is
// split across CPU cores.
const parallelRowThreshold = 2048

func defaultBoostingParams() params {
	return params{
		nEstimators:     100,
		maxDepth:        3,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		learningRate:    0.1,
		subsample:       1.0,
		randomState:     0,
	}
}

func (p *params) validateBoosting() error {
	if p.nEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", p.nEstimators)
	}
	if p.learningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", p.learningRate)
	}
	if p.subsample <= 0 || p.subsample > 1 {
		return errors.NewValidationError("subsample", "must be in (0, 1]", p.subsample)
	}
	return nil
}

// booster is the stage-wise additive model shared by both gradient
// boosting estimators: F(x) = init + learningRate * Σ tree_m(x).
type booster struct {
	params
	state *model.StateManager

	init_       float64
	estimators_ []*tree.DecisionTreeRegressor
	trainScore_ []float64
}

// boost fits nEstimators regression trees to the negative gradient returned
// by residual. loss reports the training loss after each stage.
func (b *booster) boost(X mat.Matrix, residual func(f []float64) []float64, loss func(f []float64) float64) error {
	rows, _ := X.Dims()
	f := make([]float64, rows)
	for i := range f {
		f[i] = b.init_
	}

	rng := rand.New(rand.NewPCG(uint64(b.randomState), uint64(b.randomState)))
	sampleSize := int(math.Max(1, math.Round(b.subsample*float64(rows))))

	b.estimators_ = make([]*tree.DecisionTreeRegressor, 0, b.nEstimators)
	b.trainScore_ = make([]float64, 0, b.nEstimators)
	for m := 0; m < b.nEstimators; m++ {
		r := residual(f)
		if err := errors.CheckNumericalStability("gradient_boosting_residual", r, m); err != nil {
			return err
		}

		idx := rng.Perm(rows)[:sampleSize]
		dt := tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(b.maxDepth),
			tree.WithMinSamplesSplit(b.minSamplesSplit),
			tree.WithMinSamplesLeaf(b.minSamplesLeaf),
			tree.WithRandomState(b.randomState+int64(m)),
		)
		if err := dt.FitIndices(X, mat.NewDense(rows, 1, r), idx); err != nil {
			return errors.Wrapf(err, "boosting stage %d", m)
		}
		update, err := dt.Predict(X)
		if err != nil {
			return err
		}
		for i := range f {
			f[i] += b.learningRate * update.At(i, 0)
		}
		l := loss(f)
		if err := errors.CheckScalar("gradient_boosting_loss", l, m); err != nil {
			return err
		}
		b.estimators_ = append(b.estimators_, dt)
		b.trainScore_ = append(b.trainScore_, l)
	}
	return nil
}

// decision evaluates the additive model on X.
func (b *booster) decision(X mat.Matrix) (*mat.Dense, error) {
	rows, cols := X.Dims()
	dense := mat.DenseCopyOf(X)
	out := mat.NewDense(rows, 1, nil)

	var mu sync.Mutex
	var firstErr error
	parallel.ParallelizeWithThreshold(rows, parallelRowThreshold, func(start, end int) {
		chunk := dense.Slice(start, end, 0, cols)
		f := make([]float64, end-start)
		for i := range f {
			f[i] = b.init_
		}
		for _, dt := range b.estimators_ {
			pred, err := dt.Predict(chunk)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			for i := range f {
				f[i] += b.learningRate * pred.At(i, 0)
			}
		}
		// rows are disjoint across chunks
		for i, v := range f {
			out.Set(start+i, 0, v)
		}
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// TrainScore returns the training loss after each boosting stage.
func (b *booster) TrainScore() []float64 {
	return append([]float64(nil), b.trainScore_...)
}

// IsFitted reports whether Fit has completed.
func (b *booster) IsFitted() bool {
	return b.state.IsFitted()
}

// GetParams returns the hyperparameters.
func (b *booster) GetParams() map[string]interface{} {
	return b.params.getBoosting()
}

// GradientBoostingRegressor fits shallow regression trees stage-wise to the
// residuals of squared-error loss.
type GradientBoostingRegressor struct {
	booster
}

// NewGradientBoostingRegressor creates a gradient boosting regressor.
// Defaults: 100 stages, learning rate 0.1, depth 3, no subsampling.
func NewGradientBoostingRegressor(opts ...Option) *GradientBoostingRegressor {
	gb := &GradientBoostingRegressor{booster{params: defaultBoostingParams(), state: model.NewStateManager()}}
	for _, opt := range opts {
		opt(&gb.params)
	}
	return gb
}

// Fit runs the boosting stages starting from the mean of y.
func (gb *GradientBoostingRegressor) Fit(X, y mat.Matrix) error {
	if err := gb.validateBoosting(); err != nil {
		return err
	}
	if err := checkXY(X, y); err != nil {
		return err
	}
	rows, cols := X.Dims()
	target := mat.Col(nil, 0, y)

	gb.state.Reset()
	var mean float64
	for _, v := range target {
		mean += v
	}
	gb.init_ = mean / float64(rows)

	residual := func(f []float64) []float64 {
		r := make([]float64, rows)
		for i := range r {
			r[i] = target[i] - f[i]
		}
		return r
	}
	loss := func(f []float64) float64 {
		var sum float64
		for i := range f {
			d := target[i] - f[i]
			sum += d * d
		}
		return sum / float64(rows)
	}
	if err := gb.boost(X, residual, loss); err != nil {
		return errors.Wrap(err, "GradientBoostingRegressor.Fit")
	}

	gb.state.SetDimensions(cols, rows)
	gb.state.SetFitted()
	return nil
}

// Predict evaluates the additive model.
func (gb *GradientBoostingRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := gb.state.RequireFitted("GradientBoostingRegressor", "Predict"); err != nil {
		return nil, err
	}
	if err := gb.state.CheckFeatures("Predict", X); err != nil {
		return nil, err
	}
	return gb.decision(X)
}

// Score returns the coefficient of determination R².
func (gb *GradientBoostingRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := gb.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, pred)
}

// SetParams updates hyperparameters.
func (gb *GradientBoostingRegressor) SetParams(values map[string]interface{}) error {
	return gb.params.set("GradientBoostingRegressor", values, gb.params.getBoosting())
}

// GradientBoostingClassifier is a binary classifier boosting regression
// trees on the gradient of the log-loss.
type GradientBoostingClassifier struct {
	booster
	classes_ []float64
}

// NewGradientBoostingClassifier creates a binary gradient boosting classifier.
func NewGradientBoostingClassifier(opts ...Option) *GradientBoostingClassifier {
	gb := &GradientBoostingClassifier{booster: booster{params: defaultBoostingParams(), state: model.NewStateManager()}}
	for _, opt := range opts {
		opt(&gb.params)
	}
	return gb
}

// Fit runs the boosting stages starting from the log-odds of the positive
// class. y must contain exactly two distinct labels; the larger one is
// the positive class.
func (gb *GradientBoostingClassifier) Fit(X, y mat.Matrix) error {
	if err := gb.validateBoosting(); err != nil {
		return err
	}
	if err := checkXY(X, y); err != nil {
		return err
	}
	classes := uniqueSorted(y)
	if len(classes) != 2 {
		return errors.NewValueError("GradientBoostingClassifier.Fit",
			"only binary classification is supported; y must contain exactly two classes")
	}
	rows, cols := X.Dims()
	target := make([]float64, rows)
	var pos float64
	for i := range target {
		if y.At(i, 0) == classes[1] {
			target[i] = 1
			pos++
		}
	}

	gb.state.Reset()
	gb.classes_ = classes
	p := pos / float64(rows)
	gb.init_ = math.Log(p / (1 - p))

	residual := func(f []float64) []float64 {
		r := make([]float64, rows)
		for i := range r {
			r[i] = target[i] - sigmoid(f[i])
		}
		return r
	}
	loss := func(f []float64) float64 {
		var sum float64
		for i := range f {
			q := errors.ClipValue(sigmoid(f[i]), 1e-15, 1-1e-15)
			sum -= target[i]*math.Log(q) + (1-target[i])*math.Log(1-q)
		}
		return sum / float64(rows)
	}
	if err := gb.boost(X, residual, loss); err != nil {
		return errors.Wrap(err, "GradientBoostingClassifier.Fit")
	}

	gb.state.SetDimensions(cols, rows)
	gb.state.SetFitted()
	return nil
}

// PredictProba returns [P(classes[0]), P(classes[1])] for every row.
func (gb *GradientBoostingClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := gb.state.RequireFitted("GradientBoostingClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	if err := gb.state.CheckFeatures("PredictProba", X); err != nil {
		return nil, err
	}
	f, err := gb.decision(X)
	if err != nil {
		return nil, err
	}
	rows, _ := f.Dims()
	out := mat.NewDense(rows, 2, nil)
	for i := 0; i < rows; i++ {
		p := sigmoid(f.At(i, 0))
		out.Set(i, 0, 1-p)
		out.Set(i, 1, p)
	}
	return out, nil
}

// Predict returns the positive class when its probability exceeds 0.5.
func (gb *GradientBoostingClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := gb.PredictProba(X)
	if err != nil {
		return nil, err
	}
	rows, _ := proba.Dims()
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		label := gb.classes_[0]
		if proba.At(i, 1) > 0.5 {
			label = gb.classes_[1]
		}
		out.Set(i, 0, label)
	}
	return out, nil
}

// Score returns the mean accuracy.
func (gb *GradientBoostingClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := gb.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, pred)
}

// Classes returns the two class labels seen during fitting.
func (gb *GradientBoostingClassifier) Classes() []float64 {
	return append([]float64(nil), gb.classes_...)
}

// SetParams updates hyperparameters.
func (gb *GradientBoostingClassifier) SetParams(values map[string]interface{}) error {
	return gb.params.set("GradientBoostingClassifier", values, gb.params.getBoosting())
}

func sigmoid(x float64) float64 {
	return 1 / (1 + errors.StabilizeExp(-x))
}
