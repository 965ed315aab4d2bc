package ensemble

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/core/model"
	"github.com/YuminosukeSato/scigo-ensemble/metrics"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
	"github.com/YuminosukeSato/scigo-ensemble/sklearn/tree"
)

// RandomForestRegressor averages regression trees grown on bootstrap
// samples, each split choosing among a random subset of features.
type RandomForestRegressor struct {
	params
	state *model.StateManager
	name  string
	// bagging pins max_features to all features.
	bagging bool

	estimators_         []*tree.DecisionTreeRegressor
	inBag_              [][]bool
	featureImportances_ []float64
	oob                 *oobCache
	oobScore_           float64
}

// NewRandomForestRegressor creates a random forest regressor.
// Defaults: 100 trees, p/3 features per split, bootstrap on.
func NewRandomForestRegressor(opts ...Option) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		params: defaultForestParams(),
		state:  model.NewStateManager(),
		name:   "RandomForestRegressor",
	}
	for _, opt := range opts {
		opt(&rf.params)
	}
	return rf
}

// NewBaggingRegressor creates a forest that considers every feature at
// each split, i.e. bagged regression trees.
func NewBaggingRegressor(opts ...Option) *RandomForestRegressor {
	rf := NewRandomForestRegressor(append(append([]Option{}, opts...), WithMaxFeatures(0))...)
	rf.name = "BaggingRegressor"
	rf.bagging = true
	return rf
}

// Fit grows every tree. Tree i uses seed RandomState+i for both its
// bootstrap sample and its feature subsampling, so results do not depend
// on NJobs.
func (rf *RandomForestRegressor) Fit(X, y mat.Matrix) error {
	if err := rf.params.validate(); err != nil {
		return err
	}
	if err := checkXY(X, y); err != nil {
		return err
	}
	rows, cols := X.Dims()
	maxFeatures := rf.resolveMaxFeatures(cols, false)

	trees := make([]*tree.DecisionTreeRegressor, rf.nEstimators)
	inBag := make([][]bool, rf.nEstimators)
	err := fitTrees(rf.nEstimators, rf.nJobs, func(t int) error {
		seed := rf.randomState + int64(t)
		idx, mask := bootstrapSample(rows, seed, rf.bootstrap)
		dt := tree.NewDecisionTreeRegressor(rf.treeOptions(maxFeatures, seed)...)
		if err := dt.FitIndices(X, y, idx); err != nil {
			return err
		}
		trees[t], inBag[t] = dt, mask
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "%s.Fit", rf.name)
	}

	rf.state.Reset()
	rf.estimators_ = trees
	rf.inBag_ = inBag
	importances := make([][]float64, len(trees))
	for t, dt := range trees {
		importances[t] = dt.GetFeatureImportances()
	}
	rf.featureImportances_ = meanImportances(importances, cols)
	rf.oob = newOOBCache(func() (*mat.Dense, []bool, error) { return rf.computeOOB(X) })
	rf.state.SetDimensions(cols, rows)
	rf.state.SetFitted()

	if rf.oobScore {
		score, err := rf.scoreOOB(y)
		if err != nil {
			return err
		}
		rf.oobScore_ = score
	}
	return nil
}

func (rf *RandomForestRegressor) computeOOB(X mat.Matrix) (*mat.Dense, []bool, error) {
	preds, err := predictTrees(len(rf.estimators_), rf.nJobs, func(t int) (mat.Matrix, error) {
		return rf.estimators_[t].Predict(X)
	})
	if err != nil {
		return nil, nil, err
	}

	rows, _ := X.Dims()
	out := mat.NewDense(rows, 1, nil)
	mask := make([]bool, rows)
	for i := 0; i < rows; i++ {
		var sum float64
		count := 0
		for t, pred := range preds {
			if !rf.inBag_[t][i] {
				sum += pred.At(i, 0)
				count++
			}
		}
		if count > 0 {
			out.Set(i, 0, sum/float64(count))
			mask[i] = true
		}
	}
	return out, mask, nil
}

func (rf *RandomForestRegressor) scoreOOB(y mat.Matrix) (float64, error) {
	pred, mask, err := rf.OOBPrediction()
	if err != nil {
		return 0, err
	}
	yOOB := maskedRows(y, mask)
	if yOOB == nil {
		return 0, errors.NewValueError(rf.name+".Fit", "no row has an out-of-bag prediction; increase n_estimators")
	}
	return metrics.R2ScoreMatrix(yOOB, maskedRows(pred, mask))
}

// Predict averages the predictions of all trees.
func (rf *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := rf.state.RequireFitted(rf.name, "Predict"); err != nil {
		return nil, err
	}
	if err := rf.state.CheckFeatures("Predict", X); err != nil {
		return nil, err
	}
	preds, err := predictTrees(len(rf.estimators_), rf.nJobs, func(t int) (mat.Matrix, error) {
		return rf.estimators_[t].Predict(X)
	})
	if err != nil {
		return nil, err
	}

	rows, _ := X.Dims()
	out := mat.NewDense(rows, 1, nil)
	for _, pred := range preds {
		out.Add(out, pred)
	}
	out.Scale(1/float64(len(preds)), out)
	return out, nil
}

// OOBPrediction returns, for every training row, the mean prediction of the
// trees whose bootstrap sample did not contain it. mask[i] is false when
// row i was in-bag for every tree.
func (rf *RandomForestRegressor) OOBPrediction() (mat.Matrix, []bool, error) {
	if err := rf.state.RequireFitted(rf.name, "OOBPrediction"); err != nil {
		return nil, nil, err
	}
	return rf.oob.get()
}

// OOBScore returns the out-of-bag R², available when fitted WithOOBScore(true).
func (rf *RandomForestRegressor) OOBScore() (float64, error) {
	if err := rf.state.RequireFitted(rf.name, "OOBScore"); err != nil {
		return 0, err
	}
	if !rf.oobScore {
		return 0, errors.NewValueError("OOBScore", "model was not fitted with oob_score enabled")
	}
	return rf.oobScore_, nil
}

// Score returns the coefficient of determination R².
func (rf *RandomForestRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := rf.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, pred)
}

// InBag returns a copy of the per-tree in-bag masks.
func (rf *RandomForestRegressor) InBag() [][]bool {
	out := make([][]bool, len(rf.inBag_))
	for t, mask := range rf.inBag_ {
		out[t] = append([]bool(nil), mask...)
	}
	return out
}

// Estimators returns the fitted trees.
func (rf *RandomForestRegressor) Estimators() []*tree.DecisionTreeRegressor {
	return rf.estimators_
}

// FeatureImportances returns the mean impurity-based importance across trees.
func (rf *RandomForestRegressor) FeatureImportances() []float64 {
	return append([]float64(nil), rf.featureImportances_...)
}

// IsFitted reports whether Fit has completed.
func (rf *RandomForestRegressor) IsFitted() bool {
	return rf.state.IsFitted()
}

// GetParams returns the hyperparameters.
func (rf *RandomForestRegressor) GetParams() map[string]interface{} {
	return rf.params.getForest()
}

// SetParams updates hyperparameters. Bagging models reject max_features.
func (rf *RandomForestRegressor) SetParams(values map[string]interface{}) error {
	return rf.params.set(rf.name, values, rf.params.forestSettable(rf.bagging))
}
