package ensemble

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/core/model"
	"github.com/YuminosukeSato/scigo-ensemble/metrics"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
	"github.com/YuminosukeSato/scigo-ensemble/sklearn/tree"
)

// RandomForestClassifier averages the class probabilities of classification
// trees grown on bootstrap samples.
type RandomForestClassifier struct {
	params
	state *model.StateManager
	name  string
	// bagging pins max_features to all features.
	bagging bool

	estimators_         []*tree.DecisionTreeClassifier
	inBag_              [][]bool
	classes_            []float64
	featureImportances_ []float64
	oob                 *oobCache
	oobScore_           float64
}

// NewRandomForestClassifier creates a random forest classifier.
// Defaults: 100 trees, √p features per split, bootstrap on.
func NewRandomForestClassifier(opts ...Option) *RandomForestClassifier {
	rf := &RandomForestClassifier{
		params: defaultForestParams(),
		state:  model.NewStateManager(),
		name:   "RandomForestClassifier",
	}
	for _, opt := range opts {
		opt(&rf.params)
	}
	return rf
}

// NewBaggingClassifier creates a forest that considers every feature at
// each split, i.e. bagged classification trees.
func NewBaggingClassifier(opts ...Option) *RandomForestClassifier {
	rf := NewRandomForestClassifier(append(append([]Option{}, opts...), WithMaxFeatures(0))...)
	rf.name = "BaggingClassifier"
	rf.bagging = true
	return rf
}

// Fit grows every tree. Tree i uses seed RandomState+i.
func (rf *RandomForestClassifier) Fit(X, y mat.Matrix) error {
	if err := rf.params.validate(); err != nil {
		return err
	}
	if err := checkXY(X, y); err != nil {
		return err
	}
	rows, cols := X.Dims()
	maxFeatures := rf.resolveMaxFeatures(cols, true)

	trees := make([]*tree.DecisionTreeClassifier, rf.nEstimators)
	inBag := make([][]bool, rf.nEstimators)
	err := fitTrees(rf.nEstimators, rf.nJobs, func(t int) error {
		seed := rf.randomState + int64(t)
		idx, mask := bootstrapSample(rows, seed, rf.bootstrap)
		dt := tree.NewDecisionTreeClassifier(rf.treeOptions(maxFeatures, seed)...)
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
	rf.classes_ = uniqueSorted(y)
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
		pred, mask, err := rf.OOBPrediction()
		if err != nil {
			return err
		}
		yOOB := maskedRows(y, mask)
		if yOOB == nil {
			return errors.NewValueError(rf.name+".Fit", "no row has an out-of-bag prediction; increase n_estimators")
		}
		if rf.oobScore_, err = metrics.AccuracyMatrix(yOOB, maskedRows(pred, mask)); err != nil {
			return err
		}
	}
	return nil
}

// treeProba returns the probabilities of every tree mapped onto the
// forest's class columns.
func (rf *RandomForestClassifier) treeProba(X mat.Matrix) ([]*mat.Dense, error) {
	raw, err := predictTrees(len(rf.estimators_), rf.nJobs, func(t int) (mat.Matrix, error) {
		return rf.estimators_[t].PredictProba(X)
	})
	if err != nil {
		return nil, err
	}

	rows, _ := X.Dims()
	out := make([]*mat.Dense, len(raw))
	for t, proba := range raw {
		full := mat.NewDense(rows, len(rf.classes_), nil)
		for k, c := range rf.estimators_[t].Classes() {
			col := sort.SearchFloat64s(rf.classes_, c)
			for i := 0; i < rows; i++ {
				full.Set(i, col, proba.At(i, k))
			}
		}
		out[t] = full
	}
	return out, nil
}

func (rf *RandomForestClassifier) computeOOB(X mat.Matrix) (*mat.Dense, []bool, error) {
	probas, err := rf.treeProba(X)
	if err != nil {
		return nil, nil, err
	}

	rows, _ := X.Dims()
	nClasses := len(rf.classes_)
	out := mat.NewDense(rows, 1, nil)
	mask := make([]bool, rows)
	votes := make([]float64, nClasses)
	for i := 0; i < rows; i++ {
		for k := range votes {
			votes[k] = 0
		}
		count := 0
		for t, proba := range probas {
			if rf.inBag_[t][i] {
				continue
			}
			for k := 0; k < nClasses; k++ {
				votes[k] += proba.At(i, k)
			}
			count++
		}
		if count > 0 {
			out.Set(i, 0, rf.classes_[argmax(votes)])
			mask[i] = true
		}
	}
	return out, mask, nil
}

// PredictProba returns the mean class probabilities across trees.
func (rf *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := rf.state.RequireFitted(rf.name, "PredictProba"); err != nil {
		return nil, err
	}
	if err := rf.state.CheckFeatures("PredictProba", X); err != nil {
		return nil, err
	}
	probas, err := rf.treeProba(X)
	if err != nil {
		return nil, err
	}
	rows, _ := X.Dims()
	out := mat.NewDense(rows, len(rf.classes_), nil)
	for _, p := range probas {
		out.Add(out, p)
	}
	out.Scale(1/float64(len(probas)), out)
	return out, nil
}

// Predict returns the class with the highest mean probability.
func (rf *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}
	rows, _ := proba.Dims()
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		out.Set(i, 0, rf.classes_[argmax(mat.Row(nil, i, proba))])
	}
	return out, nil
}

// OOBPrediction returns, for every training row, the class voted by the
// trees whose bootstrap sample did not contain it. mask[i] is false when
// row i was in-bag for every tree.
func (rf *RandomForestClassifier) OOBPrediction() (mat.Matrix, []bool, error) {
	if err := rf.state.RequireFitted(rf.name, "OOBPrediction"); err != nil {
		return nil, nil, err
	}
	return rf.oob.get()
}

// OOBScore returns the out-of-bag accuracy, available when fitted WithOOBScore(true).
func (rf *RandomForestClassifier) OOBScore() (float64, error) {
	if err := rf.state.RequireFitted(rf.name, "OOBScore"); err != nil {
		return 0, err
	}
	if !rf.oobScore {
		return 0, errors.NewValueError("OOBScore", "model was not fitted with oob_score enabled")
	}
	return rf.oobScore_, nil
}

// Score returns the mean accuracy.
func (rf *RandomForestClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := rf.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, pred)
}

// Classes returns the sorted class labels seen during fitting.
func (rf *RandomForestClassifier) Classes() []float64 {
	return append([]float64(nil), rf.classes_...)
}

// InBag returns a copy of the per-tree in-bag masks.
func (rf *RandomForestClassifier) InBag() [][]bool {
	out := make([][]bool, len(rf.inBag_))
	for t, mask := range rf.inBag_ {
		out[t] = append([]bool(nil), mask...)
	}
	return out
}

// FeatureImportances returns the mean impurity-based importance across trees.
func (rf *RandomForestClassifier) FeatureImportances() []float64 {
	return append([]float64(nil), rf.featureImportances_...)
}

// IsFitted reports whether Fit has completed.
func (rf *RandomForestClassifier) IsFitted() bool {
	return rf.state.IsFitted()
}

// GetParams returns the hyperparameters.
func (rf *RandomForestClassifier) GetParams() map[string]interface{} {
	return rf.params.getForest()
}

// SetParams updates hyperparameters. Bagging models reject max_features.
func (rf *RandomForestClassifier) SetParams(values map[string]interface{}) error {
	return rf.params.set(rf.name, values, rf.params.forestSettable(rf.bagging))
}

func uniqueSorted(y mat.Matrix) []float64 {
	rows, _ := y.Dims()
	seen := make(map[float64]bool)
	out := make([]float64, 0)
	for i := 0; i < rows; i++ {
		if v := y.At(i, 0); !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

func argmax(v []float64) int {
	best := 0
	for k := 1; k < len(v); k++ {
		if v[k] > v[best] {
			best = k
		}
	}
	return best
}
