package tree

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/core/model"
	"github.com/YuminosukeSato/scigo-ensemble/metrics"
)

// DecisionTreeClassifier is a CART classification tree using the Gini index
// or entropy as split criterion.
type DecisionTreeClassifier struct {
	params
	state *model.StateManager

	tree_               *cart
	classes_            []float64
	nClasses            int
	featureImportances_ []float64
}

// NewDecisionTreeClassifier creates a classification tree with the given options.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		params: defaultParams("gini"),
		state:  model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(&dt.params)
	}
	return dt
}

// Fit grows the tree on all rows of X.
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	r, _ := X.Dims()
	return dt.FitIndices(X, y, allRows(r))
}

// FitIndices grows the tree on the rows of X listed in idx. Classes are the
// distinct labels among those rows.
func (dt *DecisionTreeClassifier) FitIndices(X, y mat.Matrix, idx []int) error {
	if err := dt.params.validate(X, y, "gini", "entropy"); err != nil {
		return err
	}
	rows, cols := X.Dims()
	if err := checkIndices(idx, rows); err != nil {
		return err
	}

	seen := make(map[float64]bool)
	classes := make([]float64, 0)
	for _, i := range idx {
		if label := y.At(i, 0); !seen[label] {
			seen[label] = true
			classes = append(classes, label)
		}
	}
	sort.Float64s(classes)
	classIndex := make(map[float64]int, len(classes))
	for k, c := range classes {
		classIndex[c] = k
	}

	// rows outside idx are never read
	target := make([]float64, rows)
	for _, i := range idx {
		target[i] = float64(classIndex[y.At(i, 0)])
	}

	dt.state.Reset()
	dt.classes_ = classes
	dt.nClasses = len(classes)
	dt.tree_ = grow(dt.params, X, target, dt.nClasses, idx)
	dt.featureImportances_ = dt.tree_.importances()
	dt.state.SetDimensions(cols, len(idx))
	dt.state.SetFitted()
	return nil
}

// PredictProba returns the class proportions of the leaf each row falls
// into, one column per class in Classes order.
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	if err := dt.state.CheckFeatures("PredictProba", X); err != nil {
		return nil, err
	}
	r, _ := X.Dims()
	out := mat.NewDense(r, dt.nClasses, nil)
	for i := 0; i < r; i++ {
		out.SetRow(i, dt.tree_.leaf(X, i).value)
	}
	return out, nil
}

// Predict returns the majority class of the leaf each row falls into.
// Ties go to the smaller class label.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := dt.PredictProba(X)
	if err != nil {
		return nil, err
	}
	r, _ := proba.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, dt.classes_[argmax(mat.Row(nil, i, proba))])
	}
	return out, nil
}

// Score returns the mean accuracy on the given data.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := dt.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, pred)
}

// Classes returns the sorted class labels seen during fitting.
func (dt *DecisionTreeClassifier) Classes() []float64 {
	out := make([]float64, len(dt.classes_))
	copy(out, dt.classes_)
	return out
}

// GetDepth returns the depth of the fitted tree (0 for a single leaf).
func (dt *DecisionTreeClassifier) GetDepth() int {
	if dt.tree_ == nil {
		return 0
	}
	return dt.tree_.depth()
}

// GetNLeaves returns the number of leaves of the fitted tree.
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	if dt.tree_ == nil {
		return 0
	}
	return dt.tree_.nLeaves()
}

// GetFeatureImportances returns the normalized impurity-based importances.
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	out := make([]float64, len(dt.featureImportances_))
	copy(out, dt.featureImportances_)
	return out
}

// IsFitted reports whether Fit has completed.
func (dt *DecisionTreeClassifier) IsFitted() bool {
	return dt.state.IsFitted()
}

// GetParams returns the hyperparameters.
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return dt.params.get()
}

// SetParams updates hyperparameters. The model must be refitted afterwards.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	return dt.params.set(params)
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
