package tree

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/core/model"
	"github.com/YuminosukeSato/scigo-ensemble/metrics"
)

// DecisionTreeRegressor is a CART regression tree minimizing squared error.
type DecisionTreeRegressor struct {
	params
	state *model.StateManager

	tree_               *cart
	featureImportances_ []float64
}

// NewDecisionTreeRegressor creates a regression tree with the given options.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	dt := &DecisionTreeRegressor{
		params: defaultParams("squared_error"),
		state:  model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(&dt.params)
	}
	return dt
}

// Fit grows the tree on all rows of X.
func (dt *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	r, _ := X.Dims()
	return dt.FitIndices(X, y, allRows(r))
}

// FitIndices grows the tree on the rows of X listed in idx. Repeated
// indices are weighted by multiplicity.
func (dt *DecisionTreeRegressor) FitIndices(X, y mat.Matrix, idx []int) error {
	if err := dt.params.validate(X, y, "squared_error"); err != nil {
		return err
	}
	rows, cols := X.Dims()
	if err := checkIndices(idx, rows); err != nil {
		return err
	}

	target := make([]float64, rows)
	for i := range target {
		target[i] = y.At(i, 0)
	}

	dt.state.Reset()
	dt.tree_ = grow(dt.params, X, target, 0, idx)
	dt.featureImportances_ = dt.tree_.importances()
	dt.state.SetDimensions(cols, len(idx))
	dt.state.SetFitted()
	return nil
}

// Predict returns the mean target of the leaf each row falls into.
func (dt *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeRegressor", "Predict"); err != nil {
		return nil, err
	}
	if err := dt.state.CheckFeatures("Predict", X); err != nil {
		return nil, err
	}
	r, _ := X.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, dt.tree_.leaf(X, i).value[0])
	}
	return out, nil
}

// Score returns the coefficient of determination R² of the prediction.
func (dt *DecisionTreeRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := dt.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, pred)
}

// GetDepth returns the depth of the fitted tree (0 for a single leaf).
func (dt *DecisionTreeRegressor) GetDepth() int {
	if dt.tree_ == nil {
		return 0
	}
	return dt.tree_.depth()
}

// GetNLeaves returns the number of leaves of the fitted tree.
func (dt *DecisionTreeRegressor) GetNLeaves() int {
	if dt.tree_ == nil {
		return 0
	}
	return dt.tree_.nLeaves()
}

// GetFeatureImportances returns the normalized impurity-based importances.
func (dt *DecisionTreeRegressor) GetFeatureImportances() []float64 {
	out := make([]float64, len(dt.featureImportances_))
	copy(out, dt.featureImportances_)
	return out
}

// IsFitted reports whether Fit has completed.
func (dt *DecisionTreeRegressor) IsFitted() bool {
	return dt.state.IsFitted()
}

// GetParams returns the hyperparameters.
func (dt *DecisionTreeRegressor) GetParams() map[string]interface{} {
	return dt.params.get()
}

// SetParams updates hyperparameters. The model must be refitted afterwards.
func (dt *DecisionTreeRegressor) SetParams(params map[string]interface{}) error {
	return dt.params.set(params)
}
