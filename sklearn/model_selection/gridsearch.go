package model_selection

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/metrics"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// GridSearch is an estimator that tunes its family on Fit and predicts with
// the refitted best model.
type GridSearch struct {
	Family Family
	Grid   ParamGrid
	Plan   Plan
	Scorer metrics.Scorer

	opts   []Option
	result *Result
}

// NewGridSearch creates a GridSearch. Options are passed through to Tune.
func NewGridSearch(family Family, grid ParamGrid, plan Plan, scorer metrics.Scorer, opts ...Option) *GridSearch {
	return &GridSearch{Family: family, Grid: grid, Plan: plan, Scorer: scorer, opts: opts}
}

// Fit runs the search without a deadline.
func (gs *GridSearch) Fit(X, y mat.Matrix) error {
	return gs.FitContext(context.Background(), X, y)
}

// FitContext runs the search. A cancelled run keeps its partial result.
func (gs *GridSearch) FitContext(ctx context.Context, X, y mat.Matrix) error {
	opts := append(append([]Option(nil), gs.opts...), WithRefit(true))
	res, err := Tune(ctx, X, y, gs.Family, gs.Grid, gs.Plan, gs.Scorer, opts...)
	if res != nil {
		gs.result = res
	}
	return err
}

// Predict uses the refitted best model.
func (gs *GridSearch) Predict(X mat.Matrix) (mat.Matrix, error) {
	if gs.result == nil || gs.result.BestModel == nil {
		return nil, errors.NewNotFittedError("GridSearch", "Predict")
	}
	return gs.result.BestModel.Predict(X)
}

// Score applies the search scorer to the best model's predictions.
func (gs *GridSearch) Score(X, y mat.Matrix) (float64, error) {
	pred, err := gs.Predict(X)
	if err != nil {
		return 0, err
	}
	return gs.Scorer.Score(y, pred)
}

// Result returns the last search result, nil before Fit.
func (gs *GridSearch) Result() *Result {
	return gs.result
}

// BestParams returns the best configuration found by Fit.
func (gs *GridSearch) BestParams() map[string]interface{} {
	if gs.result == nil {
		return nil
	}
	return gs.result.BestParams()
}
