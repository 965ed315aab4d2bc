// Package scigo provides decision trees, tree ensembles and hyperparameter
// tuning for Go, with a scikit-learn-like API on top of gonum matrices.
//
// Every model implements Fit(X, y mat.Matrix) and Predict(X mat.Matrix),
// takes functional options at construction and exposes GetParams/SetParams
// with scikit-learn parameter names, so a grid search can rebuild it from a
// map of values.
//
// # Quick Start
//
// Tuning a random forest by out-of-bag error:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/scigo-ensemble/datasets"
//	    "github.com/YuminosukeSato/scigo-ensemble/metrics"
//	    "github.com/YuminosukeSato/scigo-ensemble/sklearn/model_selection"
//	)
//
//	func main() {
//	    X, y, err := datasets.MakeCircles(400, 0.1, 0.5, 1)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    grid := model_selection.ParamGrid{
//	        {Name: "max_features", Values: []interface{}{1, 2}},
//	        {Name: "n_estimators", Values: []interface{}{50, 200}},
//	    }
//	    res, err := model_selection.Tune(context.Background(), X, y,
//	        model_selection.RandomForestClassifierFamily(),
//	        grid, model_selection.OOB(), metrics.AccuracyScorer)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Print(res.Summary())
//	}
//
// # Packages
//
//   - sklearn/tree: CART regression and classification trees with cost-complexity pruning
//   - sklearn/ensemble: bagging, random forests and gradient boosting, with out-of-bag estimates
//   - sklearn/linear_model: least squares and L2-regularized logistic regression baselines
//   - sklearn/model_selection: parameter grids, k-fold splitters, grid search
//   - metrics: regression and classification metrics and named scorers
//   - preprocessing: feature standardization
//   - datasets: CSV loading, train/test splits and synthetic data
//   - core/model: estimator interfaces, fitted-state tracking, parameter coercion
//   - core/parallel: chunked fan-out helpers
//   - pkg/errors, pkg/log: structured errors and zerolog-backed logging
//
// The examples/ensemble_tutorial command drives all of the above from a
// YAML config file.
package scigo
