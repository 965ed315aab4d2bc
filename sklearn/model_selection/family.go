package model_selection

import (
	"github.com/YuminosukeSato/scigo-ensemble/core/model"
	"github.com/YuminosukeSato/scigo-ensemble/metrics"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
	"github.com/YuminosukeSato/scigo-ensemble/sklearn/ensemble"
	"github.com/YuminosukeSato/scigo-ensemble/sklearn/linear_model"
	"github.com/YuminosukeSato/scigo-ensemble/sklearn/tree"
)

// Family builds untrained estimators of one model type from a configuration.
type Family struct {
	Name string
	Task metrics.Task

	// SupportsOOB is set for bagging families whose estimators implement
	// model.OOBEstimator.
	SupportsOOB bool

	New func(cfg Configuration) (model.Estimator, error)
}

// FamilyFunc wraps a constructor as a family without out-of-bag support.
func FamilyFunc(name string, task metrics.Task, fn func(cfg Configuration) (model.Estimator, error)) Family {
	return Family{Name: name, Task: task, New: fn}
}

type configurable interface {
	model.Estimator
	model.ParameterSetter
}

// paramFamily applies the configuration through SetParams on a fresh estimator.
func paramFamily[E configurable](name string, task metrics.Task, oob bool, newFn func() E) Family {
	return Family{
		Name:        name,
		Task:        task,
		SupportsOOB: oob,
		New: func(cfg Configuration) (model.Estimator, error) {
			est := newFn()
			if err := est.SetParams(cfg.Map()); err != nil {
				return nil, err
			}
			return est, nil
		},
	}
}

// TreeRegressorFamily tunes a DecisionTreeRegressor.
func TreeRegressorFamily(opts ...tree.Option) Family {
	return paramFamily("decision_tree_regressor", metrics.Regression, false, func() *tree.DecisionTreeRegressor {
		return tree.NewDecisionTreeRegressor(opts...)
	})
}

// TreeClassifierFamily tunes a DecisionTreeClassifier.
func TreeClassifierFamily(opts ...tree.Option) Family {
	return paramFamily("decision_tree_classifier", metrics.Classification, false, func() *tree.DecisionTreeClassifier {
		return tree.NewDecisionTreeClassifier(opts...)
	})
}

// RandomForestRegressorFamily tunes a RandomForestRegressor.
func RandomForestRegressorFamily(opts ...ensemble.Option) Family {
	return paramFamily("random_forest_regressor", metrics.Regression, true, func() *ensemble.RandomForestRegressor {
		return ensemble.NewRandomForestRegressor(opts...)
	})
}

// RandomForestClassifierFamily tunes a RandomForestClassifier.
func RandomForestClassifierFamily(opts ...ensemble.Option) Family {
	return paramFamily("random_forest_classifier", metrics.Classification, true, func() *ensemble.RandomForestClassifier {
		return ensemble.NewRandomForestClassifier(opts...)
	})
}

// BaggingRegressorFamily tunes bagged regression trees (all features per split).
func BaggingRegressorFamily(opts ...ensemble.Option) Family {
	return paramFamily("bagging_regressor", metrics.Regression, true, func() *ensemble.RandomForestRegressor {
		return ensemble.NewBaggingRegressor(opts...)
	})
}

// BaggingClassifierFamily tunes bagged classification trees.
func BaggingClassifierFamily(opts ...ensemble.Option) Family {
	return paramFamily("bagging_classifier", metrics.Classification, true, func() *ensemble.RandomForestClassifier {
		return ensemble.NewBaggingClassifier(opts...)
	})
}

// GradientBoostingRegressorFamily tunes a GradientBoostingRegressor.
func GradientBoostingRegressorFamily(opts ...ensemble.Option) Family {
	return paramFamily("gradient_boosting_regressor", metrics.Regression, false, func() *ensemble.GradientBoostingRegressor {
		return ensemble.NewGradientBoostingRegressor(opts...)
	})
}

// GradientBoostingClassifierFamily tunes a binary GradientBoostingClassifier.
func GradientBoostingClassifierFamily(opts ...ensemble.Option) Family {
	return paramFamily("gradient_boosting_classifier", metrics.Classification, false, func() *ensemble.GradientBoostingClassifier {
		return ensemble.NewGradientBoostingClassifier(opts...)
	})
}

// LinearRegressionFamily tunes a LinearRegression.
func LinearRegressionFamily(opts ...linear_model.LinearRegressionOption) Family {
	return paramFamily("linear_regression", metrics.Regression, false, func() *linear_model.LinearRegression {
		return linear_model.NewLinearRegression(opts...)
	})
}

// LogisticRegressionFamily tunes a binary LogisticRegression.
func LogisticRegressionFamily(opts ...linear_model.LogisticRegressionOption) Family {
	return paramFamily("logistic_regression", metrics.Classification, false, func() *linear_model.LogisticRegression {
		return linear_model.NewLogisticRegression(opts...)
	})
}

var families = map[string]func() Family{
	"decision_tree_regressor":      func() Family { return TreeRegressorFamily() },
	"decision_tree_classifier":     func() Family { return TreeClassifierFamily() },
	"random_forest_regressor":      func() Family { return RandomForestRegressorFamily() },
	"random_forest_classifier":     func() Family { return RandomForestClassifierFamily() },
	"bagging_regressor":            func() Family { return BaggingRegressorFamily() },
	"bagging_classifier":           func() Family { return BaggingClassifierFamily() },
	"gradient_boosting_regressor":  func() Family { return GradientBoostingRegressorFamily() },
	"gradient_boosting_classifier": func() Family { return GradientBoostingClassifierFamily() },
	"linear_regression":            func() Family { return LinearRegressionFamily() },
	"logistic_regression":          func() Family { return LogisticRegressionFamily() },
}

// GetFamily returns a built-in family by name, e.g. "random_forest_regressor".
func GetFamily(name string) (Family, error) {
	fn, ok := families[name]
	if !ok {
		return Family{}, errors.NewValidationError("family", "unknown model family", name)
	}
	return fn(), nil
}
