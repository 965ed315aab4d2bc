// Package model provides the core interfaces and base types shared by all
// estimators in scigo-ensemble.
package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる。y は n×1 の列ベクトル
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を n×1 行列で返す
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator is a supervised model: it can be fitted and then predict.
type Estimator interface {
	Fitter
	Predictor
}

// Scorer is implemented by models with a default score (R² for
// regressors, accuracy for classifiers).
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// Regressor combines interfaces for regression models.
type Regressor interface {
	Estimator
	Scorer
}

// Classifier combines interfaces for classification models.
type Classifier interface {
	Estimator
	Scorer

	// PredictProba returns probability estimates, one column per class in
	// the order given by Classes.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the sorted class labels seen during fitting.
	Classes() []float64
}

// OOBEstimator is implemented by bagging-style models that keep track of
// which training rows each internal resample left out.
type OOBEstimator interface {
	Estimator

	// OOBPrediction returns, for every training row, the prediction made
	// only by the internal models that did not see that row. The mask is
	// false for rows that were in-bag for every internal model; their
	// prediction entry is meaningless.
	OOBPrediction() (mat.Matrix, []bool, error)
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	// SetParams sets the model's hyperparameters.
	SetParams(params map[string]interface{}) error
}
