// Package linear_model provides the linear baselines that tree ensembles
// are compared against: ordinary least squares and binary logistic
// regression.
package linear_model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/core/model"
	"github.com/YuminosukeSato/scigo-ensemble/core/parallel"
	"github.com/YuminosukeSato/scigo-ensemble/metrics"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// LinearRegression は最小二乗法による線形回帰モデル
type LinearRegression struct {
	state *model.StateManager

	fitIntercept bool // 切片を学習するか

	coef_      *mat.VecDense // 重み（係数）
	intercept_ float64       // 切片
}

// LinearRegressionOption is a functional option for LinearRegression.
type LinearRegressionOption func(*LinearRegression)

// WithFitIntercept sets whether an intercept term is estimated.
func WithFitIntercept(fit bool) LinearRegressionOption {
	return func(lr *LinearRegression) {
		lr.fitIntercept = fit
	}
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression(opts ...LinearRegressionOption) *LinearRegression {
	lr := &LinearRegression{
		state:        model.NewStateManager(),
		fitIntercept: true,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit は正規方程式 w = (X^T X)^(-1) X^T y でモデルを学習する
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}

	offset := 0
	if lr.fitIntercept {
		offset = 1
	}

	// 切片項のために先頭に1の列を追加
	design := mat.NewDense(r, c+offset, nil)
	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			if offset == 1 {
				design.Set(i, 0, 1.0)
			}
			for j := 0; j < c; j++ {
				design.Set(i, j+offset, X.At(i, j))
			}
		}
	})

	var xtx mat.Dense
	xtx.Mul(design.T(), design)

	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
	}

	yVec := mat.NewVecDense(r, mat.Col(nil, 0, y))
	var xty mat.VecDense
	xty.MulVec(design.T(), yVec)

	weights := mat.NewVecDense(c+offset, nil)
	weights.MulVec(&xtxInv, &xty)

	lr.state.Reset()
	lr.intercept_ = 0
	if offset == 1 {
		lr.intercept_ = weights.AtVec(0)
	}
	lr.coef_ = mat.NewVecDense(c, nil)
	for j := 0; j < c; j++ {
		lr.coef_.SetVec(j, weights.AtVec(j+offset))
	}
	lr.state.SetDimensions(c, r)
	lr.state.SetFitted()
	return nil
}

// Predict は y = X w + b を返す
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LinearRegression", "Predict"); err != nil {
		return nil, err
	}
	if err := lr.state.CheckFeatures("LinearRegression.Predict", X); err != nil {
		return nil, err
	}

	r, _ := X.Dims()
	var out mat.VecDense
	out.MulVec(X, lr.coef_)
	pred := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred.Set(i, 0, out.AtVec(i)+lr.intercept_)
	}
	return pred, nil
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, pred)
}

// GetWeights は学習された重み（係数）を返す
func (lr *LinearRegression) GetWeights() []float64 {
	if lr.coef_ == nil {
		return nil
	}
	return mat.Col(nil, 0, lr.coef_)
}

// GetIntercept は学習された切片を返す
func (lr *LinearRegression) GetIntercept() float64 {
	return lr.intercept_
}

// IsFitted reports whether Fit has completed.
func (lr *LinearRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// GetParams returns the hyperparameters.
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{"fit_intercept": lr.fitIntercept}
}

// SetParams updates hyperparameters.
func (lr *LinearRegression) SetParams(params map[string]interface{}) error {
	for name, v := range params {
		if name != "fit_intercept" {
			return errors.NewValidationError(name, "unknown parameter for LinearRegression", v)
		}
		fit, err := model.ParamBool(name, v)
		if err != nil {
			return err
		}
		lr.fitIntercept = fit
	}
	return nil
}
