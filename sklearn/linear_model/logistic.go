package linear_model

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/core/model"
	"github.com/YuminosukeSato/scigo-ensemble/metrics"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// LogisticRegression is a binary logistic regression classifier trained by
// batch gradient descent on the L2-penalized log-loss
//
//	mean(logloss) + ||w||² / (2·C·n)
//
// which has the same minimizer as scikit-learn's C-parameterized objective.
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	C            float64 // Inverse regularization strength
	fitIntercept bool    // Whether to fit intercept
	maxIter      int     // Maximum iterations
	tol          float64 // Stop when the largest gradient component is below tol
	learningRate float64 // Initial step size, decayed as lr/(1+0.1·iter)

	// Model parameters
	coef_      []float64
	intercept_ float64
	classes_   []float64 // [negative, positive]
	nIter_     int
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		C:            1.0,
		fitIntercept: true,
		maxIter:      100,
		tol:          1e-4,
		learningRate: 1.0,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRLearningRate sets the initial gradient descent step size
func WithLRLearningRate(rate float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.learningRate = rate
	}
}

func (lr *LogisticRegression) validate() error {
	if lr.C <= 0 {
		return errors.NewValidationError("C", "must be positive", lr.C)
	}
	if lr.maxIter < 1 {
		return errors.NewValidationError("max_iter", "must be at least 1", lr.maxIter)
	}
	if lr.tol <= 0 {
		return errors.NewValidationError("tol", "must be positive", lr.tol)
	}
	if lr.learningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", lr.learningRate)
	}
	return nil
}

// Fit trains the model. y must contain exactly two distinct labels; the
// larger one is the positive class. A ConvergenceWarning is emitted when
// max_iter is reached before the gradient falls below tol.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	if err := lr.validate(); err != nil {
		return err
	}
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}

	classes := make([]float64, 0, 2)
	seen := make(map[float64]bool)
	for i := 0; i < nSamples; i++ {
		if v := y.At(i, 0); !seen[v] {
			seen[v] = true
			classes = append(classes, v)
		}
	}
	if len(classes) != 2 {
		return errors.NewValueError("LogisticRegression.Fit",
			"only binary classification is supported; y must contain exactly two classes")
	}
	sort.Float64s(classes)

	target := make([]float64, nSamples)
	for i := range target {
		if y.At(i, 0) == classes[1] {
			target[i] = 1
		}
	}

	weights := make([]float64, nFeatures)
	intercept := 0.0
	lambda := 1.0 / (lr.C * float64(nSamples))
	converged := false
	iter := 0

	for iter = 0; iter < lr.maxIter; iter++ {
		gradWeights := make([]float64, nFeatures)
		gradIntercept := 0.0
		for i := 0; i < nSamples; i++ {
			z := intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * weights[j]
			}
			residual := sigmoid(z) - target[i]
			gradIntercept += residual
			for j := 0; j < nFeatures; j++ {
				gradWeights[j] += residual * X.At(i, j)
			}
		}
		for j := range gradWeights {
			gradWeights[j] = gradWeights[j]/float64(nSamples) + lambda*weights[j]
		}
		gradIntercept /= float64(nSamples)
		if !lr.fitIntercept {
			gradIntercept = 0
		}

		maxGrad := math.Abs(gradIntercept)
		for _, g := range gradWeights {
			maxGrad = math.Max(maxGrad, math.Abs(g))
		}
		if maxGrad < lr.tol {
			converged = true
			break
		}

		step := lr.learningRate / (1.0 + 0.1*float64(iter))
		for j := range weights {
			weights[j] -= step * gradWeights[j]
		}
		intercept -= step * gradIntercept

		if err := errors.CheckNumericalStability("logistic_regression_weights", weights, iter); err != nil {
			return err
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.maxIter,
			"gradient did not fall below tol; consider increasing max_iter or scaling the features"))
	}

	lr.state.Reset()
	lr.coef_ = weights
	lr.intercept_ = intercept
	lr.classes_ = classes
	lr.nIter_ = iter
	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	return nil
}

// DecisionFunction returns the log-odds of the positive class.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "DecisionFunction"); err != nil {
		return nil, err
	}
	if err := lr.state.CheckFeatures("LogisticRegression.DecisionFunction", X); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		z := lr.intercept_
		for j := 0; j < c; j++ {
			z += X.At(i, j) * lr.coef_[j]
		}
		out.Set(i, 0, z)
	}
	return out, nil
}

// PredictProba returns [P(classes[0]), P(classes[1])] for every row.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	z, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	r, _ := z.Dims()
	out := mat.NewDense(r, 2, nil)
	for i := 0; i < r; i++ {
		p := sigmoid(z.At(i, 0))
		out.Set(i, 0, 1-p)
		out.Set(i, 1, p)
	}
	return out, nil
}

// Predict returns the positive class when its probability exceeds 0.5.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	z, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	r, _ := z.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		label := lr.classes_[0]
		if z.At(i, 0) > 0 {
			label = lr.classes_[1]
		}
		out.Set(i, 0, label)
	}
	return out, nil
}

// Score returns the mean accuracy.
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, pred)
}

// Classes returns the two class labels seen during fitting.
func (lr *LogisticRegression) Classes() []float64 {
	return append([]float64(nil), lr.classes_...)
}

// Coef returns the fitted feature weights.
func (lr *LogisticRegression) Coef() []float64 {
	return append([]float64(nil), lr.coef_...)
}

// Intercept returns the fitted intercept.
func (lr *LogisticRegression) Intercept() float64 {
	return lr.intercept_
}

// NIter returns the number of gradient steps taken by the last Fit.
func (lr *LogisticRegression) NIter() int {
	return lr.nIter_
}

// IsFitted reports whether Fit has completed.
func (lr *LogisticRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// GetParams returns the hyperparameters.
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
		"learning_rate": lr.learningRate,
	}
}

// SetParams updates hyperparameters.
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for name, v := range params {
		var err error
		switch name {
		case "C":
			lr.C, err = model.ParamFloat(name, v)
		case "fit_intercept":
			lr.fitIntercept, err = model.ParamBool(name, v)
		case "max_iter":
			lr.maxIter, err = model.ParamInt(name, v)
		case "tol":
			lr.tol, err = model.ParamFloat(name, v)
		case "learning_rate":
			lr.learningRate, err = model.ParamFloat(name, v)
		default:
			err = errors.NewValidationError(name, "unknown parameter for LogisticRegression", v)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + errors.StabilizeExp(-z))
}
