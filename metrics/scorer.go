package metrics

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// Task is the kind of label a scorer expects.
type Task int

const (
	// Regression scorers compare continuous predictions.
	Regression Task = iota
	// Classification scorers compare predicted class labels.
	Classification
)

func (t Task) String() string {
	if t == Classification {
		return "classification"
	}
	return "regression"
}

// ScoreFunc computes a metric on n×1 label and prediction matrices.
type ScoreFunc func(yTrue, yPred mat.Matrix) (float64, error)

// Scorer pairs a metric with its optimization direction.
type Scorer struct {
	Name            string
	GreaterIsBetter bool
	Task            Task
	Score           ScoreFunc
}

// Better reports whether score a is strictly better than score b.
// NaN is never better than anything, and anything finite beats NaN.
func (s Scorer) Better(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	if s.GreaterIsBetter {
		return a > b
	}
	return a < b
}

// Worst returns the value every real score improves upon.
func (s Scorer) Worst() float64 {
	if s.GreaterIsBetter {
		return math.Inf(-1)
	}
	return math.Inf(1)
}

func (s Scorer) String() string {
	return s.Name
}

// Built-in scorers.
var (
	RMSEScorer      = Scorer{Name: "rmse", Task: Regression, Score: RMSEMatrix}
	MSEScorer       = Scorer{Name: "mse", Task: Regression, Score: MSEMatrix}
	MAEScorer       = Scorer{Name: "mae", Task: Regression, Score: MAEMatrix}
	R2Scorer        = Scorer{Name: "r2", GreaterIsBetter: true, Task: Regression, Score: R2ScoreMatrix}
	AccuracyScorer  = Scorer{Name: "accuracy", GreaterIsBetter: true, Task: Classification, Score: AccuracyMatrix}
	ErrorRateScorer = Scorer{Name: "error_rate", Task: Classification, Score: ClassificationErrorMatrix}
)

var scorers = map[string]Scorer{
	"rmse":       RMSEScorer,
	"mse":        MSEScorer,
	"mae":        MAEScorer,
	"r2":         R2Scorer,
	"accuracy":   AccuracyScorer,
	"error_rate": ErrorRateScorer,
	"error":      ErrorRateScorer,
}

// GetScorer looks up a built-in scorer by name (case-insensitive).
func GetScorer(name string) (Scorer, error) {
	s, ok := scorers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Scorer{}, errors.NewValidationError("scoring", "unknown scorer", name)
	}
	return s, nil
}
