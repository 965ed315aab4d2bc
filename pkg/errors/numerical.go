package errors

import "math"

// maxReported bounds the offending values kept in a NumericalInstabilityError.
const maxReported = 10

func unstable(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }

// CheckScalar returns a NumericalInstabilityError when value is NaN or ±Inf.
func CheckScalar(operation string, value float64, iteration int) error {
	return CheckNumericalStability(operation, []float64{value}, iteration)
}

// CheckNumericalStability returns a NumericalInstabilityError listing the
// NaN and ±Inf entries of values, or nil when every entry is finite.
// Boosting checks its residuals and logistic regression its weights after
// each iteration.
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	var bad []float64
	for _, v := range values {
		if !unstable(v) {
			continue
		}
		if bad = append(bad, v); len(bad) == maxReported {
			break
		}
	}
	if bad == nil {
		return nil
	}
	return NewNumericalInstabilityError(operation, bad, iteration)
}

// ClipValue clamps value to [lo, hi]. Probabilities are clipped this way
// before taking logs.
func ClipValue(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}

// StabilizeExp is math.Exp with the argument clamped to ±700, so sigmoid
// never sees +Inf.
func StabilizeExp(value float64) float64 {
	const limit = 700.0
	if value < -limit {
		return 0
	}
	return math.Exp(math.Min(value, limit))
}
