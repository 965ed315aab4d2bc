package model

import (
	"math"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// ParamInt converts a hyperparameter value to int. Integral floats are
// accepted since YAML and JSON decoders produce float64 for numbers.
func ParamInt(name string, v interface{}) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case uint:
		return int(x), nil
	case float64:
		if x == math.Trunc(x) {
			return int(x), nil
		}
	case float32:
		if float64(x) == math.Trunc(float64(x)) {
			return int(x), nil
		}
	}
	return 0, errors.NewValidationError(name, "must be an integer", v)
}

// ParamFloat converts a hyperparameter value to float64.
func ParamFloat(name string, v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	}
	return 0, errors.NewValidationError(name, "must be a number", v)
}

// ParamBool converts a hyperparameter value to bool.
func ParamBool(name string, v interface{}) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, errors.NewValidationError(name, "must be a boolean", v)
}

// ParamString converts a hyperparameter value to string.
func ParamString(name string, v interface{}) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", errors.NewValidationError(name, "must be a string", v)
}
