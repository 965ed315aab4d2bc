package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ErrTuningCancelled is returned (wrapped) when a tuning run stops early
// because its context was cancelled between configurations.
var ErrTuningCancelled = New("tuning cancelled")

// InvalidGridError reports a malformed hyperparameter search space.
// It is raised before any model is fitted.
type InvalidGridError struct {
	Param  string // empty when the grid itself is empty
	Reason string
}

func (e *InvalidGridError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("scigo: invalid parameter grid: %s", e.Reason)
	}
	return fmt.Sprintf("scigo: invalid parameter grid: parameter '%s': %s", e.Param, e.Reason)
}

// MarshalZerologObject adds the grid problem to a zerolog event.
func (e *InvalidGridError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.Param).
		Str("reason", e.Reason).
		Str("type", "InvalidGridError")
}

// NewInvalidGridError creates an InvalidGridError with a stack trace.
func NewInvalidGridError(param, reason string) error {
	return errors.WithStack(&InvalidGridError{Param: param, Reason: reason})
}

// UnsupportedResamplingError reports that the requested resampling strategy
// cannot be served by the model family, e.g. out-of-bag scoring for a
// family without internal bootstrap resampling.
type UnsupportedResamplingError struct {
	Family     string
	Resampling string
}

func (e *UnsupportedResamplingError) Error() string {
	return fmt.Sprintf("scigo: model family %q does not support %s resampling", e.Family, e.Resampling)
}

// MarshalZerologObject adds the capability mismatch to a zerolog event.
func (e *UnsupportedResamplingError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("family", e.Family).
		Str("resampling", e.Resampling).
		Str("type", "UnsupportedResamplingError")
}

// NewUnsupportedResamplingError creates an UnsupportedResamplingError with a stack trace.
func NewUnsupportedResamplingError(family, resampling string) error {
	return errors.WithStack(&UnsupportedResamplingError{Family: family, Resampling: resampling})
}

// ModelFitError wraps a failure of an individual fit, predict or score step
// during tuning. Config is the configuration as "name=value, ..." and Params
// the same values by name. Fold is the held-out fold index, or -1 for a fit
// on the full training set (out-of-bag evaluation and the final refit).
type ModelFitError struct {
	Op     string
	Config string
	Params map[string]interface{}
	Fold   int
	Err    error
}

func (e *ModelFitError) Error() string {
	if e.Fold < 0 {
		return fmt.Sprintf("scigo: %s failed for configuration {%s}: %v", e.Op, e.Config, e.Err)
	}
	return fmt.Sprintf("scigo: %s failed for configuration {%s} on fold %d: %v", e.Op, e.Config, e.Fold, e.Err)
}

func (e *ModelFitError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the failing step to a zerolog event.
func (e *ModelFitError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("config", e.Config).
		Interface("params", e.Params).
		Int("fold", e.Fold).
		AnErr("cause", e.Err).
		Str("type", "ModelFitError")
}

// NewModelFitError creates a ModelFitError with a stack trace.
func NewModelFitError(op, config string, params map[string]interface{}, fold int, err error) error {
	return errors.WithStack(&ModelFitError{Op: op, Config: config, Params: params, Fold: fold, Err: err})
}
