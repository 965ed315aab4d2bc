// Package errors はプロジェクト全体の構造化エラーと警告を提供します。
// 型付きエラーは cockroachdb/errors でスタックトレースを付与して返され、
// MarshalZerologObject によって pkg/log のフィールドとして出力できます。
package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// Sentinel errors. Match them with Is.
var (
	// ErrEmptyData is returned for inputs without rows.
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix is returned when a linear system has no unique solution.
	ErrSingularMatrix = New("singular matrix")
)

// NotFittedError は未学習のモデルで Predict などを呼び出したときのエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("scigo: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントにエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError reports a row or feature count that does not match what
// the model or the other argument expects.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 = rows, 1 = features
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("scigo: %s: dimension mismatch on axis %d (%s). Expected %d, got %d",
		e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントにエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName()).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError は不正なハイパーパラメータや設定値を表します。
// ParamName はscikit-learn形式のパラメータ名 (例: "max_depth") です。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("scigo: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントにエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace.
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError reports an argument with the right shape but an unusable
// value, such as a three-class label for a binary model.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("scigo: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError はモデル内部の失敗を原因エラーと共に包みます。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("scigo: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("scigo: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// NewModelError creates a ModelError with a stack trace.
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// NumericalInstabilityError は NaN や Inf を検出したことを表します。
type NumericalInstabilityError struct {
	Operation string    // e.g. "boosting_residual"
	Values    []float64 // offending values, first few only
	Iteration int
}

func (e *NumericalInstabilityError) Error() string {
	shown := e.Values
	more := ""
	if len(shown) > 5 {
		shown, more = shown[:5], ", ..."
	}
	vals := make([]string, len(shown))
	for i, v := range shown {
		vals[i] = fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("scigo: numerical instability detected in %s at iteration %d. Values: [%s%s]",
		e.Operation, e.Iteration, strings.Join(vals, ", "), more)
}

// NewNumericalInstabilityError creates a NumericalInstabilityError with a stack trace.
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	return errors.WithStack(&NumericalInstabilityError{Operation: operation, Values: values, Iteration: iteration})
}

// Thin wrappers so callers only import this package.

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Wrap annotates err with message and a stack trace.
func Wrap(err error, message string) error { return errors.Wrap(err, message) }

// Wrapf annotates err with a formatted message and a stack trace.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates an error with a stack trace.
func New(message string) error { return errors.New(message) }

// WithStack attaches a stack trace to err.
func WithStack(err error) error { return errors.WithStack(err) }
