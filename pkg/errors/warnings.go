package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/rs/zerolog"
)

// 警告は error として表現し、Warn でハンドラに渡します。
// 既定では標準 log に出力し、pkg/log.Setup が zerolog へ切り替えます。
var (
	warningMu      sync.Mutex
	warningHandler = func(w error) { log.Printf("scigo-Warning: %v\n", w) }
	zerologWarn    func(warning error)
)

// SetWarningHandler は警告ハンドラを差し替えます。テストでは警告を捨てる用途に使います。
//
//	errors.SetWarningHandler(func(error) {})
func SetWarningHandler(handler func(w error)) {
	warningMu.Lock()
	defer warningMu.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc routes warnings to a zerolog-backed logger. pkg/log
// calls it from Setup; nil restores the plain handler.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMu.Lock()
	defer warningMu.Unlock()
	zerologWarn = warnFunc
}

// Warn は警告を現在のハンドラに渡します。
func Warn(w error) {
	warningMu.Lock()
	defer warningMu.Unlock()

	switch {
	case zerologWarn != nil:
		zerologWarn(w)
	case warningHandler != nil:
		warningHandler(w)
	}
}

// ConvergenceWarning is raised when an iterative solver stops at its
// iteration limit, e.g. LogisticRegression at max_iter.
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	msg := w.Message
	if msg == "" {
		msg = "consider increasing max_iter or adjusting parameters"
	}
	return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, msg)
}

// MarshalZerologObject はzerologのイベントに警告の内容を追加します。
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning creates a ConvergenceWarning.
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// UndefinedMetricWarning は評価指標が定義できない入力に対して既定値を返したことを示します。
// 例: 片方のクラスしか含まない fold での AUC。
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64 // value returned instead
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s.", w.Metric, w.Result, w.Condition)
}

// MarshalZerologObject はzerologのイベントに警告の内容を追加します。
func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("result", w.Result).
		Str("type", "UndefinedMetricWarning")
}

// NewUndefinedMetricWarning creates an UndefinedMetricWarning.
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}
