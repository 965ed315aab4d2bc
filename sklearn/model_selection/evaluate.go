package model_selection

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-ensemble/core/model"
	"github.com/YuminosukeSato/scigo-ensemble/metrics"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/log"
)

// foldData holds the materialized rows of one fold. It is shared by every
// configuration and never written after construction.
type foldData struct {
	XTrain, yTrain *mat.Dense
	XTest, yTest   *mat.Dense
}

type evaluator struct {
	X, y   mat.Matrix
	family Family
	scorer metrics.Scorer
	folds  []foldData // nil under out-of-bag scoring
}

func newEvaluator(X, y mat.Matrix, family Family, plan Plan, scorer metrics.Scorer) (*evaluator, error) {
	ev := &evaluator{X: X, y: y, family: family, scorer: scorer}
	if plan.IsOOB() {
		return ev, nil
	}

	folds, err := plan.Splitter().Split(X, y)
	if err != nil {
		return nil, err
	}
	ev.folds = make([]foldData, len(folds))
	for f, fold := range folds {
		XTrain, yTrain := extractSubset(X, y, fold.Train)
		XTest, yTest := extractSubset(X, y, fold.Test)
		ev.folds[f] = foldData{XTrain: XTrain, yTrain: yTrain, XTest: XTest, yTest: yTest}
	}
	return ev, nil
}

func (ev *evaluator) nSamples() int {
	n, _ := ev.X.Dims()
	return n
}

// tasksPerConfig is the number of independent fits behind one score.
func (ev *evaluator) tasksPerConfig() int {
	if ev.folds == nil {
		return 1
	}
	return len(ev.folds)
}

// score evaluates cfg on held-out fold f, or on the out-of-bag rows when
// the plan has no folds.
func (ev *evaluator) score(cfg Configuration, f int) (float64, error) {
	if ev.folds == nil {
		return ev.scoreOOB(cfg)
	}

	fd := ev.folds[f]
	est, err := ev.fit(cfg, fd.XTrain, fd.yTrain, f, log.OperationFit)
	if err != nil {
		return 0, err
	}

	var pred mat.Matrix
	if err := errors.SafeExecute(ev.family.Name+".Predict", func() error {
		var perr error
		pred, perr = est.Predict(fd.XTest)
		return perr
	}); err != nil {
		return 0, errors.NewModelFitError(log.OperationPredict, cfg.String(), cfg.Map(), f, err)
	}

	score, err := ev.scorer.Score(fd.yTest, pred)
	if err != nil {
		return 0, errors.NewModelFitError(log.OperationScore, cfg.String(), cfg.Map(), f, err)
	}
	return score, nil
}

func (ev *evaluator) scoreOOB(cfg Configuration) (float64, error) {
	est, err := ev.fit(cfg, ev.X, ev.y, -1, log.OperationFit)
	if err != nil {
		return 0, err
	}
	oobEst, ok := est.(model.OOBEstimator)
	if !ok {
		return 0, errors.NewModelFitError("oob", cfg.String(), cfg.Map(), -1,
			errors.NewUnsupportedResamplingError(ev.family.Name, "oob"))
	}

	pred, mask, err := oobEst.OOBPrediction()
	if err != nil {
		return 0, errors.NewModelFitError("oob", cfg.String(), cfg.Map(), -1, err)
	}
	yOOB, predOOB := maskRows(ev.y, pred, mask)
	if yOOB == nil {
		return 0, errors.NewModelFitError("oob", cfg.String(), cfg.Map(), -1,
			errors.NewValueError("OOBPrediction", "no training row has an out-of-bag prediction; increase n_estimators"))
	}

	score, err := ev.scorer.Score(yOOB, predOOB)
	if err != nil {
		return 0, errors.NewModelFitError(log.OperationScore, cfg.String(), cfg.Map(), -1, err)
	}
	return score, nil
}

// fit builds and fits a fresh estimator. Panics inside the estimator are
// reported as errors.
func (ev *evaluator) fit(cfg Configuration, X, y mat.Matrix, fold int, op string) (model.Estimator, error) {
	var est model.Estimator
	err := errors.SafeExecute(ev.family.Name+".New", func() error {
		var nerr error
		est, nerr = ev.family.New(cfg)
		return nerr
	})
	if err != nil {
		return nil, errors.NewModelFitError("build", cfg.String(), cfg.Map(), fold, err)
	}

	if err := errors.SafeExecute(ev.family.Name+".Fit", func() error {
		return est.Fit(X, y)
	}); err != nil {
		return nil, errors.NewModelFitError(op, cfg.String(), cfg.Map(), fold, err)
	}
	return est, nil
}

// extractSubset copies the given rows of X and y.
func extractSubset(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.Dense) {
	_, xCols := X.Dims()
	xSubset := mat.NewDense(len(indices), xCols, nil)
	ySubset := mat.NewDense(len(indices), 1, nil)
	for i, idx := range indices {
		for j := 0; j < xCols; j++ {
			xSubset.Set(i, j, X.At(idx, j))
		}
		ySubset.Set(i, 0, y.At(idx, 0))
	}
	return xSubset, ySubset
}

// maskRows keeps the rows of y and pred whose mask entry is true. It
// returns nils when no row is kept.
func maskRows(y, pred mat.Matrix, mask []bool) (*mat.Dense, *mat.Dense) {
	var idx []int
	for i, ok := range mask {
		if ok {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil, nil
	}
	yOut := mat.NewDense(len(idx), 1, nil)
	pOut := mat.NewDense(len(idx), 1, nil)
	for k, i := range idx {
		yOut.Set(k, 0, y.At(i, 0))
		pOut.Set(k, 0, pred.At(i, 0))
	}
	return yOut, pOut
}
