package model_selection

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/scigo-ensemble/core/model"
	"github.com/YuminosukeSato/scigo-ensemble/metrics"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/log"
)

// Option configures a tuning run.
type Option func(*settings)

type settings struct {
	nJobs            int
	logger           log.Logger
	returnFoldScores bool
	refit            bool
}

func defaultSettings() settings {
	return settings{nJobs: 1, refit: true}
}

func (s *settings) workers() int {
	if s.nJobs <= 0 {
		return runtime.NumCPU()
	}
	return s.nJobs
}

// WithNJobs sets how many fits run concurrently. n <= 0 uses every CPU.
// The leaderboard does not depend on n.
func WithNJobs(n int) Option {
	return func(s *settings) { s.nJobs = n }
}

// WithLogger sets the logger for run progress.
func WithLogger(l log.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithReturnFoldScores keeps the per-fold scores on every leaderboard entry.
func WithReturnFoldScores(keep bool) Option {
	return func(s *settings) { s.returnFoldScores = keep }
}

// WithRefit controls whether the best configuration is refitted on the
// full training set (default true).
func WithRefit(refit bool) Option {
	return func(s *settings) { s.refit = refit }
}

// Tune evaluates every configuration of grid with plan and scorer, picks
// the best one and refits it on X, y.
//
// The grid, the family and the resampling plan are checked before any
// model is fitted. A failing fit, predict or score step aborts the run with
// a *errors.ModelFitError naming the configuration and fold. When ctx is
// cancelled, configurations that have not finished are dropped and the
// partial result is returned together with an error wrapping
// errors.ErrTuningCancelled.
func Tune(ctx context.Context, X, y mat.Matrix, family Family, grid ParamGrid, plan Plan, scorer metrics.Scorer, opts ...Option) (*Result, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if plan.IsOOB() && !family.SupportsOOB {
		return nil, errors.NewUnsupportedResamplingError(family.Name, plan.String())
	}
	if err := checkFamily(family, scorer); err != nil {
		return nil, err
	}
	if !plan.IsOOB() && plan.Splitter() == nil {
		return nil, errors.NewValidationError("resampling", "plan has neither a splitter nor out-of-bag scoring", plan.String())
	}
	if err := checkData("Tune", X, y); err != nil {
		return nil, err
	}

	ev, err := newEvaluator(X, y, family, plan, scorer)
	if err != nil {
		return nil, err
	}

	configs := grid.Configurations()
	per := ev.tasksPerConfig()
	res := &Result{
		RunID:      uuid.NewString(),
		Family:     family.Name,
		Resampling: plan.String(),
		Scorer:     scorer,
		BestIndex:  -1,
	}

	logger := s.logger
	if logger == nil {
		logger = log.GetLoggerWithName("model_selection")
	}
	logger = logger.With(log.RunIDKey, res.RunID, log.ModelNameKey, family.Name)
	logger.Info("Tuning started",
		log.OperationKey, log.OperationTune,
		log.CandidatesKey, len(configs),
		log.ResamplingKey, res.Resampling,
		log.ScorerKey, scorer.Name,
		log.SamplesKey, ev.nSamples(),
		log.WorkersKey, s.workers(),
	)
	start := time.Now()

	raw := make([]float64, len(configs)*per)
	done, err := run(ctx, len(raw), s.workers(), func(i int) error {
		score, err := ev.score(configs[i/per], i%per)
		if err != nil {
			return err
		}
		raw[i] = score
		return nil
	})
	if err != nil {
		fields := []any{err}
		var fitErr *errors.ModelFitError
		if errors.As(err, &fitErr) {
			fields = append(fields, log.ConfigKey, fitErr.Config, log.FoldKey, fitErr.Fold)
		}
		logger.Error("Tuning aborted", fields...)
		return nil, err
	}

	for c, cfg := range configs {
		scores := raw[c*per : (c+1)*per]
		if !allDone(done[c*per : (c+1)*per]) {
			continue
		}
		entry := ScoredConfiguration{Index: c, Config: cfg, Score: stat.Mean(scores, nil)}
		if per > 1 {
			entry.Std = stat.StdDev(scores, nil)
		}
		if s.returnFoldScores && !plan.IsOOB() {
			entry.FoldScores = append([]float64(nil), scores...)
		}
		res.Leaderboard = append(res.Leaderboard, entry)
		logger.Debug("Configuration evaluated",
			log.ConfigIndexKey, c,
			log.ConfigKey, cfg.String(),
			log.ScoreKey, entry.Score,
		)
	}

	res.BestIndex = selectBest(res.Leaderboard, scorer)
	if res.BestIndex >= 0 {
		res.Best = res.Leaderboard[res.BestIndex]
	}

	if len(res.Leaderboard) < len(configs) || (s.refit && ctx.Err() != nil) {
		res.Partial = true
		logger.Warn("Tuning cancelled",
			log.CandidatesKey, len(configs),
			"evaluated", len(res.Leaderboard),
		)
		return res, errors.Wrapf(errors.ErrTuningCancelled, "%d of %d configurations evaluated (%v)",
			len(res.Leaderboard), len(configs), ctx.Err())
	}

	if s.refit {
		est, err := ev.fit(res.Best.Config, X, y, -1, log.OperationRefit)
		if err != nil {
			logger.Error("Refit failed", err, log.ConfigKey, res.Best.Config.String())
			return nil, err
		}
		res.BestModel = est
	}

	logger.Info("Tuning finished",
		log.ConfigKey, res.Best.Config.String(),
		log.ScoreKey, res.Best.Score,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}

// CrossValScore returns the score of a fresh estimator on every fold of splitter.
func CrossValScore(ctx context.Context, newEstimator func() (model.Estimator, error), X, y mat.Matrix, splitter Splitter, scorer metrics.Scorer, opts ...Option) ([]float64, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	if splitter == nil {
		return nil, errors.NewValidationError("cv", "splitter is required", nil)
	}
	if err := checkData("CrossValScore", X, y); err != nil {
		return nil, err
	}

	family := FamilyFunc("estimator", scorer.Task, func(Configuration) (model.Estimator, error) {
		return newEstimator()
	})
	if err := checkFamily(family, scorer); err != nil {
		return nil, err
	}
	ev, err := newEvaluator(X, y, family, CV(splitter), scorer)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(ev.folds))
	done, err := run(ctx, len(scores), s.workers(), func(i int) error {
		score, err := ev.score(nil, i)
		if err != nil {
			return err
		}
		scores[i] = score
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !allDone(done) {
		return nil, errors.Wrapf(errors.ErrTuningCancelled, "cross-validation stopped (%v)", ctx.Err())
	}
	return scores, nil
}

// run executes task(0..n-1) on at most workers goroutines, launching tasks
// in index order. No task is launched after ctx is done or a task has
// failed; a launched task only skips when ctx itself is done, so every task
// below a failing index runs and the lowest failing index is returned.
func run(ctx context.Context, n, workers int, task func(i int) error) ([]bool, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	done := make([]bool, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if err := task(i); err != nil {
				errs[i] = err
				return err
			}
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return done, err
		}
	}
	return done, nil
}

func allDone(done []bool) bool {
	for _, d := range done {
		if !d {
			return false
		}
	}
	return true
}

// selectBest returns the leaderboard position of the best score. Only a
// strict improvement replaces the incumbent, so ties go to the earlier entry.
func selectBest(board []ScoredConfiguration, scorer metrics.Scorer) int {
	best := -1
	for i := range board {
		if best < 0 || scorer.Better(board[i].Score, board[best].Score) {
			best = i
		}
	}
	return best
}

func checkFamily(family Family, scorer metrics.Scorer) error {
	if family.New == nil {
		return errors.NewValidationError("family", "family has no constructor", family.Name)
	}
	if scorer.Score == nil {
		return errors.NewValidationError("scoring", "scorer has no score function", scorer.Name)
	}
	if family.Task != scorer.Task {
		return errors.NewValidationError("scoring",
			"scorer is for "+scorer.Task.String()+" but family "+family.Name+" is "+family.Task.String(),
			scorer.Name)
	}
	return nil
}

func checkData(op string, X, y mat.Matrix) error {
	if X == nil || y == nil {
		return errors.NewValueError(op, "X and y must not be nil")
	}
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if yRows != n {
		return errors.NewDimensionError(op, n, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError(op, "y must be a column vector")
	}
	return nil
}
