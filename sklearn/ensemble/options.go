package ensemble

import (
	"github.com/YuminosukeSato/scigo-ensemble/core/model"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// maxFeaturesAuto selects p/3 features for regression and √p for
// classification, at least one.
const maxFeaturesAuto = -1

// params holds the hyperparameters of every ensemble in this package.
// Each model reads the subset that applies to it.
type params struct {
	nEstimators     int     // number of trees
	maxFeatures     int     // features tried per split: -1 auto, 0 all
	maxDepth        int     // per-tree depth limit, -1 unlimited
	minSamplesSplit int     // per-tree minimum samples to split
	minSamplesLeaf  int     // per-tree minimum samples per leaf
	bootstrap       bool    // draw a bootstrap sample per tree
	oobScore        bool    // compute the out-of-bag score after fitting
	randomState     int64   // base seed, tree i uses randomState+i
	nJobs           int     // parallel tree fits, <=0 for one per CPU
	learningRate    float64 // shrinkage applied to each boosting stage
	subsample       float64 // fraction of rows drawn for each boosting stage
}

// Option is a functional option for ensemble models.
type Option func(*params)

// WithNEstimators sets the number of trees (bagging) or stages (boosting).
func WithNEstimators(n int) Option {
	return func(p *params) { p.nEstimators = n }
}

// WithMaxFeatures sets the number of features tried at each split.
// 0 uses every feature, which turns a random forest into bagging.
func WithMaxFeatures(n int) Option {
	return func(p *params) { p.maxFeatures = n }
}

// WithMaxDepth limits the depth of each tree. -1 means unlimited.
func WithMaxDepth(depth int) Option {
	return func(p *params) { p.maxDepth = depth }
}

// WithMinSamplesSplit sets the per-tree minimum samples to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(p *params) { p.minSamplesSplit = n }
}

// WithMinSamplesLeaf sets the per-tree minimum samples per leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(p *params) { p.minSamplesLeaf = n }
}

// WithBootstrap toggles bootstrap sampling of rows for each tree.
func WithBootstrap(bootstrap bool) Option {
	return func(p *params) { p.bootstrap = bootstrap }
}

// WithOOBScore computes the out-of-bag score during Fit.
func WithOOBScore(enabled bool) Option {
	return func(p *params) { p.oobScore = enabled }
}

// WithRandomState sets the base random seed.
func WithRandomState(seed int64) Option {
	return func(p *params) { p.randomState = seed }
}

// WithNJobs sets how many trees are fitted concurrently.
func WithNJobs(n int) Option {
	return func(p *params) { p.nJobs = n }
}

// WithLearningRate sets the boosting shrinkage.
func WithLearningRate(rate float64) Option {
	return func(p *params) { p.learningRate = rate }
}

// WithSubsample sets the fraction of rows used by each boosting stage.
func WithSubsample(fraction float64) Option {
	return func(p *params) { p.subsample = fraction }
}

func (p *params) getForest() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      p.nEstimators,
		"max_features":      p.maxFeatures,
		"max_depth":         p.maxDepth,
		"min_samples_split": p.minSamplesSplit,
		"min_samples_leaf":  p.minSamplesLeaf,
		"bootstrap":         p.bootstrap,
		"oob_score":         p.oobScore,
		"random_state":      p.randomState,
		"n_jobs":            p.nJobs,
	}
}

// forestSettable lists the parameters SetParams accepts on a forest.
// Bagging considers every feature at each split, so max_features is fixed.
func (p *params) forestSettable(bagging bool) map[string]interface{} {
	allowed := p.getForest()
	if bagging {
		delete(allowed, "max_features")
	}
	return allowed
}

func (p *params) getBoosting() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":     p.nEstimators,
		"learning_rate":    p.learningRate,
		"max_depth":        p.maxDepth,
		"min_samples_leaf": p.minSamplesLeaf,
		"subsample":        p.subsample,
		"random_state":     p.randomState,
	}
}

// set updates the parameters named in values. allowed lists the names the
// calling model accepts.
func (p *params) set(modelName string, values map[string]interface{}, allowed map[string]interface{}) error {
	for name, v := range values {
		if _, ok := allowed[name]; !ok {
			return errors.NewValidationError(name, "unknown parameter for "+modelName, v)
		}
		var err error
		switch name {
		case "n_estimators":
			p.nEstimators, err = model.ParamInt(name, v)
		case "max_features":
			p.maxFeatures, err = model.ParamInt(name, v)
		case "max_depth":
			p.maxDepth, err = model.ParamInt(name, v)
		case "min_samples_split":
			p.minSamplesSplit, err = model.ParamInt(name, v)
		case "min_samples_leaf":
			p.minSamplesLeaf, err = model.ParamInt(name, v)
		case "bootstrap":
			p.bootstrap, err = model.ParamBool(name, v)
		case "oob_score":
			p.oobScore, err = model.ParamBool(name, v)
		case "random_state":
			var seed int
			seed, err = model.ParamInt(name, v)
			p.randomState = int64(seed)
		case "n_jobs":
			p.nJobs, err = model.ParamInt(name, v)
		case "learning_rate":
			p.learningRate, err = model.ParamFloat(name, v)
		case "subsample":
			p.subsample, err = model.ParamFloat(name, v)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *params) validate() error {
	if p.nEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", p.nEstimators)
	}
	if p.maxFeatures < maxFeaturesAuto {
		return errors.NewValidationError("max_features", "must be -1 (auto), 0 (all) or positive", p.maxFeatures)
	}
	return nil
}
