package tree

import (
	"github.com/YuminosukeSato/scigo-ensemble/core/model"
	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// params holds the hyperparameters shared by the regressor and the classifier.
type params struct {
	criterion       string  // "gini", "entropy" or "squared_error"
	maxDepth        int     // -1 for unlimited
	minSamplesSplit int     // minimum samples required to split an internal node
	minSamplesLeaf  int     // minimum samples required in each leaf
	maxFeatures     int     // features considered per split, 0 for all
	ccpAlpha        float64 // complexity parameter for minimal cost-complexity pruning
	randomState     int64   // seed for feature subsampling
}

func defaultParams(criterion string) params {
	return params{
		criterion:       criterion,
		maxDepth:        -1,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		maxFeatures:     0,
		ccpAlpha:        0,
		randomState:     0,
	}
}

// Option is a functional option for decision trees.
type Option func(*params)

// WithCriterion sets the split quality measure.
func WithCriterion(criterion string) Option {
	return func(p *params) {
		p.criterion = criterion
	}
}

// WithMaxDepth limits the depth of the tree. A negative value means unlimited.
func WithMaxDepth(depth int) Option {
	return func(p *params) {
		p.maxDepth = depth
	}
}

// WithMinSamplesSplit sets the minimum number of samples needed to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(p *params) {
		p.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum number of samples in each leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(p *params) {
		p.minSamplesLeaf = n
	}
}

// WithMaxFeatures sets how many randomly chosen features are evaluated at
// each split. 0 evaluates every feature.
func WithMaxFeatures(n int) Option {
	return func(p *params) {
		p.maxFeatures = n
	}
}

// WithCCPAlpha sets the cost-complexity pruning parameter.
func WithCCPAlpha(alpha float64) Option {
	return func(p *params) {
		p.ccpAlpha = alpha
	}
}

// WithRandomState sets the seed used for per-split feature subsampling.
func WithRandomState(seed int64) Option {
	return func(p *params) {
		p.randomState = seed
	}
}

// set updates hyperparameters from a name → value map.
func (p *params) set(values map[string]interface{}) error {
	for name, v := range values {
		var err error
		switch name {
		case "criterion":
			p.criterion, err = model.ParamString(name, v)
		case "max_depth":
			p.maxDepth, err = model.ParamInt(name, v)
		case "min_samples_split":
			p.minSamplesSplit, err = model.ParamInt(name, v)
		case "min_samples_leaf":
			p.minSamplesLeaf, err = model.ParamInt(name, v)
		case "max_features":
			p.maxFeatures, err = model.ParamInt(name, v)
		case "ccp_alpha":
			p.ccpAlpha, err = model.ParamFloat(name, v)
		case "random_state":
			var seed int
			seed, err = model.ParamInt(name, v)
			p.randomState = int64(seed)
		default:
			err = errors.NewValidationError(name, "unknown parameter for decision tree", v)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
