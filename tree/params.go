package tree

import (
	"math/rand/v2"

	"github.com/YuminosukeSato/statlearn/pkg/errors"
)

// treeParams are the growth hyperparameters shared by the classifier and the
// regressor. Both estimators embed it, so one Option type configures either.
type treeParams struct {
	criterion           string
	maxDepth            int
	minSamplesSplit     int
	minSamplesLeaf      int
	minImpurityDecrease float64
	maxFeatures         int
	seed                int64
}

func defaultTreeParams() treeParams {
	return treeParams{
		criterion:           "gini",
		maxDepth:            0, // unlimited
		minSamplesSplit:     2,
		minSamplesLeaf:      1,
		minImpurityDecrease: 0,
		maxFeatures:         0, // all features
		seed:                0,
	}
}

// Option configures a decision tree.
type Option func(*treeParams)

// WithCriterion sets the classification impurity: "gini" or "entropy".
// Regression trees always split on squared deviation and ignore it.
func WithCriterion(criterion string) Option {
	return func(p *treeParams) {
		p.criterion = criterion
	}
}

// WithMaxDepth limits tree depth; 0 means unlimited.
func WithMaxDepth(depth int) Option {
	return func(p *treeParams) {
		p.maxDepth = depth
	}
}

// WithMinSamplesSplit sets the smallest node size still eligible for a split.
func WithMinSamplesSplit(n int) Option {
	return func(p *treeParams) {
		p.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the smallest child size a split may produce.
func WithMinSamplesLeaf(n int) Option {
	return func(p *treeParams) {
		p.minSamplesLeaf = n
	}
}

// WithMinImpurityDecrease sets the smallest normalized gain worth splitting
// for.
func WithMinImpurityDecrease(d float64) Option {
	return func(p *treeParams) {
		p.minImpurityDecrease = d
	}
}

// WithMaxFeatures restricts each node's split search to a random subset of m
// features, redrawn at every node; 0 restores the full search.
func WithMaxFeatures(m int) Option {
	return func(p *treeParams) {
		p.maxFeatures = m
	}
}

// WithSeed seeds the feature-subset sampler, making randomized trees
// reproducible.
func WithSeed(seed int64) Option {
	return func(p *treeParams) {
		p.seed = seed
	}
}

// validate checks the parameter ranges that do not depend on data, plus the
// feature-subset size against the actual feature count.
func (p *treeParams) validate(nFeatures int) error {
	if p.maxDepth < 0 {
		return errors.NewValidationError("max_depth", "must be non-negative (0 = unlimited)", p.maxDepth)
	}
	if p.minSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be at least 2", p.minSamplesSplit)
	}
	if p.minSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", p.minSamplesLeaf)
	}
	if p.minImpurityDecrease < 0 {
		return errors.NewValidationError("min_impurity_decrease", "must be non-negative", p.minImpurityDecrease)
	}
	if p.maxFeatures != 0 && (p.maxFeatures < 1 || p.maxFeatures > nFeatures) {
		return errors.NewValidationError("max_features",
			"feature subset size must be in [1, n_features]", p.maxFeatures)
	}
	return nil
}

func (p *treeParams) newRNG() *rand.Rand {
	return rand.New(rand.NewPCG(uint64(p.seed), uint64(p.seed)))
}

func (p *treeParams) getParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":             p.criterion,
		"max_depth":             p.maxDepth,
		"min_samples_split":     p.minSamplesSplit,
		"min_samples_leaf":      p.minSamplesLeaf,
		"min_impurity_decrease": p.minImpurityDecrease,
		"max_features":          p.maxFeatures,
		"seed":                  p.seed,
	}
}

func (p *treeParams) setParams(params map[string]interface{}) error {
	if v, ok := params["criterion"].(string); ok {
		p.criterion = v
	}
	if v, ok := params["max_depth"].(int); ok {
		p.maxDepth = v
	}
	if v, ok := params["min_samples_split"].(int); ok {
		p.minSamplesSplit = v
	}
	if v, ok := params["min_samples_leaf"].(int); ok {
		p.minSamplesLeaf = v
	}
	if v, ok := params["min_impurity_decrease"].(float64); ok {
		p.minImpurityDecrease = v
	}
	if v, ok := params["max_features"].(int); ok {
		p.maxFeatures = v
	}
	if v, ok := params["seed"].(int64); ok {
		p.seed = v
	}
	return nil
}
