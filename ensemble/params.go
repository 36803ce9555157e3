// Package ensemble implements tree ensembles: bootstrap aggregation with
// out-of-bag error tracking, random forests with per-node feature subsets,
// and gradient boosting with shrinkage. Bagged trees grow in parallel;
// boosting stages run strictly in sequence because each stage fits the
// previous stage's residuals.
package ensemble

import (
	"math"

	"github.com/YuminosukeSato/statlearn/pkg/errors"
)

// ensembleParams are the hyperparameters shared across ensemble estimators.
// Not every field applies to every estimator: shrinkage and interactionDepth
// belong to boosting, maxFeatures to bagged trees and forests.
type ensembleParams struct {
	nEstimators      int
	maxDepth         int
	minSamplesSplit  int
	minSamplesLeaf   int
	maxFeatures      int
	seed             int64
	shrinkage        float64
	interactionDepth int
	criterion        string
}

func defaultEnsembleParams() ensembleParams {
	return ensembleParams{
		nEstimators:      100,
		maxDepth:         0, // unlimited
		minSamplesSplit:  2,
		minSamplesLeaf:   1,
		maxFeatures:      0, // estimator-specific default
		seed:             0,
		shrinkage:        0.1,
		interactionDepth: 3,
		criterion:        "gini",
	}
}

// Option configures an ensemble estimator.
type Option func(*ensembleParams)

// WithNEstimators sets the number of trees (bootstrap replicates or boosting
// stages).
func WithNEstimators(n int) Option {
	return func(p *ensembleParams) {
		p.nEstimators = n
	}
}

// WithMaxDepth limits the depth of each tree; 0 means unlimited.
func WithMaxDepth(depth int) Option {
	return func(p *ensembleParams) {
		p.maxDepth = depth
	}
}

// WithMinSamplesSplit sets the smallest node size still eligible for a split.
func WithMinSamplesSplit(n int) Option {
	return func(p *ensembleParams) {
		p.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the smallest child size a split may produce.
func WithMinSamplesLeaf(n int) Option {
	return func(p *ensembleParams) {
		p.minSamplesLeaf = n
	}
}

// WithMaxFeatures sets the per-node feature subset size; 0 selects the
// estimator's default (all features for bagging, p/3 or ⌈√p⌉ for forests).
func WithMaxFeatures(m int) Option {
	return func(p *ensembleParams) {
		p.maxFeatures = m
	}
}

// WithSeed seeds the bootstrap and feature-subset samplers; per-tree seeds
// are derived from it.
func WithSeed(seed int64) Option {
	return func(p *ensembleParams) {
		p.seed = seed
	}
}

// WithShrinkage sets the boosting learning rate in [0, 1].
func WithShrinkage(shrinkage float64) Option {
	return func(p *ensembleParams) {
		p.shrinkage = shrinkage
	}
}

// WithInteractionDepth sets the depth of each boosting tree.
func WithInteractionDepth(depth int) Option {
	return func(p *ensembleParams) {
		p.interactionDepth = depth
	}
}

// WithCriterion sets the classification impurity for the base trees.
func WithCriterion(criterion string) Option {
	return func(p *ensembleParams) {
		p.criterion = criterion
	}
}

func (p *ensembleParams) validate() error {
	if p.nEstimators < 1 {
		return errors.NewValidationError("n_estimators", "need at least 1 tree", p.nEstimators)
	}
	if p.shrinkage < 0 || p.shrinkage > 1 {
		return errors.NewValidationError("shrinkage", "must be in [0, 1]", p.shrinkage)
	}
	if p.interactionDepth < 1 {
		return errors.NewValidationError("interaction_depth", "must be at least 1", p.interactionDepth)
	}
	return nil
}

// treeSeed derives a deterministic per-tree seed from the base seed.
func (p *ensembleParams) treeSeed(b int) int64 {
	return p.seed + int64(b)
}

// getParams returns the hyperparameter map shared by all ensembles.
func (p *ensembleParams) getParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      p.nEstimators,
		"max_depth":         p.maxDepth,
		"min_samples_split": p.minSamplesSplit,
		"min_samples_leaf":  p.minSamplesLeaf,
		"max_features":      p.maxFeatures,
		"seed":              p.seed,
		"shrinkage":         p.shrinkage,
		"interaction_depth": p.interactionDepth,
		"criterion":         p.criterion,
	}
}

func (p *ensembleParams) setParams(params map[string]interface{}) error {
	if v, ok := params["n_estimators"].(int); ok {
		p.nEstimators = v
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
	if v, ok := params["max_features"].(int); ok {
		p.maxFeatures = v
	}
	if v, ok := params["seed"].(int64); ok {
		p.seed = v
	}
	if v, ok := params["shrinkage"].(float64); ok {
		p.shrinkage = v
	}
	if v, ok := params["interaction_depth"].(int); ok {
		p.interactionDepth = v
	}
	if v, ok := params["criterion"].(string); ok {
		p.criterion = v
	}
	return nil
}

// regressionSubsetSize is the random forest default m = p/3, at least 1.
func regressionSubsetSize(p int) int {
	m := p / 3
	if m < 1 {
		m = 1
	}
	return m
}

// classificationSubsetSize is the random forest default m = ⌈√p⌉.
func classificationSubsetSize(p int) int {
	return int(math.Ceil(math.Sqrt(float64(p))))
}

// aggregateImportances averages the per-tree normalized importances and
// renormalizes to sum to 1.
func aggregateImportances(perTree [][]float64, nFeatures int) []float64 {
	importances := make([]float64, nFeatures)
	for _, imp := range perTree {
		for j, v := range imp {
			importances[j] += v
		}
	}
	total := 0.0
	for _, v := range importances {
		total += v
	}
	if total > 0 {
		for j := range importances {
			importances[j] /= total
		}
	}
	return importances
}
