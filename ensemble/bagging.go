package ensemble

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/statlearn/core/model"
	"github.com/YuminosukeSato/statlearn/core/parallel"
	"github.com/YuminosukeSato/statlearn/model_selection"
	"github.com/YuminosukeSato/statlearn/pkg/errors"
	"github.com/YuminosukeSato/statlearn/pkg/log"
	"github.com/YuminosukeSato/statlearn/tree"
)

// BaggingRegressor averages unpruned regression trees, each grown on its own
// bootstrap sample. Out-of-bag error is tracked during fitting: every
// observation is scored only by the trees whose bootstrap sample missed it.
type BaggingRegressor struct {
	state *model.StateManager
	ensembleParams

	// subsetDefault, when set, supplies the per-node feature subset size used
	// when WithMaxFeatures is left at 0. Random forests install p/3 here.
	subsetDefault func(p int) int

	trees_      []*tree.DecisionTreeRegressor
	oobSets_    [][]int
	oobError_   float64
	nNeverOOB_  int
	nFeatures_  int
	nSamples_   int
}

// NewBaggingRegressor creates a bagging regressor; trees use every feature at
// every split unless WithMaxFeatures narrows the search.
func NewBaggingRegressor(options ...Option) *BaggingRegressor {
	br := &BaggingRegressor{
		state:          model.NewStateManager(),
		ensembleParams: defaultEnsembleParams(),
	}
	for _, opt := range options {
		opt(&br.ensembleParams)
	}
	return br
}

// Fit grows nEstimators trees on bootstrap samples of (X, y), in parallel,
// then computes the out-of-bag mean squared error.
func (br *BaggingRegressor) Fit(X, y mat.Matrix) error {
	rows, cols, err := validateEnsembleInput(X, y)
	if err != nil {
		return err
	}
	if err := br.ensembleParams.validate(); err != nil {
		return err
	}
	subset, err := br.effectiveSubsetSize(cols)
	if err != nil {
		return err
	}

	br.nFeatures_ = cols
	br.nSamples_ = rows
	br.trees_ = make([]*tree.DecisionTreeRegressor, br.nEstimators)
	br.oobSets_ = make([][]int, br.nEstimators)

	treeErrs := make([]error, br.nEstimators)
	parallel.ForEach(br.nEstimators, func(b int) {
		treeErrs[b] = br.fitTree(X, y, b, subset)
	})
	for _, terr := range treeErrs {
		if terr != nil {
			return terr
		}
	}

	br.computeOOB(X, y)

	br.state.SetFitted()
	br.state.SetDimensions(cols, rows)
	return nil
}

func (br *BaggingRegressor) fitTree(X, y mat.Matrix, b, subset int) error {
	indices, oob, err := model_selection.BootstrapSample(br.nSamples_, br.treeSeed(b))
	if err != nil {
		return err
	}
	sampleX, sampleY := model_selection.Subset(X, y, indices)

	t := tree.NewDecisionTreeRegressor(
		tree.WithMaxDepth(br.maxDepth),
		tree.WithMinSamplesSplit(br.minSamplesSplit),
		tree.WithMinSamplesLeaf(br.minSamplesLeaf),
		tree.WithMaxFeatures(subset),
		tree.WithSeed(br.treeSeed(b)),
	)
	if err := t.Fit(sampleX, sampleY); err != nil {
		return err
	}

	br.trees_[b] = t
	br.oobSets_[b] = oob
	return nil
}

// computeOOB averages, per observation, the predictions of the trees that
// never saw it, and records the mean squared error of those averages.
// Observations no tree missed are skipped and counted in nNeverOOB_.
func (br *BaggingRegressor) computeOOB(X, y mat.Matrix) {
	sums := make([]float64, br.nSamples_)
	counts := make([]int, br.nSamples_)

	for b, t := range br.trees_ {
		if len(br.oobSets_[b]) == 0 {
			continue
		}
		oobX, _ := model_selection.Subset(X, y, br.oobSets_[b])
		pred, err := t.Predict(oobX)
		if err != nil {
			continue
		}
		for k, i := range br.oobSets_[b] {
			sums[i] += pred.At(k, 0)
			counts[i]++
		}
	}

	sse := 0.0
	scored := 0
	for i := 0; i < br.nSamples_; i++ {
		if counts[i] == 0 {
			br.nNeverOOB_++
			continue
		}
		d := y.At(i, 0) - sums[i]/float64(counts[i])
		sse += d * d
		scored++
	}

	if scored == 0 {
		br.oobError_ = math.NaN()
	} else {
		br.oobError_ = sse / float64(scored)
	}

	if br.nNeverOOB_ > 0 {
		log.GetLoggerWithName("ensemble.bagging").Warn(
			"observations never out-of-bag are excluded from the OOB error",
			"count", br.nNeverOOB_, "n_estimators", br.nEstimators)
	}
}

// Predict returns the mean tree prediction for each row as an n×1 matrix.
func (br *BaggingRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !br.state.IsFitted() {
		return nil, errors.NewNotFittedError("BaggingRegressor", "Predict")
	}
	rows, cols := X.Dims()
	if cols != br.nFeatures_ {
		return nil, errors.NewDimensionError("BaggingRegressor.Predict", br.nFeatures_, cols, 1)
	}

	sums := make([]float64, rows)
	for _, t := range br.trees_ {
		pred, err := t.Predict(X)
		if err != nil {
			return nil, err
		}
		for i := 0; i < rows; i++ {
			sums[i] += pred.At(i, 0)
		}
	}

	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		out.Set(i, 0, sums[i]/float64(len(br.trees_)))
	}
	return out, nil
}

// OOBError returns the out-of-bag mean squared error recorded during
// fitting; NaN if no observation was ever out-of-bag.
func (br *BaggingRegressor) OOBError() float64 {
	return br.oobError_
}

// NumNeverOOB returns how many training observations were in every bootstrap
// sample and therefore excluded from the OOB error.
func (br *BaggingRegressor) NumNeverOOB() int {
	return br.nNeverOOB_
}

// GetFeatureImportances returns the tree-averaged normalized importances, or
// nil before fitting.
func (br *BaggingRegressor) GetFeatureImportances() []float64 {
	if !br.state.IsFitted() {
		return nil
	}
	perTree := make([][]float64, 0, len(br.trees_))
	for _, t := range br.trees_ {
		perTree = append(perTree, t.GetFeatureImportances())
	}
	return aggregateImportances(perTree, br.nFeatures_)
}

// NumTrees returns the number of fitted trees.
func (br *BaggingRegressor) NumTrees() int {
	return len(br.trees_)
}

// IsFitted returns whether the model has been fitted.
func (br *BaggingRegressor) IsFitted() bool {
	return br.state.IsFitted()
}

// GetParams returns the model's hyperparameters.
func (br *BaggingRegressor) GetParams() map[string]interface{} {
	return br.ensembleParams.getParams()
}

// SetParams sets the model's hyperparameters.
func (br *BaggingRegressor) SetParams(params map[string]interface{}) error {
	return br.ensembleParams.setParams(params)
}

// String returns the string representation of the model.
func (br *BaggingRegressor) String() string {
	if !br.state.IsFitted() {
		return fmt.Sprintf("BaggingRegressor(n_estimators=%d)", br.nEstimators)
	}
	return fmt.Sprintf("BaggingRegressor(n_estimators=%d, oob_error=%.6g)",
		br.nEstimators, br.oobError_)
}

// effectiveSubsetSize resolves the per-node feature subset size: an explicit
// WithMaxFeatures wins, otherwise the estimator default applies.
func (br *BaggingRegressor) effectiveSubsetSize(p int) (int, error) {
	m := br.maxFeatures
	if m == 0 && br.subsetDefault != nil {
		m = br.subsetDefault(p)
	}
	if m != 0 && (m < 1 || m > p) {
		return 0, errors.NewValidationError("max_features",
			"feature subset size must be in [1, n_features]", m)
	}
	return m, nil
}

// validateEnsembleInput checks the shapes shared by all ensemble estimators.
func validateEnsembleInput(X, y mat.Matrix) (rows, cols int, err error) {
	rows, cols = X.Dims()
	yRows, yCols := y.Dims()

	if rows < 2 {
		return 0, 0, errors.NewValidationError("n_samples", "need at least 2 observations", rows)
	}
	if cols < 1 {
		return 0, 0, errors.NewValidationError("n_features", "need at least 1 feature", cols)
	}
	if rows != yRows {
		return 0, 0, errors.NewDimensionError("ensemble.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return 0, 0, errors.NewDimensionError("ensemble.Fit", 1, yCols, 1)
	}
	return rows, cols, nil
}
