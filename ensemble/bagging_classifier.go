package ensemble

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/statlearn/core/model"
	"github.com/YuminosukeSato/statlearn/core/parallel"
	"github.com/YuminosukeSato/statlearn/model_selection"
	"github.com/YuminosukeSato/statlearn/pkg/errors"
	"github.com/YuminosukeSato/statlearn/pkg/log"
	"github.com/YuminosukeSato/statlearn/tree"
)

// BaggingClassifier combines unpruned classification trees by majority vote,
// each tree grown on its own bootstrap sample. Vote ties resolve to the
// lowest class label. Out-of-bag error is the misclassification rate of the
// OOB votes.
type BaggingClassifier struct {
	state *model.StateManager
	ensembleParams

	subsetDefault func(p int) int

	trees_     []*tree.DecisionTreeClassifier
	oobSets_   [][]int
	oobError_  float64
	nNeverOOB_ int
	classes_   []int
	nClasses_  int
	nFeatures_ int
	nSamples_  int
}

// NewBaggingClassifier creates a bagging classifier with Gini base trees.
func NewBaggingClassifier(options ...Option) *BaggingClassifier {
	bc := &BaggingClassifier{
		state:          model.NewStateManager(),
		ensembleParams: defaultEnsembleParams(),
	}
	for _, opt := range options {
		opt(&bc.ensembleParams)
	}
	return bc
}

// Fit grows nEstimators trees on bootstrap samples of (X, y), in parallel,
// then computes the out-of-bag misclassification rate.
func (bc *BaggingClassifier) Fit(X, y mat.Matrix) error {
	rows, cols, err := validateEnsembleInput(X, y)
	if err != nil {
		return err
	}
	if err := bc.ensembleParams.validate(); err != nil {
		return err
	}
	subset, err := bc.effectiveSubsetSize(cols)
	if err != nil {
		return err
	}

	classes, err := collectClasses(y, rows)
	if err != nil {
		return err
	}
	bc.classes_ = classes
	bc.nClasses_ = len(classes)
	bc.nFeatures_ = cols
	bc.nSamples_ = rows
	bc.trees_ = make([]*tree.DecisionTreeClassifier, bc.nEstimators)
	bc.oobSets_ = make([][]int, bc.nEstimators)

	treeErrs := make([]error, bc.nEstimators)
	parallel.ForEach(bc.nEstimators, func(b int) {
		treeErrs[b] = bc.fitTree(X, y, b, subset)
	})
	for _, terr := range treeErrs {
		if terr != nil {
			return terr
		}
	}

	bc.computeOOB(X, y)

	bc.state.SetFitted()
	bc.state.SetDimensions(cols, rows)
	return nil
}

func (bc *BaggingClassifier) fitTree(X, y mat.Matrix, b, subset int) error {
	indices, oob, err := model_selection.BootstrapSample(bc.nSamples_, bc.treeSeed(b))
	if err != nil {
		return err
	}
	sampleX, sampleY := model_selection.Subset(X, y, indices)

	t := tree.NewDecisionTreeClassifier(
		tree.WithCriterion(bc.criterion),
		tree.WithMaxDepth(bc.maxDepth),
		tree.WithMinSamplesSplit(bc.minSamplesSplit),
		tree.WithMinSamplesLeaf(bc.minSamplesLeaf),
		tree.WithMaxFeatures(subset),
		tree.WithSeed(bc.treeSeed(b)),
	)
	if err := t.Fit(sampleX, sampleY); err != nil {
		return err
	}

	bc.trees_[b] = t
	bc.oobSets_[b] = oob
	return nil
}

// computeOOB tallies, per observation, the votes of the trees that never saw
// it, and records the misclassification rate of the plurality votes.
func (bc *BaggingClassifier) computeOOB(X, y mat.Matrix) {
	votes := make([]map[int]int, bc.nSamples_)

	for b, t := range bc.trees_ {
		if len(bc.oobSets_[b]) == 0 {
			continue
		}
		oobX, _ := model_selection.Subset(X, y, bc.oobSets_[b])
		pred, err := t.Predict(oobX)
		if err != nil {
			continue
		}
		for k, i := range bc.oobSets_[b] {
			if votes[i] == nil {
				votes[i] = make(map[int]int)
			}
			votes[i][int(pred.At(k, 0))]++
		}
	}

	wrong := 0
	scored := 0
	for i := 0; i < bc.nSamples_; i++ {
		if votes[i] == nil {
			bc.nNeverOOB_++
			continue
		}
		if pluralityVote(votes[i]) != int(y.At(i, 0)) {
			wrong++
		}
		scored++
	}

	if scored == 0 {
		bc.oobError_ = math.NaN()
	} else {
		bc.oobError_ = float64(wrong) / float64(scored)
	}

	if bc.nNeverOOB_ > 0 {
		log.GetLoggerWithName("ensemble.bagging").Warn(
			"observations never out-of-bag are excluded from the OOB error",
			"count", bc.nNeverOOB_, "n_estimators", bc.nEstimators)
	}
}

// Predict returns the majority-vote class for each row as an n×1 matrix.
func (bc *BaggingClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !bc.state.IsFitted() {
		return nil, errors.NewNotFittedError("BaggingClassifier", "Predict")
	}
	rows, cols := X.Dims()
	if cols != bc.nFeatures_ {
		return nil, errors.NewDimensionError("BaggingClassifier.Predict", bc.nFeatures_, cols, 1)
	}

	votes := make([]map[int]int, rows)
	for i := range votes {
		votes[i] = make(map[int]int)
	}
	for _, t := range bc.trees_ {
		pred, err := t.Predict(X)
		if err != nil {
			return nil, err
		}
		for i := 0; i < rows; i++ {
			votes[i][int(pred.At(i, 0))]++
		}
	}

	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		out.Set(i, 0, float64(pluralityVote(votes[i])))
	}
	return out, nil
}

// PredictProba returns the vote-share probability matrix (n × nClasses);
// column k corresponds to Classes()[k].
func (bc *BaggingClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !bc.state.IsFitted() {
		return nil, errors.NewNotFittedError("BaggingClassifier", "PredictProba")
	}
	rows, cols := X.Dims()
	if cols != bc.nFeatures_ {
		return nil, errors.NewDimensionError("BaggingClassifier.PredictProba", bc.nFeatures_, cols, 1)
	}

	col := make(map[int]int, bc.nClasses_)
	for k, label := range bc.classes_ {
		col[label] = k
	}

	probas := mat.NewDense(rows, bc.nClasses_, nil)
	for _, t := range bc.trees_ {
		pred, err := t.Predict(X)
		if err != nil {
			return nil, err
		}
		for i := 0; i < rows; i++ {
			k := col[int(pred.At(i, 0))]
			probas.Set(i, k, probas.At(i, k)+1)
		}
	}

	nTrees := float64(len(bc.trees_))
	for i := 0; i < rows; i++ {
		for k := 0; k < bc.nClasses_; k++ {
			probas.Set(i, k, probas.At(i, k)/nTrees)
		}
	}
	return probas, nil
}

// Score returns the accuracy on X against y, or NaN when prediction fails.
func (bc *BaggingClassifier) Score(X, y mat.Matrix) float64 {
	pred, err := bc.Predict(X)
	if err != nil {
		return math.NaN()
	}
	rows, _ := y.Dims()
	correct := 0
	for i := 0; i < rows; i++ {
		if pred.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(rows)
}

// Classes returns the sorted class labels seen during fitting.
func (bc *BaggingClassifier) Classes() []int {
	return append([]int(nil), bc.classes_...)
}

// OOBError returns the out-of-bag misclassification rate recorded during
// fitting; NaN if no observation was ever out-of-bag.
func (bc *BaggingClassifier) OOBError() float64 {
	return bc.oobError_
}

// NumNeverOOB returns how many training observations were in every bootstrap
// sample and therefore excluded from the OOB error.
func (bc *BaggingClassifier) NumNeverOOB() int {
	return bc.nNeverOOB_
}

// GetFeatureImportances returns the tree-averaged normalized importances, or
// nil before fitting.
func (bc *BaggingClassifier) GetFeatureImportances() []float64 {
	if !bc.state.IsFitted() {
		return nil
	}
	perTree := make([][]float64, 0, len(bc.trees_))
	for _, t := range bc.trees_ {
		perTree = append(perTree, t.GetFeatureImportances())
	}
	return aggregateImportances(perTree, bc.nFeatures_)
}

// NumTrees returns the number of fitted trees.
func (bc *BaggingClassifier) NumTrees() int {
	return len(bc.trees_)
}

// IsFitted returns whether the model has been fitted.
func (bc *BaggingClassifier) IsFitted() bool {
	return bc.state.IsFitted()
}

// GetParams returns the model's hyperparameters.
func (bc *BaggingClassifier) GetParams() map[string]interface{} {
	return bc.ensembleParams.getParams()
}

// SetParams sets the model's hyperparameters.
func (bc *BaggingClassifier) SetParams(params map[string]interface{}) error {
	return bc.ensembleParams.setParams(params)
}

// String returns the string representation of the model.
func (bc *BaggingClassifier) String() string {
	if !bc.state.IsFitted() {
		return fmt.Sprintf("BaggingClassifier(n_estimators=%d)", bc.nEstimators)
	}
	return fmt.Sprintf("BaggingClassifier(n_estimators=%d, n_classes=%d, oob_error=%.6g)",
		bc.nEstimators, bc.nClasses_, bc.oobError_)
}

func (bc *BaggingClassifier) effectiveSubsetSize(p int) (int, error) {
	m := bc.maxFeatures
	if m == 0 && bc.subsetDefault != nil {
		m = bc.subsetDefault(p)
	}
	if m != 0 && (m < 1 || m > p) {
		return 0, errors.NewValidationError("max_features",
			"feature subset size must be in [1, n_features]", m)
	}
	return m, nil
}

// pluralityVote returns the label with the most votes, lowest label on ties.
func pluralityVote(votes map[int]int) int {
	best := -1
	bestCount := -1
	for label, count := range votes {
		if count > bestCount || (count == bestCount && label < best) {
			best = label
			bestCount = count
		}
	}
	return best
}

// collectClasses gathers the sorted distinct integer labels of y.
func collectClasses(y mat.Matrix, rows int) ([]int, error) {
	seen := make(map[int]bool)
	for i := 0; i < rows; i++ {
		v := y.At(i, 0)
		if v != math.Trunc(v) || v < 0 {
			return nil, errors.NewValueError("ensemble.Fit",
				"class labels must be non-negative integers")
		}
		seen[int(v)] = true
	}
	classes := make([]int, 0, len(seen))
	for label := range seen {
		classes = append(classes, label)
	}
	sort.Ints(classes)
	return classes, nil
}
