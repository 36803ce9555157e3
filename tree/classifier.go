package tree

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/statlearn/core/model"
	"github.com/YuminosukeSato/statlearn/pkg/errors"
)

// DecisionTreeClassifier is a CART classification tree. Labels must be
// non-negative integers; prediction returns the plurality class of the leaf,
// PredictProba its class-frequency vector.
type DecisionTreeClassifier struct {
	state *model.StateManager
	treeParams

	tree_      *tree
	classes_   []int
	nClasses_  int
	nFeatures_ int
	nSamples_  int
}

// NewDecisionTreeClassifier creates a classification tree with Gini impurity
// and no depth limit by default.
func NewDecisionTreeClassifier(options ...Option) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:      model.NewStateManager(),
		treeParams: defaultTreeParams(),
	}
	for _, opt := range options {
		opt(&dt.treeParams)
	}
	return dt
}

// Fit grows the tree on X and integer labels y (n×1).
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	rows, cols, err := validateTreeInput(X, y)
	if err != nil {
		return err
	}
	if err := dt.treeParams.validate(cols); err != nil {
		return err
	}
	if dt.criterion != "gini" && dt.criterion != "entropy" {
		return errors.NewValidationError("criterion",
			`must be "gini" or "entropy"`, dt.criterion)
	}

	classes, targets, err := encodeLabels(y, rows)
	if err != nil {
		return err
	}
	dt.classes_ = classes
	dt.nClasses_ = len(classes)
	dt.nFeatures_ = cols
	dt.nSamples_ = rows

	g := &grower{
		crit:                newClassificationCriterion(dt.nClasses_, dt.criterion == "entropy"),
		maxDepth:            dt.maxDepth,
		minSamplesSplit:     dt.minSamplesSplit,
		minSamplesLeaf:      dt.minSamplesLeaf,
		minImpurityDecrease: dt.minImpurityDecrease,
		maxFeatures:         dt.maxFeatures,
		rng:                 dt.newRNG(),
		nTotal:              rows,
	}

	indices := make([]int, rows)
	for i := range indices {
		indices[i] = i
	}

	dt.tree_ = &tree{nFeatures: cols}
	g.grow(dt.tree_, X, targets, indices, 0)

	dt.state.SetFitted()
	dt.state.SetDimensions(cols, rows)
	return nil
}

// Predict returns the predicted class label for each row as an n×1 matrix.
// A tied leaf predicts the lowest class label.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.checkPredictInput(X); err != nil {
		return nil, err
	}

	rows, _ := X.Dims()
	predictions := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		value := dt.tree_.predictRow(X, i)
		best := 0
		for k := 1; k < len(value); k++ {
			if value[k] > value[best] {
				best = k
			}
		}
		predictions.Set(i, 0, float64(dt.classes_[best]))
	}
	return predictions, nil
}

// PredictProba returns the per-class probability matrix (n × nClasses);
// column k corresponds to Classes()[k].
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.checkPredictInput(X); err != nil {
		return nil, err
	}

	rows, _ := X.Dims()
	probas := mat.NewDense(rows, dt.nClasses_, nil)
	for i := 0; i < rows; i++ {
		value := dt.tree_.predictRow(X, i)
		for k := 0; k < dt.nClasses_; k++ {
			probas.Set(i, k, value[k])
		}
	}
	return probas, nil
}

// Score returns the accuracy on X against the true labels y, or NaN when
// prediction fails.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) float64 {
	predictions, err := dt.Predict(X)
	if err != nil {
		return math.NaN()
	}

	rows, _ := y.Dims()
	correct := 0
	for i := 0; i < rows; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(rows)
}

// Classes returns the sorted class labels seen during fitting.
func (dt *DecisionTreeClassifier) Classes() []int {
	return append([]int(nil), dt.classes_...)
}

// GetFeatureImportances returns the normalized impurity-decrease importance
// of each feature, or nil before fitting.
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	if !dt.state.IsFitted() {
		return nil
	}
	return dt.tree_.featureImportances()
}

// GetDepth returns the depth of the fitted tree.
func (dt *DecisionTreeClassifier) GetDepth() int {
	if !dt.state.IsFitted() {
		return 0
	}
	return dt.tree_.depth()
}

// GetNLeaves returns the number of leaves of the fitted tree.
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	if !dt.state.IsFitted() {
		return 0
	}
	return dt.tree_.nLeaves()
}

// IsFitted returns whether the model has been fitted.
func (dt *DecisionTreeClassifier) IsFitted() bool {
	return dt.state.IsFitted()
}

// GetParams returns the model's hyperparameters.
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return dt.treeParams.getParams()
}

// SetParams sets the model's hyperparameters.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	return dt.treeParams.setParams(params)
}

// String returns the string representation of the model.
func (dt *DecisionTreeClassifier) String() string {
	if !dt.state.IsFitted() {
		return fmt.Sprintf("DecisionTreeClassifier(criterion=%s, max_depth=%d)",
			dt.criterion, dt.maxDepth)
	}
	return fmt.Sprintf("DecisionTreeClassifier(criterion=%s, n_classes=%d, depth=%d, leaves=%d)",
		dt.criterion, dt.nClasses_, dt.GetDepth(), dt.GetNLeaves())
}

func (dt *DecisionTreeClassifier) checkPredictInput(X mat.Matrix) error {
	if !dt.state.IsFitted() {
		return errors.NewNotFittedError("DecisionTreeClassifier", "Predict")
	}
	_, cols := X.Dims()
	if cols != dt.nFeatures_ {
		return errors.NewDimensionError("DecisionTreeClassifier.Predict", dt.nFeatures_, cols, 1)
	}
	return nil
}

// clone returns an unfitted copy with the same hyperparameters.
func (dt *DecisionTreeClassifier) clone() *DecisionTreeClassifier {
	c := &DecisionTreeClassifier{
		state:      model.NewStateManager(),
		treeParams: dt.treeParams,
	}
	return c
}

// validateTreeInput checks the shapes shared by both tree estimators. A
// single observation is allowed and produces a single-leaf tree.
func validateTreeInput(X, y mat.Matrix) (rows, cols int, err error) {
	rows, cols = X.Dims()
	yRows, yCols := y.Dims()

	if rows < 1 {
		return 0, 0, errors.NewValidationError("n_samples", "need at least 1 observation", rows)
	}
	if cols < 1 {
		return 0, 0, errors.NewValidationError("n_features", "need at least 1 feature", cols)
	}
	if rows != yRows {
		return 0, 0, errors.NewDimensionError("tree.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return 0, 0, errors.NewDimensionError("tree.Fit", 1, yCols, 1)
	}
	return rows, cols, nil
}

// encodeLabels maps the integer labels in y to class indices 0..K-1 over the
// sorted distinct labels, returning the sorted labels and the encoded target
// slice indexed by row.
func encodeLabels(y mat.Matrix, rows int) ([]int, []float64, error) {
	seen := make(map[int]bool)
	for i := 0; i < rows; i++ {
		v := y.At(i, 0)
		if v != math.Trunc(v) || v < 0 {
			return nil, nil, errors.NewValueError("tree.Fit",
				"class labels must be non-negative integers")
		}
		seen[int(v)] = true
	}

	classes := make([]int, 0, len(seen))
	for label := range seen {
		classes = append(classes, label)
	}
	sort.Ints(classes)

	index := make(map[int]int, len(classes))
	for k, label := range classes {
		index[label] = k
	}

	targets := make([]float64, rows)
	for i := 0; i < rows; i++ {
		targets[i] = float64(index[int(y.At(i, 0))])
	}
	return classes, targets, nil
}
