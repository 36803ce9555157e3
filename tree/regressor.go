package tree

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/statlearn/core/model"
	"github.com/YuminosukeSato/statlearn/pkg/errors"
)

// DecisionTreeRegressor is a CART regression tree. Splits minimize the sum of
// squared deviations; each leaf predicts the mean response of its training
// observations.
type DecisionTreeRegressor struct {
	state *model.StateManager
	treeParams

	tree_      *tree
	nFeatures_ int
	nSamples_  int
}

// NewDecisionTreeRegressor creates a regression tree with no depth limit by
// default.
func NewDecisionTreeRegressor(options ...Option) *DecisionTreeRegressor {
	dt := &DecisionTreeRegressor{
		state:      model.NewStateManager(),
		treeParams: defaultTreeParams(),
	}
	for _, opt := range options {
		opt(&dt.treeParams)
	}
	return dt
}

// Fit grows the tree on X and continuous responses y (n×1).
func (dt *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	rows, cols, err := validateTreeInput(X, y)
	if err != nil {
		return err
	}
	if err := dt.treeParams.validate(cols); err != nil {
		return err
	}

	targets := make([]float64, rows)
	for i := 0; i < rows; i++ {
		targets[i] = y.At(i, 0)
	}
	dt.nFeatures_ = cols
	dt.nSamples_ = rows

	g := &grower{
		crit:                &regressionCriterion{},
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

// Predict returns the leaf means for the rows of X as an n×1 matrix.
func (dt *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !dt.state.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeRegressor", "Predict")
	}
	rows, cols := X.Dims()
	if cols != dt.nFeatures_ {
		return nil, errors.NewDimensionError("DecisionTreeRegressor.Predict", dt.nFeatures_, cols, 1)
	}

	predictions := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		predictions.Set(i, 0, dt.tree_.predictRow(X, i)[0])
	}
	return predictions, nil
}

// Score returns the coefficient of determination R² on X against y, or NaN
// when prediction fails or y has zero variance.
func (dt *DecisionTreeRegressor) Score(X, y mat.Matrix) float64 {
	predictions, err := dt.Predict(X)
	if err != nil {
		return math.NaN()
	}

	rows, _ := y.Dims()
	yMean := 0.0
	for i := 0; i < rows; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(rows)

	var ssTot, ssRes float64
	for i := 0; i < rows; i++ {
		d := y.At(i, 0) - yMean
		r := y.At(i, 0) - predictions.At(i, 0)
		ssTot += d * d
		ssRes += r * r
	}
	if ssTot == 0 {
		return math.NaN()
	}
	return 1 - ssRes/ssTot
}

// GetFeatureImportances returns the normalized impurity-decrease importance
// of each feature, or nil before fitting.
func (dt *DecisionTreeRegressor) GetFeatureImportances() []float64 {
	if !dt.state.IsFitted() {
		return nil
	}
	return dt.tree_.featureImportances()
}

// GetDepth returns the depth of the fitted tree.
func (dt *DecisionTreeRegressor) GetDepth() int {
	if !dt.state.IsFitted() {
		return 0
	}
	return dt.tree_.depth()
}

// GetNLeaves returns the number of leaves of the fitted tree.
func (dt *DecisionTreeRegressor) GetNLeaves() int {
	if !dt.state.IsFitted() {
		return 0
	}
	return dt.tree_.nLeaves()
}

// IsFitted returns whether the model has been fitted.
func (dt *DecisionTreeRegressor) IsFitted() bool {
	return dt.state.IsFitted()
}

// GetParams returns the model's hyperparameters.
func (dt *DecisionTreeRegressor) GetParams() map[string]interface{} {
	return dt.treeParams.getParams()
}

// SetParams sets the model's hyperparameters.
func (dt *DecisionTreeRegressor) SetParams(params map[string]interface{}) error {
	return dt.treeParams.setParams(params)
}

// String returns the string representation of the model.
func (dt *DecisionTreeRegressor) String() string {
	if !dt.state.IsFitted() {
		return fmt.Sprintf("DecisionTreeRegressor(max_depth=%d, min_samples_leaf=%d)",
			dt.maxDepth, dt.minSamplesLeaf)
	}
	return fmt.Sprintf("DecisionTreeRegressor(depth=%d, leaves=%d, n_features=%d)",
		dt.GetDepth(), dt.GetNLeaves(), dt.nFeatures_)
}

// UpdateLeaves routes the rows of X to their leaves and replaces each
// reached leaf's value with update(rows, current), where rows are the row
// indices of X landing in that leaf. Gradient boosting uses this to install
// Newton-step leaf values after fitting a tree to pseudo-residuals.
func (dt *DecisionTreeRegressor) UpdateLeaves(X mat.Matrix, update func(rows []int, current float64) float64) error {
	if !dt.state.IsFitted() {
		return errors.NewNotFittedError("DecisionTreeRegressor", "UpdateLeaves")
	}
	rows, cols := X.Dims()
	if cols != dt.nFeatures_ {
		return errors.NewDimensionError("DecisionTreeRegressor.UpdateLeaves", dt.nFeatures_, cols, 1)
	}

	byLeaf := make(map[int][]int)
	for i := 0; i < rows; i++ {
		idx := 0
		for !dt.tree_.nodes[idx].isLeaf() {
			nd := &dt.tree_.nodes[idx]
			if X.At(i, nd.feature) <= nd.threshold {
				idx = nd.left
			} else {
				idx = nd.right
			}
		}
		byLeaf[idx] = append(byLeaf[idx], i)
	}

	for idx, leafRows := range byLeaf {
		dt.tree_.nodes[idx].value[0] = update(leafRows, dt.tree_.nodes[idx].value[0])
	}
	return nil
}

// clone returns an unfitted copy with the same hyperparameters.
func (dt *DecisionTreeRegressor) clone() *DecisionTreeRegressor {
	return &DecisionTreeRegressor{
		state:      model.NewStateManager(),
		treeParams: dt.treeParams,
	}
}
