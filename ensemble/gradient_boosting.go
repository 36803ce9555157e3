package ensemble

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/statlearn/core/model"
	"github.com/YuminosukeSato/statlearn/pkg/errors"
	"github.com/YuminosukeSato/statlearn/tree"
)

// GradientBoostingRegressor fits shallow regression trees in sequence, each
// to the residuals the previous stages left behind. The prediction is the
// training mean plus shrinkage times the sum of the stage trees. Stages never
// bootstrap and never run in parallel: stage b needs the residuals of stage
// b−1.
type GradientBoostingRegressor struct {
	state *model.StateManager
	ensembleParams

	trees_       []*tree.DecisionTreeRegressor
	init_        float64
	stageErrors_ []float64
	nFeatures_   int
	nSamples_    int
}

// NewGradientBoostingRegressor creates a boosting regressor with 100 stages,
// shrinkage 0.1 and interaction depth 3 by default.
func NewGradientBoostingRegressor(options ...Option) *GradientBoostingRegressor {
	gb := &GradientBoostingRegressor{
		state:          model.NewStateManager(),
		ensembleParams: defaultEnsembleParams(),
	}
	for _, opt := range options {
		opt(&gb.ensembleParams)
	}
	return gb
}

// Fit runs the boosting stages on (X, y).
func (gb *GradientBoostingRegressor) Fit(X, y mat.Matrix) error {
	rows, cols, err := validateEnsembleInput(X, y)
	if err != nil {
		return err
	}
	if err := gb.ensembleParams.validate(); err != nil {
		return err
	}

	gb.nFeatures_ = cols
	gb.nSamples_ = rows

	// Stage 0: the constant model
	init := 0.0
	for i := 0; i < rows; i++ {
		init += y.At(i, 0)
	}
	init /= float64(rows)
	gb.init_ = init

	current := make([]float64, rows)
	for i := range current {
		current[i] = init
	}

	gb.trees_ = make([]*tree.DecisionTreeRegressor, 0, gb.nEstimators)
	gb.stageErrors_ = make([]float64, 0, gb.nEstimators)

	residual := mat.NewDense(rows, 1, nil)
	for b := 0; b < gb.nEstimators; b++ {
		for i := 0; i < rows; i++ {
			residual.Set(i, 0, y.At(i, 0)-current[i])
		}

		t := tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(gb.interactionDepth),
			tree.WithMinSamplesSplit(gb.minSamplesSplit),
			tree.WithMinSamplesLeaf(gb.minSamplesLeaf),
		)
		if err := t.Fit(X, residual); err != nil {
			return err
		}
		gb.trees_ = append(gb.trees_, t)

		pred, err := t.Predict(X)
		if err != nil {
			return err
		}

		sse := 0.0
		for i := 0; i < rows; i++ {
			current[i] += gb.shrinkage * pred.At(i, 0)
			d := y.At(i, 0) - current[i]
			sse += d * d
		}
		gb.stageErrors_ = append(gb.stageErrors_, sse/float64(rows))

		if stabErr := errors.CheckNumericalStability("gradient_boosting", current, b); stabErr != nil {
			return stabErr
		}
	}

	gb.state.SetFitted()
	gb.state.SetDimensions(cols, rows)
	return nil
}

// Predict returns init + shrinkage·Σ stage trees for each row as an n×1
// matrix.
func (gb *GradientBoostingRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !gb.state.IsFitted() {
		return nil, errors.NewNotFittedError("GradientBoostingRegressor", "Predict")
	}
	rows, cols := X.Dims()
	if cols != gb.nFeatures_ {
		return nil, errors.NewDimensionError("GradientBoostingRegressor.Predict", gb.nFeatures_, cols, 1)
	}

	scores := make([]float64, rows)
	for i := range scores {
		scores[i] = gb.init_
	}
	for _, t := range gb.trees_ {
		pred, err := t.Predict(X)
		if err != nil {
			return nil, err
		}
		for i := 0; i < rows; i++ {
			scores[i] += gb.shrinkage * pred.At(i, 0)
		}
	}

	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		out.Set(i, 0, scores[i])
	}
	return out, nil
}

// Init returns the constant stage-0 prediction (the training mean).
func (gb *GradientBoostingRegressor) Init() float64 {
	return gb.init_
}

// StageErrors returns the training mean squared error after each stage.
func (gb *GradientBoostingRegressor) StageErrors() []float64 {
	return append([]float64(nil), gb.stageErrors_...)
}

// GetFeatureImportances returns the stage-averaged normalized importances,
// or nil before fitting.
func (gb *GradientBoostingRegressor) GetFeatureImportances() []float64 {
	if !gb.state.IsFitted() {
		return nil
	}
	perTree := make([][]float64, 0, len(gb.trees_))
	for _, t := range gb.trees_ {
		perTree = append(perTree, t.GetFeatureImportances())
	}
	return aggregateImportances(perTree, gb.nFeatures_)
}

// NumTrees returns the number of fitted stages.
func (gb *GradientBoostingRegressor) NumTrees() int {
	return len(gb.trees_)
}

// IsFitted returns whether the model has been fitted.
func (gb *GradientBoostingRegressor) IsFitted() bool {
	return gb.state.IsFitted()
}

// GetParams returns the model's hyperparameters.
func (gb *GradientBoostingRegressor) GetParams() map[string]interface{} {
	return gb.ensembleParams.getParams()
}

// SetParams sets the model's hyperparameters.
func (gb *GradientBoostingRegressor) SetParams(params map[string]interface{}) error {
	return gb.ensembleParams.setParams(params)
}

// String returns the string representation of the model.
func (gb *GradientBoostingRegressor) String() string {
	if !gb.state.IsFitted() {
		return fmt.Sprintf("GradientBoostingRegressor(n_estimators=%d, shrinkage=%g, interaction_depth=%d)",
			gb.nEstimators, gb.shrinkage, gb.interactionDepth)
	}
	return fmt.Sprintf("GradientBoostingRegressor(n_estimators=%d, shrinkage=%g, init=%.6g)",
		gb.nEstimators, gb.shrinkage, gb.init_)
}

// GradientBoostingClassifier is binary boosting under logistic loss. Stage
// trees fit the negative gradient y − p; leaf values are a single Newton
// step Σ(y−p) / Σ p(1−p) over the leaf. Prediction applies the sigmoid to
// the accumulated score and thresholds at 1/2.
type GradientBoostingClassifier struct {
	state *model.StateManager
	ensembleParams

	trees_     []*tree.DecisionTreeRegressor
	init_      float64
	classes_   []int
	nFeatures_ int
	nSamples_  int
}

// NewGradientBoostingClassifier creates a binary boosting classifier.
func NewGradientBoostingClassifier(options ...Option) *GradientBoostingClassifier {
	gb := &GradientBoostingClassifier{
		state:          model.NewStateManager(),
		ensembleParams: defaultEnsembleParams(),
	}
	for _, opt := range options {
		opt(&gb.ensembleParams)
	}
	return gb
}

// Fit runs the boosting stages on X and 0/1 labels y.
func (gb *GradientBoostingClassifier) Fit(X, y mat.Matrix) error {
	rows, cols, err := validateEnsembleInput(X, y)
	if err != nil {
		return err
	}
	if err := gb.ensembleParams.validate(); err != nil {
		return err
	}

	classes, err := collectClasses(y, rows)
	if err != nil {
		return err
	}
	if len(classes) != 2 || classes[0] != 0 || classes[1] != 1 {
		return errors.NewValueError("GradientBoostingClassifier.Fit",
			"labels must be exactly {0, 1} with both classes present")
	}
	gb.classes_ = classes
	gb.nFeatures_ = cols
	gb.nSamples_ = rows

	// Stage 0: log-odds of the positive class
	pos := 0.0
	for i := 0; i < rows; i++ {
		pos += y.At(i, 0)
	}
	pBase := pos / float64(rows)
	gb.init_ = math.Log(pBase / (1 - pBase))

	scores := make([]float64, rows)
	for i := range scores {
		scores[i] = gb.init_
	}

	gb.trees_ = make([]*tree.DecisionTreeRegressor, 0, gb.nEstimators)

	gradient := mat.NewDense(rows, 1, nil)
	grad := make([]float64, rows)
	prob := make([]float64, rows)
	for b := 0; b < gb.nEstimators; b++ {
		for i := 0; i < rows; i++ {
			prob[i] = sigmoid(scores[i])
			grad[i] = y.At(i, 0) - prob[i]
			gradient.Set(i, 0, grad[i])
		}

		t := tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(gb.interactionDepth),
			tree.WithMinSamplesSplit(gb.minSamplesSplit),
			tree.WithMinSamplesLeaf(gb.minSamplesLeaf),
		)
		if err := t.Fit(X, gradient); err != nil {
			return err
		}

		// Newton step per leaf; the Hessian floor guards near-pure leaves
		if err := t.UpdateLeaves(X, func(leafRows []int, _ float64) float64 {
			num, den := 0.0, 0.0
			for _, i := range leafRows {
				num += grad[i]
				den += prob[i] * (1 - prob[i])
			}
			if den < 1e-10 {
				den = 1e-10
			}
			return num / den
		}); err != nil {
			return err
		}
		gb.trees_ = append(gb.trees_, t)

		pred, err := t.Predict(X)
		if err != nil {
			return err
		}
		for i := 0; i < rows; i++ {
			scores[i] += gb.shrinkage * pred.At(i, 0)
		}

		if stabErr := errors.CheckNumericalStability("gradient_boosting", scores, b); stabErr != nil {
			return stabErr
		}
	}

	gb.state.SetFitted()
	gb.state.SetDimensions(cols, rows)
	return nil
}

// Predict returns the 0/1 labels obtained by thresholding the boosted
// probability at 1/2.
func (gb *GradientBoostingClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := gb.PredictProba(X)
	if err != nil {
		return nil, err
	}

	rows, _ := probas.Dims()
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		if probas.At(i, 1) >= 0.5 {
			out.Set(i, 0, 1)
		}
	}
	return out, nil
}

// PredictProba returns the two-column probability matrix [P(y=0), P(y=1)].
func (gb *GradientBoostingClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !gb.state.IsFitted() {
		return nil, errors.NewNotFittedError("GradientBoostingClassifier", "PredictProba")
	}
	rows, cols := X.Dims()
	if cols != gb.nFeatures_ {
		return nil, errors.NewDimensionError("GradientBoostingClassifier.PredictProba", gb.nFeatures_, cols, 1)
	}

	scores := make([]float64, rows)
	for i := range scores {
		scores[i] = gb.init_
	}
	for _, t := range gb.trees_ {
		pred, err := t.Predict(X)
		if err != nil {
			return nil, err
		}
		for i := 0; i < rows; i++ {
			scores[i] += gb.shrinkage * pred.At(i, 0)
		}
	}

	probas := mat.NewDense(rows, 2, nil)
	for i := 0; i < rows; i++ {
		p := sigmoid(scores[i])
		probas.Set(i, 0, 1-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

// Score returns the accuracy on X against y, or NaN when prediction fails.
func (gb *GradientBoostingClassifier) Score(X, y mat.Matrix) float64 {
	pred, err := gb.Predict(X)
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

// Classes returns the class labels {0, 1}.
func (gb *GradientBoostingClassifier) Classes() []int {
	return append([]int(nil), gb.classes_...)
}

// Init returns the constant stage-0 score (the base-rate log-odds).
func (gb *GradientBoostingClassifier) Init() float64 {
	return gb.init_
}

// GetFeatureImportances returns the stage-averaged normalized importances,
// or nil before fitting.
func (gb *GradientBoostingClassifier) GetFeatureImportances() []float64 {
	if !gb.state.IsFitted() {
		return nil
	}
	perTree := make([][]float64, 0, len(gb.trees_))
	for _, t := range gb.trees_ {
		perTree = append(perTree, t.GetFeatureImportances())
	}
	return aggregateImportances(perTree, gb.nFeatures_)
}

// NumTrees returns the number of fitted stages.
func (gb *GradientBoostingClassifier) NumTrees() int {
	return len(gb.trees_)
}

// IsFitted returns whether the model has been fitted.
func (gb *GradientBoostingClassifier) IsFitted() bool {
	return gb.state.IsFitted()
}

// GetParams returns the model's hyperparameters.
func (gb *GradientBoostingClassifier) GetParams() map[string]interface{} {
	return gb.ensembleParams.getParams()
}

// SetParams sets the model's hyperparameters.
func (gb *GradientBoostingClassifier) SetParams(params map[string]interface{}) error {
	return gb.ensembleParams.setParams(params)
}

// String returns the string representation of the model.
func (gb *GradientBoostingClassifier) String() string {
	if !gb.state.IsFitted() {
		return fmt.Sprintf("GradientBoostingClassifier(n_estimators=%d, shrinkage=%g, interaction_depth=%d)",
			gb.nEstimators, gb.shrinkage, gb.interactionDepth)
	}
	return fmt.Sprintf("GradientBoostingClassifier(n_estimators=%d, shrinkage=%g, init=%.6g)",
		gb.nEstimators, gb.shrinkage, gb.init_)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-errors.ClipValue(z, -500, 500)))
}
