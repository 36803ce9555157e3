package tree

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/statlearn/core/model"
	"github.com/YuminosukeSato/statlearn/metrics"
	"github.com/YuminosukeSato/statlearn/model_selection"
	"github.com/YuminosukeSato/statlearn/pkg/errors"
	"github.com/YuminosukeSato/statlearn/pkg/log"
)

// Cost-complexity pruning. Each internal node t carries an effective alpha
//
//	g(t) = (R(t) − R(T_t)) / (|leaves(T_t)| − 1)
//
// where R is the impurity-weighted resubstitution error. Pruning at a given
// ccpAlpha repeatedly collapses the weakest link (smallest g) while
// g ≤ ccpAlpha, so a larger alpha buys a smaller tree.

// pruneAlpha collapses weakest links in place until every remaining internal
// node is worth its complexity at the given alpha.
func (t *tree) pruneAlpha(alpha float64) {
	total := float64(t.nodes[0].nSamples)
	for {
		idx, g, ok := t.weakestLink(total)
		if !ok || g > alpha {
			return
		}
		// Collapse to a leaf; the orphaned descendants become unreachable
		t.nodes[idx].feature = -1
		t.nodes[idx].left = -1
		t.nodes[idx].right = -1
	}
}

// weakestLink returns the reachable internal node with the smallest effective
// alpha; ties resolve to the lowest arena index for determinism.
func (t *tree) weakestLink(total float64) (idx int, g float64, ok bool) {
	bestG := math.Inf(1)
	bestIdx := -1
	t.walkLinks(0, total, &bestIdx, &bestG)
	if bestIdx < 0 {
		return 0, 0, false
	}
	return bestIdx, bestG, true
}

func (t *tree) walkLinks(idx int, total float64, bestIdx *int, bestG *float64) {
	nd := &t.nodes[idx]
	if nd.isLeaf() {
		return
	}

	rLeaf := nd.impurity * float64(nd.nSamples) / total
	rSub, leaves := t.subtreeCost(idx, total)
	g := (rLeaf - rSub) / float64(leaves-1)
	if g < *bestG {
		*bestG = g
		*bestIdx = idx
	}

	t.walkLinks(nd.left, total, bestIdx, bestG)
	t.walkLinks(nd.right, total, bestIdx, bestG)
}

// subtreeCost returns the leaf-summed resubstitution error and leaf count of
// the subtree rooted at idx.
func (t *tree) subtreeCost(idx int, total float64) (r float64, leaves int) {
	nd := &t.nodes[idx]
	if nd.isLeaf() {
		return nd.impurity * float64(nd.nSamples) / total, 1
	}
	rl, ll := t.subtreeCost(nd.left, total)
	rr, lr := t.subtreeCost(nd.right, total)
	return rl + rr, ll + lr
}

// Prune applies cost-complexity pruning at ccpAlpha to the fitted tree.
func (dt *DecisionTreeRegressor) Prune(ccpAlpha float64) error {
	if !dt.state.IsFitted() {
		return errors.NewNotFittedError("DecisionTreeRegressor", "Prune")
	}
	if ccpAlpha < 0 {
		return errors.NewValidationError("ccp_alpha", "must be non-negative", ccpAlpha)
	}
	dt.tree_.pruneAlpha(ccpAlpha)
	return nil
}

// Prune applies cost-complexity pruning at ccpAlpha to the fitted tree.
func (dt *DecisionTreeClassifier) Prune(ccpAlpha float64) error {
	if !dt.state.IsFitted() {
		return errors.NewNotFittedError("DecisionTreeClassifier", "Prune")
	}
	if ccpAlpha < 0 {
		return errors.NewValidationError("ccp_alpha", "must be non-negative", ccpAlpha)
	}
	dt.tree_.pruneAlpha(ccpAlpha)
	return nil
}

// CCPAlphaSelection is the cross-validation trace of a pruning-strength
// search over an ascending alpha grid. AlphaMin minimizes the mean
// cross-validated error; Alpha1SE is the largest alpha whose mean error stays
// within one standard error of that minimum, preferring the smaller tree.
type CCPAlphaSelection struct {
	Alphas     []float64
	MeanErrors []float64
	StdErrors  []float64

	AlphaMin       float64
	Alpha1SE       float64
	NumFailedFolds int
}

// SelectCCPAlpha chooses the pruning strength by k-fold cross-validation:
// each candidate alpha grows a tree on the training folds, prunes it, and
// scores mean squared error on the held-out fold.
func (dt *DecisionTreeRegressor) SelectCCPAlpha(X, y mat.Matrix, alphas []float64, k int, seed int64) (*CCPAlphaSelection, error) {
	fitAt := func(alpha float64) model_selection.FitFunc {
		return func(trainX, trainY mat.Matrix) (model.Predictor, error) {
			est := dt.clone()
			if err := est.Fit(trainX, trainY); err != nil {
				return nil, err
			}
			if err := est.Prune(alpha); err != nil {
				return nil, err
			}
			return est, nil
		}
	}
	return selectCCPAlpha(X, y, alphas, k, seed, fitAt, metrics.MSEMatrix)
}

// SelectCCPAlpha chooses the pruning strength by k-fold cross-validation with
// misclassification rate as the held-out error.
func (dt *DecisionTreeClassifier) SelectCCPAlpha(X, y mat.Matrix, alphas []float64, k int, seed int64) (*CCPAlphaSelection, error) {
	fitAt := func(alpha float64) model_selection.FitFunc {
		return func(trainX, trainY mat.Matrix) (model.Predictor, error) {
			est := dt.clone()
			if err := est.Fit(trainX, trainY); err != nil {
				return nil, err
			}
			if err := est.Prune(alpha); err != nil {
				return nil, err
			}
			return est, nil
		}
	}
	return selectCCPAlpha(X, y, alphas, k, seed, fitAt, metrics.MisclassificationMatrix)
}

func selectCCPAlpha(X, y mat.Matrix, alphas []float64, k int, seed int64,
	fitAt func(alpha float64) model_selection.FitFunc, evalFn model_selection.EvalFunc) (*CCPAlphaSelection, error) {
	if len(alphas) == 0 {
		return nil, errors.NewValidationError("alphas", "empty pruning grid", 0)
	}
	for i, a := range alphas {
		if a < 0 {
			return nil, errors.NewValidationError("alphas", "pruning strength must be non-negative", a)
		}
		if i > 0 && alphas[i] <= alphas[i-1] {
			return nil, errors.NewValidationError("alphas", "grid must be strictly ascending", i)
		}
	}

	rows, _ := X.Dims()
	folds, err := model_selection.NewKFold(k, seed).Split(rows)
	if err != nil {
		return nil, err
	}

	sel := &CCPAlphaSelection{
		Alphas:     append([]float64(nil), alphas...),
		MeanErrors: make([]float64, len(alphas)),
		StdErrors:  make([]float64, len(alphas)),
	}

	logger := log.GetLoggerWithName("tree.select_ccp_alpha")
	for i, alpha := range alphas {
		cv, err := model_selection.CrossValidate(X, y, folds, fitAt(alpha), evalFn, true)
		if err != nil {
			return nil, err
		}
		sel.MeanErrors[i] = cv.MeanError()
		sel.StdErrors[i] = cv.StdError()
		sel.NumFailedFolds += cv.NumFailed
		if cv.NumFailed > 0 {
			logger.Warn("pruning search folds failed",
				"ccp_alpha", alpha, "failed", cv.NumFailed)
		}
	}

	minIdx := 0
	for i := 1; i < len(alphas); i++ {
		if sel.MeanErrors[i] < sel.MeanErrors[minIdx] {
			minIdx = i
		}
	}
	sel.AlphaMin = alphas[minIdx]

	// One-standard-error rule: the grid ascends, so scanning from the top
	// finds the largest alpha still within one standard error of the minimum.
	threshold := sel.MeanErrors[minIdx] + sel.StdErrors[minIdx]
	oneSEIdx := minIdx
	for i := len(alphas) - 1; i >= 0; i-- {
		if sel.MeanErrors[i] <= threshold {
			oneSEIdx = i
			break
		}
	}
	sel.Alpha1SE = alphas[oneSEIdx]

	return sel, nil
}
