package linear_model

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/statlearn/core/parallel"
	"github.com/YuminosukeSato/statlearn/metrics"
	"github.com/YuminosukeSato/statlearn/model_selection"
	"github.com/YuminosukeSato/statlearn/pkg/errors"
	"github.com/YuminosukeSato/statlearn/pkg/log"
)

// PenaltySelection is the cross-validation trace of a penalty search over a
// descending lambda grid. FoldErrors is indexed [lambda][fold]; a failed fold
// holds NaN and its error is counted in NumFailedFolds. LambdaMin minimizes
// the mean cross-validated error; Lambda1SE is the largest lambda whose mean
// error is within one standard error of that minimum, trading a little
// accuracy for a sparser, more regularized model.
type PenaltySelection struct {
	Lambdas    []float64
	MeanErrors []float64
	StdErrors  []float64
	FoldErrors [][]float64

	LambdaMin      float64
	Lambda1SE      float64
	NumFailedFolds int
}

// SelectPenalty chooses the penalty strength by k-fold cross-validation over
// the given descending lambda grid, applying the one-standard-error rule.
// Each fold fits the full path once with warm starts rather than refitting
// per lambda; folds run concurrently. Prediction error is mean squared error
// on the held-out fold.
func SelectPenalty(X, y mat.Matrix, lambdas []float64, alpha float64, k int, seed int64) (*PenaltySelection, error) {
	return selectPenalty(X, y, lambdas, alpha, k, seed, metrics.MSEMatrix)
}

// SelectPenaltyClassification is SelectPenalty with misclassification rate as
// the held-out error: path predictions are thresholded at 1/2 against 0/1
// labels.
func SelectPenaltyClassification(X, y mat.Matrix, lambdas []float64, alpha float64, k int, seed int64) (*PenaltySelection, error) {
	return selectPenalty(X, y, lambdas, alpha, k, seed, misclassifyThresholded)
}

func selectPenalty(X, y mat.Matrix, lambdas []float64, alpha float64, k int, seed int64, evalFn model_selection.EvalFunc) (*PenaltySelection, error) {
	rows, _ := X.Dims()

	folds, err := model_selection.NewKFold(k, seed).Split(rows)
	if err != nil {
		return nil, err
	}

	probe := NewElasticNet(WithAlpha(alpha))
	if _, _, err := probe.validate(X, y); err != nil {
		return nil, err
	}
	if len(lambdas) == 0 {
		return nil, errors.NewValidationError("lambdas", "empty penalty grid", 0)
	}

	// foldErrors[f][l] is fold f's held-out error at lambdas[l]
	foldErrors := make([][]float64, len(folds))
	foldFatal := make([]error, len(folds))

	parallel.ForEach(len(folds), func(f int) {
		foldErrors[f], foldFatal[f] = pathFoldErrors(X, y, folds[f], lambdas, alpha, evalFn)
	})

	sel := &PenaltySelection{
		Lambdas:    append([]float64(nil), lambdas...),
		MeanErrors: make([]float64, len(lambdas)),
		StdErrors:  make([]float64, len(lambdas)),
		FoldErrors: make([][]float64, len(lambdas)),
	}

	logger := log.GetLoggerWithName("linear_model.select_penalty")
	for f, fatal := range foldFatal {
		if fatal != nil {
			sel.NumFailedFolds++
			logger.Warn("penalty search fold failed", log.FoldKey, f, log.ErrAttr(fatal))
		}
	}
	if sel.NumFailedFolds == len(folds) {
		return nil, errors.Wrap(foldFatal[0], "statlearn: every cross-validation fold failed")
	}

	for l := range lambdas {
		perFold := make([]float64, len(folds))
		for f := range folds {
			if foldErrors[f] == nil {
				perFold[f] = math.NaN()
			} else {
				perFold[f] = foldErrors[f][l]
			}
		}
		sel.FoldErrors[l] = perFold

		cv := &model_selection.CVResult{PerFoldErrors: perFold}
		sel.MeanErrors[l] = cv.MeanError()
		sel.StdErrors[l] = cv.StdError()
	}

	// Minimum of the mean curve; the grid is descending, so scanning in order
	// and keeping strict improvements prefers the larger lambda on ties.
	minIdx := 0
	for l := 1; l < len(lambdas); l++ {
		if sel.MeanErrors[l] < sel.MeanErrors[minIdx] {
			minIdx = l
		}
	}
	sel.LambdaMin = lambdas[minIdx]

	// One-standard-error rule: the first (largest) lambda whose mean error is
	// within one standard error of the minimum.
	threshold := sel.MeanErrors[minIdx] + sel.StdErrors[minIdx]
	oneSEIdx := minIdx
	for l := 0; l <= minIdx; l++ {
		if sel.MeanErrors[l] <= threshold {
			oneSEIdx = l
			break
		}
	}
	sel.Lambda1SE = lambdas[oneSEIdx]

	return sel, nil
}

// pathFoldErrors fits the full path on one fold's training subset and scores
// every lambda on the held-out subset. A failure anywhere in the fold marks
// the whole fold failed; the error curve for that fold is all NaN.
func pathFoldErrors(X, y mat.Matrix, fold model_selection.Fold, lambdas []float64, alpha float64, evalFn model_selection.EvalFunc) (errs []float64, err error) {
	// Registered before Recover so it runs after it: a recovered panic must
	// not leave a partially filled error curve behind.
	defer func() {
		if err != nil {
			errs = nil
		}
	}()
	defer errors.Recover(&err, "linear_model.pathFoldErrors")

	trainX, trainY := model_selection.Subset(X, y, fold.TrainIndices)
	testX, testY := model_selection.Subset(X, y, fold.TestIndices)

	est := NewElasticNet(WithAlpha(alpha))
	path, err := est.FitPath(trainX, trainY, lambdas)
	if err != nil {
		return nil, err
	}

	errs = make([]float64, len(lambdas))
	for l := range lambdas {
		score, evalErr := evalFn(testY, path.PredictAt(l, testX))
		if evalErr != nil {
			return nil, evalErr
		}
		errs[l] = score
	}
	return errs, nil
}

// misclassifyThresholded scores a linear prediction against 0/1 labels by
// thresholding at 1/2.
func misclassifyThresholded(yTrue, yPred mat.Matrix) (float64, error) {
	rows, _ := yTrue.Dims()
	labels := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		if yPred.At(i, 0) >= 0.5 {
			labels.Set(i, 0, 1)
		}
	}
	return metrics.MisclassificationMatrix(yTrue, labels)
}
