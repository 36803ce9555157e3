package model_selection

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/statlearn/core/model"
	"github.com/YuminosukeSato/statlearn/core/parallel"
	"github.com/YuminosukeSato/statlearn/pkg/errors"
	"github.com/YuminosukeSato/statlearn/pkg/log"
)

// FitFunc trains a model on a fold's training subset.
type FitFunc func(X, y mat.Matrix) (model.Predictor, error)

// EvalFunc scores predictions against held-out targets; lower is better.
type EvalFunc func(yTrue, yPred mat.Matrix) (float64, error)

// CVResult stores the per-fold error trace of a cross-validation run.
// A failed fold holds NaN in PerFoldErrors and its error in FoldErrors;
// aggregate statistics are computed over the succeeded folds only.
type CVResult struct {
	PerFoldErrors []float64
	FoldErrors    []error
	NumFailed     int
}

// MeanError returns the mean error over succeeded folds.
func (cv *CVResult) MeanError() float64 {
	sum := 0.0
	count := 0
	for _, e := range cv.PerFoldErrors {
		if !math.IsNaN(e) {
			sum += e
			count++
		}
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}

// StdError returns the standard error of the fold errors, the quantity used
// by the one-standard-error selection rule.
func (cv *CVResult) StdError() float64 {
	mean := cv.MeanError()
	if math.IsNaN(mean) {
		return math.NaN()
	}

	sumSq := 0.0
	count := 0
	for _, e := range cv.PerFoldErrors {
		if !math.IsNaN(e) {
			diff := e - mean
			sumSq += diff * diff
			count++
		}
	}
	if count <= 1 {
		return 0
	}
	return math.Sqrt(sumSq/float64(count-1)) / math.Sqrt(float64(count))
}

// FailedFraction returns the fraction of folds whose fit or evaluation
// failed.
func (cv *CVResult) FailedFraction() float64 {
	if len(cv.PerFoldErrors) == 0 {
		return 0
	}
	return float64(cv.NumFailed) / float64(len(cv.PerFoldErrors))
}

// CrossValidate trains on each fold's training subset and scores the held-out
// subset. Folds are independent; with parallel set they run concurrently, one
// goroutine per fold. A failure inside one fold (including a panic in fitFn)
// is recorded for that fold and does not abort the rest of the run. A fold
// with an empty training or test set is a fatal validation error.
func CrossValidate(X, y mat.Matrix, folds []Fold, fitFn FitFunc, evalFn EvalFunc, parallelRun bool) (*CVResult, error) {
	if len(folds) == 0 {
		return nil, errors.NewValidationError("folds", "no folds supplied", 0)
	}
	for i, fold := range folds {
		if len(fold.TrainIndices) == 0 {
			return nil, errors.NewValidationError("folds",
				"fold has no training observations", i)
		}
		if len(fold.TestIndices) == 0 {
			return nil, errors.NewValidationError("folds",
				"fold has no test observations", i)
		}
	}

	result := &CVResult{
		PerFoldErrors: make([]float64, len(folds)),
		FoldErrors:    make([]error, len(folds)),
	}

	parallel.MaybeForEach(len(folds), parallelRun, func(idx int) {
		result.PerFoldErrors[idx], result.FoldErrors[idx] = runFold(X, y, folds[idx], fitFn, evalFn)
	})

	logger := log.GetLoggerWithName("model_selection.cross_validate")
	for idx, foldErr := range result.FoldErrors {
		if foldErr != nil {
			result.NumFailed++
			logger.Warn("fold fit failed", log.FoldKey, idx, log.ErrAttr(foldErr))
		}
	}

	return result, nil
}

func runFold(X, y mat.Matrix, fold Fold, fitFn FitFunc, evalFn EvalFunc) (errVal float64, err error) {
	// Registered before Recover so it runs after it: a recovered panic must
	// leave NaN in the fold's error slot, not a half-written value.
	defer func() {
		if err != nil {
			errVal = math.NaN()
		}
	}()
	defer errors.Recover(&err, "model_selection.runFold")

	trainX, trainY := Subset(X, y, fold.TrainIndices)
	testX, testY := Subset(X, y, fold.TestIndices)

	fitted, err := fitFn(trainX, trainY)
	if err != nil {
		return math.NaN(), err
	}

	pred, err := fitted.Predict(testX)
	if err != nil {
		return math.NaN(), err
	}

	score, err := evalFn(testY, pred)
	if err != nil {
		return math.NaN(), err
	}

	return score, nil
}

// Subset extracts the rows of X and y named by indices, preserving multiset
// semantics: a repeated index (as in a bootstrap sample) produces a repeated
// row.
func Subset(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.Dense) {
	rows := len(indices)
	_, xCols := X.Dims()
	_, yCols := y.Dims()

	xSubset := mat.NewDense(rows, xCols, nil)
	ySubset := mat.NewDense(rows, yCols, nil)

	for i, idx := range indices {
		for j := 0; j < xCols; j++ {
			xSubset.Set(i, j, X.At(idx, j))
		}
		for j := 0; j < yCols; j++ {
			ySubset.Set(i, j, y.At(idx, j))
		}
	}

	return xSubset, ySubset
}
