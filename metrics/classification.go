package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/statlearn/pkg/errors"
)

// Accuracy computes the fraction of exactly matching labels.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// MisclassificationRate computes the fraction of mismatching labels,
// the loss minimized by cross-validated penalty selection for classifiers.
func MisclassificationRate(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// MisclassificationMatrix computes the misclassification rate for n×1 matrix
// inputs.
func MisclassificationMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return 0, errors.NewValueError("MisclassificationMatrix", "empty matrix")
	}
	if rTrue != rPred || cTrue != cPred {
		return 0, errors.NewDimensionError("MisclassificationMatrix", rTrue, rPred, 0)
	}
	if cTrue != 1 {
		return 0, errors.NewValueError("MisclassificationMatrix", "must be a column vector (n×1 matrix)")
	}

	wrong := 0
	for i := 0; i < rTrue; i++ {
		if yTrue.At(i, 0) != yPred.At(i, 0) {
			wrong++
		}
	}
	return float64(wrong) / float64(rTrue), nil
}
