package linear_model

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/statlearn/pkg/errors"
)

// minAlphaForGrid floors the mixing parameter when computing the grid
// maximum, so ridge (alpha=0) still gets a finite, usable grid.
const minAlphaForGrid = 1e-3

// LambdaMax returns the smallest penalty at which every lasso coefficient is
// zero: max_j |(1/n)·x_j_std·(y − ȳ)| / max(alpha, 1e-3), computed on
// standardized features.
func LambdaMax(X, y mat.Matrix, alpha float64) (float64, error) {
	rows, cols := X.Dims()
	yRows, _ := y.Dims()
	if rows != yRows {
		return 0, errors.NewDimensionError("LambdaMax", rows, yRows, 0)
	}
	if rows == 0 || cols == 0 {
		return 0, errors.NewValueError("LambdaMax", "empty data")
	}

	Xstd, yc, _, _, err := standardize(X, y, rows, cols, true)
	if err != nil {
		return 0, err
	}

	maxCorr := 0.0
	for j := 0; j < cols; j++ {
		dot := 0.0
		for i := 0; i < rows; i++ {
			dot += Xstd.At(i, j) * yc[i]
		}
		corr := math.Abs(dot) / float64(rows)
		if corr > maxCorr {
			maxCorr = corr
		}
	}

	a := alpha
	if a < minAlphaForGrid {
		a = minAlphaForGrid
	}
	return maxCorr / a, nil
}

// LambdaGrid generates a descending log-spaced penalty grid from LambdaMax
// down to LambdaMax·ratio, with ratio 1e-3 (1e-2 in the p ≥ n regime). The
// grid never contains zero: in the high-dimensional regime an unregularized
// solve is undefined, so the auto-generated grid must not offer it.
func LambdaGrid(X, y mat.Matrix, nLambdas int, alpha float64) ([]float64, error) {
	if nLambdas < 2 {
		return nil, errors.NewValidationError("n_lambdas", "need at least 2 grid points", nLambdas)
	}

	lambdaMax, err := LambdaMax(X, y, alpha)
	if err != nil {
		return nil, err
	}
	if lambdaMax <= 0 {
		return nil, errors.NewValueError("LambdaGrid", "response is uncorrelated with every feature")
	}

	rows, cols := X.Dims()
	ratio := 1e-3
	if cols >= rows {
		ratio = 1e-2
	}

	logMax := math.Log(lambdaMax)
	logMin := math.Log(lambdaMax * ratio)

	grid := make([]float64, nLambdas)
	for i := 0; i < nLambdas; i++ {
		frac := float64(i) / float64(nLambdas-1)
		grid[i] = math.Exp(logMax + frac*(logMin-logMax))
	}

	return grid, nil
}
