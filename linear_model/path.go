package linear_model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/statlearn/pkg/errors"
	"github.com/YuminosukeSato/statlearn/pkg/log"
)

// Path holds the fitted coefficient path over a descending lambda sequence.
// Coefficients are on the original feature scale and vary continuously as
// lambda decreases; for the lasso at the grid maximum every non-intercept
// coefficient is zero when the grid starts at LambdaMax.
type Path struct {
	Lambdas    []float64
	Coefs      [][]float64
	Intercepts []float64
	Iterations []int
	Converged  []bool
}

// NumLambdas returns the number of path segments.
func (p *Path) NumLambdas() int {
	return len(p.Lambdas)
}

// CoefsAt returns the coefficient vector fitted at path index i.
func (p *Path) CoefsAt(i int) []float64 {
	return p.Coefs[i]
}

// L1Norm returns the L1 norm of the coefficients at path index i.
func (p *Path) L1Norm(i int) float64 {
	sum := 0.0
	for _, c := range p.Coefs[i] {
		sum += math.Abs(c)
	}
	return sum
}

// PredictAt predicts with the coefficients fitted at path index i.
func (p *Path) PredictAt(i int, X mat.Matrix) *mat.Dense {
	rows, cols := X.Dims()
	out := mat.NewDense(rows, 1, nil)
	for r := 0; r < rows; r++ {
		pred := p.Intercepts[i]
		for j := 0; j < cols; j++ {
			pred += X.At(r, j) * p.Coefs[i][j]
		}
		out.Set(r, 0, pred)
	}
	return out
}

// FitPath fits the model for every lambda in the given descending sequence,
// warm-starting each solve from the previous solution. Non-convergence at a
// lambda is reported as a ConvergenceWarning and the best iterate is kept;
// the path is still returned. Lambda zero is rejected outright when p ≥ n,
// where an unregularized solve is rank-deficient.
func (e *ElasticNet) FitPath(X, y mat.Matrix, lambdas []float64) (*Path, error) {
	rows, cols, err := e.validate(X, y)
	if err != nil {
		return nil, err
	}
	if len(lambdas) == 0 {
		return nil, errors.NewValidationError("lambdas", "empty penalty grid", 0)
	}
	for i, l := range lambdas {
		if l < 0 {
			return nil, errors.NewValidationError("lambdas", "penalty must be non-negative", l)
		}
		if i > 0 && lambdas[i] >= lambdas[i-1] {
			return nil, errors.NewValidationError("lambdas", "grid must be strictly descending", i)
		}
		if l == 0 && cols >= rows {
			return nil, errors.NewValidationError("lambdas",
				"lambda 0 is not allowed when p >= n (rank-deficient least squares)", 0)
		}
	}

	e.nSamples_ = rows
	e.nFeatures_ = cols

	Xstd, yc, scaler, yMean, err := standardize(X, y, rows, cols, e.fitIntercept)
	if err != nil {
		return nil, err
	}

	path := &Path{
		Lambdas:    append([]float64(nil), lambdas...),
		Coefs:      make([][]float64, len(lambdas)),
		Intercepts: make([]float64, len(lambdas)),
		Iterations: make([]int, len(lambdas)),
		Converged:  make([]bool, len(lambdas)),
	}

	logger := log.GetLoggerWithName("linear_model.elastic_net")

	// beta lives on the standardized scale and carries across lambdas
	beta := make([]float64, cols)
	for i, lambda := range lambdas {
		iters, converged := coordinateDescent(Xstd, yc, e.alpha, lambda, beta, e.maxIter, e.tol)

		if stabErr := errors.CheckNumericalStability("coordinate_descent", beta, iters); stabErr != nil {
			return nil, stabErr
		}

		if !converged {
			w := errors.NewConvergenceWarning("coordinate descent", e.maxIter,
				fmt.Sprintf("lambda=%g", lambda))
			errors.Warn(w)
			logger.Warn("coordinate descent did not converge",
				log.LambdaKey, lambda, log.IterationKey, iters)
		}

		// Map back to the original scale: coef_j = beta_j / scale_j,
		// intercept = mean(y) - Σ coef_j·mean_j
		coefs := make([]float64, cols)
		intercept := yMean
		for j := 0; j < cols; j++ {
			coefs[j] = beta[j] / scaler.Scale[j]
			intercept -= coefs[j] * scaler.Mean[j]
		}

		path.Coefs[i] = coefs
		path.Intercepts[i] = intercept
		path.Iterations[i] = iters
		path.Converged[i] = converged
	}

	return path, nil
}
