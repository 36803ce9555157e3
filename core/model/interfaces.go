package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is the interface for models that can be trained.
type Fitter interface {
	// Fit trains the model on the design matrix X and response y.
	Fit(X, y mat.Matrix) error
}

// Predictor is the interface for fitted models that can predict.
type Predictor interface {
	// Predict returns predictions for the rows of X as an n×1 matrix.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer is the interface for models that can compute a goodness score.
type Scorer interface {
	// Score returns R² for regressors and accuracy for classifiers.
	Score(X, y mat.Matrix) (float64, error)
}

// Regressor combines the interfaces implemented by regression models.
type Regressor interface {
	Fitter
	Predictor
	Scorer
}

// Classifier combines the interfaces implemented by classification models.
type Classifier interface {
	Fitter
	Predictor
	Scorer

	// PredictProba returns an n×nClasses matrix of class probabilities.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the unique class labels seen during fitting.
	Classes() []int
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	// SetParams sets the model's hyperparameters.
	SetParams(params map[string]interface{}) error
}
