package statlearn

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/statlearn/core/model"
	"github.com/YuminosukeSato/statlearn/ensemble"
	"github.com/YuminosukeSato/statlearn/linear_model"
	"github.com/YuminosukeSato/statlearn/metrics"
	"github.com/YuminosukeSato/statlearn/model_selection"
	"github.com/YuminosukeSato/statlearn/pkg/errors"
	"github.com/YuminosukeSato/statlearn/pkg/log"
	"github.com/YuminosukeSato/statlearn/tree"
)

// Result bundles the fitted model with the validation diagnostics produced
// while fitting it. Fields a family does not produce hold NaN (scalars) or
// nil (slices): penalized linear fits fill SelectedLambda, PerFoldErrors and
// CVError; bagged ensembles fill OOBError; trees and boosting fill CVError.
type Result struct {
	Model model.Predictor

	SelectedLambda     float64
	PerFoldErrors      []float64
	CVError            float64
	OOBError           float64
	FeatureImportances []float64
}

// Fit trains a model of the given family on X and y (n×1) and returns it
// with its diagnostics. Penalty-based families select their penalty by
// k-fold cross-validation with the one-standard-error rule and refit on the
// full data at the chosen value.
func Fit(X, y mat.Matrix, family Family, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()

	logger := log.GetLoggerWithName("statlearn.fit")
	rows, cols := X.Dims()
	start := time.Now()
	logger.Info("fitting model",
		log.ModelNameKey, family.String(),
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
	)

	var (
		result *Result
		err    error
	)
	switch family {
	case Ridge:
		result, err = fitPenalized(X, y, 0.0, cfg)
	case Lasso:
		result, err = fitPenalized(X, y, 1.0, cfg)
	case Tree:
		result, err = fitTree(X, y, cfg)
	case Bagging:
		result, err = fitBagged(X, y, cfg, false)
	case RandomForest:
		result, err = fitBagged(X, y, cfg, true)
	case Boosting:
		result, err = fitBoosted(X, y, cfg)
	default:
		return nil, errors.NewValidationError("family", "unknown model family", int(family))
	}
	if err != nil {
		return nil, err
	}

	logger.Info("model fitted",
		log.ModelNameKey, family.String(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return result, nil
}

func fitPenalized(X, y mat.Matrix, alpha float64, cfg Config) (*Result, error) {
	if cfg.Alpha != 0 {
		alpha = cfg.Alpha
	}

	lambdas := cfg.LambdaGrid
	if len(lambdas) == 0 {
		grid, err := linear_model.LambdaGrid(X, y, 100, alpha)
		if err != nil {
			return nil, err
		}
		lambdas = grid
	}

	var (
		sel *linear_model.PenaltySelection
		err error
	)
	if cfg.Classification {
		sel, err = linear_model.SelectPenaltyClassification(X, y, lambdas, alpha, cfg.K, cfg.Seed)
	} else {
		sel, err = linear_model.SelectPenalty(X, y, lambdas, alpha, cfg.K, cfg.Seed)
	}
	if err != nil {
		return nil, err
	}

	chosen := 0
	for i, l := range sel.Lambdas {
		if l == sel.Lambda1SE {
			chosen = i
			break
		}
	}

	est := linear_model.NewElasticNet(
		linear_model.WithAlpha(alpha),
		linear_model.WithLambda(sel.Lambda1SE),
	)
	if err := est.Fit(X, y); err != nil {
		return nil, err
	}

	return &Result{
		Model:          est,
		SelectedLambda: sel.Lambda1SE,
		PerFoldErrors:  append([]float64(nil), sel.FoldErrors[chosen]...),
		CVError:        sel.MeanErrors[chosen],
		OOBError:       math.NaN(),
	}, nil
}

func fitTree(X, y mat.Matrix, cfg Config) (*Result, error) {
	opts := []tree.Option{
		tree.WithMaxDepth(cfg.MaxDepth),
		tree.WithMinSamplesLeaf(cfg.MinLeafSize),
		tree.WithMinImpurityDecrease(cfg.MinGain),
		tree.WithSeed(cfg.Seed),
	}
	if cfg.FeatureSubsetSize > 0 {
		opts = append(opts, tree.WithMaxFeatures(cfg.FeatureSubsetSize))
	}

	var (
		fitted  model.Predictor
		imp     []float64
		fitFn   model_selection.FitFunc
		evalFn  model_selection.EvalFunc
	)
	if cfg.Classification {
		est := tree.NewDecisionTreeClassifier(opts...)
		if err := est.Fit(X, y); err != nil {
			return nil, err
		}
		fitted = est
		imp = est.GetFeatureImportances()
		fitFn = func(trainX, trainY mat.Matrix) (model.Predictor, error) {
			cv := tree.NewDecisionTreeClassifier(opts...)
			if err := cv.Fit(trainX, trainY); err != nil {
				return nil, err
			}
			return cv, nil
		}
		evalFn = metrics.MisclassificationMatrix
	} else {
		est := tree.NewDecisionTreeRegressor(opts...)
		if err := est.Fit(X, y); err != nil {
			return nil, err
		}
		fitted = est
		imp = est.GetFeatureImportances()
		fitFn = func(trainX, trainY mat.Matrix) (model.Predictor, error) {
			cv := tree.NewDecisionTreeRegressor(opts...)
			if err := cv.Fit(trainX, trainY); err != nil {
				return nil, err
			}
			return cv, nil
		}
		evalFn = metrics.MSEMatrix
	}

	perFold, cvErr, err := crossValidatedError(X, y, cfg, fitFn, evalFn)
	if err != nil {
		return nil, err
	}

	return &Result{
		Model:              fitted,
		SelectedLambda:     math.NaN(),
		PerFoldErrors:      perFold,
		CVError:            cvErr,
		OOBError:           math.NaN(),
		FeatureImportances: imp,
	}, nil
}

func fitBagged(X, y mat.Matrix, cfg Config, forest bool) (*Result, error) {
	opts := []ensemble.Option{
		ensemble.WithNEstimators(cfg.NumTrees),
		ensemble.WithMaxDepth(cfg.MaxDepth),
		ensemble.WithMinSamplesLeaf(cfg.MinLeafSize),
		ensemble.WithSeed(cfg.Seed),
	}
	if cfg.FeatureSubsetSize > 0 {
		opts = append(opts, ensemble.WithMaxFeatures(cfg.FeatureSubsetSize))
	}

	var (
		fitted model.Predictor
		oob    float64
		imp    []float64
	)
	switch {
	case cfg.Classification && forest:
		est := ensemble.NewRandomForestClassifier(opts...)
		if err := est.Fit(X, y); err != nil {
			return nil, err
		}
		fitted, oob, imp = est, est.OOBError(), est.GetFeatureImportances()
	case cfg.Classification:
		est := ensemble.NewBaggingClassifier(opts...)
		if err := est.Fit(X, y); err != nil {
			return nil, err
		}
		fitted, oob, imp = est, est.OOBError(), est.GetFeatureImportances()
	case forest:
		est := ensemble.NewRandomForestRegressor(opts...)
		if err := est.Fit(X, y); err != nil {
			return nil, err
		}
		fitted, oob, imp = est, est.OOBError(), est.GetFeatureImportances()
	default:
		est := ensemble.NewBaggingRegressor(opts...)
		if err := est.Fit(X, y); err != nil {
			return nil, err
		}
		fitted, oob, imp = est, est.OOBError(), est.GetFeatureImportances()
	}

	return &Result{
		Model:              fitted,
		SelectedLambda:     math.NaN(),
		CVError:            math.NaN(),
		OOBError:           oob,
		FeatureImportances: imp,
	}, nil
}

func fitBoosted(X, y mat.Matrix, cfg Config) (*Result, error) {
	opts := []ensemble.Option{
		ensemble.WithNEstimators(cfg.NumTrees),
		ensemble.WithShrinkage(cfg.Shrinkage),
		ensemble.WithInteractionDepth(cfg.InteractionDepth),
		ensemble.WithMinSamplesLeaf(cfg.MinLeafSize),
		ensemble.WithSeed(cfg.Seed),
	}

	var (
		fitted model.Predictor
		imp    []float64
		fitFn  model_selection.FitFunc
		evalFn model_selection.EvalFunc
	)
	if cfg.Classification {
		est := ensemble.NewGradientBoostingClassifier(opts...)
		if err := est.Fit(X, y); err != nil {
			return nil, err
		}
		fitted, imp = est, est.GetFeatureImportances()
		fitFn = func(trainX, trainY mat.Matrix) (model.Predictor, error) {
			cv := ensemble.NewGradientBoostingClassifier(opts...)
			if err := cv.Fit(trainX, trainY); err != nil {
				return nil, err
			}
			return cv, nil
		}
		evalFn = metrics.MisclassificationMatrix
	} else {
		est := ensemble.NewGradientBoostingRegressor(opts...)
		if err := est.Fit(X, y); err != nil {
			return nil, err
		}
		fitted, imp = est, est.GetFeatureImportances()
		fitFn = func(trainX, trainY mat.Matrix) (model.Predictor, error) {
			cv := ensemble.NewGradientBoostingRegressor(opts...)
			if err := cv.Fit(trainX, trainY); err != nil {
				return nil, err
			}
			return cv, nil
		}
		evalFn = metrics.MSEMatrix
	}

	perFold, cvErr, err := crossValidatedError(X, y, cfg, fitFn, evalFn)
	if err != nil {
		return nil, err
	}

	return &Result{
		Model:              fitted,
		SelectedLambda:     math.NaN(),
		PerFoldErrors:      perFold,
		CVError:            cvErr,
		OOBError:           math.NaN(),
		FeatureImportances: imp,
	}, nil
}

// crossValidatedError runs the k-fold engine with the given fit and eval
// functions and returns the per-fold trace plus its mean.
func crossValidatedError(X, y mat.Matrix, cfg Config, fitFn model_selection.FitFunc, evalFn model_selection.EvalFunc) ([]float64, float64, error) {
	rows, _ := X.Dims()
	folds, err := model_selection.NewKFold(cfg.K, cfg.Seed).Split(rows)
	if err != nil {
		return nil, 0, err
	}

	cv, err := model_selection.CrossValidate(X, y, folds, fitFn, evalFn, true)
	if err != nil {
		return nil, 0, err
	}
	return cv.PerFoldErrors, cv.MeanError(), nil
}
