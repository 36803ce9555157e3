package log

// Standard attribute keys for fitting operations. Using a fixed key set keeps
// logs filterable across components.
const (
	// ModelNameKey identifies the model type.
	// Examples: "ElasticNet", "RandomForestRegressor"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "cross_validate", "prune"
	OperationKey = "ml.operation"

	// ComponentKey identifies the package performing the operation.
	// Examples: "model_selection", "linear_model", "ensemble"
	ComponentKey = "ml.component"

	// SamplesKey is the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// FoldKey is the fold id inside a cross-validation run.
	FoldKey = "cv.fold"

	// LambdaKey is the penalty strength of the current path segment.
	LambdaKey = "penalty.lambda"

	// IterationKey is the stage index of a sequential fit.
	IterationKey = "ml.iteration"

	// DurationMsKey is the elapsed wall time of an operation in milliseconds.
	DurationMsKey = "duration.ms"
)
