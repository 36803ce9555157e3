package ensemble

import (
	"github.com/YuminosukeSato/statlearn/core/model"
)

// RandomForestRegressor is bagging over regression trees that additionally
// restrict every split to a random feature subset, decorrelating the trees.
// The subset defaults to p/3 features (at least 1) and can be overridden with
// WithMaxFeatures.
type RandomForestRegressor struct {
	BaggingRegressor
}

// NewRandomForestRegressor creates a random forest regressor.
func NewRandomForestRegressor(options ...Option) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		BaggingRegressor: BaggingRegressor{
			state:          model.NewStateManager(),
			ensembleParams: defaultEnsembleParams(),
		},
	}
	for _, opt := range options {
		opt(&rf.ensembleParams)
	}
	rf.subsetDefault = regressionSubsetSize
	return rf
}

// RandomForestClassifier is bagging over classification trees with per-node
// random feature subsets, defaulting to ⌈√p⌉ features.
type RandomForestClassifier struct {
	BaggingClassifier
}

// NewRandomForestClassifier creates a random forest classifier.
func NewRandomForestClassifier(options ...Option) *RandomForestClassifier {
	rf := &RandomForestClassifier{
		BaggingClassifier: BaggingClassifier{
			state:          model.NewStateManager(),
			ensembleParams: defaultEnsembleParams(),
		},
	}
	for _, opt := range options {
		opt(&rf.ensembleParams)
	}
	rf.subsetDefault = classificationSubsetSize
	return rf
}
