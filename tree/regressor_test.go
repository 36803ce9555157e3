package tree

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func stepData() (*mat.Dense, *mat.Dense) {
	// Piecewise-constant response: 2 below x=5, 8 above
	X := mat.NewDense(10, 1, nil)
	y := mat.NewDense(10, 1, nil)
	for i := 0; i < 10; i++ {
		X.Set(i, 0, float64(i))
		if i < 5 {
			y.Set(i, 0, 2)
		} else {
			y.Set(i, 0, 8)
		}
	}
	return X, y
}

func TestDecisionTreeRegressor_FitPredict(t *testing.T) {
	X, y := stepData()

	dt := NewDecisionTreeRegressor(WithMaxDepth(3))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	predictions, err := dt.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	for i := 0; i < 10; i++ {
		if predictions.At(i, 0) != y.At(i, 0) {
			t.Errorf("Sample %d: expected %v, got %v", i, y.At(i, 0), predictions.At(i, 0))
		}
	}

	// The single step should be found by the first split at the midpoint 4.5
	if dt.GetDepth() != 1 {
		t.Errorf("A single step needs exactly one split, got depth %d", dt.GetDepth())
	}

	if score := dt.Score(X, y); score != 1.0 {
		t.Errorf("Expected perfect R² on a learnable step, got %v", score)
	}
}

func TestDecisionTreeRegressor_LeafMeans(t *testing.T) {
	// Force a single leaf: predictions collapse to the overall mean
	X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	y := mat.NewDense(4, 1, []float64{1, 2, 3, 6})

	dt := NewDecisionTreeRegressor(WithMinSamplesSplit(10))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}
	if dt.GetNLeaves() != 1 {
		t.Fatalf("Expected a single leaf, got %d", dt.GetNLeaves())
	}

	predictions, err := dt.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	for i := 0; i < 4; i++ {
		if predictions.At(i, 0) != 3 {
			t.Errorf("Single leaf should predict the mean 3, got %v", predictions.At(i, 0))
		}
	}
}

func TestDecisionTreeRegressor_MinSamplesLeaf(t *testing.T) {
	X, y := stepData()

	dt := NewDecisionTreeRegressor(WithMinSamplesLeaf(3))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	// With 10 observations and leaves of at least 3, at most 3 leaves fit
	if dt.GetNLeaves() > 3 {
		t.Errorf("min_samples_leaf=3 allows at most 3 leaves, got %d", dt.GetNLeaves())
	}
}

func TestDecisionTreeRegressor_DeterministicTieBreak(t *testing.T) {
	// Two identical features: the split must land on feature 0
	X := mat.NewDense(6, 2, []float64{
		0, 0,
		1, 1,
		2, 2,
		10, 10,
		11, 11,
		12, 12,
	})
	y := mat.NewDense(6, 1, []float64{1, 1, 1, 5, 5, 5})

	dt := NewDecisionTreeRegressor()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	importances := dt.GetFeatureImportances()
	if importances[0] == 0 || importances[1] != 0 {
		t.Errorf("Ties must resolve to the lowest feature index, importances %v", importances)
	}
}

func TestDecisionTreeRegressor_SingleObservation(t *testing.T) {
	X := mat.NewDense(1, 3, []float64{1, 2, 3})
	y := mat.NewDense(1, 1, []float64{7})

	dt := NewDecisionTreeRegressor()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Single observation should fit as a single leaf: %v", err)
	}

	pred, err := dt.Predict(X)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	if pred.At(0, 0) != 7 {
		t.Errorf("Expected prediction 7, got %v", pred.At(0, 0))
	}
}

func TestDecisionTreeRegressor_NotFitted(t *testing.T) {
	dt := NewDecisionTreeRegressor()
	X := mat.NewDense(2, 1, []float64{1, 2})

	if _, err := dt.Predict(X); err == nil {
		t.Error("Expected error when predicting without fitting")
	}
	if !math.IsNaN(dt.Score(X, mat.NewDense(2, 1, []float64{1, 2}))) {
		t.Error("Score before fitting should be NaN")
	}
}

func TestDecisionTreeRegressor_MinImpurityDecrease(t *testing.T) {
	// Nearly constant response: a large gain floor suppresses all splits
	X := mat.NewDense(6, 1, []float64{0, 1, 2, 3, 4, 5})
	y := mat.NewDense(6, 1, []float64{1.0, 1.01, 0.99, 1.02, 0.98, 1.0})

	dt := NewDecisionTreeRegressor(WithMinImpurityDecrease(1.0))
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}
	if dt.GetNLeaves() != 1 {
		t.Errorf("A high gain floor should keep the tree a single leaf, got %d leaves", dt.GetNLeaves())
	}
}
