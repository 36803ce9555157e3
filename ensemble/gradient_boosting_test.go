package ensemble

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestGradientBoostingRegressorFitsResiduals(t *testing.T) {
	X, y := noisySignal(80, 31)

	gb := NewGradientBoostingRegressor(
		WithNEstimators(50),
		WithShrinkage(0.1),
		WithInteractionDepth(3),
	)
	if err := gb.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	stages := gb.StageErrors()
	if len(stages) != 50 {
		t.Fatalf("expected 50 stage errors, got %d", len(stages))
	}

	// Squared-loss boosting never increases the training error
	for i := 1; i < len(stages); i++ {
		if stages[i] > stages[i-1]+1e-9 {
			t.Errorf("training error rose at stage %d: %v -> %v", i, stages[i-1], stages[i])
		}
	}
	if stages[len(stages)-1] >= stages[0] {
		t.Error("boosting should reduce the training error across stages")
	}
}

func TestGradientBoostingZeroShrinkageIsNoOp(t *testing.T) {
	X, y := noisySignal(40, 33)

	gb := NewGradientBoostingRegressor(WithNEstimators(10), WithShrinkage(0))
	if err := gb.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	mean := 0.0
	for i := 0; i < 40; i++ {
		mean += y.At(i, 0)
	}
	mean /= 40

	pred, err := gb.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for i := 0; i < 40; i++ {
		if pred.At(i, 0) != mean {
			t.Fatalf("zero shrinkage must leave predictions at the mean %v, got %v",
				mean, pred.At(i, 0))
		}
	}

	// The stage trace is flat at the stage-0 error
	stages := gb.StageErrors()
	for i := 1; i < len(stages); i++ {
		if stages[i] != stages[0] {
			t.Errorf("stage %d error %v differs from stage 0 error %v", i, stages[i], stages[0])
		}
	}
}

func TestGradientBoostingRegressorInit(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})

	gb := NewGradientBoostingRegressor(WithNEstimators(5))
	if err := gb.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if gb.Init() != 5 {
		t.Errorf("stage-0 prediction should be the mean 5, got %v", gb.Init())
	}
}

func TestGradientBoostingClassifierSeparable(t *testing.T) {
	X, y := labeledClusters(60, 35)

	gb := NewGradientBoostingClassifier(
		WithNEstimators(20),
		WithShrinkage(0.5),
	)
	if err := gb.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if score := gb.Score(X, y); score < 0.95 {
		t.Errorf("boosting should separate the clusters, got score %v", score)
	}

	probas, err := gb.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	for i := 0; i < 60; i++ {
		p0, p1 := probas.At(i, 0), probas.At(i, 1)
		if p0 < 0 || p0 > 1 || p1 < 0 || p1 > 1 {
			t.Fatalf("probabilities out of range at row %d: %v, %v", i, p0, p1)
		}
		if math.Abs(p0+p1-1) > 1e-9 {
			t.Fatalf("probabilities at row %d sum to %v", i, p0+p1)
		}
	}
}

func TestGradientBoostingClassifierLabelValidation(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})

	oneClass := mat.NewDense(4, 1, []float64{1, 1, 1, 1})
	if err := NewGradientBoostingClassifier(WithNEstimators(2)).Fit(X, oneClass); err == nil {
		t.Error("a single class should be rejected")
	}

	threeClass := mat.NewDense(4, 1, []float64{0, 1, 2, 0})
	if err := NewGradientBoostingClassifier(WithNEstimators(2)).Fit(X, threeClass); err == nil {
		t.Error("more than two classes should be rejected")
	}

	shifted := mat.NewDense(4, 1, []float64{1, 2, 1, 2})
	if err := NewGradientBoostingClassifier(WithNEstimators(2)).Fit(X, shifted); err == nil {
		t.Error("labels other than {0, 1} should be rejected")
	}
}

func TestGradientBoostingValidation(t *testing.T) {
	X, y := noisySignal(10, 37)

	if err := NewGradientBoostingRegressor(WithShrinkage(1.5)).Fit(X, y); err == nil {
		t.Error("shrinkage above 1 should be rejected")
	}
	if err := NewGradientBoostingRegressor(WithInteractionDepth(0)).Fit(X, y); err == nil {
		t.Error("interaction depth 0 should be rejected")
	}
	if _, err := NewGradientBoostingRegressor().Predict(X); err == nil {
		t.Error("predicting before fitting should fail")
	}
}

func TestGradientBoostingFeatureImportances(t *testing.T) {
	X, y := noisySignal(80, 39)

	gb := NewGradientBoostingRegressor(WithNEstimators(20), WithShrinkage(0.2))
	if err := gb.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	imp := gb.GetFeatureImportances()
	sum := 0.0
	for _, v := range imp {
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("importances should sum to 1, got %v", sum)
	}
	if imp[2] >= imp[0] || imp[2] >= imp[1] {
		t.Errorf("noise feature should rank last, got %v", imp)
	}
}
