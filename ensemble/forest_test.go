package ensemble

import (
	"math"
	"testing"
)

func TestRandomForestRegressor(t *testing.T) {
	X, y := noisySignal(80, 21)

	rf := NewRandomForestRegressor(WithNEstimators(30), WithSeed(42))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	pred, err := rf.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	sse := 0.0
	for i := 0; i < 80; i++ {
		d := y.At(i, 0) - pred.At(i, 0)
		sse += d * d
	}
	if sse/80 > 8 {
		t.Errorf("forest training MSE %v too large", sse/80)
	}

	if oob := rf.OOBError(); math.IsNaN(oob) || oob <= 0 {
		t.Errorf("OOB error should be a positive number, got %v", oob)
	}
}

func TestRandomForestClassifier(t *testing.T) {
	X, y := labeledClusters(60, 23)

	rf := NewRandomForestClassifier(WithNEstimators(25), WithSeed(5))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if score := rf.Score(X, y); score < 0.95 {
		t.Errorf("forest should separate the clusters, got score %v", score)
	}
	if rf.OOBError() > 0.2 {
		t.Errorf("OOB misclassification should be small, got %v", rf.OOBError())
	}
}

func TestRandomForestReproducible(t *testing.T) {
	X, y := noisySignal(50, 25)

	a := NewRandomForestRegressor(WithNEstimators(10), WithSeed(13))
	b := NewRandomForestRegressor(WithNEstimators(10), WithSeed(13))
	if err := a.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if err := b.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	predA, _ := a.Predict(X)
	predB, _ := b.Predict(X)
	for i := 0; i < 50; i++ {
		if predA.At(i, 0) != predB.At(i, 0) {
			t.Fatalf("identical seeds must grow identical forests, row %d differs", i)
		}
	}
}

func TestRandomForestSubsetDefaults(t *testing.T) {
	if got := regressionSubsetSize(9); got != 3 {
		t.Errorf("regression default for p=9 should be 3, got %d", got)
	}
	if got := regressionSubsetSize(2); got != 1 {
		t.Errorf("regression default for p=2 should floor at 1, got %d", got)
	}
	if got := classificationSubsetSize(9); got != 3 {
		t.Errorf("classification default for p=9 should be 3, got %d", got)
	}
	if got := classificationSubsetSize(10); got != 4 {
		t.Errorf("classification default for p=10 should be ⌈√10⌉=4, got %d", got)
	}
}

func TestRandomForestMaxFeaturesOverride(t *testing.T) {
	X, y := noisySignal(40, 27)

	rf := NewRandomForestRegressor(WithNEstimators(5), WithMaxFeatures(3), WithSeed(1))
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("explicit subset size within [1, p] should be accepted: %v", err)
	}

	bad := NewRandomForestRegressor(WithNEstimators(5), WithMaxFeatures(7))
	if err := bad.Fit(X, y); err == nil {
		t.Error("subset size above p should be rejected")
	}
}
