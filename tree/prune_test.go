package tree

import (
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func noisyStepData(n int, seed uint64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := float64(i)
		X.Set(i, 0, x)
		base := 2.0
		if i >= n/2 {
			base = 8.0
		}
		y.Set(i, 0, base+0.5*rng.NormFloat64())
	}
	return X, y
}

func TestPruneShrinksTree(t *testing.T) {
	X, y := noisyStepData(40, 3)

	dt := NewDecisionTreeRegressor()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}

	fullLeaves := dt.GetNLeaves()
	if fullLeaves < 4 {
		t.Fatalf("Noisy data should grow a deep tree, got %d leaves", fullLeaves)
	}

	if err := dt.Prune(0.1); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	prunedLeaves := dt.GetNLeaves()
	if prunedLeaves >= fullLeaves {
		t.Errorf("Pruning should shrink the tree: %d -> %d leaves", fullLeaves, prunedLeaves)
	}

	// Predictions still come from a consistent tree
	if _, err := dt.Predict(X); err != nil {
		t.Fatalf("Predict after pruning failed: %v", err)
	}
}

func TestPruneLargeAlphaCollapsesToRoot(t *testing.T) {
	X, y := noisyStepData(30, 5)

	dt := NewDecisionTreeRegressor()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}
	if err := dt.Prune(1e6); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if dt.GetNLeaves() != 1 {
		t.Errorf("A huge alpha should collapse the tree to its root, got %d leaves", dt.GetNLeaves())
	}
}

func TestPruneZeroAlphaKeepsPerfectTree(t *testing.T) {
	// Noise-free step: every split earns its keep, alpha 0 prunes nothing
	X, y := stepData()

	dt := NewDecisionTreeRegressor()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}
	leaves := dt.GetNLeaves()

	if err := dt.Prune(0); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if dt.GetNLeaves() != leaves {
		t.Errorf("Alpha 0 must not prune gainful splits: %d -> %d leaves", leaves, dt.GetNLeaves())
	}
}

func TestPruneValidation(t *testing.T) {
	dt := NewDecisionTreeRegressor()
	if err := dt.Prune(0.1); err == nil {
		t.Error("Pruning an unfitted tree should fail")
	}

	X, y := stepData()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}
	if err := dt.Prune(-1); err == nil {
		t.Error("Negative alpha should be rejected")
	}
}

func TestSelectCCPAlpha(t *testing.T) {
	X, y := noisyStepData(60, 9)

	dt := NewDecisionTreeRegressor()
	alphas := []float64{0, 0.01, 0.05, 0.1, 0.5, 2.0}

	sel, err := dt.SelectCCPAlpha(X, y, alphas, 5, 42)
	if err != nil {
		t.Fatalf("SelectCCPAlpha failed: %v", err)
	}

	if len(sel.MeanErrors) != len(alphas) {
		t.Fatalf("Expected %d mean errors, got %d", len(alphas), len(sel.MeanErrors))
	}
	if sel.Alpha1SE < sel.AlphaMin {
		t.Errorf("The one-standard-error alpha %v must not be below the minimizer %v",
			sel.Alpha1SE, sel.AlphaMin)
	}
	if sel.NumFailedFolds != 0 {
		t.Errorf("No fold should fail, got %d", sel.NumFailedFolds)
	}

	// Reproducibility under the same seed
	sel2, err := dt.SelectCCPAlpha(X, y, alphas, 5, 42)
	if err != nil {
		t.Fatalf("SelectCCPAlpha failed: %v", err)
	}
	if sel.Alpha1SE != sel2.Alpha1SE || sel.AlphaMin != sel2.AlphaMin {
		t.Error("Identical seeds must select identical alphas")
	}
}

func TestSelectCCPAlphaValidation(t *testing.T) {
	X, y := stepData()
	dt := NewDecisionTreeRegressor()

	if _, err := dt.SelectCCPAlpha(X, y, nil, 3, 1); err == nil {
		t.Error("Empty alpha grid should be rejected")
	}
	if _, err := dt.SelectCCPAlpha(X, y, []float64{0.1, 0.05}, 3, 1); err == nil {
		t.Error("Descending alpha grid should be rejected")
	}
	if _, err := dt.SelectCCPAlpha(X, y, []float64{-0.1, 0.05}, 3, 1); err == nil {
		t.Error("Negative alpha should be rejected")
	}
}
