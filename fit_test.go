package statlearn

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/statlearn/linear_model"
)

func regressionData(n int, seed uint64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	X := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x0 := rng.NormFloat64()
		x1 := rng.NormFloat64()
		x2 := rng.NormFloat64()
		X.Set(i, 0, x0)
		X.Set(i, 1, x1)
		X.Set(i, 2, x2)
		y.Set(i, 0, 2*x0-x1+0.5*rng.NormFloat64())
	}
	return X, y
}

func classificationData(n int, seed uint64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		label := i % 2
		center := float64(label) * 4
		X.Set(i, 0, center+rng.NormFloat64())
		X.Set(i, 1, center+rng.NormFloat64())
		y.Set(i, 0, float64(label))
	}
	return X, y
}

func TestFitLasso(t *testing.T) {
	X, y := regressionData(100, 42)

	result, err := Fit(X, y, Lasso, Config{K: 5, Seed: 42})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if result.SelectedLambda <= 0 {
		t.Errorf("selected penalty should be positive, got %v", result.SelectedLambda)
	}
	if len(result.PerFoldErrors) != 5 {
		t.Errorf("expected 5 per-fold errors, got %d", len(result.PerFoldErrors))
	}
	if math.IsNaN(result.CVError) || result.CVError <= 0 {
		t.Errorf("CV error should be a positive number, got %v", result.CVError)
	}
	if !math.IsNaN(result.OOBError) {
		t.Errorf("a linear fit has no OOB error, got %v", result.OOBError)
	}

	est, ok := result.Model.(*linear_model.ElasticNet)
	if !ok {
		t.Fatalf("expected an ElasticNet model, got %T", result.Model)
	}
	coef := est.Coef()
	if coef[0] <= 0 {
		t.Errorf("coef[0] should be positive, got %v", coef[0])
	}
	if coef[1] >= 0 {
		t.Errorf("coef[1] should be negative, got %v", coef[1])
	}
}

func TestFitRidge(t *testing.T) {
	X, y := regressionData(80, 7)

	result, err := Fit(X, y, Ridge, Config{K: 5, Seed: 7})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	pred, err := result.Model.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if r, _ := pred.Dims(); r != 80 {
		t.Errorf("expected 80 predictions, got %d", r)
	}
}

func TestFitTreeFamily(t *testing.T) {
	X, y := regressionData(60, 9)

	result, err := Fit(X, y, Tree, Config{K: 5, Seed: 9, MaxDepth: 4})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if math.IsNaN(result.CVError) {
		t.Error("tree fit should report a CV error")
	}
	if len(result.FeatureImportances) != 3 {
		t.Errorf("expected 3 importances, got %d", len(result.FeatureImportances))
	}
	if !math.IsNaN(result.SelectedLambda) {
		t.Error("a tree has no penalty, SelectedLambda should be NaN")
	}
}

func TestFitRandomForest(t *testing.T) {
	X, y := regressionData(80, 11)

	result, err := Fit(X, y, RandomForest, Config{Seed: 11, NumTrees: 25})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if math.IsNaN(result.OOBError) || result.OOBError <= 0 {
		t.Errorf("forest should report a positive OOB error, got %v", result.OOBError)
	}
	imp := result.FeatureImportances
	// x2 carries no signal
	if imp[2] >= imp[0] {
		t.Errorf("noise feature should rank below the strongest signal, got %v", imp)
	}
}

func TestFitBoostingClassification(t *testing.T) {
	X, y := classificationData(60, 13)

	result, err := Fit(X, y, Boosting, Config{
		K:              3,
		Seed:           13,
		NumTrees:       20,
		Shrinkage:      0.5,
		Classification: true,
	})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// Misclassification rate on well-separated clusters stays small
	if result.CVError > 0.2 {
		t.Errorf("CV misclassification %v too large for separated clusters", result.CVError)
	}
}

func TestFitBaggingClassification(t *testing.T) {
	X, y := classificationData(60, 15)

	result, err := Fit(X, y, Bagging, Config{Seed: 15, NumTrees: 20, Classification: true})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if result.OOBError > 0.2 {
		t.Errorf("OOB misclassification %v too large for separated clusters", result.OOBError)
	}
}

func TestFitUnknownFamily(t *testing.T) {
	X, y := regressionData(20, 17)
	if _, err := Fit(X, y, Family(99), Config{}); err == nil {
		t.Error("unknown family should be rejected")
	}
}

func TestFitReproducible(t *testing.T) {
	X, y := regressionData(60, 19)

	a, err := Fit(X, y, Lasso, Config{K: 4, Seed: 19})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	b, err := Fit(X, y, Lasso, Config{K: 4, Seed: 19})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if a.SelectedLambda != b.SelectedLambda {
		t.Error("identical seeds must select identical penalties")
	}
	if a.CVError != b.CVError {
		t.Error("identical seeds must produce identical CV errors")
	}
}

func TestFamilyString(t *testing.T) {
	names := map[Family]string{
		Ridge:        "ridge",
		Lasso:        "lasso",
		Tree:         "tree",
		Bagging:      "bagging",
		RandomForest: "random_forest",
		Boosting:     "boosting",
	}
	for f, want := range names {
		if f.String() != want {
			t.Errorf("Family(%d).String() = %q, want %q", int(f), f.String(), want)
		}
	}
	if Family(99).String() != "unknown" {
		t.Errorf("out-of-range family should stringify as unknown")
	}
}
