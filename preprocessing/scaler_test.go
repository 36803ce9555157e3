package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestStandardScalerFitTransform(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})

	scaler := NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	r, c := scaled.Dims()
	for j := 0; j < c; j++ {
		var sum, sumSq float64
		for i := 0; i < r; i++ {
			v := scaled.At(i, j)
			sum += v
			sumSq += v * v
		}
		mean := sum / float64(r)
		variance := sumSq/float64(r) - mean*mean

		if math.Abs(mean) > 1e-12 {
			t.Errorf("feature %d: mean %v, want 0", j, mean)
		}
		if math.Abs(variance-1) > 1e-12 {
			t.Errorf("feature %d: variance %v, want 1", j, variance)
		}
	}
}

func TestStandardScalerInverseTransform(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1, -5,
		2, 0,
		3, 5,
	})

	scaler := NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	restored, err := scaler.InverseTransform(scaled)
	if err != nil {
		t.Fatalf("InverseTransform failed: %v", err)
	}

	r, c := X.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.Abs(restored.At(i, j)-X.At(i, j)) > 1e-12 {
				t.Errorf("(%d,%d): restored %v, want %v", i, j, restored.At(i, j), X.At(i, j))
			}
		}
	}
}

func TestStandardScalerConstantFeature(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{7, 7, 7})

	scaler := NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	// Constant features map to zero, not NaN
	for i := 0; i < 3; i++ {
		if v := scaled.At(i, 0); v != 0 || math.IsNaN(v) {
			t.Errorf("constant feature should scale to 0, got %v", v)
		}
	}
}

func TestStandardScalerNotFitted(t *testing.T) {
	scaler := NewStandardScalerDefault()
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	if _, err := scaler.Transform(X); err == nil {
		t.Error("Transform before Fit should error")
	}
}

func TestStandardScalerDimensionMismatch(t *testing.T) {
	scaler := NewStandardScalerDefault()
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	if err := scaler.Fit(X); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	X3 := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	if _, err := scaler.Transform(X3); err == nil {
		t.Error("feature count mismatch should error")
	}
}
