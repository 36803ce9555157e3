package errors

import (
	"strings"
	"testing"
)

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("ElasticNet", "Predict")

	var nfe *NotFittedError
	if !As(err, &nfe) {
		t.Fatalf("expected NotFittedError, got %T", err)
	}
	if nfe.ModelName != "ElasticNet" || nfe.Method != "Predict" {
		t.Errorf("unexpected fields: %+v", nfe)
	}
	if !strings.Contains(err.Error(), "not fitted") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestDimensionError(t *testing.T) {
	err := NewDimensionError("KFold.Split", 10, 3, 0)

	var de *DimensionError
	if !As(err, &de) {
		t.Fatalf("expected DimensionError, got %T", err)
	}
	if de.Expected != 10 || de.Got != 3 || de.Axis != 0 {
		t.Errorf("unexpected fields: %+v", de)
	}
	if !strings.Contains(err.Error(), "rows") {
		t.Errorf("axis 0 should report rows: %v", err)
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("k", "must be in [2, n]", 1)

	var ve *ValidationError
	if !As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if ve.ParamName != "k" {
		t.Errorf("unexpected param name: %s", ve.ParamName)
	}
}

func TestConvergenceWarningMessage(t *testing.T) {
	w := NewConvergenceWarning("coordinate descent", 1000, "")
	if !strings.Contains(w.Error(), "1000 iterations") {
		t.Errorf("unexpected message: %v", w)
	}

	w = NewConvergenceWarning("coordinate descent", 50, "lambda=0.1")
	if !strings.Contains(w.Error(), "lambda=0.1") {
		t.Errorf("custom message missing: %v", w)
	}
}

func TestWarnHandler(t *testing.T) {
	var captured error
	SetWarningHandler(func(w error) { captured = w })
	defer SetWarningHandler(nil)

	warning := NewConvergenceWarning("test", 10, "")
	Warn(warning)

	if captured == nil {
		t.Fatal("warning handler was not invoked")
	}
	var cw *ConvergenceWarning
	if !As(captured, &cw) {
		t.Errorf("expected ConvergenceWarning, got %T", captured)
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("update", []float64{1, 2, 3}, 0); err != nil {
		t.Errorf("finite values should pass: %v", err)
	}

	bad := []float64{1, nan(), 3}
	err := CheckNumericalStability("update", bad, 7)
	if err == nil {
		t.Fatal("NaN should be detected")
	}
	var nie *NumericalInstabilityError
	if !As(err, &nie) {
		t.Fatalf("expected NumericalInstabilityError, got %T", err)
	}
	if nie.Iteration != 7 {
		t.Errorf("iteration not recorded: %d", nie.Iteration)
	}
}

func TestRecover(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err, "fn")
		panic("boom")
	}
	err := fn()
	if err == nil {
		t.Fatal("panic should be converted to error")
	}
	var pe *PanicError
	if !As(err, &pe) {
		t.Fatalf("expected PanicError, got %T", err)
	}
	if pe.Operation != "fn" {
		t.Errorf("unexpected operation: %s", pe.Operation)
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}
