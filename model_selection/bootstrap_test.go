package model_selection

import (
	"math"
	"testing"
)

func TestBootstrapSampleShape(t *testing.T) {
	const n = 100
	indices, oob, err := BootstrapSample(n, 42)
	if err != nil {
		t.Fatalf("BootstrapSample failed: %v", err)
	}

	if len(indices) != n {
		t.Errorf("expected %d draws, got %d", n, len(indices))
	}
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			t.Errorf("draw %d out of range", idx)
		}
	}

	// OOB must be exactly the complement of the drawn set
	drawn := make(map[int]bool)
	for _, idx := range indices {
		drawn[idx] = true
	}
	for _, idx := range oob {
		if drawn[idx] {
			t.Errorf("index %d is both drawn and out-of-bag", idx)
		}
	}
	if len(drawn)+len(oob) != n {
		t.Errorf("drawn (%d distinct) + oob (%d) != n (%d)", len(drawn), len(oob), n)
	}
}

func TestBootstrapSampleReproducible(t *testing.T) {
	a, aOOB, _ := BootstrapSample(50, 7)
	b, bOOB, _ := BootstrapSample(50, 7)

	for i := range a {
		if a[i] != b[i] {
			t.Fatal("identical seeds produced different samples")
		}
	}
	if len(aOOB) != len(bOOB) {
		t.Fatal("identical seeds produced different OOB sets")
	}
}

func TestBootstrapOOBFraction(t *testing.T) {
	// The expected OOB fraction approaches (1-1/n)^n ≈ 0.368. Average over
	// replicates to damp sampling noise.
	const n = 200
	const replicates = 200

	total := 0
	for s := int64(0); s < replicates; s++ {
		_, oob, err := BootstrapSample(n, s)
		if err != nil {
			t.Fatalf("BootstrapSample failed: %v", err)
		}
		total += len(oob)
	}

	fraction := float64(total) / float64(n*replicates)
	expected := math.Pow(1-1.0/float64(n), float64(n))
	if math.Abs(fraction-expected) > 0.02 {
		t.Errorf("mean OOB fraction %.4f, expected about %.4f", fraction, expected)
	}
}

func TestBootstrapSampleInvalidN(t *testing.T) {
	if _, _, err := BootstrapSample(0, 0); err == nil {
		t.Error("n=0 should be rejected")
	}
}
