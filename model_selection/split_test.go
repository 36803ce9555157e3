package model_selection

import (
	"testing"
)

func TestKFoldSizesAndCoverage(t *testing.T) {
	cases := []struct {
		n, k int
	}{
		{10, 2},
		{10, 3},
		{10, 10},
		{100, 7},
		{5, 5},
		{2, 2},
	}

	for _, tc := range cases {
		kf := NewKFold(tc.k, 42)
		folds, err := kf.Split(tc.n)
		if err != nil {
			t.Fatalf("Split(n=%d, k=%d) failed: %v", tc.n, tc.k, err)
		}
		if len(folds) != tc.k {
			t.Fatalf("n=%d k=%d: expected %d folds, got %d", tc.n, tc.k, tc.k, len(folds))
		}

		// Every index appears in exactly one test fold
		seen := make(map[int]int)
		minSize, maxSize := tc.n, 0
		for _, fold := range folds {
			size := len(fold.TestIndices)
			if size < minSize {
				minSize = size
			}
			if size > maxSize {
				maxSize = size
			}
			for _, idx := range fold.TestIndices {
				seen[idx]++
			}

			// Train and test must partition [0, n)
			if len(fold.TrainIndices)+len(fold.TestIndices) != tc.n {
				t.Errorf("n=%d k=%d: train+test = %d, want %d",
					tc.n, tc.k, len(fold.TrainIndices)+len(fold.TestIndices), tc.n)
			}
		}

		if len(seen) != tc.n {
			t.Errorf("n=%d k=%d: %d distinct indices held out, want %d", tc.n, tc.k, len(seen), tc.n)
		}
		for idx, count := range seen {
			if count != 1 {
				t.Errorf("n=%d k=%d: index %d held out %d times", tc.n, tc.k, idx, count)
			}
		}
		if maxSize-minSize > 1 {
			t.Errorf("n=%d k=%d: fold sizes differ by more than 1 (%d..%d)", tc.n, tc.k, minSize, maxSize)
		}
	}
}

func TestKFoldReproducible(t *testing.T) {
	a, err := NewKFold(5, 7).Split(50)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	b, err := NewKFold(5, 7).Split(50)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	for i := range a {
		if len(a[i].TestIndices) != len(b[i].TestIndices) {
			t.Fatalf("fold %d sizes differ", i)
		}
		for j := range a[i].TestIndices {
			if a[i].TestIndices[j] != b[i].TestIndices[j] {
				t.Fatalf("fold %d differs between identically seeded splits", i)
			}
		}
	}
}

func TestKFoldDifferentSeeds(t *testing.T) {
	a, _ := NewKFold(5, 1).Split(100)
	b, _ := NewKFold(5, 2).Split(100)

	same := true
	for i := range a {
		for j := range a[i].TestIndices {
			if a[i].TestIndices[j] != b[i].TestIndices[j] {
				same = false
				break
			}
		}
	}
	if same {
		t.Error("different seeds produced identical partitions")
	}
}

func TestKFoldInvalidK(t *testing.T) {
	if _, err := NewKFold(1, 0).Split(10); err == nil {
		t.Error("k=1 should be rejected")
	}
	if _, err := NewKFold(11, 0).Split(10); err == nil {
		t.Error("k>n should be rejected")
	}
}

func TestLeaveOneOut(t *testing.T) {
	const n = 7
	folds, err := LeaveOneOut(n)
	if err != nil {
		t.Fatalf("LeaveOneOut failed: %v", err)
	}
	if len(folds) != n {
		t.Fatalf("expected %d folds, got %d", n, len(folds))
	}

	heldOut := make(map[int]bool)
	for i, fold := range folds {
		if len(fold.TestIndices) != 1 {
			t.Errorf("fold %d: test size %d, want 1", i, len(fold.TestIndices))
		}
		if len(fold.TrainIndices) != n-1 {
			t.Errorf("fold %d: train size %d, want %d", i, len(fold.TrainIndices), n-1)
		}
		heldOut[fold.TestIndices[0]] = true
	}
	if len(heldOut) != n {
		t.Errorf("every observation should be held out exactly once, got %d distinct", len(heldOut))
	}
}

func TestLeaveOneOutTooFewSamples(t *testing.T) {
	if _, err := LeaveOneOut(1); err == nil {
		t.Error("n=1 should be rejected")
	}
}
