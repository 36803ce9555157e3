package tree

import "math"

// criterion drives the incremental left/right sweep of the split search.
// reset places every sample of the node on the right side; moveLeft transfers
// one sample across the candidate threshold.
type criterion interface {
	reset(targets []float64, indices []int)
	moveLeft(target float64)
	childImpurities() (left, right float64)
	nodeImpurity(targets []float64, indices []int) float64
	leafValue(targets []float64, indices []int) []float64
}

// classificationCriterion computes Gini impurity or entropy from running
// class counts. Targets are class indices in [0, nClasses).
type classificationCriterion struct {
	nClasses    int
	useEntropy  bool
	leftCounts  []int
	rightCounts []int
	nLeft       int
	nRight      int
}

func newClassificationCriterion(nClasses int, useEntropy bool) *classificationCriterion {
	return &classificationCriterion{
		nClasses:    nClasses,
		useEntropy:  useEntropy,
		leftCounts:  make([]int, nClasses),
		rightCounts: make([]int, nClasses),
	}
}

func (c *classificationCriterion) reset(targets []float64, indices []int) {
	for k := 0; k < c.nClasses; k++ {
		c.leftCounts[k] = 0
		c.rightCounts[k] = 0
	}
	c.nLeft = 0
	c.nRight = len(indices)
	for _, i := range indices {
		c.rightCounts[int(targets[i])]++
	}
}

func (c *classificationCriterion) moveLeft(target float64) {
	k := int(target)
	c.leftCounts[k]++
	c.rightCounts[k]--
	c.nLeft++
	c.nRight--
}

func (c *classificationCriterion) childImpurities() (float64, float64) {
	return c.impurityFromCounts(c.leftCounts, c.nLeft),
		c.impurityFromCounts(c.rightCounts, c.nRight)
}

func (c *classificationCriterion) impurityFromCounts(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	if c.useEntropy {
		ent := 0.0
		for _, cnt := range counts {
			if cnt == 0 {
				continue
			}
			p := float64(cnt) / float64(n)
			ent -= p * math.Log2(p)
		}
		return ent
	}
	gini := 1.0
	for _, cnt := range counts {
		p := float64(cnt) / float64(n)
		gini -= p * p
	}
	return gini
}

func (c *classificationCriterion) nodeImpurity(targets []float64, indices []int) float64 {
	counts := make([]int, c.nClasses)
	for _, i := range indices {
		counts[int(targets[i])]++
	}
	return c.impurityFromCounts(counts, len(indices))
}

// leafValue is the class-probability vector of the node.
func (c *classificationCriterion) leafValue(targets []float64, indices []int) []float64 {
	value := make([]float64, c.nClasses)
	for _, i := range indices {
		value[int(targets[i])]++
	}
	n := float64(len(indices))
	for k := range value {
		value[k] /= n
	}
	return value
}

// regressionCriterion tracks running sums so the per-side variance is
// available at every sweep position. Scaled by the sample count, the variance
// is the sum of squared deviations from the side's mean.
type regressionCriterion struct {
	leftSum    float64
	leftSumSq  float64
	rightSum   float64
	rightSumSq float64
	nLeft      int
	nRight     int
}

func (c *regressionCriterion) reset(targets []float64, indices []int) {
	c.leftSum, c.leftSumSq = 0, 0
	c.rightSum, c.rightSumSq = 0, 0
	c.nLeft = 0
	c.nRight = len(indices)
	for _, i := range indices {
		c.rightSum += targets[i]
		c.rightSumSq += targets[i] * targets[i]
	}
}

func (c *regressionCriterion) moveLeft(target float64) {
	c.leftSum += target
	c.leftSumSq += target * target
	c.rightSum -= target
	c.rightSumSq -= target * target
	c.nLeft++
	c.nRight--
}

func (c *regressionCriterion) childImpurities() (float64, float64) {
	return variance(c.leftSum, c.leftSumSq, c.nLeft),
		variance(c.rightSum, c.rightSumSq, c.nRight)
}

func (c *regressionCriterion) nodeImpurity(targets []float64, indices []int) float64 {
	sum, sumSq := 0.0, 0.0
	for _, i := range indices {
		sum += targets[i]
		sumSq += targets[i] * targets[i]
	}
	return variance(sum, sumSq, len(indices))
}

func (c *regressionCriterion) leafValue(targets []float64, indices []int) []float64 {
	sum := 0.0
	for _, i := range indices {
		sum += targets[i]
	}
	return []float64{sum / float64(len(indices))}
}

func variance(sum, sumSq float64, n int) float64 {
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	v := sumSq/float64(n) - mean*mean
	// Catastrophic cancellation can push a zero variance slightly negative
	if v < 0 {
		return 0
	}
	return v
}
