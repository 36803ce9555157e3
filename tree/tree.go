// Package tree implements CART decision trees for classification and
// regression. Trees are grown by exhaustive binary split search with
// deterministic tie-breaking, stored in a flat node arena, and can be pruned
// afterwards by cost-complexity pruning. Random per-node feature subsets turn
// a plain tree into the base learner random forests need.
package tree

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// node is one arena slot. feature is -1 for a leaf; left and right hold arena
// indices of the children, -1 when absent. value is the leaf payload: a
// class-probability vector for classification, a one-element mean for
// regression.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     []float64
	impurity  float64
	nSamples  int
}

type tree struct {
	nodes     []node
	nFeatures int
}

func (n *node) isLeaf() bool {
	return n.feature < 0
}

// grower holds the growth hyperparameters and the split criterion for one
// fit. nTotal is the root sample count; gains are normalized by it so
// minImpurityDecrease has the same meaning at every depth.
type grower struct {
	crit                criterion
	maxDepth            int // 0 means unlimited
	minSamplesSplit     int
	minSamplesLeaf      int
	minImpurityDecrease float64
	maxFeatures         int // 0 means all features
	rng                 *rand.Rand
	nTotal              int
}

// grow builds the subtree over indices and returns its arena index.
func (g *grower) grow(t *tree, X mat.Matrix, targets []float64, indices []int, depth int) int {
	imp := g.crit.nodeImpurity(targets, indices)
	idx := len(t.nodes)
	t.nodes = append(t.nodes, node{
		feature:  -1,
		left:     -1,
		right:    -1,
		value:    g.crit.leafValue(targets, indices),
		impurity: imp,
		nSamples: len(indices),
	})

	if len(indices) < g.minSamplesSplit || imp == 0 {
		return idx
	}
	if g.maxDepth > 0 && depth >= g.maxDepth {
		return idx
	}

	feature, threshold, gain, ok := g.bestSplit(X, targets, indices, imp)
	if !ok || gain < g.minImpurityDecrease {
		return idx
	}

	leftIndices, rightIndices := partition(X, indices, feature, threshold)

	left := g.grow(t, X, targets, leftIndices, depth+1)
	right := g.grow(t, X, targets, rightIndices, depth+1)

	// Set links after both recursive calls: append may have moved the arena
	t.nodes[idx].feature = feature
	t.nodes[idx].threshold = threshold
	t.nodes[idx].left = left
	t.nodes[idx].right = right
	return idx
}

// bestSplit searches every candidate feature exhaustively. Thresholds sit at
// midpoints between adjacent distinct sorted values. Candidates are visited
// in ascending feature index and ascending threshold order, and only a
// strictly larger gain replaces the incumbent, so ties resolve to the lowest
// feature index and then the lowest threshold.
func (g *grower) bestSplit(X mat.Matrix, targets []float64, indices []int, nodeImp float64) (feature int, threshold, gain float64, ok bool) {
	_, p := X.Dims()
	features := g.candidateFeatures(p)
	n := len(indices)

	bestGain := math.Inf(-1)
	bestFeature := -1
	bestThreshold := 0.0
	found := false

	sorted := make([]int, n)
	for _, j := range features {
		copy(sorted, indices)
		sort.Slice(sorted, func(a, b int) bool {
			va, vb := X.At(sorted[a], j), X.At(sorted[b], j)
			if va == vb {
				return sorted[a] < sorted[b]
			}
			return va < vb
		})

		g.crit.reset(targets, sorted)
		for i := 0; i < n-1; i++ {
			g.crit.moveLeft(targets[sorted[i]])

			vi := X.At(sorted[i], j)
			vNext := X.At(sorted[i+1], j)
			if vi == vNext {
				continue
			}

			nLeft, nRight := i+1, n-i-1
			if nLeft < g.minSamplesLeaf || nRight < g.minSamplesLeaf {
				continue
			}

			impL, impR := g.crit.childImpurities()
			candGain := (float64(n)*nodeImp - float64(nLeft)*impL - float64(nRight)*impR) /
				float64(g.nTotal)

			if candGain > bestGain {
				bestGain = candGain
				bestFeature = j
				bestThreshold = (vi + vNext) / 2
				found = true
			}
		}
	}

	return bestFeature, bestThreshold, bestGain, found
}

// candidateFeatures returns all feature indices, or a random subset of size
// maxFeatures drawn without replacement, ascending either way.
func (g *grower) candidateFeatures(p int) []int {
	if g.maxFeatures <= 0 || g.maxFeatures >= p {
		features := make([]int, p)
		for j := range features {
			features[j] = j
		}
		return features
	}

	perm := g.rng.Perm(p)
	subset := append([]int(nil), perm[:g.maxFeatures]...)
	sort.Ints(subset)
	return subset
}

// partition splits indices by the rule x[feature] <= threshold, the same rule
// prediction uses.
func partition(X mat.Matrix, indices []int, feature int, threshold float64) (left, right []int) {
	for _, i := range indices {
		if X.At(i, feature) <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

// predictRow walks the tree for one row and returns the leaf value.
func (t *tree) predictRow(X mat.Matrix, row int) []float64 {
	idx := 0
	for !t.nodes[idx].isLeaf() {
		nd := &t.nodes[idx]
		if X.At(row, nd.feature) <= nd.threshold {
			idx = nd.left
		} else {
			idx = nd.right
		}
	}
	return t.nodes[idx].value
}

func (t *tree) depth() int {
	return t.depthFrom(0)
}

func (t *tree) depthFrom(idx int) int {
	nd := &t.nodes[idx]
	if nd.isLeaf() {
		return 0
	}
	left := t.depthFrom(nd.left)
	right := t.depthFrom(nd.right)
	if left > right {
		return left + 1
	}
	return right + 1
}

func (t *tree) nLeaves() int {
	return t.leavesFrom(0)
}

func (t *tree) leavesFrom(idx int) int {
	nd := &t.nodes[idx]
	if nd.isLeaf() {
		return 1
	}
	return t.leavesFrom(nd.left) + t.leavesFrom(nd.right)
}

// featureImportances sums the impurity decrease of every reachable split per
// feature and normalizes to sum to 1. A stump-free tree (single leaf) yields
// all zeros.
func (t *tree) featureImportances() []float64 {
	importances := make([]float64, t.nFeatures)
	t.accumulateImportances(0, importances)

	total := 0.0
	for _, imp := range importances {
		total += imp
	}
	if total > 0 {
		for j := range importances {
			importances[j] /= total
		}
	}
	return importances
}

func (t *tree) accumulateImportances(idx int, importances []float64) {
	nd := &t.nodes[idx]
	if nd.isLeaf() {
		return
	}
	left := &t.nodes[nd.left]
	right := &t.nodes[nd.right]

	decrease := float64(nd.nSamples)*nd.impurity -
		float64(left.nSamples)*left.impurity -
		float64(right.nSamples)*right.impurity
	importances[nd.feature] += decrease

	t.accumulateImportances(nd.left, importances)
	t.accumulateImportances(nd.right, importances)
}
