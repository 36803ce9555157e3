package statlearn

// Family selects the model class Fit builds. The set is closed; Fit rejects
// values outside it.
type Family int

const (
	// Ridge is L2-penalized linear regression with cross-validated penalty
	// selection.
	Ridge Family = iota
	// Lasso is L1-penalized linear regression with cross-validated penalty
	// selection.
	Lasso
	// Tree is a single CART tree.
	Tree
	// Bagging is bootstrap aggregation of unpruned trees.
	Bagging
	// RandomForest is bagging with per-node random feature subsets.
	RandomForest
	// Boosting is gradient boosting of shallow trees.
	Boosting
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case Ridge:
		return "ridge"
	case Lasso:
		return "lasso"
	case Tree:
		return "tree"
	case Bagging:
		return "bagging"
	case RandomForest:
		return "random_forest"
	case Boosting:
		return "boosting"
	default:
		return "unknown"
	}
}

// Config carries the hyperparameters Fit passes to the selected family.
// Zero values select sensible defaults where a default exists: K defaults to
// 5 folds, NumTrees to 100, Shrinkage to 0.1, InteractionDepth to 3, and an
// empty LambdaGrid is auto-generated from the data. Fields a family does not
// use are ignored.
type Config struct {
	// Penalized linear models
	Alpha      float64   // L1 mixing override; 0 keeps the family default
	LambdaGrid []float64 // descending penalty grid; empty = auto

	// Resampling
	K    int
	Seed int64

	// Trees and ensembles
	MaxDepth          int
	MinLeafSize       int
	MinGain           float64
	NumTrees          int
	FeatureSubsetSize int
	Shrinkage         float64
	InteractionDepth  int

	// Classification switches to classifier variants and misclassification
	// error throughout.
	Classification bool
}

func (c Config) withDefaults() Config {
	if c.K == 0 {
		c.K = 5
	}
	if c.NumTrees == 0 {
		c.NumTrees = 100
	}
	if c.Shrinkage == 0 {
		c.Shrinkage = 0.1
	}
	if c.InteractionDepth == 0 {
		c.InteractionDepth = 3
	}
	if c.MinLeafSize == 0 {
		c.MinLeafSize = 1
	}
	return c
}
