// Package statlearn fits and validates statistical models on gonum matrices.
//
// Three model families are covered: penalized linear regression (ridge,
// lasso, elastic net) fitted by cyclic coordinate descent with
// cross-validated penalty selection, single CART trees with cost-complexity
// pruning, and tree ensembles (bagging, random forests, gradient boosting)
// with out-of-bag error tracking. A resampling engine (k-fold
// cross-validation, leave-one-out, bootstrap) underpins every selection
// procedure and isolates per-fold failures so one bad fold never poisons an
// aggregate.
//
// The top-level Fit function is the one-call entry point:
//
//	result, err := statlearn.Fit(X, y, statlearn.Lasso, statlearn.Config{K: 10, Seed: 42})
//
// The sub-packages expose the full estimator APIs for callers that need more
// control: linear_model, tree, ensemble, model_selection, metrics and
// preprocessing.
//
// All estimators accept gonum mat.Matrix inputs with observations in rows,
// report fatal misuse as typed errors and recoverable conditions (such as
// non-convergence) as warnings, and make every randomized procedure
// reproducible through explicit seeds.
package statlearn
