// Package ensemble provides tree-ensemble regressors: bagged random forests
// and XGBoost-style gradient boosting.
package ensemble

import (
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/modelpipe/core/model"
	"github.com/YuminosukeSato/modelpipe/core/parallel"
	"github.com/YuminosukeSato/modelpipe/pkg/errors"
	"github.com/YuminosukeSato/modelpipe/tree"
)

// RandomForestRegressor averages the predictions of bootstrap-trained
// regression trees.
type RandomForestRegressor struct {
	model.BaseEstimator

	// Hyperparameters
	NEstimators    int   // number of trees
	MaxDepth       int   // per-tree depth limit (0 = unlimited)
	MinSamplesLeaf int   // minimum samples per leaf
	MaxFeatures    int   // features considered per split (0 = all)
	RandomState    int64 // seed; tree i derives its own stream from it

	// Fitted state
	Trees     []*tree.DecisionTreeRegressor
	NFeatures int
}

// ForestOption is a functional option for RandomForestRegressor.
type ForestOption func(*RandomForestRegressor)

// WithNEstimators sets the number of trees in the forest.
func WithNEstimators(n int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.NEstimators = n }
}

// WithMaxDepth sets the per-tree depth limit.
func WithMaxDepth(depth int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.MaxDepth = depth }
}

// WithMinSamplesLeaf sets the minimum number of samples per leaf.
func WithMinSamplesLeaf(n int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.MinSamplesLeaf = n }
}

// WithMaxFeatures sets how many features each split may consider.
func WithMaxFeatures(n int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.MaxFeatures = n }
}

// WithRandomState sets the seed for bootstrap sampling and feature
// subsampling. Non-negative seeds make fitting fully deterministic.
func WithRandomState(seed int64) ForestOption {
	return func(rf *RandomForestRegressor) { rf.RandomState = seed }
}

// NewRandomForestRegressor creates a forest with scikit-learn-like defaults.
func NewRandomForestRegressor(opts ...ForestOption) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		NEstimators:    100,
		MinSamplesLeaf: 1,
		RandomState:    -1,
	}
	for _, opt := range opts {
		opt(rf)
	}
	return rf
}

// Fit trains NEstimators trees on bootstrap resamples of the data.
// Trees occupy disjoint slots and derive per-tree seeds from RandomState,
// so the parallel fit is deterministic for a fixed seed.
func (rf *RandomForestRegressor) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("RandomForestRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("RandomForestRegressor.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("RandomForestRegressor.Fit", "y must be a column vector")
	}
	if rf.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be >= 1", rf.NEstimators)
	}

	rf.NFeatures = c
	rf.Trees = make([]*tree.DecisionTreeRegressor, rf.NEstimators)

	baseSeed := rf.RandomState
	if baseSeed < 0 {
		baseSeed = rand.Int63()
	}

	var mu sync.Mutex
	var firstErr error
	parallel.ParallelizeWithThreshold(rf.NEstimators, 4, func(start, end int) {
		for i := start; i < end; i++ {
			seed := baseSeed + int64(i)
			XBoot, yBoot := bootstrap(X, y, r, c, seed)

			dt := tree.NewDecisionTreeRegressor(
				tree.WithMaxDepth(rf.MaxDepth),
				tree.WithMinSamplesLeaf(rf.MinSamplesLeaf),
				tree.WithMaxFeatures(rf.MaxFeatures),
				tree.WithSeed(seed),
			)
			if err := dt.Fit(XBoot, yBoot); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = errors.Wrapf(err, "tree %d", i)
				}
				mu.Unlock()
				continue
			}
			rf.Trees[i] = dt
		}
	})
	if firstErr != nil {
		return firstErr
	}

	rf.SetFitted()
	return nil
}

// bootstrap draws r rows with replacement using a seeded stream.
func bootstrap(X, y mat.Matrix, r, c int, seed int64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewSource(seed))

	XBoot := mat.NewDense(r, c, nil)
	yBoot := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		src := rng.Intn(r)
		for j := 0; j < c; j++ {
			XBoot.Set(i, j, X.At(src, j))
		}
		yBoot.Set(i, 0, y.At(src, 0))
	}
	return XBoot, yBoot
}

// Predict returns the mean prediction across all trees.
func (rf *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !rf.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestRegressor", "Predict")
	}

	r, c := X.Dims()
	if c != rf.NFeatures {
		return nil, errors.NewDimensionError("RandomForestRegressor.Predict", rf.NFeatures, c, 1)
	}

	out := mat.NewDense(r, 1, nil)
	parallel.ParallelizeWithThreshold(r, 1000, func(start, end int) {
		for i := start; i < end; i++ {
			var sum float64
			for _, dt := range rf.Trees {
				sum += dt.PredictRow(X, i)
			}
			out.Set(i, 0, sum/float64(len(rf.Trees)))
		}
	})
	return out, nil
}
