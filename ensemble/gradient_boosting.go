package ensemble

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/modelpipe/core/model"
	"github.com/YuminosukeSato/modelpipe/pkg/errors"
	"github.com/YuminosukeSato/modelpipe/tree"
)

// XGBRegressor is a gradient-boosted tree regressor for squared loss in the
// XGBoost parameterization: each round fits a tree to the negative gradient
// and re-solves the leaf weights as -G/(H+lambda), so L2 regularization and
// min_child_weight behave as in the reference implementation (hessians are
// all 1 for squared loss).
type XGBRegressor struct {
	model.BaseEstimator

	// Hyperparameters
	NEstimators    int     // boosting rounds
	LearningRate   float64 // shrinkage applied to each tree's contribution
	MaxDepth       int     // per-tree depth limit
	MinChildWeight float64 // minimum hessian sum per leaf (= samples for squared loss)
	Lambda         float64 // L2 regularization on leaf weights
	Gamma          float64 // minimum loss reduction required to split
	BaseScore      float64 // initial prediction
	RandomState    int64

	// Fitted state
	Trees     []*tree.DecisionTreeRegressor
	InitScore float64
	NFeatures int
}

// XGBOption is a functional option for XGBRegressor.
type XGBOption func(*XGBRegressor)

// WithRounds sets the number of boosting rounds.
func WithRounds(n int) XGBOption {
	return func(x *XGBRegressor) { x.NEstimators = n }
}

// WithLearningRate sets the shrinkage factor.
func WithLearningRate(eta float64) XGBOption {
	return func(x *XGBRegressor) { x.LearningRate = eta }
}

// WithTreeDepth sets the per-tree depth limit.
func WithTreeDepth(depth int) XGBOption {
	return func(x *XGBRegressor) { x.MaxDepth = depth }
}

// WithMinChildWeight sets the minimum hessian sum required in a leaf.
func WithMinChildWeight(w float64) XGBOption {
	return func(x *XGBRegressor) { x.MinChildWeight = w }
}

// WithLambda sets the L2 regularization term on leaf weights.
func WithLambda(lambda float64) XGBOption {
	return func(x *XGBRegressor) { x.Lambda = lambda }
}

// WithGamma sets the minimum loss reduction required to make a split.
func WithGamma(gamma float64) XGBOption {
	return func(x *XGBRegressor) { x.Gamma = gamma }
}

// WithBaseScore sets the initial prediction for all rows.
func WithBaseScore(score float64) XGBOption {
	return func(x *XGBRegressor) { x.BaseScore = score }
}

// WithBoostingSeed sets the seed used for any per-tree subsampling.
func WithBoostingSeed(seed int64) XGBOption {
	return func(x *XGBRegressor) { x.RandomState = seed }
}

// NewXGBRegressor creates a booster with XGBoost-like defaults.
func NewXGBRegressor(opts ...XGBOption) *XGBRegressor {
	x := &XGBRegressor{
		NEstimators:    100,
		LearningRate:   0.3,
		MaxDepth:       6,
		MinChildWeight: 1,
		Lambda:         1,
		BaseScore:      0.5,
		RandomState:    -1,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Fit runs the boosting loop.
func (x *XGBRegressor) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("XGBRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("XGBRegressor.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("XGBRegressor.Fit", "y must be a column vector")
	}
	if x.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be >= 1", x.NEstimators)
	}
	if x.LearningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be > 0", x.LearningRate)
	}

	x.NFeatures = c
	x.InitScore = x.BaseScore
	x.Trees = x.Trees[:0]

	preds := make([]float64, r)
	for i := range preds {
		preds[i] = x.InitScore
	}

	minLeaf := int(x.MinChildWeight)
	if minLeaf < 1 {
		minLeaf = 1
	}

	residuals := mat.NewDense(r, 1, nil)
	for round := 0; round < x.NEstimators; round++ {
		// negative gradient of squared loss
		for i := 0; i < r; i++ {
			residuals.Set(i, 0, y.At(i, 0)-preds[i])
		}

		dt := tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(x.MaxDepth),
			tree.WithMinSamplesLeaf(minLeaf),
			tree.WithMinSplitGain(x.Gamma),
			tree.WithSeed(x.seedFor(round)),
		)
		if err := dt.Fit(X, residuals); err != nil {
			return errors.Wrapf(err, "boosting round %d", round)
		}

		x.regularizeLeaves(dt, X, residuals, r)
		x.Trees = append(x.Trees, dt)

		for i := 0; i < r; i++ {
			preds[i] += x.LearningRate * dt.PredictRow(X, i)
		}
	}

	x.SetFitted()
	return nil
}

func (x *XGBRegressor) seedFor(round int) int64 {
	if x.RandomState < 0 {
		return -1
	}
	return x.RandomState + int64(round)
}

// regularizeLeaves replaces each leaf's mean residual with the XGBoost leaf
// weight -G/(H+lambda). With unit hessians that is sum(residual)/(n+lambda),
// i.e. the mean scaled by n/(n+lambda).
func (x *XGBRegressor) regularizeLeaves(dt *tree.DecisionTreeRegressor, X mat.Matrix, residuals *mat.Dense, r int) {
	if x.Lambda == 0 {
		return
	}

	sums := make(map[int]float64)
	counts := make(map[int]int)
	for i := 0; i < r; i++ {
		leaf := dt.ApplyRow(X, i)
		sums[leaf] += residuals.At(i, 0)
		counts[leaf]++
	}
	for leaf, sum := range sums {
		dt.SetLeafValue(leaf, sum/(float64(counts[leaf])+x.Lambda))
	}
}

// Predict returns init score plus the shrunken sum of all trees.
func (x *XGBRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !x.IsFitted() {
		return nil, errors.NewNotFittedError("XGBRegressor", "Predict")
	}

	r, c := X.Dims()
	if c != x.NFeatures {
		return nil, errors.NewDimensionError("XGBRegressor.Predict", x.NFeatures, c, 1)
	}

	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := x.InitScore
		for _, dt := range x.Trees {
			pred += x.LearningRate * dt.PredictRow(X, i)
		}
		out.Set(i, 0, pred)
	}
	return out, nil
}
