// Package linear_model provides linear estimators for the training pipeline.
package linear_model

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/modelpipe/core/model"
	"github.com/YuminosukeSato/modelpipe/pkg/errors"
)

// LogisticRegression implements binary logistic regression fitted by batch
// gradient descent on the L2-regularized log-loss. C is the inverse
// regularization strength as in scikit-learn.
type LogisticRegression struct {
	model.BaseEstimator

	// Hyperparameters
	C            float64 // inverse regularization strength
	MaxIter      int     // maximum gradient descent iterations
	Tol          float64 // stopping tolerance on the gradient norm
	FitIntercept bool
	LearningRate float64 // gradient descent step size

	// Fitted parameters
	Coef      []float64
	Intercept float64
	Classes   []float64 // the two class labels, ascending
	NFeatures int
}

// LogisticOption is a functional option for LogisticRegression.
type LogisticOption func(*LogisticRegression)

// WithC sets the inverse regularization strength.
func WithC(c float64) LogisticOption {
	return func(lr *LogisticRegression) { lr.C = c }
}

// WithMaxIter sets the iteration budget.
func WithMaxIter(n int) LogisticOption {
	return func(lr *LogisticRegression) { lr.MaxIter = n }
}

// WithTol sets the convergence tolerance.
func WithTol(tol float64) LogisticOption {
	return func(lr *LogisticRegression) { lr.Tol = tol }
}

// WithFitIntercept controls whether an intercept term is learned.
func WithFitIntercept(fit bool) LogisticOption {
	return func(lr *LogisticRegression) { lr.FitIntercept = fit }
}

// WithLearningRate sets the gradient descent step size.
func WithLearningRate(eta float64) LogisticOption {
	return func(lr *LogisticRegression) { lr.LearningRate = eta }
}

// NewLogisticRegression creates a classifier with scikit-learn-like defaults.
func NewLogisticRegression(opts ...LogisticOption) *LogisticRegression {
	lr := &LogisticRegression{
		C:            1.0,
		MaxIter:      100,
		Tol:          1e-4,
		FitIntercept: true,
		LearningRate: 0.1,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

func sigmoid(z float64) float64 {
	// clamp to keep exp finite
	if z < -500 {
		z = -500
	} else if z > 500 {
		z = 500
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

// Fit learns the decision boundary. y must contain exactly two distinct
// labels; they are mapped onto {0, 1} in ascending order.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LogisticRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}
	if lr.C <= 0 {
		return errors.NewValidationError("C", "must be > 0", lr.C)
	}
	if lr.MaxIter < 1 {
		return errors.NewValidationError("max_iter", "must be >= 1", lr.MaxIter)
	}

	classes := uniqueLabels(y, r)
	if len(classes) != 2 {
		return errors.NewValueError("LogisticRegression.Fit",
			"binary classifier requires exactly two classes")
	}
	lr.Classes = classes

	// binary targets: 0 for the smaller label, 1 for the larger
	t := make([]float64, r)
	for i := 0; i < r; i++ {
		if y.At(i, 0) == classes[1] {
			t[i] = 1
		}
	}

	lr.NFeatures = c
	lr.Coef = make([]float64, c)
	lr.Intercept = 0

	alpha := 1.0 / (lr.C * float64(r)) // per-sample L2 weight

	grad := make([]float64, c)
	for iter := 0; iter < lr.MaxIter; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		var gradIntercept float64

		for i := 0; i < r; i++ {
			z := lr.Intercept
			for j := 0; j < c; j++ {
				z += lr.Coef[j] * X.At(i, j)
			}
			diff := sigmoid(z) - t[i]
			for j := 0; j < c; j++ {
				grad[j] += diff * X.At(i, j)
			}
			gradIntercept += diff
		}

		var norm float64
		for j := 0; j < c; j++ {
			grad[j] = grad[j]/float64(r) + alpha*lr.Coef[j]
			norm += grad[j] * grad[j]
		}
		gradIntercept /= float64(r)
		norm += gradIntercept * gradIntercept

		for j := 0; j < c; j++ {
			lr.Coef[j] -= lr.LearningRate * grad[j]
		}
		if lr.FitIntercept {
			lr.Intercept -= lr.LearningRate * gradIntercept
		}

		if math.Sqrt(norm) < lr.Tol {
			break
		}
	}

	lr.SetFitted()
	return nil
}

// PredictProba returns the probability of the positive (larger) class.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (*mat.VecDense, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}

	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", lr.NFeatures, c, 1)
	}

	probs := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		z := lr.Intercept
		for j := 0; j < c; j++ {
			z += lr.Coef[j] * X.At(i, j)
		}
		probs.SetVec(i, sigmoid(z))
	}
	return probs, nil
}

// Predict returns the original class labels, thresholding at 0.5. The labels
// are numeric, so downstream regression metrics apply directly.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	probs, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}

	r := probs.Len()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		if probs.AtVec(i) >= 0.5 {
			out.Set(i, 0, lr.Classes[1])
		} else {
			out.Set(i, 0, lr.Classes[0])
		}
	}
	return out, nil
}

func uniqueLabels(y mat.Matrix, r int) []float64 {
	seen := make(map[float64]bool)
	var labels []float64
	for i := 0; i < r; i++ {
		v := y.At(i, 0)
		if !seen[v] {
			seen[v] = true
			labels = append(labels, v)
		}
	}
	sort.Float64s(labels)
	return labels
}
