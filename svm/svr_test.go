package svm

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func linearData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n)
		X.Set(i, 0, x)
		y.Set(i, 0, 3*x+1)
	}
	return X, y
}

func TestSVR_FitPredict(t *testing.T) {
	X, y := linearData(50)

	svr := NewSVR(
		WithEpsilon(0.01),
		WithMaxIter(2000),
		WithLearningRate(0.05),
		WithRandomState(42),
	)
	if err := svr.Fit(X, y); err != nil {
		t.Fatalf("Fit() unexpected error: %v", err)
	}

	preds, err := svr.Predict(X)
	if err != nil {
		t.Fatalf("Predict() unexpected error: %v", err)
	}

	r, _ := preds.Dims()
	var mae float64
	for i := 0; i < r; i++ {
		mae += math.Abs(preds.At(i, 0) - y.At(i, 0))
	}
	mae /= float64(r)
	// epsilon-insensitive fit on clean data should land within a few epsilon
	if mae > 0.2 {
		t.Errorf("MAE = %v, want <= 0.2", mae)
	}
}

func TestSVR_Deterministic(t *testing.T) {
	X, y := linearData(30)

	fit := func() []float64 {
		svr := NewSVR(WithMaxIter(100), WithRandomState(7))
		if err := svr.Fit(X, y); err != nil {
			t.Fatalf("Fit() unexpected error: %v", err)
		}
		return append([]float64{svr.Intercept}, svr.Coef...)
	}

	a, b := fit(), fit()
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("coefficient %d differs between identically seeded fits: %v vs %v",
				i, a[i], b[i])
		}
	}
}

func TestSVR_InvalidParams(t *testing.T) {
	X, y := linearData(10)

	if err := NewSVR(WithC(0)).Fit(X, y); err == nil {
		t.Error("Fit() with C=0 should fail")
	}
	if err := NewSVR(WithEpsilon(-0.1)).Fit(X, y); err == nil {
		t.Error("Fit() with negative epsilon should fail")
	}
}

func TestSVR_NotFitted(t *testing.T) {
	svr := NewSVR()
	if _, err := svr.Predict(mat.NewDense(1, 1, []float64{0})); err == nil {
		t.Error("Predict() before Fit() should fail")
	}
}

func TestSVR_DimensionChecks(t *testing.T) {
	X, y := linearData(10)
	svr := NewSVR(WithMaxIter(10), WithRandomState(1))
	if err := svr.Fit(X, y); err != nil {
		t.Fatalf("Fit() unexpected error: %v", err)
	}

	if _, err := svr.Predict(mat.NewDense(2, 3, nil)); err == nil {
		t.Error("Predict() with wrong feature count should fail")
	}
	if err := svr.Fit(X, mat.NewDense(3, 1, nil)); err == nil {
		t.Error("Fit() with mismatched rows should fail")
	}
}
