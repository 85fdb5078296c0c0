package ensemble

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// regressionData builds a noiseless linear target over two features.
func regressionData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		a := float64(i % 10)
		b := float64((i * 3) % 7)
		X.Set(i, 0, a)
		X.Set(i, 1, b)
		y.Set(i, 0, 2*a-b+1)
	}
	return X, y
}

func TestRandomForestRegressor_FitPredict(t *testing.T) {
	X, y := regressionData(60)

	rf := NewRandomForestRegressor(
		WithNEstimators(20),
		WithMaxDepth(8),
		WithRandomState(42),
	)
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit() unexpected error: %v", err)
	}

	preds, err := rf.Predict(X)
	if err != nil {
		t.Fatalf("Predict() unexpected error: %v", err)
	}

	// training fit should be tight on noiseless data
	var sse, tss, mean float64
	r, _ := preds.Dims()
	for i := 0; i < r; i++ {
		mean += y.At(i, 0)
	}
	mean /= float64(r)
	for i := 0; i < r; i++ {
		d := preds.At(i, 0) - y.At(i, 0)
		sse += d * d
		td := y.At(i, 0) - mean
		tss += td * td
	}
	if r2 := 1 - sse/tss; r2 < 0.9 {
		t.Errorf("training R2 = %v, want >= 0.9", r2)
	}
}

func TestRandomForestRegressor_Deterministic(t *testing.T) {
	X, y := regressionData(40)

	fit := func() *mat.Dense {
		rf := NewRandomForestRegressor(WithNEstimators(10), WithRandomState(7))
		if err := rf.Fit(X, y); err != nil {
			t.Fatalf("Fit() unexpected error: %v", err)
		}
		preds, err := rf.Predict(X)
		if err != nil {
			t.Fatalf("Predict() unexpected error: %v", err)
		}
		return preds.(*mat.Dense)
	}

	if !mat.Equal(fit(), fit()) {
		t.Error("same random_state should produce identical forests")
	}
}

func TestRandomForestRegressor_Errors(t *testing.T) {
	X, y := regressionData(10)

	rf := NewRandomForestRegressor()
	if _, err := rf.Predict(X); err == nil {
		t.Error("Predict() before Fit() should fail")
	}

	bad := NewRandomForestRegressor(WithNEstimators(0))
	if err := bad.Fit(X, y); err == nil {
		t.Error("Fit() with n_estimators=0 should fail")
	}

	rf2 := NewRandomForestRegressor(WithNEstimators(3), WithRandomState(1))
	if err := rf2.Fit(X, y); err != nil {
		t.Fatalf("Fit() unexpected error: %v", err)
	}
	if _, err := rf2.Predict(mat.NewDense(2, 5, nil)); err == nil {
		t.Error("Predict() with wrong feature count should fail")
	}
}

func TestXGBRegressor_FitPredict(t *testing.T) {
	X, y := regressionData(60)

	xgb := NewXGBRegressor(
		WithRounds(50),
		WithLearningRate(0.3),
		WithTreeDepth(6),
		WithBoostingSeed(42),
	)
	if err := xgb.Fit(X, y); err != nil {
		t.Fatalf("Fit() unexpected error: %v", err)
	}

	preds, err := xgb.Predict(X)
	if err != nil {
		t.Fatalf("Predict() unexpected error: %v", err)
	}

	r, _ := preds.Dims()
	var maxErr float64
	for i := 0; i < r; i++ {
		if d := math.Abs(preds.At(i, 0) - y.At(i, 0)); d > maxErr {
			maxErr = d
		}
	}
	// 50 rounds at eta=0.3 should fit this noiseless target closely
	if maxErr > 1.0 {
		t.Errorf("max training error = %v, want <= 1.0", maxErr)
	}
}

func TestXGBRegressor_LambdaShrinksLeaves(t *testing.T) {
	X, y := regressionData(30)

	free := NewXGBRegressor(WithRounds(1), WithLearningRate(1), WithLambda(0), WithBaseScore(0))
	reg := NewXGBRegressor(WithRounds(1), WithLearningRate(1), WithLambda(100), WithBaseScore(0))

	if err := free.Fit(X, y); err != nil {
		t.Fatalf("Fit() unexpected error: %v", err)
	}
	if err := reg.Fit(X, y); err != nil {
		t.Fatalf("Fit() unexpected error: %v", err)
	}

	pFree, _ := free.Predict(X)
	pReg, _ := reg.Predict(X)

	// the heavily regularized booster must predict closer to zero
	var magFree, magReg float64
	r, _ := pFree.Dims()
	for i := 0; i < r; i++ {
		magFree += math.Abs(pFree.At(i, 0))
		magReg += math.Abs(pReg.At(i, 0))
	}
	if magReg >= magFree {
		t.Errorf("lambda=100 magnitude %v should be below lambda=0 magnitude %v", magReg, magFree)
	}
}

func TestXGBRegressor_Errors(t *testing.T) {
	X, y := regressionData(10)

	xgb := NewXGBRegressor()
	if _, err := xgb.Predict(X); err == nil {
		t.Error("Predict() before Fit() should fail")
	}

	if err := NewXGBRegressor(WithRounds(0)).Fit(X, y); err == nil {
		t.Error("Fit() with zero rounds should fail")
	}
	if err := NewXGBRegressor(WithLearningRate(-1)).Fit(X, y); err == nil {
		t.Error("Fit() with negative learning rate should fail")
	}
}
