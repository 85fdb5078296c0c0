package linear_model

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

// separableData returns two clusters on one feature with labels 0 and 1.
func separableData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(8, 1, []float64{-3, -2.5, -2, -1.5, 1.5, 2, 2.5, 3})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})
	return X, y
}

func TestLogisticRegression_FitPredict(t *testing.T) {
	X, y := separableData()

	lr := NewLogisticRegression(WithMaxIter(500))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() unexpected error: %v", err)
	}

	preds, err := lr.Predict(X)
	if err != nil {
		t.Fatalf("Predict() unexpected error: %v", err)
	}
	for i := 0; i < 8; i++ {
		if got, want := preds.At(i, 0), y.At(i, 0); got != want {
			t.Errorf("sample %d: predicted %v, want %v", i, got, want)
		}
	}
}

func TestLogisticRegression_PredictProba(t *testing.T) {
	X, y := separableData()

	lr := NewLogisticRegression(WithMaxIter(500))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() unexpected error: %v", err)
	}

	probs, err := lr.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba() unexpected error: %v", err)
	}

	for i := 0; i < probs.Len(); i++ {
		p := probs.AtVec(i)
		if p < 0 || p > 1 {
			t.Errorf("probability out of range: %v", p)
		}
	}
	// far-left point should lean class 0, far-right class 1
	if probs.AtVec(0) >= 0.5 {
		t.Errorf("leftmost point probability = %v, want < 0.5", probs.AtVec(0))
	}
	if probs.AtVec(7) < 0.5 {
		t.Errorf("rightmost point probability = %v, want >= 0.5", probs.AtVec(7))
	}
}

func TestLogisticRegression_NonBinaryLabels(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})

	three := mat.NewDense(3, 1, []float64{0, 1, 2})
	lr := NewLogisticRegression()
	if err := lr.Fit(X, three); err == nil {
		t.Error("Fit() with three classes should fail")
	}

	one := mat.NewDense(3, 1, []float64{1, 1, 1})
	if err := lr.Fit(X, one); err == nil {
		t.Error("Fit() with a single class should fail")
	}
}

func TestLogisticRegression_PreservesOriginalLabels(t *testing.T) {
	// labels other than 0/1 must round-trip through Predict
	X := mat.NewDense(6, 1, []float64{-2, -1.5, -1, 1, 1.5, 2})
	y := mat.NewDense(6, 1, []float64{-1, -1, -1, 5, 5, 5})

	lr := NewLogisticRegression(WithMaxIter(500))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit() unexpected error: %v", err)
	}

	preds, err := lr.Predict(X)
	if err != nil {
		t.Fatalf("Predict() unexpected error: %v", err)
	}
	for i := 0; i < 6; i++ {
		got := preds.At(i, 0)
		if got != -1 && got != 5 {
			t.Errorf("prediction %v is not one of the training labels", got)
		}
	}
}

func TestLogisticRegression_InvalidParams(t *testing.T) {
	X, y := separableData()

	if err := NewLogisticRegression(WithC(0)).Fit(X, y); err == nil {
		t.Error("Fit() with C=0 should fail")
	}
	if err := NewLogisticRegression(WithMaxIter(0)).Fit(X, y); err == nil {
		t.Error("Fit() with max_iter=0 should fail")
	}
}

func TestLogisticRegression_NotFitted(t *testing.T) {
	lr := NewLogisticRegression()
	if _, err := lr.Predict(mat.NewDense(1, 1, []float64{0})); err == nil {
		t.Error("Predict() before Fit() should fail")
	}
}
