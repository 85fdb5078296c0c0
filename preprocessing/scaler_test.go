package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestStandardScaler_FitTransform(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 100,
		2, 200,
		3, 300,
		4, 400,
	})

	scaler := NewStandardScaler(true, true)
	out, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() unexpected error: %v", err)
	}

	// each column must have mean ~0 and std ~1
	r, c := out.Dims()
	for j := 0; j < c; j++ {
		var sum float64
		for i := 0; i < r; i++ {
			sum += out.At(i, j)
		}
		mean := sum / float64(r)
		if math.Abs(mean) > 1e-10 {
			t.Errorf("column %d mean = %v, want 0", j, mean)
		}

		var sumSq float64
		for i := 0; i < r; i++ {
			d := out.At(i, j) - mean
			sumSq += d * d
		}
		std := math.Sqrt(sumSq / float64(r))
		if math.Abs(std-1.0) > 1e-10 {
			t.Errorf("column %d std = %v, want 1", j, std)
		}
	}
}

func TestStandardScaler_ZeroVarianceColumn(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{5, 5, 5})

	scaler := NewStandardScaler(true, true)
	out, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() unexpected error: %v", err)
	}

	// zero-variance column passes through as zeros, no division blowup
	for i := 0; i < 3; i++ {
		if got := out.At(i, 0); got != 0 {
			t.Errorf("out[%d] = %v, want 0", i, got)
		}
	}
}

func TestStandardScaler_NotFitted(t *testing.T) {
	scaler := NewStandardScaler(true, true)
	if _, err := scaler.Transform(mat.NewDense(2, 2, nil)); err == nil {
		t.Error("Transform() before Fit() should fail")
	}
}

func TestStandardScaler_DimensionMismatch(t *testing.T) {
	scaler := NewStandardScaler(true, true)
	if err := scaler.Fit(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})); err != nil {
		t.Fatalf("Fit() unexpected error: %v", err)
	}
	if _, err := scaler.Transform(mat.NewDense(3, 3, nil)); err == nil {
		t.Error("Transform() with wrong feature count should fail")
	}
}
