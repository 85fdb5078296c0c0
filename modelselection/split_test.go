package modelselection

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func makeData(n int) (*mat.Dense, *mat.VecDense) {
	X := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i)*10)
		y.SetVec(i, float64(i)*100)
	}
	return X, y
}

func TestTrainTestSplit_Sizes(t *testing.T) {
	X, y := makeData(10)

	res, err := TrainTestSplit(X, y, 0.2, 42)
	if err != nil {
		t.Fatalf("TrainTestSplit() unexpected error: %v", err)
	}

	if r, _ := res.XTrain.Dims(); r != 8 {
		t.Errorf("train rows = %d, want 8", r)
	}
	if r, _ := res.XTest.Dims(); r != 2 {
		t.Errorf("test rows = %d, want 2", r)
	}
	if res.YTrain.Len() != 8 || res.YTest.Len() != 2 {
		t.Errorf("target lengths = (%d, %d), want (8, 2)", res.YTrain.Len(), res.YTest.Len())
	}
}

func TestTrainTestSplit_Deterministic(t *testing.T) {
	X, y := makeData(50)

	a, err := TrainTestSplit(X, y, 0.3, 42)
	if err != nil {
		t.Fatalf("TrainTestSplit() unexpected error: %v", err)
	}
	b, err := TrainTestSplit(X, y, 0.3, 42)
	if err != nil {
		t.Fatalf("TrainTestSplit() unexpected error: %v", err)
	}

	if !mat.Equal(a.XTrain, b.XTrain) || !mat.Equal(a.XTest, b.XTest) {
		t.Error("same seed should produce identical feature partitions")
	}
	if !mat.Equal(a.YTrain, b.YTrain) || !mat.Equal(a.YTest, b.YTest) {
		t.Error("same seed should produce identical target partitions")
	}
}

func TestTrainTestSplit_DifferentSeeds(t *testing.T) {
	X, y := makeData(50)

	a, err := TrainTestSplit(X, y, 0.3, 1)
	if err != nil {
		t.Fatalf("TrainTestSplit() unexpected error: %v", err)
	}
	b, err := TrainTestSplit(X, y, 0.3, 2)
	if err != nil {
		t.Fatalf("TrainTestSplit() unexpected error: %v", err)
	}

	if mat.Equal(a.XTest, b.XTest) {
		t.Error("different seeds should (almost surely) produce different partitions")
	}
}

func TestTrainTestSplit_RowsStayPaired(t *testing.T) {
	X, y := makeData(20)

	res, err := TrainTestSplit(X, y, 0.25, 7)
	if err != nil {
		t.Fatalf("TrainTestSplit() unexpected error: %v", err)
	}

	// y was constructed as 100*X[:,0]; pairing must survive the shuffle
	check := func(Xp *mat.Dense, yp *mat.VecDense) {
		r, _ := Xp.Dims()
		for i := 0; i < r; i++ {
			if yp.AtVec(i) != Xp.At(i, 0)*100 {
				t.Errorf("row %d lost its target pairing: X=%v y=%v",
					i, Xp.At(i, 0), yp.AtVec(i))
			}
		}
	}
	check(res.XTrain, res.YTrain)
	check(res.XTest, res.YTest)
}

func TestTrainTestSplit_InvalidParams(t *testing.T) {
	X, y := makeData(10)

	for _, testSize := range []float64{0, 1, -0.5, 1.5} {
		if _, err := TrainTestSplit(X, y, testSize, 42); err == nil {
			t.Errorf("TrainTestSplit(testSize=%v) should fail", testSize)
		}
	}

	// single row cannot be split into two non-empty parts
	X1, y1 := makeData(1)
	if _, err := TrainTestSplit(X1, y1, 0.5, 42); err == nil {
		t.Error("TrainTestSplit() on one row should fail")
	}

	// mismatched lengths
	if _, err := TrainTestSplit(X, mat.NewVecDense(5, nil), 0.2, 42); err == nil {
		t.Error("TrainTestSplit() with mismatched X/y lengths should fail")
	}
}
