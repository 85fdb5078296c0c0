// Package modelselection はデータ分割のユーティリティを提供します。
package modelselection

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/modelpipe/pkg/errors"
)

// SplitResult はTrainTestSplitの結果を保持する
type SplitResult struct {
	XTrain *mat.Dense
	XTest  *mat.Dense
	YTrain *mat.VecDense
	YTest  *mat.VecDense
}

// TrainTestSplit は行をシャッフルして訓練/テストの2つの部分集合に分割する。
//
// 同じシード・同じ割合・同じ入力順序に対して常に同一の分割を返す
// （再現性の不変条件）。テストサイズはscikit-learnと同様に
// ceil(n * testSize) 行となる。
func TrainTestSplit(X *mat.Dense, y *mat.VecDense, testSize float64, seed int64) (*SplitResult, error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, errors.NewValidationError("test_size",
			"must be in the open interval (0, 1)", testSize)
	}

	n, c := X.Dims()
	if y.Len() != n {
		return nil, errors.NewDimensionError("TrainTestSplit", n, y.Len(), 0)
	}

	nTest := int(math.Ceil(float64(n) * testSize))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return nil, errors.NewValueError("TrainTestSplit",
			"too few rows for the requested split")
	}

	// シード付きFisher-Yatesで行インデックスを並べ替える
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)

	testIdx := perm[:nTest]
	trainIdx := perm[nTest:]

	res := &SplitResult{
		XTrain: mat.NewDense(nTrain, c, nil),
		XTest:  mat.NewDense(nTest, c, nil),
		YTrain: mat.NewVecDense(nTrain, nil),
		YTest:  mat.NewVecDense(nTest, nil),
	}

	for i, src := range trainIdx {
		for j := 0; j < c; j++ {
			res.XTrain.Set(i, j, X.At(src, j))
		}
		res.YTrain.SetVec(i, y.AtVec(src))
	}
	for i, src := range testIdx {
		for j := 0; j < c; j++ {
			res.XTest.Set(i, j, X.At(src, j))
		}
		res.YTest.SetVec(i, y.AtVec(src))
	}

	return res, nil
}
