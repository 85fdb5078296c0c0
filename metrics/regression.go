// Package metrics は回帰モデルの評価指標を提供します。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/modelpipe/pkg/errors"
)

// validate は2つのベクトルの長さを検証し、長さを返す
func validate(op string, yTrue, yPred *mat.VecDense) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
//
// MSE = (1/n) * Σ(yTrue - yPred)²
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validate("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		d := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += d * d
	}
	return sum / float64(n), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
//
// MAE = (1/n) * Σ|yTrue - yPred|
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validate("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score は決定係数（R²）を計算する
//
// R² = 1 - RSS/TSS。yTrueに分散がない場合、予測が完全なら1、
// そうでなければ0を返す。
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := validate("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	var tss, rss float64
	for i := 0; i < n; i++ {
		yt := yTrue.AtVec(i)
		tss += (yt - yMean) * (yt - yMean)
		rss += (yt - yPred.AtVec(i)) * (yt - yPred.AtVec(i))
	}

	if tss == 0 {
		if rss == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 1 - rss/tss, nil
}

// Report は4つの標準回帰指標をまとめた構造体
type Report struct {
	MSE  float64
	MAE  float64
	RMSE float64
	R2   float64
}

// Evaluate は予測値と正解値から全指標を一括計算する。
// 副作用を持たない純粋関数であり、長さ不一致の場合のみ失敗する。
func Evaluate(yTrue, yPred *mat.VecDense) (Report, error) {
	var r Report
	var err error

	if r.MSE, err = MSE(yTrue, yPred); err != nil {
		return Report{}, err
	}
	if r.MAE, err = MAE(yTrue, yPred); err != nil {
		return Report{}, err
	}
	r.RMSE = math.Sqrt(r.MSE)
	if r.R2, err = R2Score(yTrue, yPred); err != nil {
		return Report{}, err
	}
	return r, nil
}
