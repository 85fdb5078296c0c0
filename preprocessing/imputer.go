// Package preprocessing は特徴量行列の前処理（欠損値補完・標準化）を提供します。
package preprocessing

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/modelpipe/core/model"
	"github.com/YuminosukeSato/modelpipe/pkg/errors"
)

// 補完戦略。scikit-learnのSimpleImputerと同じ名前を認識する。
const (
	StrategyMean         = "mean"
	StrategyMedian       = "median"
	StrategyMostFrequent = "most_frequent"
)

// SimpleImputer は欠損値（NaN）をカラムごとの統計量で置き換える。
// scikit-learn互換のfit/transformパターンに従う。
type SimpleImputer struct {
	model.BaseEstimator

	// Strategy は補完戦略（mean / median / most_frequent）
	Strategy string

	// Statistics は各カラムの補完値（Fitで計算される）
	Statistics []float64

	// NFeatures は学習時の特徴量数
	NFeatures int
}

// NewSimpleImputer は新しいSimpleImputerを作成する。
// 未知の戦略名はFit時にエラーになる。
func NewSimpleImputer(strategy string) *SimpleImputer {
	return &SimpleImputer{Strategy: strategy}
}

// Fit は各カラムの補完値を計算する。
// NaNを除いた値に対して統計量を取り、カラム全体が欠損の場合はエラーを返す。
func (im *SimpleImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("SimpleImputer.Fit", "empty data", errors.ErrEmptyData)
	}

	switch im.Strategy {
	case StrategyMean, StrategyMedian, StrategyMostFrequent:
	default:
		return errors.NewValidationError("strategy", "unknown imputation strategy", im.Strategy)
	}

	im.NFeatures = c
	im.Statistics = make([]float64, c)

	for j := 0; j < c; j++ {
		observed := make([]float64, 0, r)
		for i := 0; i < r; i++ {
			if v := X.At(i, j); !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}
		if len(observed) == 0 {
			return errors.NewValueError("SimpleImputer.Fit",
				"column has no observed values to impute from")
		}

		switch im.Strategy {
		case StrategyMean:
			im.Statistics[j] = mean(observed)
		case StrategyMedian:
			im.Statistics[j] = median(observed)
		case StrategyMostFrequent:
			im.Statistics[j] = mostFrequent(observed)
		}
	}

	im.SetFitted()
	return nil
}

// Transform は欠損セルを補完値で置き換えた新しい行列を返す。
// 出力の形状は入力と同一（行の削除は行わない）。
func (im *SimpleImputer) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !im.IsFitted() {
		return nil, errors.NewNotFittedError("SimpleImputer", "Transform")
	}

	r, c := X.Dims()
	if c != im.NFeatures {
		return nil, errors.NewDimensionError("SimpleImputer.Transform", im.NFeatures, c, 1)
	}

	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				v = im.Statistics[j]
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// FitTransform はFitとTransformを連続して実行する
func (im *SimpleImputer) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := im.Fit(X); err != nil {
		return nil, err
	}
	return im.Transform(X)
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// mostFrequent は最頻値を返す。頻度が同じ場合は小さい方の値を採用する
// （scikit-learnと同じタイブレーク）。
func mostFrequent(values []float64) float64 {
	counts := make(map[float64]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	best := math.Inf(1)
	bestCount := 0
	for v, count := range counts {
		if count > bestCount || (count == bestCount && v < best) {
			best = v
			bestCount = count
		}
	}
	return best
}
