// Package svm はサポートベクター回帰を提供します。
package svm

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/modelpipe/core/model"
	"github.com/YuminosukeSato/modelpipe/pkg/errors"
)

// SVR はepsilon-insensitive損失を確率的勾配降下法で最小化する線形SVR。
// scikit-learnのSVR（linearカーネル）に相当する。
//
// 注意: モデルディスパッチの許可リストには含まれるが、設定ファイルの
// レジストリにはSVR用のエントリが存在しないため、パイプライン経由では
// 設定解決の段階で失敗する。
type SVR struct {
	model.BaseEstimator

	// ハイパーパラメータ
	C            float64 // 正則化パラメータ（大きいほど正則化が弱い）
	Epsilon      float64 // 不感帯の幅
	MaxIter      int     // 最大エポック数
	Tol          float64 // 収束判定（エポック間の重み変化ノルム）
	LearningRate float64 // SGDのステップ幅
	Shuffle      bool    // 各エポックでサンプル順をシャッフルするか
	RandomState  int64   // シャッフルの乱数シード

	// 学習パラメータ
	Coef      []float64
	Intercept float64
	NFeatures int
	NIter     int // 実際に実行されたエポック数
}

// SVROption はSVRの設定オプション
type SVROption func(*SVR)

// WithC は正則化パラメータを設定する
func WithC(c float64) SVROption {
	return func(s *SVR) { s.C = c }
}

// WithEpsilon は不感帯の幅を設定する
func WithEpsilon(eps float64) SVROption {
	return func(s *SVR) { s.Epsilon = eps }
}

// WithMaxIter は最大エポック数を設定する
func WithMaxIter(n int) SVROption {
	return func(s *SVR) { s.MaxIter = n }
}

// WithTol は収束判定の許容誤差を設定する
func WithTol(tol float64) SVROption {
	return func(s *SVR) { s.Tol = tol }
}

// WithLearningRate はSGDのステップ幅を設定する
func WithLearningRate(eta float64) SVROption {
	return func(s *SVR) { s.LearningRate = eta }
}

// WithRandomState はシャッフルの乱数シードを設定する
func WithRandomState(seed int64) SVROption {
	return func(s *SVR) { s.RandomState = seed }
}

// NewSVR は新しいSVRを作成する
func NewSVR(opts ...SVROption) *SVR {
	s := &SVR{
		C:            1.0,
		Epsilon:      0.1,
		MaxIter:      1000,
		Tol:          1e-3,
		LearningRate: 0.01,
		Shuffle:      true,
		RandomState:  -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fit はモデルを訓練データで学習させる
func (s *SVR) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("SVR.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("SVR.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("SVR.Fit", "y must be a column vector")
	}
	if s.C <= 0 {
		return errors.NewValidationError("C", "must be > 0", s.C)
	}
	if s.Epsilon < 0 {
		return errors.NewValidationError("epsilon", "must be >= 0", s.Epsilon)
	}

	s.NFeatures = c
	s.Coef = make([]float64, c)
	s.Intercept = 0

	var rng *rand.Rand
	if s.RandomState >= 0 {
		rng = rand.New(rand.NewSource(s.RandomState))
	} else {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	order := make([]int, r)
	for i := range order {
		order[i] = i
	}

	// 正則化項 (1/(2C))||w||² を含む劣勾配で1サンプルずつ更新する
	lambda := 1.0 / (s.C * float64(r))
	prev := make([]float64, c)

	for epoch := 0; epoch < s.MaxIter; epoch++ {
		s.NIter = epoch + 1
		copy(prev, s.Coef)

		if s.Shuffle {
			rng.Shuffle(r, func(a, b int) { order[a], order[b] = order[b], order[a] })
		}

		for _, i := range order {
			pred := s.Intercept
			for j := 0; j < c; j++ {
				pred += s.Coef[j] * X.At(i, j)
			}
			residual := pred - y.At(i, 0)

			// 不感帯の外にあるサンプルだけが損失に寄与する
			var sign float64
			switch {
			case residual > s.Epsilon:
				sign = 1
			case residual < -s.Epsilon:
				sign = -1
			}

			for j := 0; j < c; j++ {
				grad := lambda*s.Coef[j] + sign*X.At(i, j)
				s.Coef[j] -= s.LearningRate * grad
			}
			s.Intercept -= s.LearningRate * sign
		}

		var delta float64
		for j := 0; j < c; j++ {
			d := s.Coef[j] - prev[j]
			delta += d * d
		}
		if math.Sqrt(delta) < s.Tol {
			break
		}
	}

	s.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (s *SVR) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("SVR", "Predict")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("SVR.Predict", s.NFeatures, c, 1)
	}

	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred := s.Intercept
		for j := 0; j < c; j++ {
			pred += s.Coef[j] * X.At(i, j)
		}
		out.Set(i, 0, pred)
	}
	return out, nil
}
