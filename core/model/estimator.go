package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う（n×1行列を返す）
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Regressor は学習と予測の両方を備えたモデルのインターフェース。
// パイプラインのモデルディスパッチはこの能力集合にのみ依存する。
type Regressor interface {
	Fitter
	Predictor
}

// ParameterGetter はハイパーパラメータを公開するモデルのインターフェース
type ParameterGetter interface {
	// GetParams はモデルのハイパーパラメータを返す
	GetParams() map[string]interface{}
}
