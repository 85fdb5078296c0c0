package model

// EstimatorState はモデルの学習状態を表す
type EstimatorState int

const (
	// NotFitted はモデルが未学習の状態
	NotFitted EstimatorState = iota
	// Fitted はモデルが学習済みの状態
	Fitted
)

// BaseEstimator は全ての推定器に埋め込まれる基底構造体。
// 学習済みかどうかの状態のみを保持する。
type BaseEstimator struct {
	State EstimatorState // gobエンコードのため公開
}

// IsFitted はモデルが学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.State == Fitted
}

// SetFitted はモデルを学習済み状態に設定する
func (e *BaseEstimator) SetFitted() {
	e.State = Fitted
}

// Reset はモデルを未学習状態に戻す
func (e *BaseEstimator) Reset() {
	e.State = NotFitted
}
