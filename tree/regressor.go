// Package tree は回帰木（CART）を提供します。
// ensemble配下のランダムフォレストと勾配ブースティングの構成部品でもあります。
package tree

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/modelpipe/core/model"
	"github.com/YuminosukeSato/modelpipe/pkg/errors"
)

// Node は木の1ノード。Featureが-1の場合は葉を表す。
type Node struct {
	Feature   int     // 分割に使う特徴量のインデックス（葉は-1）
	Threshold float64 // 分割閾値（値 <= Threshold で左へ）
	Left      int     // 左子ノードのインデックス
	Right     int     // 右子ノードのインデックス
	Value     float64 // 葉の予測値（領域内のターゲット平均）
}

// DecisionTreeRegressor は分散減少基準で分割するCART回帰木
type DecisionTreeRegressor struct {
	model.BaseEstimator

	// ハイパーパラメータ
	MaxDepth       int     // 最大深さ（0は無制限）
	MinSamplesLeaf int     // 葉の最小サンプル数
	MaxFeatures    int     // 分割候補とする特徴量数（0は全特徴量）
	MinGain        float64 // 分割に要求する最小のSSE減少量
	Seed           int64   // 特徴量サブサンプリングの乱数シード

	// 学習結果。ノード0が根。
	Nodes     []Node
	NFeatures int

	rng *rand.Rand
}

// TreeOption はDecisionTreeRegressorの設定オプション
type TreeOption func(*DecisionTreeRegressor)

// WithMaxDepth は木の最大深さを設定する
func WithMaxDepth(depth int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MaxDepth = depth }
}

// WithMinSamplesLeaf は葉の最小サンプル数を設定する
func WithMinSamplesLeaf(n int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MinSamplesLeaf = n }
}

// WithMaxFeatures は分割候補とする特徴量数を設定する
func WithMaxFeatures(n int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MaxFeatures = n }
}

// WithMinSplitGain は分割に要求する最小のSSE減少量を設定する
func WithMinSplitGain(gain float64) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MinGain = gain }
}

// WithSeed は乱数シードを設定する
func WithSeed(seed int64) TreeOption {
	return func(t *DecisionTreeRegressor) { t.Seed = seed }
}

// NewDecisionTreeRegressor は新しい回帰木を作成する
func NewDecisionTreeRegressor(opts ...TreeOption) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{
		MinSamplesLeaf: 1,
		Seed:           -1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Fit は訓練データで木を構築する
func (t *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("DecisionTreeRegressor.Fit", "y must be a column vector")
	}

	t.NFeatures = c
	t.Nodes = t.Nodes[:0]

	if t.Seed >= 0 {
		t.rng = rand.New(rand.NewSource(t.Seed))
	} else {
		t.rng = rand.New(rand.NewSource(rand.Int63()))
	}

	indices := make([]int, r)
	for i := range indices {
		indices[i] = i
	}

	targets := make([]float64, r)
	for i := 0; i < r; i++ {
		targets[i] = y.At(i, 0)
	}

	t.buildNode(X, targets, indices, 1)
	t.SetFitted()
	return nil
}

// buildNode はindicesの部分集合に対してノードを構築し、そのインデックスを返す
func (t *DecisionTreeRegressor) buildNode(X mat.Matrix, y []float64, indices []int, depth int) int {
	nodeIdx := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Feature: -1, Value: meanOf(y, indices)})

	if len(indices) < 2*t.MinSamplesLeaf {
		return nodeIdx
	}
	if t.MaxDepth > 0 && depth > t.MaxDepth {
		return nodeIdx
	}

	feature, threshold, ok := t.findBestSplit(X, y, indices)
	if !ok {
		return nodeIdx
	}

	var left, right []int
	for _, i := range indices {
		if X.At(i, feature) <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < t.MinSamplesLeaf || len(right) < t.MinSamplesLeaf {
		return nodeIdx
	}

	t.Nodes[nodeIdx].Feature = feature
	t.Nodes[nodeIdx].Threshold = threshold
	t.Nodes[nodeIdx].Left = t.buildNode(X, y, left, depth+1)
	t.Nodes[nodeIdx].Right = t.buildNode(X, y, right, depth+1)
	return nodeIdx
}

// findBestSplit は二乗誤差和を最小化する分割を探す
func (t *DecisionTreeRegressor) findBestSplit(X mat.Matrix, y []float64, indices []int) (int, float64, bool) {
	n := len(indices)

	var totalSum, totalSq float64
	for _, i := range indices {
		totalSum += y[i]
		totalSq += y[i] * y[i]
	}
	parentSSE := totalSq - totalSum*totalSum/float64(n)

	bestGain := t.MinGain
	if bestGain < 1e-12 {
		bestGain = 1e-12
	}
	bestFeature := -1
	var bestThreshold float64

	for _, j := range t.candidateFeatures() {
		sorted := make([]int, n)
		copy(sorted, indices)
		sort.Slice(sorted, func(a, b int) bool {
			return X.At(sorted[a], j) < X.At(sorted[b], j)
		})

		// 左側の逐次和を伸ばしながら各境界のSSEを評価する
		var leftSum, leftSq float64
		for k := 0; k < n-1; k++ {
			yk := y[sorted[k]]
			leftSum += yk
			leftSq += yk * yk

			vk, vNext := X.At(sorted[k], j), X.At(sorted[k+1], j)
			if vk == vNext {
				continue
			}

			nLeft := float64(k + 1)
			nRight := float64(n - k - 1)
			if k+1 < t.MinSamplesLeaf || n-k-1 < t.MinSamplesLeaf {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nLeft) + (rightSq - rightSum*rightSum/nRight)

			if gain := parentSSE - sse; gain > bestGain {
				bestGain = gain
				bestFeature = j
				bestThreshold = (vk + vNext) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

// candidateFeatures はMaxFeaturesに従って分割候補の特徴量を返す
func (t *DecisionTreeRegressor) candidateFeatures() []int {
	if t.MaxFeatures <= 0 || t.MaxFeatures >= t.NFeatures {
		all := make([]int, t.NFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return t.rng.Perm(t.NFeatures)[:t.MaxFeatures]
}

// Predict は入力データに対する予測を行う
func (t *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !t.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeRegressor", "Predict")
	}

	r, c := X.Dims()
	if c != t.NFeatures {
		return nil, errors.NewDimensionError("DecisionTreeRegressor.Predict", t.NFeatures, c, 1)
	}

	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, t.predictRow(X, i))
	}
	return out, nil
}

// PredictRow は1行分の予測値を返す（アンサンブル側から利用される）
func (t *DecisionTreeRegressor) PredictRow(X mat.Matrix, row int) float64 {
	return t.predictRow(X, row)
}

// ApplyRow は1行が到達する葉ノードのインデックスを返す。
// 勾配ブースティング側の葉値の再計算に使われる。
func (t *DecisionTreeRegressor) ApplyRow(X mat.Matrix, row int) int {
	idx := 0
	for {
		node := t.Nodes[idx]
		if node.Feature < 0 {
			return idx
		}
		if X.At(row, node.Feature) <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

// SetLeafValue は指定した葉の予測値を書き換える
func (t *DecisionTreeRegressor) SetLeafValue(idx int, value float64) {
	t.Nodes[idx].Value = value
}

func (t *DecisionTreeRegressor) predictRow(X mat.Matrix, row int) float64 {
	idx := 0
	for {
		node := t.Nodes[idx]
		if node.Feature < 0 {
			return node.Value
		}
		if X.At(row, node.Feature) <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

func meanOf(y []float64, indices []int) float64 {
	if len(indices) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, i := range indices {
		sum += y[i]
	}
	return sum / float64(len(indices))
}
