// Package tree は CART アルゴリズムによる決定木（分類・回帰）を提供する
package tree

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/core/model"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// node は決定木のノード
type node struct {
	feature   int     // 分割に使う特徴量。葉では -1
	threshold float64 // x[feature] <= threshold なら左
	left      *node
	right     *node
	value     []float64 // 葉の出力（分類はクラス確率、回帰は平均値）
	nSamples  int
	impurity  float64
}

func (n *node) isLeaf() bool { return n.feature < 0 }

// splitter はサンプル集合の不純度を逐次計算する
type splitter interface {
	// reset は idx の全サンプルを右側に置いた状態に戻す
	reset(idx []int)
	// moveLeft はサンプル i を右側から左側へ移す
	moveLeft(i int)
	// impurities は左右それぞれの不純度を返す
	impurities() (left, right float64)
	// nodeImpurity は idx 全体の不純度を返す
	nodeImpurity(idx []int) float64
	// leafValue は idx から葉の出力を計算する
	leafValue(idx []int) []float64
}

// decisionTree は分類木と回帰木に共通の構築処理
type decisionTree struct {
	model.BaseEstimator
	treeParams

	root        *node
	nFeatures   int
	importances []float64
	depth       int
	nLeaves     int
	rng         *rand.Rand
}

func (t *decisionTree) validate() error {
	if t.maxDepth == 0 || t.maxDepth < -1 {
		return errors.NewValidationError("max_depth", "must be -1 (unlimited) or positive", t.maxDepth)
	}
	if t.minSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be at least 2", t.minSamplesSplit)
	}
	if t.minSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be at least 1", t.minSamplesLeaf)
	}
	return nil
}

func checkXY(op string, X, y mat.Matrix) (int, int, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if y == nil {
		return 0, 0, errors.NewValueError(op, "y is required")
	}
	ry, cy := y.Dims()
	if ry != r {
		return 0, 0, errors.NewDimensionError(op, r, ry, 0)
	}
	if cy != 1 {
		return 0, 0, errors.NewValueError(op, "y must be a column vector")
	}
	if err := errors.CheckMatrix(op, X); err != nil {
		return 0, 0, err
	}
	return r, c, nil
}

// build は X の全行を使って木を構築する
func (t *decisionTree) build(X mat.Matrix, s splitter) {
	r, c := X.Dims()
	t.nFeatures = c
	t.importances = make([]float64, c)
	t.depth = 0
	t.nLeaves = 0
	t.rng = rand.New(rand.NewSource(t.randomState))

	// 列ごとに連続したメモリに置いておく
	cols := make([][]float64, c)
	for j := 0; j < c; j++ {
		cols[j] = make([]float64, r)
		mat.Col(cols[j], j, X)
	}

	idx := make([]int, r)
	for i := range idx {
		idx[i] = i
	}
	t.root = t.grow(cols, s, idx, 0)

	var total float64
	for _, v := range t.importances {
		total += v
	}
	if total > 0 {
		for j := range t.importances {
			t.importances[j] /= total
		}
	}
}

func (t *decisionTree) grow(cols [][]float64, s splitter, idx []int, depth int) *node {
	n := &node{
		feature:  -1,
		nSamples: len(idx),
		impurity: s.nodeImpurity(idx),
		value:    s.leafValue(idx),
	}
	if depth > t.depth {
		t.depth = depth
	}

	stop := len(idx) < t.minSamplesSplit ||
		len(idx) < 2*t.minSamplesLeaf ||
		n.impurity <= 1e-12 ||
		(t.maxDepth > 0 && depth >= t.maxDepth)
	if stop {
		t.nLeaves++
		return n
	}

	feature, threshold, gain, ok := t.bestSplit(cols, s, idx, n.impurity)
	if !ok {
		t.nLeaves++
		return n
	}

	var left, right []int
	for _, i := range idx {
		if cols[feature][i] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	n.feature = feature
	n.threshold = threshold
	t.importances[feature] += gain
	n.left = t.grow(cols, s, left, depth+1)
	n.right = t.grow(cols, s, right, depth+1)
	return n
}

// bestSplit は不純度の重み付き減少量が最大となる分割を探す。
// gain はサンプル数で重み付けした不純度の減少量
func (t *decisionTree) bestSplit(cols [][]float64, s splitter, idx []int, parentImpurity float64) (int, float64, float64, bool) {
	features := t.candidateFeatures()
	nTotal := float64(len(idx))

	bestFeature := -1
	bestThreshold := 0.0
	bestChild := math.Inf(1)

	sorted := make([]int, len(idx))
	for _, j := range features {
		col := cols[j]
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool { return col[sorted[a]] < col[sorted[b]] })

		s.reset(sorted)
		for k := 0; k < len(sorted)-1; k++ {
			s.moveLeft(sorted[k])
			nLeft := k + 1
			nRight := len(sorted) - nLeft
			lo, hi := col[sorted[k]], col[sorted[k+1]]
			if lo == hi || nLeft < t.minSamplesLeaf || nRight < t.minSamplesLeaf {
				continue
			}

			impL, impR := s.impurities()
			child := (float64(nLeft)*impL + float64(nRight)*impR) / nTotal
			if child < bestChild-1e-12 {
				bestChild = child
				bestFeature = j
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold == hi {
					bestThreshold = lo
				}
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, 0, false
	}
	gain := nTotal * (parentImpurity - bestChild)
	if gain < 0 {
		gain = 0
	}
	return bestFeature, bestThreshold, gain, true
}

// candidateFeatures はこのノードで評価する特徴量を返す
func (t *decisionTree) candidateFeatures() []int {
	if t.maxFeatures <= 0 || t.maxFeatures >= t.nFeatures {
		all := make([]int, t.nFeatures)
		for j := range all {
			all[j] = j
		}
		return all
	}
	return t.rng.Perm(t.nFeatures)[:t.maxFeatures]
}

// apply は各サンプルが到達する葉を返す
func (t *decisionTree) apply(op string, X mat.Matrix) ([]*node, error) {
	if err := t.RequireFitted(op, "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != t.nFeatures {
		return nil, errors.NewDimensionError(op+".Predict", t.nFeatures, c, 1)
	}
	leaves := make([]*node, r)
	for i := 0; i < r; i++ {
		n := t.root
		for !n.isLeaf() {
			if X.At(i, n.feature) <= n.threshold {
				n = n.left
			} else {
				n = n.right
			}
		}
		leaves[i] = n
	}
	return leaves, nil
}

// FeatureImportances は不純度減少に基づく特徴量重要度（合計1）を返す
func (t *decisionTree) FeatureImportances() []float64 {
	out := make([]float64, len(t.importances))
	copy(out, t.importances)
	return out
}

var (
	_ model.Regressor  = (*DecisionTreeRegressor)(nil)
	_ model.Classifier = (*DecisionTreeClassifier)(nil)
)
