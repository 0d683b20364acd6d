package ensemble

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/metrics"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/sklearn/tree"
)

// RandomForestClassifier はクラス確率の平均で予測するランダムフォレスト
// 各分割ではデフォルトで sqrt(n_features) 個の特徴量を評価する
type RandomForestClassifier struct {
	forest
	trees    []*tree.DecisionTreeClassifier
	nClasses int
	classes  []int
}

// NewRandomForestClassifier は新しい RandomForestClassifier を作成する
func NewRandomForestClassifier(opts ...Option) *RandomForestClassifier {
	return &RandomForestClassifier{forest: forest{forestParams: newParams(opts)}}
}

// Fit はフォレストを学習する。ラベルは 0..n_classes-1 の整数
func (rf *RandomForestClassifier) Fit(X, y mat.Matrix) error {
	if y == nil {
		return errors.NewValueError("RandomForestClassifier.Fit", "y is required")
	}
	r, c := X.Dims()
	nClasses := 0
	seen := make(map[int]bool)
	for i := 0; i < r; i++ {
		v := y.At(i, 0)
		if v < 0 || v != math.Trunc(v) {
			return errors.NewValueError("RandomForestClassifier.Fit",
				fmt.Sprintf("labels must be non-negative integers, got %v at row %d", v, i))
		}
		seen[int(v)] = true
		if int(v)+1 > nClasses {
			nClasses = int(v) + 1
		}
	}

	maxFeatures := rf.maxFeatures
	if maxFeatures <= 0 {
		maxFeatures = sqrtFeatures(c)
	}

	trees, err := rf.fitTrees("RandomForestClassifier.Fit", X, y, func(seed int64) fittedTree {
		return tree.NewDecisionTreeClassifier(
			tree.WithMaxDepth(rf.maxDepth),
			tree.WithMinSamplesLeaf(rf.minSamplesLeaf),
			tree.WithMaxFeatures(maxFeatures),
			tree.WithRandomState(seed),
			tree.WithNClasses(nClasses),
		)
	})
	if err != nil {
		return err
	}

	rf.trees = make([]*tree.DecisionTreeClassifier, len(trees))
	for i, t := range trees {
		rf.trees[i] = t.(*tree.DecisionTreeClassifier)
	}
	rf.nClasses = nClasses
	rf.classes = rf.classes[:0]
	for k := 0; k < nClasses; k++ {
		if seen[k] {
			rf.classes = append(rf.classes, k)
		}
	}
	rf.SetFitted()
	return nil
}

// PredictProba は各木のクラス確率の平均を返す
func (rf *RandomForestClassifier) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	r, err := rf.checkPredict("RandomForestClassifier", X)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(r, rf.nClasses, nil)
	for _, t := range rf.trees {
		proba, err := t.PredictProba(X)
		if err != nil {
			return nil, err
		}
		out.Add(out, proba)
	}
	out.Scale(1/float64(len(rf.trees)), out)
	return out, nil
}

// Predict は平均確率が最大のクラスを返す。同率の場合は小さいラベルを選ぶ
func (rf *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}
	r, _ := proba.Dims()
	out := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		row := proba.RawRowView(i)
		best := 0
		for k, p := range row {
			if p > row[best] {
				best = k
			}
		}
		out.SetVec(i, float64(best))
	}
	return out, nil
}

// Score は正解率を返す
func (rf *RandomForestClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := rf.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(columnVector(y), pred.(mat.Vector))
}

// Classes は学習データに現れたクラスを返す
func (rf *RandomForestClassifier) Classes() []int {
	out := make([]int, len(rf.classes))
	copy(out, rf.classes)
	return out
}
