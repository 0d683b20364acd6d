package ensemble

import (
	"gonum.org/v1/gonum/mat"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/metrics"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/sklearn/tree"
)

// RandomForestRegressor は回帰木の平均で予測するランダムフォレスト
// 各分割ではデフォルトで全特徴量を評価する
type RandomForestRegressor struct {
	forest
	trees []fittedTree
}

// NewRandomForestRegressor は新しい RandomForestRegressor を作成する
func NewRandomForestRegressor(opts ...Option) *RandomForestRegressor {
	return &RandomForestRegressor{forest: forest{forestParams: newParams(opts)}}
}

// Fit はフォレストを学習する
func (rf *RandomForestRegressor) Fit(X, y mat.Matrix) error {
	trees, err := rf.fitTrees("RandomForestRegressor.Fit", X, y, func(seed int64) fittedTree {
		return tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(rf.maxDepth),
			tree.WithMinSamplesLeaf(rf.minSamplesLeaf),
			tree.WithMaxFeatures(rf.maxFeatures),
			tree.WithRandomState(seed),
		)
	})
	if err != nil {
		return err
	}
	rf.trees = trees
	rf.SetFitted()
	return nil
}

// Predict は全ての木の予測の平均を返す
func (rf *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, err := rf.checkPredict("RandomForestRegressor", X)
	if err != nil {
		return nil, err
	}
	out := mat.NewVecDense(r, nil)
	for _, t := range rf.trees {
		pred, err := t.Predict(X)
		if err != nil {
			return nil, err
		}
		out.AddVec(out, pred.(mat.Vector))
	}
	out.ScaleVec(1/float64(len(rf.trees)), out)
	return out, nil
}

// Score は決定係数（R²）を返す
func (rf *RandomForestRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := rf.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(columnVector(y), pred.(mat.Vector))
}

func columnVector(y mat.Matrix) mat.Vector {
	if v, ok := y.(mat.Vector); ok {
		return v
	}
	r, _ := y.Dims()
	out := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		out.SetVec(i, y.At(i, 0))
	}
	return out
}
