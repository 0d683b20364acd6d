// Package ensemble はブートストラップ標本で学習した決定木を束ねるランダムフォレストを提供する
package ensemble

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/core/model"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/core/parallel"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/sklearn/tree"
)

// DefaultNEstimators は木の本数のデフォルト値
const DefaultNEstimators = 100

// Option はランダムフォレストの設定オプション
type Option func(*forestParams)

type forestParams struct {
	nEstimators    int
	maxDepth       int
	minSamplesLeaf int
	maxFeatures    int // 0 以下はモデルごとのデフォルト
	bootstrap      bool
	randomState    int64
}

// WithNEstimators は木の本数を設定する
func WithNEstimators(n int) Option {
	return func(p *forestParams) {
		p.nEstimators = n
	}
}

// WithMaxDepth は各木の最大深さを設定する。-1 で無制限
func WithMaxDepth(depth int) Option {
	return func(p *forestParams) {
		p.maxDepth = depth
	}
}

// WithMinSamplesLeaf は葉の最小サンプル数を設定する
func WithMinSamplesLeaf(n int) Option {
	return func(p *forestParams) {
		p.minSamplesLeaf = n
	}
}

// WithMaxFeatures は各分割で評価する特徴量数を設定する
func WithMaxFeatures(n int) Option {
	return func(p *forestParams) {
		p.maxFeatures = n
	}
}

// WithBootstrap はブートストラップ標本を使うかどうかを設定する
func WithBootstrap(b bool) Option {
	return func(p *forestParams) {
		p.bootstrap = b
	}
}

// WithRandomState は乱数シードを設定する。i 番目の木はシード randomState+i を使う
func WithRandomState(seed int64) Option {
	return func(p *forestParams) {
		p.randomState = seed
	}
}

func newParams(opts []Option) forestParams {
	p := forestParams{
		nEstimators:    DefaultNEstimators,
		maxDepth:       -1,
		minSamplesLeaf: 1,
		bootstrap:      true,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func (p *forestParams) validate() error {
	if p.nEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", p.nEstimators)
	}
	return nil
}

// fittedTree は1本の木が満たすべき操作
type fittedTree interface {
	model.Fitter
	model.Predictor
	model.FeatureImporter
}

// forest は分類・回帰に共通の学習処理
type forest struct {
	model.BaseEstimator
	forestParams

	nFeatures   int
	importances []float64
}

// fitTrees は newTree で作った木を並列に学習する。
// 各木の乱数は seed+i から作るので、並列度に関係なく結果は再現する
func (f *forest) fitTrees(op string, X, y mat.Matrix, newTree func(seed int64) fittedTree) ([]fittedTree, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if y == nil {
		return nil, errors.NewValueError(op, "y is required")
	}
	if ry, _ := y.Dims(); ry != r {
		return nil, errors.NewDimensionError(op, r, ry, 0)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}

	trees := make([]fittedTree, f.nEstimators)
	errs := make([]error, f.nEstimators)
	parallel.ForEach(f.nEstimators, func(i int) {
		seed := f.randomState + int64(i)
		Xb, yb := X, y
		if f.bootstrap {
			Xb, yb = bootstrapSample(X, y, rand.New(rand.NewSource(seed)))
		}
		t := newTree(seed)
		errs[i] = t.Fit(Xb, yb)
		trees[i] = t
	})
	for _, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "%s", op)
		}
	}

	f.nFeatures = c
	f.importances = make([]float64, c)
	for _, t := range trees {
		for j, v := range t.FeatureImportances() {
			f.importances[j] += v
		}
	}
	var total float64
	for _, v := range f.importances {
		total += v
	}
	if total > 0 {
		for j := range f.importances {
			f.importances[j] /= total
		}
	}
	return trees, nil
}

// FeatureImportances は各木の重要度の平均（合計1に正規化）を返す
func (f *forest) FeatureImportances() []float64 {
	out := make([]float64, len(f.importances))
	copy(out, f.importances)
	return out
}

func (f *forest) checkPredict(op string, X mat.Matrix) (int, error) {
	if err := f.RequireFitted(op, "Predict"); err != nil {
		return 0, err
	}
	r, c := X.Dims()
	if c != f.nFeatures {
		return 0, errors.NewDimensionError(op+".Predict", f.nFeatures, c, 1)
	}
	return r, nil
}

// bootstrapSample は復元抽出で n 行を選ぶ
func bootstrapSample(X, y mat.Matrix, rng *rand.Rand) (*mat.Dense, *mat.VecDense) {
	r, c := X.Dims()
	Xb := mat.NewDense(r, c, nil)
	yb := mat.NewVecDense(r, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		k := rng.Intn(r)
		mat.Row(row, k, X)
		Xb.SetRow(i, row)
		yb.SetVec(i, y.At(k, 0))
	}
	return Xb, yb
}

// sqrtFeatures は sqrt(p) 個（最低1）を返す
func sqrtFeatures(p int) int {
	n := int(math.Sqrt(float64(p)))
	if n < 1 {
		n = 1
	}
	return n
}

var _ fittedTree = (*tree.DecisionTreeRegressor)(nil)
var _ fittedTree = (*tree.DecisionTreeClassifier)(nil)

var (
	_ model.Regressor  = (*RandomForestRegressor)(nil)
	_ model.Classifier = (*RandomForestClassifier)(nil)
)
