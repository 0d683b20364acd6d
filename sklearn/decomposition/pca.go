// Package decomposition は主成分分析による次元削減を提供する
package decomposition

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/core/model"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// PCA は主成分分析
// 主成分は gonum の stat.PC（特異値分解）で求め、各主成分の絶対値最大の負荷量が
// 正になるよう符号をそろえる
type PCA struct {
	model.BaseEstimator

	nComponents int

	// Mean は各特徴量の平均値
	Mean []float64

	components             *mat.Dense // nComponents x nFeatures
	explainedVariance      []float64
	explainedVarianceRatio []float64
	nFeatures              int
}

// NewPCA は nComponents 個の主成分を求める PCA を作成する
func NewPCA(nComponents int) *PCA {
	return &PCA{nComponents: nComponents}
}

// Fit は主成分を学習する
func (p *PCA) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("PCA.Fit", "empty data", errors.ErrEmptyData)
	}
	maxComponents := r
	if c < maxComponents {
		maxComponents = c
	}
	if p.nComponents < 1 || p.nComponents > maxComponents {
		return errors.NewValidationError("n_components",
			fmt.Sprintf("must be between 1 and min(n_samples, n_features) = %d", maxComponents), p.nComponents)
	}
	if r < 2 {
		return errors.NewDegenerateInputError("PCA.Fit", "at least 2 samples are required")
	}
	if err := errors.CheckMatrix("PCA.Fit", X); err != nil {
		return err
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(X, nil); !ok {
		return errors.NewModelError("PCA.Fit", "SVD failed", errors.ErrSingularMatrix)
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	vars := pc.VarsTo(nil)

	total := floats.Sum(vars)
	if total <= 0 {
		return errors.NewDegenerateInputError("PCA.Fit", "all features are constant")
	}

	p.nFeatures = c
	p.Mean = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		p.Mean[j] = stat.Mean(col, nil)
	}

	p.components = mat.NewDense(p.nComponents, c, nil)
	p.explainedVariance = make([]float64, p.nComponents)
	p.explainedVarianceRatio = make([]float64, p.nComponents)
	loading := make([]float64, c)
	for k := 0; k < p.nComponents; k++ {
		mat.Col(loading, k, &vecs)
		// 符号の決定: 絶対値最大の要素を正にする
		if loading[maxAbsIndex(loading)] < 0 {
			floats.Scale(-1, loading)
		}
		p.components.SetRow(k, loading)
		p.explainedVariance[k] = vars[k]
		p.explainedVarianceRatio[k] = vars[k] / total
	}

	p.SetFitted()
	return nil
}

// Transform はデータを主成分空間に射影する（n x nComponents）
func (p *PCA) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := p.RequireFitted("PCA", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if c != p.nFeatures {
		return nil, errors.NewDimensionError("PCA.Transform", p.nFeatures, c, 1)
	}

	centered := mat.NewDense(r, c, nil)
	centered.Apply(func(i, j int, v float64) float64 {
		return v - p.Mean[j]
	}, X)

	var out mat.Dense
	out.Mul(centered, p.components.T())
	return &out, nil
}

// FitTransform は学習と射影を同時に行う
func (p *PCA) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := p.Fit(X); err != nil {
		return nil, err
	}
	return p.Transform(X)
}

// Components は主成分の負荷量（nComponents x nFeatures）を返す
func (p *PCA) Components() *mat.Dense {
	if p.components == nil {
		return nil
	}
	return mat.DenseCopyOf(p.components)
}

// ExplainedVariance は各主成分の分散を返す
func (p *PCA) ExplainedVariance() []float64 {
	return append([]float64(nil), p.explainedVariance...)
}

// ExplainedVarianceRatio は各主成分の寄与率を返す
func (p *PCA) ExplainedVarianceRatio() []float64 {
	return append([]float64(nil), p.explainedVarianceRatio...)
}

// CumulativeVarianceRatio は選んだ主成分の累積寄与率を返す
func (p *PCA) CumulativeVarianceRatio() float64 {
	return floats.Sum(p.explainedVarianceRatio)
}

// NComponents は主成分の数を返す
func (p *PCA) NComponents() int { return p.nComponents }

func maxAbsIndex(v []float64) int {
	best := 0
	for i := range v {
		if math.Abs(v[i]) > math.Abs(v[best]) {
			best = i
		}
	}
	return best
}

var _ model.Transformer = (*PCA)(nil)
