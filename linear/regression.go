// Package linear は最小二乗法による線形回帰を提供する
package linear

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/core/model"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/core/parallel"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/metrics"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// 並列処理の閾値（この値以下の行数では逐次処理を使用）
const parallelThreshold = 1000

// LinearRegression は線形回帰モデル
type LinearRegression struct {
	model.BaseEstimator // BaseEstimatorを埋め込み
	Weights   *mat.VecDense // 重み（係数）
	Intercept float64       // 切片
	NFeatures int           // 特徴量の数
	Rank      int           // 計画行列の実効ランク

	fitIntercept bool
	rcond        float64
}

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression(opts ...Option) *LinearRegression {
	lr := &LinearRegression{
		fitIntercept: true,
		rcond:        1e-12,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit はモデルを訓練データで学習させる
// 計画行列 [1, X] の特異値分解から最小ノルムの最小二乗解を求める。
// 標準化後の定数列のようにランク落ちしていても解が得られる
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	// 入力の検証
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if y == nil {
		return errors.NewValueError("LinearRegression.Fit", "y is required")
	}
	ry, cy := y.Dims()
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}
	if err := errors.CheckMatrix("LinearRegression.Fit", X); err != nil {
		return err
	}

	offset := 0
	if lr.fitIntercept {
		offset = 1
	}

	// 切片項のために X に 1 の列を追加
	design := mat.NewDense(r, c+offset, nil)
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			if offset == 1 {
				design.Set(i, 0, 1.0)
			}
			for j := 0; j < c; j++ {
				design.Set(i, j+offset, X.At(i, j))
			}
		}
	})

	yVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}

	var svd mat.SVD
	if ok := svd.Factorize(design, mat.SVDThin); !ok {
		return errors.NewModelError("LinearRegression.Fit", "SVD failed", errors.ErrSingularMatrix)
	}
	rank := svd.Rank(lr.rcond)
	if rank == 0 {
		return errors.NewModelError("LinearRegression.Fit", "design matrix has rank 0", errors.ErrSingularMatrix)
	}

	var coef mat.VecDense
	svd.SolveVecTo(&coef, yVec, rank)
	if err := errors.CheckNumericalStability("LinearRegression.Fit", coef.RawVector().Data); err != nil {
		return err
	}

	// 切片と重みを分離
	lr.NFeatures = c
	lr.Rank = rank
	lr.Intercept = 0
	if offset == 1 {
		lr.Intercept = coef.AtVec(0)
	}
	lr.Weights = mat.NewVecDense(c, nil)
	for i := 0; i < c; i++ {
		lr.Weights.SetVec(i, coef.AtVec(i+offset))
	}

	lr.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.RequireFitted("LinearRegression", "Predict"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	if c != lr.NFeatures {
		return nil, errors.NewDimensionError("LinearRegression.Predict", lr.NFeatures, c, 1)
	}

	// 予測: y = X * weights + intercept
	pred := mat.NewVecDense(r, nil)
	pred.MulVec(X, lr.Weights)
	for i := 0; i < r; i++ {
		pred.SetVec(i, pred.AtVec(i)+lr.Intercept)
	}
	return pred, nil
}

// GetWeights は学習された重み（係数）を返す
func (lr *LinearRegression) GetWeights() []float64 {
	if lr.Weights == nil {
		return nil
	}
	weights := make([]float64, lr.Weights.Len())
	copy(weights, lr.Weights.RawVector().Data)
	return weights
}

// GetIntercept は学習された切片を返す
func (lr *LinearRegression) GetIntercept() float64 {
	if !lr.IsFitted() {
		return 0
	}
	return lr.Intercept
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(columnVector(y), yPred.(mat.Vector))
}

// String はモデルの文字列表現を返す
func (lr *LinearRegression) String() string {
	if !lr.IsFitted() {
		return fmt.Sprintf("LinearRegression(fit_intercept=%t)", lr.fitIntercept)
	}
	return fmt.Sprintf("LinearRegression(fit_intercept=%t, n_features=%d, rank=%d)",
		lr.fitIntercept, lr.NFeatures, lr.Rank)
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
