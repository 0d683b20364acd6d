package tree

import (
	"gonum.org/v1/gonum/mat"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/metrics"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// DecisionTreeRegressor は CART による回帰木。不純度は二乗誤差（分散）
type DecisionTreeRegressor struct {
	decisionTree
}

// NewDecisionTreeRegressor は新しい回帰木を作成する
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	dt := &DecisionTreeRegressor{}
	dt.treeParams = defaultParams("squared_error")
	for _, opt := range opts {
		opt(&dt.treeParams)
	}
	return dt
}

// Fit は回帰木を学習する
func (dt *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	r, _, err := checkXY("DecisionTreeRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	if err := dt.validate(); err != nil {
		return err
	}
	if dt.criterion != "squared_error" && dt.criterion != "mse" {
		return errors.NewValidationError("criterion", "must be 'squared_error'", dt.criterion)
	}

	target := make([]float64, r)
	for i := range target {
		target[i] = y.At(i, 0)
	}
	if err := errors.CheckNumericalStability("DecisionTreeRegressor.Fit", target); err != nil {
		return err
	}

	dt.build(X, &varianceSplitter{y: target})
	dt.SetFitted()
	return nil
}

// Predict は葉の平均値を返す
func (dt *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	leaves, err := dt.apply("DecisionTreeRegressor", X)
	if err != nil {
		return nil, err
	}
	out := mat.NewVecDense(len(leaves), nil)
	for i, leaf := range leaves {
		out.SetVec(i, leaf.value[0])
	}
	return out, nil
}

// Score は決定係数（R²）を返す
func (dt *DecisionTreeRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := dt.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(asVector(y), pred.(mat.Vector))
}

// varianceSplitter は和と二乗和から分散を逐次計算する
type varianceSplitter struct {
	y []float64

	sumL, sqL, nL float64
	sumR, sqR, nR float64
}

func (s *varianceSplitter) reset(idx []int) {
	s.sumL, s.sqL, s.nL = 0, 0, 0
	s.sumR, s.sqR, s.nR = 0, 0, 0
	for _, i := range idx {
		v := s.y[i]
		s.sumR += v
		s.sqR += v * v
		s.nR++
	}
}

func (s *varianceSplitter) moveLeft(i int) {
	v := s.y[i]
	s.sumL += v
	s.sqL += v * v
	s.nL++
	s.sumR -= v
	s.sqR -= v * v
	s.nR--
}

func (s *varianceSplitter) impurities() (float64, float64) {
	return variance(s.sumL, s.sqL, s.nL), variance(s.sumR, s.sqR, s.nR)
}

func (s *varianceSplitter) nodeImpurity(idx []int) float64 {
	var sum, sq float64
	for _, i := range idx {
		sum += s.y[i]
		sq += s.y[i] * s.y[i]
	}
	return variance(sum, sq, float64(len(idx)))
}

func (s *varianceSplitter) leafValue(idx []int) []float64 {
	var sum float64
	for _, i := range idx {
		sum += s.y[i]
	}
	return []float64{sum / float64(len(idx))}
}

func variance(sum, sq, n float64) float64 {
	if n == 0 {
		return 0
	}
	mean := sum / n
	v := sq/n - mean*mean
	if v < 0 {
		// 桁落ちによる負値
		return 0
	}
	return v
}
