package tree

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/metrics"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// DecisionTreeClassifier は CART による分類木
// ラベルは 0..n_classes-1 の整数を float64 で表したもの
type DecisionTreeClassifier struct {
	decisionTree

	nClasses_ int
	classes_  []int
}

// NewDecisionTreeClassifier は新しい分類木を作成する。基準のデフォルトは "gini"
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{}
	dt.treeParams = defaultParams("gini")
	for _, opt := range opts {
		opt(&dt.treeParams)
	}
	return dt
}

// Fit は分類木を学習する
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	r, _, err := checkXY("DecisionTreeClassifier.Fit", X, y)
	if err != nil {
		return err
	}
	if err := dt.validate(); err != nil {
		return err
	}
	if dt.criterion != "gini" && dt.criterion != "entropy" {
		return errors.NewValidationError("criterion", "must be 'gini' or 'entropy'", dt.criterion)
	}

	labels := make([]int, r)
	maxLabel := 0
	seen := make(map[int]bool)
	for i := 0; i < r; i++ {
		v := y.At(i, 0)
		if v < 0 || v != math.Trunc(v) {
			return errors.NewValueError("DecisionTreeClassifier.Fit",
				fmt.Sprintf("labels must be non-negative integers, got %v at row %d", v, i))
		}
		labels[i] = int(v)
		seen[labels[i]] = true
		if labels[i] > maxLabel {
			maxLabel = labels[i]
		}
	}

	dt.nClasses_ = maxLabel + 1
	if dt.nClasses > dt.nClasses_ {
		dt.nClasses_ = dt.nClasses
	}
	dt.classes_ = dt.classes_[:0]
	for k := 0; k < dt.nClasses_; k++ {
		if seen[k] {
			dt.classes_ = append(dt.classes_, k)
		}
	}

	dt.build(X, newClassSplitter(labels, dt.nClasses_, dt.criterion))
	dt.SetFitted()
	return nil
}

// PredictProba は各クラスの確率を n x n_classes の行列で返す
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (*mat.Dense, error) {
	leaves, err := dt.apply("DecisionTreeClassifier", X)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(len(leaves), dt.nClasses_, nil)
	for i, leaf := range leaves {
		out.SetRow(i, leaf.value)
	}
	return out, nil
}

// Predict は最も確率の高いクラスを返す。同率の場合は小さいラベルを選ぶ
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	leaves, err := dt.apply("DecisionTreeClassifier", X)
	if err != nil {
		return nil, err
	}
	out := mat.NewVecDense(len(leaves), nil)
	for i, leaf := range leaves {
		out.SetVec(i, float64(argmax(leaf.value)))
	}
	return out, nil
}

// Score は正解率を返す
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := dt.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(asVector(y), pred.(mat.Vector))
}

// Classes は学習データに現れたクラスを返す
func (dt *DecisionTreeClassifier) Classes() []int {
	out := make([]int, len(dt.classes_))
	copy(out, dt.classes_)
	return out
}

// NClasses はクラス数（確率の列数）を返す
func (dt *DecisionTreeClassifier) NClasses() int { return dt.nClasses_ }

func argmax(values []float64) int {
	best := 0
	for k, v := range values {
		if v > values[best] {
			best = k
		}
	}
	return best
}

func asVector(y mat.Matrix) mat.Vector {
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

// classSplitter はクラス数のカウントから gini / entropy を計算する
type classSplitter struct {
	labels   []int
	nClasses int
	entropy  bool
	left     []float64
	right    []float64
	nLeft    float64
	nRight   float64
	scratch  []float64
}

func newClassSplitter(labels []int, nClasses int, criterion string) *classSplitter {
	return &classSplitter{
		labels:   labels,
		nClasses: nClasses,
		entropy:  criterion == "entropy",
		left:     make([]float64, nClasses),
		right:    make([]float64, nClasses),
		scratch:  make([]float64, nClasses),
	}
}

func (s *classSplitter) reset(idx []int) {
	for k := range s.left {
		s.left[k] = 0
		s.right[k] = 0
	}
	for _, i := range idx {
		s.right[s.labels[i]]++
	}
	s.nLeft = 0
	s.nRight = float64(len(idx))
}

func (s *classSplitter) moveLeft(i int) {
	s.left[s.labels[i]]++
	s.right[s.labels[i]]--
	s.nLeft++
	s.nRight--
}

func (s *classSplitter) impurities() (float64, float64) {
	return s.impurity(s.left, s.nLeft), s.impurity(s.right, s.nRight)
}

func (s *classSplitter) nodeImpurity(idx []int) float64 {
	counts := s.count(idx)
	return s.impurity(counts, float64(len(idx)))
}

func (s *classSplitter) leafValue(idx []int) []float64 {
	counts := s.count(idx)
	out := make([]float64, s.nClasses)
	for k, c := range counts {
		out[k] = c / float64(len(idx))
	}
	return out
}

func (s *classSplitter) count(idx []int) []float64 {
	for k := range s.scratch {
		s.scratch[k] = 0
	}
	for _, i := range idx {
		s.scratch[s.labels[i]]++
	}
	return s.scratch
}

func (s *classSplitter) impurity(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	if s.entropy {
		var h float64
		for _, c := range counts {
			if c > 0 {
				p := c / n
				h -= p * math.Log2(p)
			}
		}
		return h
	}
	g := 1.0
	for _, c := range counts {
		p := c / n
		g -= p * p
	}
	return g
}
