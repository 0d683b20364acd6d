package preprocessing

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// Split は訓練・テスト分割の結果。TrainIndex と TestIndex は元の行番号
type Split struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest *mat.VecDense
	TrainIndex    []int
	TestIndex     []int
}

// TrainTestSplit はシードから決まる置換で行をシャッフルし、先頭 ceil(n*testSize) 行をテストに回す
// 同じシードと入力からは常に同じ分割が得られる
func TrainTestSplit(X mat.Matrix, y mat.Vector, testSize float64, seed int64) (*Split, error) {
	n, p := X.Dims()
	if y != nil && y.Len() != n {
		return nil, errors.NewDimensionError("TrainTestSplit", n, y.Len(), 0)
	}
	if testSize <= 0 || testSize >= 1 || math.IsNaN(testSize) {
		return nil, errors.NewConfigError("test_size", fmt.Sprintf("must be in (0, 1), got %g", testSize))
	}
	nTest := int(math.Ceil(float64(n) * testSize))
	if nTest < 1 || nTest >= n {
		return nil, errors.NewConfigError("test_size",
			fmt.Sprintf("%g of %d rows leaves an empty train or test partition", testSize, n))
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	split := &Split{
		TestIndex:  append([]int(nil), perm[:nTest]...),
		TrainIndex: append([]int(nil), perm[nTest:]...),
	}
	split.XTest = selectRows(X, split.TestIndex, p)
	split.XTrain = selectRows(X, split.TrainIndex, p)
	if y != nil {
		split.YTest = selectElems(y, split.TestIndex)
		split.YTrain = selectElems(y, split.TrainIndex)
	}
	return split, nil
}

func selectRows(X mat.Matrix, rows []int, p int) *mat.Dense {
	out := mat.NewDense(len(rows), p, nil)
	for k, r := range rows {
		for j := 0; j < p; j++ {
			out.Set(k, j, X.At(r, j))
		}
	}
	return out
}

func selectElems(y mat.Vector, rows []int) *mat.VecDense {
	out := mat.NewVecDense(len(rows), nil)
	for k, r := range rows {
		out.SetVec(k, y.AtVec(r))
	}
	return out
}
