package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// SilhouetteScore は全サンプルのシルエット係数の平均を返す（ユークリッド距離）。
// ラベルの種類数が 2 以上 n-1 以下でなければ定義できないため DegenerateInputError を返す。
// 要素数1のクラスタに属するサンプルの係数は0とする
func SilhouetteScore(X mat.Matrix, labels []int) (float64, error) {
	n, p := X.Dims()
	if len(labels) != n {
		return 0, errors.NewDimensionError("SilhouetteScore", n, len(labels), 0)
	}

	sizes := make(map[int]int)
	for _, l := range labels {
		sizes[l]++
	}
	k := len(sizes)
	if k < 2 || k > n-1 {
		return 0, errors.NewDegenerateInputError("SilhouetteScore",
			fmt.Sprintf("number of labels is %d; valid values are 2 to n_samples - 1 (%d)", k, n-1))
	}

	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, p)
		mat.Row(rows[i], i, X)
	}

	var total float64
	dist := make(map[int]float64, k)
	for i := 0; i < n; i++ {
		for l := range dist {
			delete(dist, l)
		}
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			dist[labels[j]] += floats.Distance(rows[i], rows[j], 2)
		}

		own := labels[i]
		if sizes[own] == 1 {
			continue
		}
		a := dist[own] / float64(sizes[own]-1)
		b := math.Inf(1)
		for l, d := range dist {
			if l == own {
				continue
			}
			if mean := d / float64(sizes[l]); mean < b {
				b = mean
			}
		}
		total += errors.SafeDivide(b-a, math.Max(a, b))
	}
	return total / float64(n), nil
}
