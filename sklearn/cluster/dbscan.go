package cluster

import (
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/core/model"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/core/parallel"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// Noise は DBSCAN でどのクラスタにも属さないサンプルのラベル
const Noise = -1

// DBSCAN は密度ベースのクラスタリング
// eps 近傍（自身を含む）に minSamples 個以上のサンプルを持つ点をコア点とし、
// コア点から到達可能な点を同じクラスタにまとめる
type DBSCAN struct {
	model.BaseEstimator

	eps        float64
	minSamples int

	labels_            []int
	coreSampleIndices_ []int
	nClusters_         int

	mu sync.RWMutex
}

// DBSCANOption はDBSCANの設定オプション
type DBSCANOption func(*DBSCAN)

// WithEps は近傍の半径を設定
func WithEps(eps float64) DBSCANOption {
	return func(d *DBSCAN) {
		d.eps = eps
	}
}

// WithMinSamples はコア点に必要な近傍サンプル数（自身を含む）を設定
func WithMinSamples(n int) DBSCANOption {
	return func(d *DBSCAN) {
		d.minSamples = n
	}
}

// NewDBSCAN は新しいDBSCANを作成する。デフォルトは eps=0.5, minSamples=5
func NewDBSCAN(options ...DBSCANOption) *DBSCAN {
	d := &DBSCAN{eps: 0.5, minSamples: 5}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// 近傍探索を並列化する行数の閾値
const neighborParallelThreshold = 500

// Fit はクラスタリングを実行する。y は使わない
func (d *DBSCAN) Fit(X, y mat.Matrix) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("DBSCAN.Fit", "empty data", errors.ErrEmptyData)
	}
	if d.eps <= 0 {
		return errors.NewValidationError("eps", "must be positive", d.eps)
	}
	if d.minSamples < 1 {
		return errors.NewValidationError("min_samples", "must be at least 1", d.minSamples)
	}
	if err := errors.CheckMatrix("DBSCAN.Fit", X); err != nil {
		return err
	}

	data := make([][]float64, rows)
	for i := range data {
		data[i] = mat.Row(nil, i, X)
	}

	// 各点の eps 近傍（自身を含む）
	neighbors := make([][]int, rows)
	parallel.ParallelizeWithThreshold(rows, neighborParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < rows; j++ {
				if floats.Distance(data[i], data[j], 2) <= d.eps {
					neighbors[i] = append(neighbors[i], j)
				}
			}
		}
	})

	core := make([]bool, rows)
	d.coreSampleIndices_ = d.coreSampleIndices_[:0]
	for i := range neighbors {
		if len(neighbors[i]) >= d.minSamples {
			core[i] = true
			d.coreSampleIndices_ = append(d.coreSampleIndices_, i)
		}
	}

	labels := make([]int, rows)
	for i := range labels {
		labels[i] = Noise
	}

	cluster := 0
	for i := 0; i < rows; i++ {
		if !core[i] || labels[i] != Noise {
			continue
		}
		// コア点から幅優先で展開する
		labels[i] = cluster
		queue := []int{i}
		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]
			if !core[p] {
				continue
			}
			for _, q := range neighbors[p] {
				if labels[q] == Noise {
					labels[q] = cluster
					queue = append(queue, q)
				}
			}
		}
		cluster++
	}

	d.labels_ = labels
	d.nClusters_ = cluster
	d.SetFitted()
	return nil
}

// FitPredict は学習してラベルを返す
func (d *DBSCAN) FitPredict(X mat.Matrix) ([]int, error) {
	if err := d.Fit(X, nil); err != nil {
		return nil, err
	}
	return d.Labels(), nil
}

// Labels は各サンプルのクラスタラベルを返す。ノイズは -1
func (d *DBSCAN) Labels() []int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.labels_ == nil {
		return nil
	}
	labels := make([]int, len(d.labels_))
	copy(labels, d.labels_)
	return labels
}

// NClusters はノイズを除いたクラスタ数を返す
func (d *DBSCAN) NClusters() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.nClusters_
}

// NNoise はノイズと判定されたサンプル数を返す
func (d *DBSCAN) NNoise() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := 0
	for _, l := range d.labels_ {
		if l == Noise {
			n++
		}
	}
	return n
}

// CoreSampleIndices はコア点のインデックスを返す
func (d *DBSCAN) CoreSampleIndices() []int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]int(nil), d.coreSampleIndices_...)
}

var _ model.Clusterer = (*DBSCAN)(nil)
