// Package cluster は K-means と DBSCAN によるクラスタリングを提供する
package cluster

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/core/model"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// KMeans は Lloyd 法による K-means クラスタリング
// scikit-learnのKMeansと同じく k-means++ 初期化と nInit 回の再実行を行う
type KMeans struct {
	model.BaseEstimator

	// ハイパーパラメータ
	nClusters   int     // クラスタ数
	init        string  // 初期化方法: "k-means++", "random"
	maxIter     int     // 最大イテレーション数
	nInit       int     // 異なる初期化での実行回数
	tol         float64 // 中心の移動量に対する収束判定の許容誤差
	randomState int64   // 乱数シード

	// 学習パラメータ
	clusterCenters_ [][]float64 // クラスタ中心（nClusters x nFeatures）
	labels_         []int       // 各サンプルのクラスタラベル
	inertia_        float64     // クラスタ内平方和誤差
	nIter_          int         // 実行されたイテレーション数

	// 内部状態
	mu         sync.RWMutex
	rng        *rand.Rand
	nFeatures_ int
}

// NewKMeans は新しいKMeansを作成
func NewKMeans(options ...KMeansOption) *KMeans {
	kmeans := &KMeans{
		nClusters:   8,
		init:        "k-means++",
		maxIter:     300,
		nInit:       10,
		tol:         1e-4,
		randomState: 0,
	}

	for _, opt := range options {
		opt(kmeans)
	}
	return kmeans
}

// KMeansOption はKMeansの設定オプション
type KMeansOption func(*KMeans)

// WithKMeansNClusters はクラスタ数を設定
func WithKMeansNClusters(n int) KMeansOption {
	return func(kmeans *KMeans) {
		kmeans.nClusters = n
	}
}

// WithKMeansInit は初期化方法を設定
func WithKMeansInit(init string) KMeansOption {
	return func(kmeans *KMeans) {
		kmeans.init = init
	}
}

// WithKMeansMaxIter は最大イテレーション数を設定
func WithKMeansMaxIter(maxIter int) KMeansOption {
	return func(kmeans *KMeans) {
		kmeans.maxIter = maxIter
	}
}

// WithKMeansNInit は初期化の試行回数を設定
func WithKMeansNInit(n int) KMeansOption {
	return func(kmeans *KMeans) {
		kmeans.nInit = n
	}
}

// WithKMeansRandomState は乱数シードを設定
func WithKMeansRandomState(seed int64) KMeansOption {
	return func(kmeans *KMeans) {
		kmeans.randomState = seed
	}
}

// WithKMeansTol は収束判定の許容誤差を設定
func WithKMeansTol(tol float64) KMeansOption {
	return func(kmeans *KMeans) {
		kmeans.tol = tol
	}
}

// Fit はモデルを訓練する。y は使わない
func (kmeans *KMeans) Fit(X, y mat.Matrix) error {
	kmeans.mu.Lock()
	defer kmeans.mu.Unlock()

	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("KMeans.Fit", "empty data", errors.ErrEmptyData)
	}
	if kmeans.nClusters < 1 {
		return errors.NewValidationError("n_clusters", "must be at least 1", kmeans.nClusters)
	}
	if rows < kmeans.nClusters {
		return errors.NewValidationError("n_clusters",
			fmt.Sprintf("must not exceed the number of samples (%d)", rows), kmeans.nClusters)
	}
	if kmeans.nInit < 1 {
		return errors.NewValidationError("n_init", "must be at least 1", kmeans.nInit)
	}
	if err := errors.CheckMatrix("KMeans.Fit", X); err != nil {
		return err
	}

	data := make([][]float64, rows)
	for i := range data {
		data[i] = mat.Row(nil, i, X)
	}
	kmeans.nFeatures_ = cols
	kmeans.rng = rand.New(rand.NewSource(kmeans.randomState))

	// 複数回実行して最良の結果を選択
	bestInertia := math.Inf(1)
	var bestCenters [][]float64
	var bestLabels []int
	var bestNIter int
	converged := false

	for run := 0; run < kmeans.nInit; run++ {
		centers, labels, inertia, nIter, ok := kmeans.fitSingleRun(data)
		if inertia < bestInertia {
			bestInertia = inertia
			bestCenters = centers
			bestLabels = labels
			bestNIter = nIter
			converged = ok
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("KMeans", bestNIter,
			fmt.Sprintf("did not converge within max_iter=%d", kmeans.maxIter)))
	}

	kmeans.clusterCenters_ = bestCenters
	kmeans.labels_ = bestLabels
	kmeans.inertia_ = bestInertia
	kmeans.nIter_ = bestNIter

	kmeans.SetFitted()
	return nil
}

// fitSingleRun は単一回の学習を実行
func (kmeans *KMeans) fitSingleRun(data [][]float64) ([][]float64, []int, float64, int, bool) {
	rows := len(data)
	cols := len(data[0])

	// クラスタ中心の初期化
	centers := kmeans.initializeCenters(data)
	labels := make([]int, rows)
	counts := make([]int, kmeans.nClusters)
	sums := make([][]float64, kmeans.nClusters)
	for c := range sums {
		sums[c] = make([]float64, cols)
	}

	for iter := 1; iter <= kmeans.maxIter; iter++ {
		// 各サンプルを最近傍クラスタに割り当て
		for c := range sums {
			counts[c] = 0
			for j := range sums[c] {
				sums[c][j] = 0
			}
		}
		for i, sample := range data {
			labels[i] = nearestCenter(sample, centers)
			counts[labels[i]]++
			floats.Add(sums[labels[i]], sample)
		}

		// クラスタ中心の更新
		shift := 0.0
		for c := range centers {
			next := make([]float64, cols)
			if counts[c] == 0 {
				// 空クラスタは現在の中心から最も遠いサンプルに移す
				copy(next, data[farthestSample(data, labels, centers)])
			} else {
				floats.ScaleTo(next, 1/float64(counts[c]), sums[c])
			}
			shift += floats.Distance(next, centers[c], 2)
			centers[c] = next
		}

		if shift <= kmeans.tol {
			for i, sample := range data {
				labels[i] = nearestCenter(sample, centers)
			}
			return centers, labels, inertia(data, labels, centers), iter, true
		}
	}

	// 最終的なラベルの計算
	for i, sample := range data {
		labels[i] = nearestCenter(sample, centers)
	}
	return centers, labels, inertia(data, labels, centers), kmeans.maxIter, false
}

// Predict は入力データに対するクラスタ予測を行う
func (kmeans *KMeans) Predict(X mat.Matrix) (mat.Matrix, error) {
	kmeans.mu.RLock()
	defer kmeans.mu.RUnlock()

	if err := kmeans.RequireFitted("KMeans", "Predict"); err != nil {
		return nil, err
	}

	rows, cols := X.Dims()
	if cols != kmeans.nFeatures_ {
		return nil, errors.NewDimensionError("KMeans.Predict", kmeans.nFeatures_, cols, 1)
	}

	predictions := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		sample := mat.Row(nil, i, X)
		predictions.SetVec(i, float64(nearestCenter(sample, kmeans.clusterCenters_)))
	}
	return predictions, nil
}

// Transform はデータをクラスタ中心との距離に変換
func (kmeans *KMeans) Transform(X mat.Matrix) (mat.Matrix, error) {
	kmeans.mu.RLock()
	defer kmeans.mu.RUnlock()

	if err := kmeans.RequireFitted("KMeans", "Transform"); err != nil {
		return nil, err
	}

	rows, cols := X.Dims()
	if cols != kmeans.nFeatures_ {
		return nil, errors.NewDimensionError("KMeans.Transform", kmeans.nFeatures_, cols, 1)
	}

	distances := mat.NewDense(rows, kmeans.nClusters, nil)
	for i := 0; i < rows; i++ {
		sample := mat.Row(nil, i, X)
		for c := 0; c < kmeans.nClusters; c++ {
			distances.Set(i, c, floats.Distance(sample, kmeans.clusterCenters_[c], 2))
		}
	}
	return distances, nil
}

// FitPredict は学習と予測を同時に行う
func (kmeans *KMeans) FitPredict(X mat.Matrix) ([]int, error) {
	if err := kmeans.Fit(X, nil); err != nil {
		return nil, err
	}
	return kmeans.Labels(), nil
}

// NIterations は最良の試行で実行されたイテレーション数を返す
func (kmeans *KMeans) NIterations() int {
	kmeans.mu.RLock()
	defer kmeans.mu.RUnlock()
	return kmeans.nIter_
}

// ClusterCenters は学習されたクラスタ中心を返す
func (kmeans *KMeans) ClusterCenters() [][]float64 {
	kmeans.mu.RLock()
	defer kmeans.mu.RUnlock()

	centers := make([][]float64, len(kmeans.clusterCenters_))
	for i := range kmeans.clusterCenters_ {
		centers[i] = make([]float64, len(kmeans.clusterCenters_[i]))
		copy(centers[i], kmeans.clusterCenters_[i])
	}
	return centers
}

// Labels は学習データのクラスタラベルを返す
func (kmeans *KMeans) Labels() []int {
	kmeans.mu.RLock()
	defer kmeans.mu.RUnlock()

	if kmeans.labels_ == nil {
		return nil
	}
	labels := make([]int, len(kmeans.labels_))
	copy(labels, kmeans.labels_)
	return labels
}

// NClusters は実際にサンプルが割り当てられたクラスタの数を返す
func (kmeans *KMeans) NClusters() int {
	kmeans.mu.RLock()
	defer kmeans.mu.RUnlock()
	return countDistinct(kmeans.labels_)
}

// Inertia は慣性（クラスタ内平方和誤差）を返す
func (kmeans *KMeans) Inertia() float64 {
	kmeans.mu.RLock()
	defer kmeans.mu.RUnlock()
	return kmeans.inertia_
}

// 内部ヘルパーメソッド

// initializeCenters はクラスタ中心を初期化
func (kmeans *KMeans) initializeCenters(data [][]float64) [][]float64 {
	if kmeans.init == "random" {
		centers := make([][]float64, kmeans.nClusters)
		for c, idx := range kmeans.rng.Perm(len(data))[:kmeans.nClusters] {
			centers[c] = append([]float64(nil), data[idx]...)
		}
		return centers
	}
	// デフォルトはk-means++
	return kmeans.initKMeansPlusPlus(data)
}

// initKMeansPlusPlus はk-means++初期化を実行
func (kmeans *KMeans) initKMeansPlusPlus(data [][]float64) [][]float64 {
	rows := len(data)
	centers := make([][]float64, kmeans.nClusters)

	// 最初のクラスタ中心をランダムに選択
	centers[0] = append([]float64(nil), data[kmeans.rng.Intn(rows)]...)

	distances := make([]float64, rows)
	for c := 1; c < kmeans.nClusters; c++ {
		// 各サンプルから最近傍クラスタ中心までの距離の二乗を計算
		totalDistance := 0.0
		for i, sample := range data {
			minDist := math.Inf(1)
			for j := 0; j < c; j++ {
				if d := floats.Distance(sample, centers[j], 2); d < minDist {
					minDist = d
				}
			}
			distances[i] = minDist * minDist
			totalDistance += distances[i]
		}

		// 確率に応じてサンプルを選択。全点が既存の中心と一致する場合は一様に選ぶ
		selectedIdx := kmeans.rng.Intn(rows)
		if totalDistance > 0 {
			target := kmeans.rng.Float64() * totalDistance
			cumSum := 0.0
			for i := 0; i < rows; i++ {
				cumSum += distances[i]
				if cumSum >= target && distances[i] > 0 {
					selectedIdx = i
					break
				}
			}
		}
		centers[c] = append([]float64(nil), data[selectedIdx]...)
	}
	return centers
}

// nearestCenter は最近傍クラスタを検索
func nearestCenter(sample []float64, centers [][]float64) int {
	minDist := math.Inf(1)
	nearest := 0
	for c, center := range centers {
		if d := floats.Distance(sample, center, 2); d < minDist {
			minDist = d
			nearest = c
		}
	}
	return nearest
}

// farthestSample は割り当て先の中心から最も遠いサンプルを返す
func farthestSample(data [][]float64, labels []int, centers [][]float64) int {
	best, bestDist := 0, -1.0
	for i, sample := range data {
		if d := floats.Distance(sample, centers[labels[i]], 2); d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// inertia は慣性（クラスタ内平方和誤差）を計算
func inertia(data [][]float64, labels []int, centers [][]float64) float64 {
	total := 0.0
	for i, sample := range data {
		d := floats.Distance(sample, centers[labels[i]], 2)
		total += d * d
	}
	return total
}

func countDistinct(labels []int) int {
	seen := make(map[int]struct{})
	for _, l := range labels {
		if l >= 0 {
			seen[l] = struct{}{}
		}
	}
	return len(seen)
}

var _ model.Clusterer = (*KMeans)(nil)
