package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる。教師なしモデルでは y は nil でよい
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を n x 1 の行列で返す
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer はスコアを計算できるモデルのインターフェース
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// Regressor は回帰モデル
type Regressor interface {
	Fitter
	Predictor
	Scorer
}

// Classifier は分類モデル。ラベルは 0..n_classes-1 の整数を float64 で表したもの
type Classifier interface {
	Fitter
	Predictor
	Scorer

	// Classes は学習時に観測したクラスを返す
	Classes() []int
}

// FeatureImporter は特徴量重要度を公開するモデル
type FeatureImporter interface {
	// FeatureImportances は合計が1になるよう正規化された重要度を返す
	FeatureImportances() []float64
}

// Clusterer はクラスタリングモデル
type Clusterer interface {
	Fitter

	// Labels は学習データの各サンプルのクラスタラベルを返す。ノイズは -1
	Labels() []int

	// NClusters は形成されたクラスタ数を返す（ノイズを除く）
	NClusters() int
}
