package tree

// Option は決定木のハイパーパラメータを設定する
type Option func(*treeParams)

// treeParams は分類木・回帰木に共通のハイパーパラメータ
type treeParams struct {
	criterion       string
	maxDepth        int   // -1 は無制限
	minSamplesSplit int   // 分割に必要な最小サンプル数
	minSamplesLeaf  int   // 葉に必要な最小サンプル数
	maxFeatures     int   // 各ノードで評価する特徴量数。0以下は全特徴量
	randomState     int64 // 特徴量サンプリング用の乱数シード
	nClasses        int   // 分類木のクラス数。0 は y から推定
}

// WithCriterion は不純度の基準を設定する（"gini", "entropy", "squared_error"）
func WithCriterion(criterion string) Option {
	return func(p *treeParams) {
		p.criterion = criterion
	}
}

// WithMaxDepth は木の最大深さを設定する。-1 で無制限
func WithMaxDepth(depth int) Option {
	return func(p *treeParams) {
		p.maxDepth = depth
	}
}

// WithMinSamplesSplit は内部ノードの分割に必要な最小サンプル数を設定する
func WithMinSamplesSplit(n int) Option {
	return func(p *treeParams) {
		p.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf は葉ノードに必要な最小サンプル数を設定する
func WithMinSamplesLeaf(n int) Option {
	return func(p *treeParams) {
		p.minSamplesLeaf = n
	}
}

// WithMaxFeatures は各分割で候補にする特徴量の数を設定する
func WithMaxFeatures(n int) Option {
	return func(p *treeParams) {
		p.maxFeatures = n
	}
}

// WithRandomState は乱数シードを設定する
func WithRandomState(seed int64) Option {
	return func(p *treeParams) {
		p.randomState = seed
	}
}

// WithNClasses はクラス数を固定する。
// ブートストラップ標本に一部のクラスが現れない場合でも確率の列数を揃えるために使う
func WithNClasses(n int) Option {
	return func(p *treeParams) {
		p.nClasses = n
	}
}

func defaultParams(criterion string) treeParams {
	return treeParams{
		criterion:       criterion,
		maxDepth:        -1,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		randomState:     0,
	}
}
