package preprocessing

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/dataset"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/log"
)

// DefaultTolerance は数値変換後に許容する欠損率のデフォルト値
const DefaultTolerance = 0.10

// DiagnosticLevel は診断情報の重要度
type DiagnosticLevel string

const (
	LevelInfo    DiagnosticLevel = "info"
	LevelWarning DiagnosticLevel = "warning"
	LevelError   DiagnosticLevel = "error"
)

// 診断コード
const (
	CodeAutoConverted   = "auto_converted"
	CodeProblematic     = "problematic"
	CodeImputed         = "imputed"
	CodeConstantFeature = "constant_feature"
	CodeUndefinedMetric = "undefined_metric"
	CodeFamilyFailed    = "family_failed"
)

// Diagnostic は処理を中断しない警告・情報
type Diagnostic struct {
	Level   DiagnosticLevel `json:"level"`
	Code    string          `json:"code"`
	Column  string          `json:"column,omitempty"`
	Message string          `json:"message"`
}

// ColumnOutcome は1列分の準備結果
type ColumnOutcome struct {
	Column string `json:"column"`
	// Coerced は元の列が数値型でなかったことを示す
	Coerced bool `json:"coerced"`
	// MissingRatioAfterCoercion は数値変換後の欠損率 [0, 1]
	MissingRatioAfterCoercion float64 `json:"missing_ratio_after_coercion"`
	// ImputedValue は欠損補完に使った値。補完しなかった場合は nil
	ImputedValue *float64 `json:"imputed_value,omitempty"`
}

// PreparationResult は列ごとの結果と診断情報
type PreparationResult struct {
	Columns     []ColumnOutcome `json:"columns"`
	Diagnostics []Diagnostic    `json:"diagnostics,omitempty"`
}

// HasWarnings は warning 以上の診断が含まれるかを返す
func (r PreparationResult) HasWarnings() bool {
	for _, d := range r.Diagnostics {
		if d.Level != LevelInfo {
			return true
		}
	}
	return false
}

// TargetMode はターゲット列の扱い方
type TargetMode int

const (
	// TargetNone はターゲットを使わない（教師なし）
	TargetNone TargetMode = iota
	// TargetNumeric は数値に変換する（回帰）
	TargetNumeric
	// TargetLabels はクラスラベルとして整数に符号化する（分類）
	TargetLabels
)

// Prepared は学習に使える行列と準備結果
type Prepared struct {
	X            *mat.Dense
	Y            *mat.VecDense
	FeatureNames []string
	// Classes は TargetLabels のときの符号化表。Y の値 k は Classes[k] を表す
	Classes []string
	Result  PreparationResult
}

// Preparer は特徴量とターゲットを数値行列に変換する
type Preparer struct {
	tolerance float64
	logger    log.Logger
}

// PreparerOption は Preparer の設定オプション
type PreparerOption func(*Preparer)

// WithTolerance は欠損率の許容値を設定する
func WithTolerance(tol float64) PreparerOption {
	return func(p *Preparer) {
		p.tolerance = tol
	}
}

// WithPreparerLogger はロガーを設定する
func WithPreparerLogger(l log.Logger) PreparerOption {
	return func(p *Preparer) {
		p.logger = l
	}
}

// NewPreparer は新しい Preparer を作成する
func NewPreparer(opts ...PreparerOption) *Preparer {
	p := &Preparer{tolerance: DefaultTolerance}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.GetLogger()
	}
	p.logger = p.logger.With(log.ComponentKey, "preprocessing")
	return p
}

// Tolerance は設定された許容値を返す
func (p *Preparer) Tolerance() float64 { return p.tolerance }

// Prepare は features と target の列を数値化・欠損補完して行列にする。
// 変換できない値は欠損として扱い、欠損率が許容値以下なら info、超えれば warning の
// 診断を付けて平均値で補完する（処理は中断しない）。数値が一つも得られない特徴量は0で補完する。
// TargetNumeric で数値が一つもないターゲットは FormatError、
// TargetLabels で欠損ラベルがある場合も FormatError を返す。
func (p *Preparer) Prepare(ds *dataset.Dataset, features []string, target string, mode TargetMode) (*Prepared, error) {
	if p.tolerance < 0 || p.tolerance > 1 {
		return nil, errors.NewConfigError("missing_tolerance", fmt.Sprintf("must be in [0, 1], got %g", p.tolerance))
	}
	if len(features) == 0 {
		return nil, errors.NewConfigError("features", "at least one feature column is required")
	}
	if mode != TargetNone && target == "" {
		return nil, errors.NewConfigError("target", "a target column is required")
	}
	if ds.NumRows() == 0 {
		return nil, errors.NewModelError("Prepare", "empty dataset", errors.ErrEmptyData)
	}

	out := &Prepared{
		X:            mat.NewDense(ds.NumRows(), len(features), nil),
		FeatureNames: append([]string(nil), features...),
	}
	for j, name := range features {
		col, err := ds.Column(name)
		if err != nil {
			return nil, errors.NewColumnNotFoundError("Prepare", name)
		}
		values, err := p.numeric(col, false, &out.Result)
		if err != nil {
			return nil, err
		}
		out.X.SetCol(j, values)
	}

	switch mode {
	case TargetNumeric:
		col, err := ds.Column(target)
		if err != nil {
			return nil, errors.NewColumnNotFoundError("Prepare", target)
		}
		values, err := p.numeric(col, true, &out.Result)
		if err != nil {
			return nil, err
		}
		out.Y = mat.NewVecDense(len(values), values)
	case TargetLabels:
		col, err := ds.Column(target)
		if err != nil {
			return nil, errors.NewColumnNotFoundError("Prepare", target)
		}
		y, classes, err := EncodeLabels(col)
		if err != nil {
			return nil, err
		}
		out.Y = y
		out.Classes = classes
	}

	for _, d := range out.Result.Diagnostics {
		if d.Level == LevelWarning {
			p.logger.Warn(d.Message, log.ColumnKey, d.Column, log.DiagnosticKey, d.Code)
		}
	}
	p.logger.Debug("Features prepared",
		log.SamplesKey, ds.NumRows(),
		log.FeaturesKey, len(features),
		log.ToleranceKey, p.tolerance,
	)
	return out, nil
}

// numeric は列を数値に変換し、欠損を補完した値を返す
func (p *Preparer) numeric(col *dataset.Column, isTarget bool, res *PreparationResult) ([]float64, error) {
	n := col.Len()
	values, ok := col.Floats()

	var valid []float64
	for i, good := range ok {
		if good {
			valid = append(valid, values[i])
		}
	}
	missing := n - len(valid)
	outcome := ColumnOutcome{
		Column:                    col.Name,
		Coerced:                   col.Kind != dataset.Numeric,
		MissingRatioAfterCoercion: float64(missing) / float64(n),
	}
	ratio := outcome.MissingRatioAfterCoercion

	if len(valid) == 0 && isTarget {
		return nil, errors.NewFormatError(fmt.Sprintf("target '%s'", col.Name), "no value can be converted to a number")
	}
	if outcome.Coerced {
		errors.Warn(errors.NewDataConversionWarning(col.Name, col.Kind.String(), dataset.Numeric.String(),
			fmt.Sprintf("%.1f%% missing after conversion", ratio*100)))
	}

	if len(valid) == 0 {
		zero := 0.0
		outcome.ImputedValue = &zero
		for i := range values {
			values[i] = 0
		}
		res.Columns = append(res.Columns, outcome)
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Level:   LevelWarning,
			Code:    CodeProblematic,
			Column:  col.Name,
			Message: fmt.Sprintf("column '%s' has no numeric values; filled with 0", col.Name),
		})
		return values, nil
	}

	if missing > 0 {
		mean, err := stats.Mean(valid)
		if err != nil {
			return nil, errors.Wrapf(err, "mean of column '%s'", col.Name)
		}
		for i, good := range ok {
			if !good {
				values[i] = mean
			}
		}
		outcome.ImputedValue = &mean
	}
	res.Columns = append(res.Columns, outcome)

	switch {
	case ratio > p.tolerance:
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Level:  LevelWarning,
			Code:   CodeProblematic,
			Column: col.Name,
			Message: fmt.Sprintf("column '%s' has %.1f%% missing values after numeric conversion (tolerance %.1f%%); imputed with the mean",
				col.Name, ratio*100, p.tolerance*100),
		})
	case outcome.Coerced:
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Level:   LevelInfo,
			Code:    CodeAutoConverted,
			Column:  col.Name,
			Message: fmt.Sprintf("column '%s' converted to numeric (%.1f%% missing)", col.Name, ratio*100),
		})
	case missing > 0:
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Level:   LevelInfo,
			Code:    CodeImputed,
			Column:  col.Name,
			Message: fmt.Sprintf("column '%s': %d missing values imputed with the mean", col.Name, missing),
		})
	}
	return values, nil
}

// EncodeLabels はクラスラベルを 0..k-1 に符号化する。
// 全てのラベルが数値なら数値順、そうでなければ文字列順に並べる
func EncodeLabels(col *dataset.Column) (*mat.VecDense, []string, error) {
	labels := make([]string, col.Len())
	allNumeric := true
	for i, v := range col.Values {
		if v == nil {
			return nil, nil, errors.NewFormatError(fmt.Sprintf("target '%s'", col.Name),
				fmt.Sprintf("missing class label at row %d", i))
		}
		labels[i] = dataset.FormatCell(v)
		if _, ok := dataset.ToFloat(v); !ok {
			allNumeric = false
		}
		if _, isBool := v.(bool); isBool {
			allNumeric = false
		}
	}

	seen := make(map[string]struct{})
	var classes []string
	for _, l := range labels {
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			classes = append(classes, l)
		}
	}
	if allNumeric {
		sort.Slice(classes, func(a, b int) bool {
			fa, _ := dataset.ToFloat(classes[a])
			fb, _ := dataset.ToFloat(classes[b])
			return fa < fb
		})
	} else {
		sort.Strings(classes)
	}

	code := make(map[string]int, len(classes))
	for k, c := range classes {
		code[c] = k
	}
	y := mat.NewVecDense(len(labels), nil)
	for i, l := range labels {
		y.SetVec(i, float64(code[l]))
	}
	return y, classes, nil
}
