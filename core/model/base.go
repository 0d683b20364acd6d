// Package model は推定器の共通インターフェースと学習状態の管理を提供する。
// 分析ディスパッチャは具体的な推定器ではなくここのインターフェースで各アルゴリズムを扱う
package model

import (
	"github.com/Fuze1111/python-course-exp-interactive-data-analysis-system/pkg/errors"
)

// BaseEstimator は推定器に埋め込む学習状態。ゼロ値は未学習
type BaseEstimator struct {
	fitted bool
}

// IsFitted は Fit が成功済みかを返す
func (e *BaseEstimator) IsFitted() bool { return e.fitted }

// SetFitted は Fit の成功時に呼ぶ
func (e *BaseEstimator) SetFitted() { e.fitted = true }

// Reset は未学習状態に戻す。再学習の前に呼ぶと途中失敗時に古い結果が残らない
func (e *BaseEstimator) Reset() { e.fitted = false }

// RequireFitted は未学習なら modelName.method の NotFittedError を返す
func (e *BaseEstimator) RequireFitted(modelName, method string) error {
	if e.fitted {
		return nil
	}
	return errors.NewNotFittedError(modelName, method)
}
