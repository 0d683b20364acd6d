// Package parallel は独立した処理単位を CPU 数に応じて分割実行する。
//
// 各単位の結果はインデックスで書き分ける前提で、実行順序には依存しない。
// 乱数を使う処理は単位ごとに seed+i から乱数源を作れば並列度に関係なく再現する。
package parallel

import (
	"fmt"
	"runtime"
	"sync"
)

// Workers は items 個の単位を処理するワーカー数を返す
func Workers(items int) int {
	n := runtime.GOMAXPROCS(0)
	if n > items {
		n = items
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Parallelize は [0, items) を連続した区間に分け、区間ごとに fn を並列に呼ぶ。
// ワーカー内の panic は全ワーカーの終了後に呼び出し元で再度 panic する
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	workers := Workers(items)
	if workers == 1 {
		fn(0, items)
		return
	}
	chunk := (items + workers - 1) / workers

	var (
		wg    sync.WaitGroup
		once  sync.Once
		fault any
	)
	for start := 0; start < items; start += chunk {
		end := min(start+chunk, items)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					once.Do(func() { fault = r })
				}
			}()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
	if fault != nil {
		panic(fmt.Sprintf("parallel: worker panicked: %v", fault))
	}
}

// ParallelizeWithThreshold は items が threshold 以下なら逐次実行する
func ParallelizeWithThreshold(items, threshold int, fn func(start, end int)) {
	if items <= threshold {
		if items > 0 {
			fn(0, items)
		}
		return
	}
	Parallelize(items, fn)
}

// ForEach は各インデックスについて fn を並列に呼ぶ
func ForEach(items int, fn func(i int)) {
	Parallelize(items, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}
