package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelizeCoversEveryItemOnce(t *testing.T) {
	for _, n := range []int{0, 1, 7, 1000} {
		hits := make([]int32, n)
		Parallelize(n, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			assert.Equal(t, int32(1), h, "n=%d item %d", n, i)
		}
	}
}

func TestParallelizeWithThresholdRunsSequentially(t *testing.T) {
	var calls int
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	})
	assert.Equal(t, 1, calls)

	ParallelizeWithThreshold(0, 100, func(start, end int) { calls++ })
	assert.Equal(t, 1, calls, "no call for zero items")
}

func TestForEach(t *testing.T) {
	out := make([]int, 50)
	ForEach(len(out), func(i int) { out[i] = i * i })
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

func TestParallelizePropagatesPanic(t *testing.T) {
	if Workers(64) == 1 {
		assert.Panics(t, func() { Parallelize(64, func(int, int) { panic("boom") }) })
		return
	}
	assert.PanicsWithValue(t, "parallel: worker panicked: boom", func() {
		Parallelize(64, func(start, end int) {
			if start == 0 {
				panic("boom")
			}
		})
	})
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, 1, Workers(0))
	assert.Equal(t, 1, Workers(1))
	assert.LessOrEqual(t, Workers(1<<20), 1<<20)
}
