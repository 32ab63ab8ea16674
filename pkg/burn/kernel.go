// Package burn implements the floating-point busy kernel and the worker
// pool that keeps every requested logical CPU saturated until stopped.
package burn

import (
	"math"
	"sync/atomic"
)

// BatchIterations is the number of arithmetic rounds a worker performs
// between consecutive stop checks. Large enough that the check cost is
// negligible, small enough that cancellation lands within milliseconds.
const BatchIterations = 100000

// seed is the starting value of every worker's running float.
const seed = 1.23456789

// sink absorbs every batch result so the arithmetic has an observable
// side effect and cannot be elided. The stored value carries no meaning.
var sink atomic.Uint64 //nolint:gochecknoglobals // shared escape hatch for the optimizer

// batch advances the running value through one fixed-cost block of
// multiplications, divisions and additions. All terms stay positive, so
// the value saturates at +Inf and never degenerates into NaN.
func batch(x float64) float64 {
	for range BatchIterations {
		x = x*1.0000001 + 0.0000001
		x = x/1.00000007 + 0.00000009
		x = x*x + 1.0
	}

	return x
}

// publish stores the batch result, pinning the ordering between batches.
func publish(x float64) {
	sink.Store(math.Float64bits(x))
}
