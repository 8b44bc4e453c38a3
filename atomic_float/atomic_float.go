package atomic_float

import (
	"math"
	"sync/atomic"
	"unsafe"
)

// AtomicFloat64 encapsulates a float64 for non-locking atomic operations,
// used for running acceptance rates and log-likelihood totals that a
// chain's worker goroutine updates while the monitor/metrics goroutines
// read concurrently. No unsafe pointer derived from val should be held
// across more than a few lines: the gc may relocate val once it sees no
// remaining reference to the struct.
type AtomicFloat64 struct {
	val float64
}

// NewAtomicFloat64 encapsulates a float64 for atomic operations.
func NewAtomicFloat64(val float64) *AtomicFloat64 {
	return &AtomicFloat64{
		val: val,
	}
}

// Atomically read the float64.
// This definition is needed to ensure that read values are not stale/dirty local copies,
// or equivalently stated that the value is synchronized with main memory.
func (af *AtomicFloat64) AtomicRead() (value float64) {
	uint_val := atomic.LoadUint64((*uint64)(unsafe.Pointer(&af.val)))
	return math.Float64frombits(uint_val)
}

// Atomically add to the float64.
// Note: online versions of this repeatedly attempt to add @addend to the float in a for loop
// until the addition succeeds, whether or not the pointee changes in between, which is
// logically incorrect. If the pointee changes while we're operating upon it, it is better
// for the caller to know and take some other action (drop the update, recalculate, etc).
func (af *AtomicFloat64) AtomicAdd(addend float64) (newVal float64, succeeded bool) {
	old := af.AtomicRead()
	newVal = old + addend
	succeeded = atomic.CompareAndSwapUint64(
		(*uint64)(unsafe.Pointer(&af.val)),
		math.Float64bits(old),
		math.Float64bits(newVal))
	return
}

// AtomicSet sets the float64, returns true on success.
func (af *AtomicFloat64) AtomicSet(new_val float64) (succeeded bool) {
	old := af.AtomicRead()
	succeeded = atomic.CompareAndSwapUint64(
		(*uint64)(unsafe.Pointer(&af.val)),
		math.Float64bits(old),
		math.Float64bits(new_val))
	return
}
