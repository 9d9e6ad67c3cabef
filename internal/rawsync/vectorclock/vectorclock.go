// Package vectorclock implements the vector clocks the tracer uses to model
// happens-before between goroutines that touch rawsync primitives.
//
// Each traced goroutine owns one clock. Synchronization edges move clocks
// around:
//   - Release (unlock, send, Arc drop): the sync variable takes a copy (or a
//     join) of the releasing goroutine's clock.
//   - Acquire (lock, receive, last Arc drop): the acquiring goroutine joins
//     the sync variable's clock into its own.
//
// A clock is a fixed array so that copies and joins never allocate.
package vectorclock

import (
	"strconv"
	"strings"
)

// MaxThreads is the number of goroutine slots a clock tracks. It matches the
// 8-bit TID field of an epoch.
//
// Memory: 256 × 4 bytes = 1KB per VectorClock.
const MaxThreads = 256

// VectorClock represents logical time across traced goroutines.
//
// Layout: [TID0, TID1, ..., TID255]
// Example: {0: 5, 3: 2} means TID0@5, TID3@2, everything else at 0.
type VectorClock [MaxThreads]uint32

// New creates a zero-initialized vector clock.
func New() *VectorClock {
	return &VectorClock{}
}

// Clone returns a deep copy of vc.
func (vc *VectorClock) Clone() *VectorClock {
	clone := &VectorClock{}
	*clone = *vc
	return clone
}

// CopyFrom overwrites vc with other. Used by Release: Lm := Ct.
func (vc *VectorClock) CopyFrom(other *VectorClock) {
	*vc = *other
}

// Join performs point-wise maximum: vc = vc ⊔ other.
//
// Used by Acquire (Ct := Ct ⊔ Lm) and by ReleaseMerge (Lm := Lm ⊔ Ct).
//
//go:nosplit
func (vc *VectorClock) Join(other *VectorClock) {
	for i := 0; i < MaxThreads; i++ {
		if other[i] > vc[i] {
			vc[i] = other[i]
		}
	}
}

// LessOrEqual reports whether vc ⊑ other, i.e. every component of vc is at
// most the corresponding component of other.
func (vc *VectorClock) LessOrEqual(other *VectorClock) bool {
	for i := 0; i < MaxThreads; i++ {
		if vc[i] > other[i] {
			return false
		}
	}
	return true
}

// HappensBefore reports whether the logical moment vc is ordered before (or
// equal to) other.
func (vc *VectorClock) HappensBefore(other *VectorClock) bool {
	return vc.LessOrEqual(other)
}

// Increment advances the clock of tid by one.
func (vc *VectorClock) Increment(tid uint8) {
	vc[tid]++
}

// Get returns the clock value of tid.
func (vc *VectorClock) Get(tid uint8) uint32 {
	return vc[tid]
}

// Set overwrites the clock value of tid.
func (vc *VectorClock) Set(tid uint8, clock uint32) {
	vc[tid] = clock
}

// String renders the non-zero components, e.g. "{0:5, 3:2}".
func (vc *VectorClock) String() string {
	var parts []string
	for i := 0; i < MaxThreads; i++ {
		if vc[i] != 0 {
			parts = append(parts, strconv.Itoa(i)+":"+strconv.FormatUint(uint64(vc[i]), 10))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
