// Package epoch implements the compact 32-bit logical timestamps the tracer
// stores per traced address.
//
// An epoch names one moment of one goroutine:
//   - Top 8 bits: TID (0-255)
//   - Bottom 24 bits: clock value (0-16M)
//
// Comparing an epoch against a full vector clock is O(1), which keeps the
// per-access cost of tracing a single load and compare.
package epoch

import (
	"strconv"

	"github.com/kolkov/rawsync/internal/rawsync/vectorclock"
)

// Epoch is a 32-bit logical timestamp encoding a TID and a clock value.
// Layout: [TID:8][Clock:24]
//
// Example: 0x05001234 represents TID=5, Clock=0x1234 (4660 decimal).
type Epoch uint32

const (
	// TIDBits is the number of bits allocated for the TID.
	TIDBits = 8

	// ClockBits is the number of bits allocated for the clock value.
	ClockBits = 24

	// ClockMask extracts the clock value (0x00FFFFFF).
	ClockMask = (1 << ClockBits) - 1
)

// Zero is the epoch of an address that has never been accessed.
const Zero Epoch = 0

// New creates an epoch from a TID and a clock value. Clock values beyond 24
// bits are truncated.
//
//go:nosplit
func New(tid uint8, clock uint32) Epoch {
	return Epoch(uint32(tid)<<ClockBits | (clock & ClockMask))
}

// Decode extracts the TID and clock value.
//
//go:nosplit
func (e Epoch) Decode() (tid uint8, clock uint32) {
	tid = uint8(e >> ClockBits)
	clock = uint32(e) & ClockMask
	return
}

// HappensBefore reports whether e is ordered before the moment described by
// vc, i.e. clock(e) <= vc[tid(e)].
//
//go:nosplit
func (e Epoch) HappensBefore(vc *vectorclock.VectorClock) bool {
	tid, clock := e.Decode()
	return clock <= vc.Get(tid)
}

// Same reports whether two epochs are identical.
//
//go:nosplit
func (e Epoch) Same(other Epoch) bool {
	return e == other
}

// String formats the epoch as "clock@tid" (e.g. "42@5").
func (e Epoch) String() string {
	tid, clock := e.Decode()
	return strconv.FormatUint(uint64(clock), 10) + "@" + strconv.Itoa(int(tid))
}
