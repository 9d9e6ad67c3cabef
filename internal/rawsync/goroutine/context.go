package goroutine

import (
	"github.com/kolkov/rawsync/internal/rawsync/epoch"
	"github.com/kolkov/rawsync/internal/rawsync/vectorclock"
)

// Context is the tracer's logical-time state for one goroutine.
//
// Layout:
//   - TID: slot index in every vector clock (0-255)
//   - C: full vector clock of this goroutine
//   - Epoch: cached epoch.New(TID, C[TID])
//
// A Context is only ever mutated by its own goroutine, so it needs no
// locking.
type Context struct {
	// TID is the tracer-assigned slot for this goroutine.
	TID uint8

	// C[i] is the latest moment of goroutine i this goroutine has
	// synchronized with.
	C *vectorclock.VectorClock

	// Epoch is the cached current moment of this goroutine.
	Epoch epoch.Epoch
}

// Alloc creates a context for tid at logical time 1.
//
// Clocks start at 1 rather than 0 so that a fresh goroutine's first access
// is never mistaken for the zero epoch of an untouched address.
func Alloc(tid uint8) *Context {
	ctx := &Context{
		TID: tid,
		C:   vectorclock.New(),
	}
	ctx.C.Set(tid, 1)
	ctx.Epoch = epoch.New(tid, 1)
	return ctx
}

// IncrementClock advances this goroutine's own component of C and refreshes
// the cached epoch.
//
// Example:
//
//	ctx := Alloc(5)
//	// ctx.C[5] = 1, ctx.Epoch = 1@5
//	ctx.IncrementClock()
//	// ctx.C[5] = 2, ctx.Epoch = 2@5
func (c *Context) IncrementClock() {
	c.C.Increment(c.TID)
	c.Epoch = epoch.New(c.TID, c.C.Get(c.TID))
}

// GetEpoch returns the cached epoch for this goroutine.
//
//go:nosplit
func (c *Context) GetEpoch() epoch.Epoch {
	return c.Epoch
}
