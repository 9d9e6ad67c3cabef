package trace

import (
	"sync"

	"github.com/kolkov/rawsync/internal/rawsync/epoch"
	"github.com/kolkov/rawsync/internal/rawsync/goroutine"
	"github.com/kolkov/rawsync/internal/rawsync/vectorclock"
)

// cell is the shadow of one traced value.
//
// Layout:
//   - write, writeStack: epoch and stack of the last write
//   - reads: per-TID clock of the last read by each goroutine since that
//     write (nil when there were none)
//   - readStack: stack of the most recent read, for reports
type cell struct {
	mu         sync.Mutex
	write      epoch.Epoch
	writeStack uint64
	reads      *vectorclock.VectorClock
	readEpoch  epoch.Epoch
	readStack  uint64
}

// conflict describes the earlier access an access is unordered with.
type conflict struct {
	kind  string
	prev  epoch.Epoch
	stack uint64
}

// onWrite records a write by ctx and returns the conflict it causes, if any.
func (c *cell) onWrite(ctx *goroutine.Context, stack uint64) (conflict, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		found conflict
		ok    bool
	)
	switch {
	case !c.write.HappensBefore(ctx.C):
		found, ok = conflict{kind: KindWriteWrite, prev: c.write, stack: c.writeStack}, true
	case c.reads != nil && !c.reads.LessOrEqual(ctx.C):
		found, ok = conflict{kind: KindReadWrite, prev: c.readEpoch, stack: c.readStack}, true
	}

	c.write = ctx.GetEpoch()
	c.writeStack = stack
	c.reads = nil
	return found, ok
}

// onRead records a read by ctx and returns the conflict it causes, if any.
func (c *cell) onRead(ctx *goroutine.Context, stack uint64) (conflict, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		found conflict
		ok    bool
	)
	if !c.write.HappensBefore(ctx.C) {
		found, ok = conflict{kind: KindWriteRead, prev: c.write, stack: c.writeStack}, true
	}

	if c.reads == nil {
		c.reads = vectorclock.New()
	}
	c.reads.Set(ctx.TID, ctx.C.Get(ctx.TID))
	c.readEpoch = ctx.GetEpoch()
	c.readStack = stack
	return found, ok
}
