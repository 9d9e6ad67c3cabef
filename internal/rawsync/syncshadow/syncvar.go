package syncshadow

import (
	"sync"

	"github.com/kolkov/rawsync/internal/rawsync/goroutine"
	"github.com/kolkov/rawsync/internal/rawsync/vectorclock"
)

// SyncVar is the shadow of one synchronization point.
//
// releaseClock is nil until the first release. The mutex guards the shadow
// itself; several goroutines may release one Arc allocation concurrently.
type SyncVar struct {
	mu           sync.Mutex
	releaseClock *vectorclock.VectorClock
}

// Acquire joins the release clock into ctx and advances ctx.
func (sv *SyncVar) Acquire(ctx *goroutine.Context) {
	sv.mu.Lock()
	if sv.releaseClock != nil {
		ctx.C.Join(sv.releaseClock)
	}
	sv.mu.Unlock()
	ctx.IncrementClock()
}

// Release overwrites the release clock with ctx's clock and advances ctx.
func (sv *SyncVar) Release(ctx *goroutine.Context) {
	sv.mu.Lock()
	if sv.releaseClock == nil {
		sv.releaseClock = ctx.C.Clone()
	} else {
		sv.releaseClock.CopyFrom(ctx.C)
	}
	sv.mu.Unlock()
	ctx.IncrementClock()
}

// ReleaseMerge joins ctx's clock into the release clock and advances ctx.
func (sv *SyncVar) ReleaseMerge(ctx *goroutine.Context) {
	sv.mu.Lock()
	if sv.releaseClock == nil {
		sv.releaseClock = ctx.C.Clone()
	} else {
		sv.releaseClock.Join(ctx.C)
	}
	sv.mu.Unlock()
	ctx.IncrementClock()
}
