// Package arc implements an atomically reference-counted shared-ownership
// pointer (Arc) with a non-owning counterpart (Weak).
//
// Go has a garbage collector, so Arc is not about memory safety. It gives a
// value an explicit, deterministic lifetime shared by several goroutines:
// the value's Drop method runs exactly once, when the last strong handle is
// dropped, and weak handles can observe whether that has happened yet.
//
// Every handle must be dropped exactly once. Handles are pointers carrying a
// noCopy marker; copying the struct a handle points to is a bug that go vet
// reports.
//
// # Counters
//
// Each allocation holds two counters:
//
//	dataRefs:  number of Arcs. Governs the value's lifetime.
//	allocRefs: number of Weaks, plus one for all Arcs together.
//	           Governs the allocation's lifetime.
//
// Invariant: allocRefs >= dataRefs. The value is destroyed on the
// dataRefs 1 -> 0 transition; the allocation is released on the
// allocRefs 1 -> 0 transition, which the Arcs' shared unit of allocRefs
// holds back until the value is gone.
//
// # Memory ordering
//
// Go's sync/atomic operations are sequentially consistent, which is at
// least as strong as every ordering this package needs. Each atomic site
// states the ordering it actually relies on, and what it pairs with, so the
// correctness argument survives in the code. "fence" below means the
// ordering is provided by the adjacent atomic operation.
package arc

import (
	"math"
	"sync/atomic"

	"github.com/kolkov/rawsync/internal/rawsync/abort"
	"github.com/kolkov/rawsync/internal/rawsync/spin"
	"github.com/kolkov/rawsync/internal/rawsync/trace"
)

const (
	// locked is the allocRefs sentinel GetMut holds while it decides
	// uniqueness. It is never a real count: Downgrade refuses to reach it.
	locked = math.MaxUint64

	// maxRefs bounds clone increments. Crossing it means counts are leaking
	// faster than any real program could, and a wrap-around would destroy
	// a live value.
	maxRefs = math.MaxUint64 / 2
)

// Dropper is implemented by values that need to run code when the last
// strong handle goes away.
type Dropper interface {
	Drop()
}

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// block is the shared allocation.
type block[T any] struct {
	// dataRefs counts Arcs.
	dataRefs atomic.Uint64

	// allocRefs counts Weaks plus one for all Arcs; transiently locked.
	allocRefs atomic.Uint64

	// value is initialized from New until the last Arc drops.
	value       T
	initialized bool

	// released is set when allocRefs reaches zero.
	released atomic.Bool

	key trace.Key
}

// Arc is a strong handle. It keeps the value alive.
type Arc[T any] struct {
	_ noCopy
	b *block[T]
}

// Weak is a weak handle. It keeps the allocation, not the value, alive.
type Weak[T any] struct {
	_ noCopy
	b *block[T]
}

// New moves v into a fresh allocation and returns its first strong handle.
func New[T any](v T) *Arc[T] {
	b := &block[T]{value: v, initialized: true}
	b.dataRefs.Store(1)
	b.allocRefs.Store(1)
	return &Arc[T]{b: b}
}

func (a *Arc[T]) block() *block[T] {
	if a == nil || a.b == nil {
		panic("arc: use of dropped Arc")
	}
	return a.b
}

func (w *Weak[T]) block() *block[T] {
	if w == nil || w.b == nil {
		panic("arc: use of dropped Weak")
	}
	return w.b
}

// Get returns a pointer to the shared value. The pointee may be read
// concurrently by every holder and must not be modified; use GetMut for
// mutation.
func (a *Arc[T]) Get() *T {
	b := a.block()
	if trace.Default.Enabled() {
		// The handle was handed out after every earlier write to the value;
		// see handOff.
		trace.Default.OnAcquire(b.key.Sync())
		trace.Default.OnRead(b.key.Data())
	}
	return &b.value
}

// Clone returns a new strong handle to the same value.
func (a *Arc[T]) Clone() *Arc[T] {
	b := a.block()
	b.handOff()
	// Relaxed: the caller already holds a strong handle, so the value is
	// visible to it; the increment publishes nothing.
	if b.dataRefs.Add(1)-1 > maxRefs {
		abort.Abort("arc: strong count overflow")
	}
	return &Arc[T]{b: b}
}

// Drop releases this strong handle. The handle must not be used afterwards.
// Dropping the last strong handle destroys the value.
func (a *Arc[T]) Drop() {
	b := a.block()
	a.b = nil

	if trace.Default.Enabled() {
		trace.Default.OnReleaseMerge(b.key.Sync())
	}
	// Release: every access this goroutine made to the value happens
	// before the decrement that the last dropper observes.
	if b.dataRefs.Add(^uint64(0)) != 0 {
		return
	}
	// Acquire fence: pairs with the release decrements of every other
	// dropper, so their accesses happen before the destruction below.
	if trace.Default.Enabled() {
		trace.Default.OnAcquire(b.key.Sync())
		trace.Default.OnWrite(b.key.Data())
	}
	b.destroy()

	// No Arcs left: drop the implicit Weak they shared.
	dropAlloc(b)
}

// handOff records that a new handle leaves the calling goroutine. Whoever
// receives it, over any Go edge, is ordered after this goroutine's writes.
func (b *block[T]) handOff() {
	if trace.Default.Enabled() {
		trace.Default.OnReleaseMerge(b.key.Sync())
	}
}

func (b *block[T]) destroy() {
	if !b.initialized {
		return
	}
	if d, ok := any(b.value).(Dropper); ok {
		d.Drop()
	} else if d, ok := any(&b.value).(Dropper); ok {
		d.Drop()
	}
	var zero T
	b.value = zero
	b.initialized = false
}

// dropAlloc releases one unit of allocRefs and the allocation with the last.
func dropAlloc[T any](b *block[T]) {
	// Release: pairs with the acquire fence below on whichever goroutine
	// takes allocRefs to zero.
	if b.allocRefs.Add(^uint64(0)) != 0 {
		return
	}
	// Acquire fence: every other handle's last use happens before release.
	if !b.released.CompareAndSwap(false, true) {
		abort.Abort("arc: allocation released twice")
		return
	}
	if trace.Default.Enabled() {
		trace.Default.Forget(b.key.Sync(), b.key.Data())
	}
}

// Downgrade returns a weak handle to the same allocation.
func (a *Arc[T]) Downgrade() *Weak[T] {
	b := a.block()
	b.handOff()
	n := b.allocRefs.Load() // relaxed
	spins := 0
	for {
		if n == locked {
			// GetMut is deciding uniqueness; wait for it to restore
			// the count.
			spin.Wait(&spins)
			n = b.allocRefs.Load()
			continue
		}
		if n >= locked-1 {
			abort.Abort("arc: weak count overflow")
		}
		// Acquire on success: pairs with the release store in GetMut, so
		// this increment is ordered after the uniqueness check rather
		// than interleaved with it.
		if b.allocRefs.CompareAndSwap(n, n+1) {
			return &Weak[T]{b: b}
		}
		n = b.allocRefs.Load()
	}
}

// GetMut returns a pointer for exclusive mutation of the value if a is the
// only handle (strong or weak) to it, and false otherwise.
//
// The caller must own a exclusively for as long as it uses the pointer:
// no other goroutine may call methods on this same handle meanwhile, and
// a must not be cloned or downgraded while the pointer is in use.
func GetMut[T any](a *Arc[T]) (*T, bool) {
	b := a.block()
	// Acquire: pairs with the release decrement in Weak.Drop, so any Arc
	// upgraded from a now-dropped Weak is visible in the dataRefs load.
	if !b.allocRefs.CompareAndSwap(1, locked) {
		return nil, false
	}
	unique := b.dataRefs.Load() == 1 // relaxed
	// Release: pairs with the acquire CAS in Downgrade. Restored on both
	// paths, so a Downgrade spinning on the sentinel always gets going
	// again and is ordered after this decision.
	b.allocRefs.Store(1)
	if !unique {
		return nil, false
	}
	// Acquire fence: pairs with the release decrement in Arc.Drop, so the
	// accesses of strong handles dropped earlier happen before ours.
	if trace.Default.Enabled() {
		trace.Default.OnAcquire(b.key.Sync())
		trace.Default.OnWrite(b.key.Data())
	}
	return &b.value, true
}

// StrongCount returns the number of strong handles. The result may be stale
// by the time the caller looks at it.
func (a *Arc[T]) StrongCount() uint64 {
	return a.block().dataRefs.Load()
}

// WeakCount returns the number of weak handles, not counting the one all
// strong handles share. It reports 0 while GetMut is deciding uniqueness.
func (a *Arc[T]) WeakCount() uint64 {
	n := a.block().allocRefs.Load()
	if n == locked {
		return 0
	}
	return n - 1
}

// PtrEqual reports whether a and other share one allocation.
func (a *Arc[T]) PtrEqual(other *Arc[T]) bool {
	return a.block() == other.block()
}

// Upgrade returns a new strong handle if the value has not been destroyed
// yet, and false otherwise. It is lock-free.
func (w *Weak[T]) Upgrade() (*Arc[T], bool) {
	b := w.block()
	n := b.dataRefs.Load() // relaxed
	for {
		if n == 0 {
			return nil, false
		}
		if n == math.MaxUint64 {
			abort.Abort("arc: strong count overflow")
		}
		// Relaxed: success only proves the value is alive; the value was
		// published to this goroutine together with the Weak.
		if b.dataRefs.CompareAndSwap(n, n+1) {
			if trace.Default.Enabled() {
				trace.Default.OnAcquire(b.key.Sync())
			}
			return &Arc[T]{b: b}, true
		}
		n = b.dataRefs.Load()
	}
}

// Clone returns a new weak handle to the same allocation.
func (w *Weak[T]) Clone() *Weak[T] {
	b := w.block()
	b.handOff()
	// Relaxed: only the count matters.
	if b.allocRefs.Add(1)-1 > maxRefs {
		abort.Abort("arc: weak count overflow")
	}
	return &Weak[T]{b: b}
}

// Drop releases this weak handle. The handle must not be used afterwards.
func (w *Weak[T]) Drop() {
	b := w.block()
	w.b = nil
	dropAlloc(b)
}
