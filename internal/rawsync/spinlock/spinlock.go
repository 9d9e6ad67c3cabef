// Package spinlock implements a busy-waiting mutual-exclusion lock around a
// single protected value.
//
// A waiting goroutine is never descheduled: it spins on the lock flag,
// yielding the processor with runtime.Gosched after a short burst. Use it
// for short, low-contention critical sections only. There is no fairness
// and no reentrancy; locking twice from one goroutine deadlocks.
//
// The value is reachable only through a Guard, which is proof that the
// lock is held:
//
//	l := spinlock.New([]int{})
//	l.With(func(s *[]int) { *s = append(*s, 1) })
//
//	g := l.Lock()
//	*g.Value() = append(*g.Value(), 2)
//	g.Unlock()
package spinlock

import (
	"sync/atomic"

	"github.com/kolkov/rawsync/internal/rawsync/spin"
	"github.com/kolkov/rawsync/internal/rawsync/trace"
)

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// SpinLock guards a value of type T. The zero value is an unlocked lock
// around T's zero value.
type SpinLock[T any] struct {
	_      noCopy
	locked atomic.Bool
	value  T

	key trace.Key
}

// Guard grants exclusive access to the protected value until Unlock.
type Guard[T any] struct {
	_ noCopy
	l *SpinLock[T]
}

// New returns an unlocked lock protecting v.
func New[T any](v T) *SpinLock[T] {
	return &SpinLock[T]{value: v}
}

// Lock spins until the lock is acquired and returns its guard.
func (l *SpinLock[T]) Lock() *Guard[T] {
	spins := 0
	// Acquire: pairs with the release store in Unlock, so the previous
	// holder's writes to the value are visible to this one.
	for l.locked.Swap(true) {
		spin.Wait(&spins)
	}
	return l.acquired()
}

// TryLock acquires the lock if it is free and reports whether it did.
func (l *SpinLock[T]) TryLock() (*Guard[T], bool) {
	// Acquire on success, as in Lock.
	if !l.locked.CompareAndSwap(false, true) {
		return nil, false
	}
	return l.acquired(), true
}

func (l *SpinLock[T]) acquired() *Guard[T] {
	if trace.Default.Enabled() {
		trace.Default.OnAcquire(l.key.Sync())
	}
	return &Guard[T]{l: l}
}

// With runs fn with the lock held. The lock is released when fn returns or
// panics.
func (l *SpinLock[T]) With(fn func(v *T)) {
	g := l.Lock()
	defer g.Unlock()
	fn(g.Value())
}

// Value returns the protected value. The pointer must not be used after
// Unlock.
func (g *Guard[T]) Value() *T {
	if g == nil || g.l == nil {
		panic("spinlock: use of released Guard")
	}
	if trace.Default.Enabled() {
		trace.Default.OnWrite(g.l.key.Data())
	}
	return &g.l.value
}

// Unlock releases the lock. It panics if the guard was already released.
func (g *Guard[T]) Unlock() {
	if g == nil || g.l == nil {
		panic("spinlock: unlock of released Guard")
	}
	l := g.l
	g.l = nil

	if trace.Default.Enabled() {
		trace.Default.OnRelease(l.key.Sync())
	}
	// Release: publishes every write made under this guard to the next
	// acquiring Swap.
	l.locked.Store(false)
}
