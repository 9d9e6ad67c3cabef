// Package rawsync provides three concurrency primitives built directly on
// atomic operations, each with its happens-before edges spelled out.
//
// # Quick Start
//
//	import "github.com/kolkov/rawsync/rawsync"
//
//	// Shared ownership with a deterministic end of life.
//	a := rawsync.NewArc(conn)      // conn.Drop runs when the last Arc goes
//	b := a.Clone()
//	go func() { defer b.Drop(); use(b.Get()) }()
//	a.Drop()
//
//	// One message, one handoff.
//	ch := rawsync.NewChannel[string]()
//	tx, rx := ch.Split()
//	go tx.Send("hello")
//	fmt.Println(rx.Receive())
//
//	// Busy-wait mutual exclusion.
//	l := rawsync.NewSpinLock(0)
//	l.With(func(n *int) { *n++ })
//
// # API Overview
//
// The package provides:
//   - Shared ownership: [Arc], [Weak], [NewArc], [GetMut]
//   - One-shot handoff: [Channel], [Sender], [Receiver], [NewChannel]
//   - Spin-wait locking: [SpinLock], [Guard], [NewSpinLock]
//   - Happens-before tracing: [EnableTracing], [DisableTracing],
//     [TraceViolations]
//   - Version information: [GetInfo], [Version], [Compatible]
//
// # Handles
//
// Go has no destructors. Every Arc and Weak must be dropped exactly once,
// every Sender and Receiver is consumed by Send and Receive, and every
// Guard is released by Unlock. Using a consumed handle panics. Reference
// count overflow and double release of an allocation are not recoverable:
// the process logs the reason and exits with status 134.
//
// # Tracing
//
// With tracing enabled (EnableTracing, or RAWSYNC_TRACE=1 in the
// environment) every primitive reports its acquire and release edges and
// its accesses to the protected value to a vector-clock tracker. Accesses
// that the primitives fail to order are logged and returned by
// TraceViolations. Tracing costs one atomic load per operation when off.
//
// Edges created outside rawsync (go statements, channels, sync.Mutex) are
// not visible to the tracker.
//
// # Scheduling
//
// Receive deschedules the waiting goroutine. Lock, Weak.Upgrade and
// Arc.Downgrade never do: they retry on the CPU and yield with
// runtime.Gosched when the wait gets long. Keep spin-locked sections short.
package rawsync
