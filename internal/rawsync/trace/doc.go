// Package trace verifies, at run time, the happens-before claims the rawsync
// primitives make.
//
// Every primitive reports its synchronization edges to a Tracker:
//
//	SpinLock.Lock      -> OnAcquire(lock)
//	Guard.Value        -> OnWrite(value)
//	Guard.Unlock       -> OnRelease(lock)
//	Sender.Send        -> OnWrite(slot), OnRelease(channel)
//	Receiver.Receive   -> OnAcquire(channel), OnRead(slot)
//	Arc.Clone          -> OnReleaseMerge(block)
//	Arc.Downgrade      -> OnReleaseMerge(block)
//	Weak.Clone         -> OnReleaseMerge(block)
//	Arc.Get            -> OnAcquire(block), OnRead(value)
//	Weak.Upgrade       -> OnAcquire(block)
//	Arc.Drop           -> OnReleaseMerge(block)
//	last Arc.Drop      -> OnAcquire(block), OnWrite(value)
//	GetMut             -> OnAcquire(block), OnWrite(value)
//
// The tracker keeps a vector clock per goroutine and a release clock per
// synchronization point, and checks every traced data access against the
// previous conflicting accesses of the same value. An access that is not
// ordered after them is recorded as a Violation and logged. A correct
// primitive never produces one, so the tracer doubles as an executable
// statement of each primitive's ordering argument.
//
// Tracing is off by default. Enabled hooks cost a goroutine-ID lookup
// (runtime.Stack parse) plus vector clock work, so it is a debugging and
// testing aid, not something to leave on in production. Set RAWSYNC_TRACE=1
// or call Default.Enable to turn it on.
//
// Only 256 goroutines can be traced per Tracker (the TID field of an
// epoch). When the 257th traced goroutine shows up the tracker disables
// itself and logs a warning.
package trace
