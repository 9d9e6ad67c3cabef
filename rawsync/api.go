package rawsync

import (
	"github.com/kolkov/rawsync/internal/rawsync/arc"
	"github.com/kolkov/rawsync/internal/rawsync/oneshot"
	"github.com/kolkov/rawsync/internal/rawsync/spinlock"
	"github.com/kolkov/rawsync/internal/rawsync/trace"
)

// Dropper is implemented by values that need to run code at the end of
// their shared lifetime (Arc) or when discarded unreceived (Channel).
type Dropper = arc.Dropper

// Arc is a strong, atomically reference-counted handle to a shared value.
type Arc[T any] = arc.Arc[T]

// Weak is a non-owning handle that can be upgraded to an Arc while the
// value is alive.
type Weak[T any] = arc.Weak[T]

// Channel is a single-use, single-message handoff.
type Channel[T any] = oneshot.Channel[T]

// Sender is the sending endpoint of a split Channel.
type Sender[T any] = oneshot.Sender[T]

// Receiver is the receiving endpoint of a split Channel.
type Receiver[T any] = oneshot.Receiver[T]

// SpinLock is a busy-waiting lock around one value.
type SpinLock[T any] = spinlock.SpinLock[T]

// Guard is proof that a SpinLock is held.
type Guard[T any] = spinlock.Guard[T]

// Violation describes two accesses to a traced value that no rawsync edge
// orders.
type Violation = trace.Violation

// NewArc moves v into a new shared allocation and returns its first strong
// handle.
func NewArc[T any](v T) *Arc[T] {
	return arc.New(v)
}

// GetMut returns a pointer for mutating a's value if a is the only handle,
// strong or weak, to it.
func GetMut[T any](a *Arc[T]) (*T, bool) {
	return arc.GetMut(a)
}

// NewChannel returns an empty one-shot channel.
func NewChannel[T any]() *Channel[T] {
	return oneshot.New[T]()
}

// NewSpinLock returns an unlocked spin lock protecting v.
func NewSpinLock[T any](v T) *SpinLock[T] {
	return spinlock.New(v)
}

// EnableTracing turns on happens-before tracing for all primitives.
func EnableTracing() {
	trace.Default.Enable()
}

// DisableTracing turns tracing off. Violations recorded so far are kept.
func DisableTracing() {
	trace.Default.Disable()
}

// TracingEnabled reports whether tracing is on.
func TracingEnabled() bool {
	return trace.Default.Enabled()
}

// TraceViolations returns the violations recorded since the process started
// or the last ResetTracing.
func TraceViolations() []Violation {
	return trace.Default.Violations()
}

// ResetTracing forgets all tracer state. It must not run concurrently with
// traced operations.
func ResetTracing() {
	trace.Default.Reset()
}
