package oneshot

import (
	"sync/atomic"

	"github.com/kolkov/rawsync/internal/rawsync/goroutine"
	"github.com/kolkov/rawsync/internal/rawsync/trace"
)

// Dropper is implemented by messages that need to run code when they are
// destroyed without having been received.
type Dropper interface {
	Drop()
}

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Channel holds one message slot and the flag publishing it. The zero
// value is an empty channel ready to be split.
type Channel[T any] struct {
	_ noCopy

	// message is written once by Send and read once by Receive; ready
	// orders the two.
	message T
	ready   atomic.Bool

	key trace.Key
}

// Sender is the sending endpoint of a split channel.
type Sender[T any] struct {
	_      noCopy
	c      *Channel[T]
	parker *goroutine.Parker
}

// Receiver is the receiving endpoint of a split channel. It belongs to the
// goroutine that called Split.
type Receiver[T any] struct {
	_      noCopy
	c      *Channel[T]
	parker *goroutine.Parker
	owner  int64
}

// New returns an empty channel.
func New[T any]() *Channel[T] {
	return &Channel[T]{}
}

// Split resets the channel and returns a fresh endpoint pair. The Receiver
// is bound to the calling goroutine, which is the one Send wakes.
//
// The channel must not be in use by a previous pair whose endpoints are
// still live.
func (c *Channel[T]) Split() (*Sender[T], *Receiver[T]) {
	c.Drop()
	c.key.Renew()

	p := goroutine.NewParker()
	return &Sender[T]{c: c, parker: p},
		&Receiver[T]{c: c, parker: p, owner: goroutine.ID()}
}

// Drop tears the channel down. A message that was sent but not received is
// destroyed; an empty channel is left as is.
//
// No endpoint may be live, so no other goroutine can race with the reads
// below.
func (c *Channel[T]) Drop() {
	if trace.Default.Enabled() {
		trace.Default.Forget(c.key.Sync(), c.key.Data())
	}
	if !c.ready.Load() {
		return
	}
	if d, ok := any(c.message).(Dropper); ok {
		d.Drop()
	} else if d, ok := any(&c.message).(Dropper); ok {
		d.Drop()
	}
	var zero T
	c.message = zero
	c.ready.Store(false)
}

// Send writes v into the channel and wakes the receiver. It consumes the
// sender.
func (s *Sender[T]) Send(v T) {
	if s == nil || s.c == nil {
		panic("oneshot: use of consumed Sender")
	}
	c, p := s.c, s.parker
	s.c, s.parker = nil, nil

	c.message = v
	if trace.Default.Enabled() {
		trace.Default.OnWrite(c.key.Data())
		trace.Default.OnRelease(c.key.Sync())
	}
	// Release: publishes the message write to the acquire swap in Receive.
	c.ready.Store(true)
	p.Unpark()
}

// IsReady reports whether a message has been sent. It does not block and
// may lag behind a concurrent Send; treat the result as a hint.
func (r *Receiver[T]) IsReady() bool {
	if r == nil || r.c == nil {
		panic("oneshot: use of consumed Receiver")
	}
	return r.c.ready.Load() // relaxed
}

// Receive blocks until the message is sent, then returns it. It consumes
// the receiver and must be called on the goroutine that split the channel.
func (r *Receiver[T]) Receive() T {
	if r == nil || r.c == nil {
		panic("oneshot: use of consumed Receiver")
	}
	if goroutine.ID() != r.owner {
		panic("oneshot: Receive called from a goroutine other than the one that called Split")
	}
	c, p := r.c, r.parker
	r.c, r.parker = nil, nil

	// Acquire: pairs with the release store in Send, so the message write
	// is visible once true is observed. Park may return without a Send
	// (a token left over from an earlier wake-up); the loop re-checks.
	for !c.ready.Swap(false) {
		p.Park()
	}
	if trace.Default.Enabled() {
		trace.Default.OnAcquire(c.key.Sync())
		trace.Default.OnRead(c.key.Data())
	}

	v := c.message
	var zero T
	c.message = zero
	return v
}
