package trace

import "sync/atomic"

var nextKey atomic.Uint64

// Key is a primitive's identity in the tracer. A primitive embeds one Key
// and derives two tracer keys from it: Sync for its synchronization point
// and Data for the value it protects.
//
// Keys are assigned lazily on first use, so untraced primitives never touch
// the global counter, and never reused, so a tracker never mixes up two
// primitives that happened to live at the same address.
type Key struct {
	base atomic.Uint64
}

// Sync returns the key of the synchronization point.
func (k *Key) Sync() uint64 {
	return k.get()
}

// Data returns the key of the protected value.
func (k *Key) Data() uint64 {
	return k.get() + 1
}

// Renew gives the primitive a fresh identity. The one-shot channel calls
// it when Split resets the channel, so accesses of the previous pair are
// not compared with the new one. The caller must have exclusive access.
func (k *Key) Renew() {
	k.base.Store(0)
}

func (k *Key) get() uint64 {
	if v := k.base.Load(); v != 0 {
		return v
	}
	k.base.CompareAndSwap(0, nextKey.Add(2))
	return k.base.Load()
}
