package stress

import (
	"context"
	"sync/atomic"

	"github.com/kolkov/rawsync/internal/config"
	"github.com/kolkov/rawsync/internal/rawsync/arc"
	"github.com/kolkov/rawsync/internal/rawsync/oneshot"
	"github.com/kolkov/rawsync/internal/rawsync/spinlock"
)

const (
	// checkEvery is how many iterations a worker runs between context
	// checks. ctx.Err takes a lock; checking every round would measure
	// the context instead of the primitive.
	checkEvery = 256

	// runLength is how many elements one spinlock-sequence critical
	// section appends.
	runLength = 3
)

func canceled(ctx context.Context, i int) error {
	if i%checkEvery != 0 {
		return nil
	}
	return ctx.Err()
}

// spinlockCounter increments one counter from every worker. Every
// increment must survive.
func spinlockCounter(ctx context.Context, s config.Scenario) (uint64, int, error) {
	l := spinlock.New(0)
	var ops atomic.Uint64

	err := fanOut(ctx, s.Goroutines, func(ctx context.Context, _ int) error {
		for i := 0; i < s.Iterations; i++ {
			if err := canceled(ctx, i); err != nil {
				return err
			}
			g := l.Lock()
			*g.Value()++
			g.Unlock()
			ops.Add(1)
		}
		return nil
	})
	if err != nil {
		return ops.Load(), 0, err
	}

	var got int
	l.With(func(n *int) { got = *n })
	failures := 0
	if got != s.Goroutines*s.Iterations {
		failures = 1
	}
	return ops.Load(), failures, nil
}

// spinlockSequence has every worker append runs of its own ID to one slice.
// A run split by another worker's element means two critical sections
// overlapped.
func spinlockSequence(ctx context.Context, s config.Scenario) (uint64, int, error) {
	l := spinlock.New(make([]int, 0, s.Goroutines*s.Iterations*runLength))
	var ops atomic.Uint64

	err := fanOut(ctx, s.Goroutines, func(ctx context.Context, worker int) error {
		for i := 0; i < s.Iterations; i++ {
			if err := canceled(ctx, i); err != nil {
				return err
			}
			g := l.Lock()
			v := g.Value()
			for k := 0; k < runLength; k++ {
				*v = append(*v, worker)
			}
			g.Unlock()
			ops.Add(1)
		}
		return nil
	})
	if err != nil {
		return ops.Load(), 0, err
	}

	var seq []int
	l.With(func(v *[]int) { seq = *v })
	return ops.Load(), checkRuns(seq, s.Goroutines, s.Iterations), nil
}

// checkRuns counts the runs of seq that are not runLength copies of one
// worker ID, plus workers whose run count is off.
func checkRuns(seq []int, workers, iterations int) int {
	failures := 0
	if len(seq) != workers*iterations*runLength {
		failures++
	}
	counts := make([]int, workers)
	for i := 0; i+runLength <= len(seq); i += runLength {
		id := seq[i]
		for k := 1; k < runLength; k++ {
			if seq[i+k] != id {
				failures++
				break
			}
		}
		if id >= 0 && id < workers {
			counts[id]++
		}
	}
	for _, c := range counts {
		if c != iterations {
			failures++
		}
	}
	return failures
}

// parcel is the one-shot payload. Drop runs only for parcels discarded
// without being received.
type parcel struct {
	seq     int
	discard *atomic.Int64
}

func (p parcel) Drop() { p.discard.Add(1) }

type handoff struct {
	tx  *oneshot.Sender[parcel]
	seq int
}

// oneshotHandoff has every worker split a channel per round, pass the
// sender to its helper goroutine and receive. Each parcel must arrive
// once, intact, and nothing may be discarded.
func oneshotHandoff(ctx context.Context, s config.Scenario) (uint64, int, error) {
	var (
		ops      atomic.Uint64
		failures atomic.Int64
		discard  atomic.Int64
	)

	err := fanOut(ctx, s.Goroutines, func(ctx context.Context, _ int) error {
		jobs := make(chan handoff)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for j := range jobs {
				j.tx.Send(parcel{seq: j.seq, discard: &discard})
			}
		}()
		defer func() {
			close(jobs)
			<-done
		}()

		var ch oneshot.Channel[parcel]
		defer ch.Drop()
		for i := 0; i < s.Iterations; i++ {
			if err := canceled(ctx, i); err != nil {
				return err
			}
			tx, rx := ch.Split()
			jobs <- handoff{tx: tx, seq: i}
			if p := rx.Receive(); p.seq != i {
				failures.Add(1)
			}
			ops.Add(1)
		}
		return nil
	})
	return ops.Load(), int(failures.Load() + discard.Load()), err
}

// tracked counts its destructions.
type tracked struct {
	drops *atomic.Int32
}

func (t tracked) Drop() { t.drops.Add(1) }

// arcChurn clones, downgrades and upgrades one shared value from every
// worker while a root handle keeps it alive, then checks it is destroyed
// exactly once and stays unreachable from weak handles afterwards.
func arcChurn(ctx context.Context, s config.Scenario) (uint64, int, error) {
	var (
		ops      atomic.Uint64
		failures atomic.Int64
		drops    atomic.Int32
	)
	root := arc.New(tracked{drops: &drops})
	weak := root.Downgrade()

	err := fanOut(ctx, s.Goroutines, func(ctx context.Context, _ int) error {
		a := root.Clone()
		defer a.Drop()
		w := weak.Clone()
		defer w.Drop()

		for i := 0; i < s.Iterations; i++ {
			if err := canceled(ctx, i); err != nil {
				return err
			}
			c := a.Clone()
			cw := c.Downgrade()
			if up, ok := cw.Upgrade(); ok {
				_ = up.Get()
				up.Drop()
			} else {
				failures.Add(1)
			}
			cw.Drop()
			c.Drop()

			if _, ok := arc.GetMut(a); ok {
				failures.Add(1)
			}
			ops.Add(1)
		}
		return nil
	})

	if drops.Load() != 0 {
		failures.Add(1)
	}
	root.Drop()
	if drops.Load() != 1 {
		failures.Add(1)
	}
	if up, ok := weak.Upgrade(); ok {
		failures.Add(1)
		up.Drop()
	}
	weak.Drop()

	return ops.Load(), int(failures.Load()), err
}
