package arc

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/rawsync/internal/rawsync/abort"
	"github.com/kolkov/rawsync/internal/rawsync/trace"
)

// counted records how many times it was dropped.
type counted struct {
	drops *atomic.Int32
	name  string
}

func (c counted) Drop() { c.drops.Add(1) }

// resource implements Dropper on the pointer receiver.
type resource struct {
	closed *int
}

func (r *resource) Drop() { *r.closed++ }

// captureAborts replaces the abort handler for the duration of the test.
func captureAborts(t *testing.T) *[]string {
	t.Helper()
	var mu sync.Mutex
	reasons := &[]string{}
	restore := abort.Swap(func(reason string) {
		mu.Lock()
		*reasons = append(*reasons, reason)
		mu.Unlock()
	})
	t.Cleanup(restore)
	return reasons
}

func TestNewGet(t *testing.T) {
	a := New(42)
	assert.Equal(t, 42, *a.Get())
	assert.Equal(t, uint64(1), a.StrongCount())
	assert.Equal(t, uint64(0), a.WeakCount())
	a.Drop()
}

func TestCloneSharesValue(t *testing.T) {
	a := New("hello")
	b := a.Clone()

	assert.True(t, a.PtrEqual(b))
	assert.Same(t, a.Get(), b.Get())
	assert.Equal(t, uint64(2), a.StrongCount())

	c := New("hello")
	assert.False(t, a.PtrEqual(c))

	a.Drop()
	assert.Equal(t, uint64(1), b.StrongCount())
	b.Drop()
	c.Drop()
}

func TestDropOnceWithWeaks(t *testing.T) {
	var drops atomic.Int32
	a := New(counted{drops: &drops, name: "x"})
	w1 := a.Downgrade()
	w2 := w1.Clone()
	b := a.Clone()

	assert.Equal(t, uint64(2), a.WeakCount())

	a.Drop()
	assert.Equal(t, int32(0), drops.Load())
	b.Drop()
	assert.Equal(t, int32(1), drops.Load())

	w1.Drop()
	w2.Drop()
	assert.Equal(t, int32(1), drops.Load())
}

func TestPointerReceiverDropper(t *testing.T) {
	var closed int
	a := New(resource{closed: &closed})
	blk := a.b
	a.Drop()

	assert.Equal(t, 1, closed)
	// destroy resets the slot after running Drop.
	assert.False(t, blk.initialized)
	assert.Nil(t, blk.value.closed)
	assert.True(t, blk.released.Load())
}

func TestPointerValueDropper(t *testing.T) {
	var closed int
	a := New(&resource{closed: &closed})
	a.Clone().Drop()
	assert.Equal(t, 0, closed)
	a.Drop()
	assert.Equal(t, 1, closed)
}

func TestUpgrade(t *testing.T) {
	a := New(7)
	w := a.Downgrade()

	up, ok := w.Upgrade()
	require.True(t, ok)
	assert.Equal(t, 7, *up.Get())
	assert.Equal(t, uint64(2), a.StrongCount())
	up.Drop()

	a.Drop()
	up, ok = w.Upgrade()
	assert.False(t, ok)
	assert.Nil(t, up)
	w.Drop()
}

func TestGetMut(t *testing.T) {
	a := New(1)

	p, ok := GetMut(a)
	require.True(t, ok)
	*p = 2
	assert.Equal(t, 2, *a.Get())

	b := a.Clone()
	_, ok = GetMut(a)
	assert.False(t, ok, "another strong handle exists")
	b.Drop()

	w := a.Downgrade()
	_, ok = GetMut(a)
	assert.False(t, ok, "a weak handle exists")

	// A failed attempt leaves the weak count intact.
	assert.Equal(t, uint64(1), a.WeakCount())
	w.Drop()

	p, ok = GetMut(a)
	require.True(t, ok)
	*p = 3
	assert.Equal(t, 3, *a.Get())
	assert.Equal(t, uint64(1), a.b.allocRefs.Load())
	a.Drop()
}

func TestGetMutUpgradedFromWeak(t *testing.T) {
	a := New(1)
	w := a.Downgrade()
	b, ok := w.Upgrade()
	require.True(t, ok)
	w.Drop()

	// No weaks left, but b is a second strong handle.
	_, ok = GetMut(a)
	assert.False(t, ok)
	assert.Equal(t, uint64(1), a.b.allocRefs.Load())

	b.Drop()
	_, ok = GetMut(a)
	assert.True(t, ok)
	a.Drop()
}

func TestReleasedOnceEitherOrder(t *testing.T) {
	reasons := captureAborts(t)

	t.Run("strong last", func(t *testing.T) {
		a := New(1)
		blk := a.b
		w := a.Downgrade()
		w.Drop()
		assert.False(t, blk.released.Load())
		a.Drop()
		assert.True(t, blk.released.Load())
	})

	t.Run("weak last", func(t *testing.T) {
		a := New(1)
		blk := a.b
		w := a.Downgrade()
		a.Drop()
		assert.False(t, blk.released.Load())
		assert.False(t, blk.initialized)
		w.Drop()
		assert.True(t, blk.released.Load())
	})

	assert.Empty(t, *reasons)
}

func TestDoubleReleaseAborts(t *testing.T) {
	reasons := captureAborts(t)

	a := New(1)
	blk := a.b
	a.Drop()
	require.True(t, blk.released.Load())

	blk.allocRefs.Store(1)
	dropAlloc(blk)
	assert.Equal(t, []string{"arc: allocation released twice"}, *reasons)
}

func TestCloneOverflowAborts(t *testing.T) {
	reasons := captureAborts(t)

	a := New(1)
	a.b.dataRefs.Store(maxRefs + 1)
	_ = a.Clone()
	assert.Equal(t, []string{"arc: strong count overflow"}, *reasons)
}

func TestWeakCloneOverflowAborts(t *testing.T) {
	reasons := captureAborts(t)

	a := New(1)
	w := a.Downgrade()
	a.b.allocRefs.Store(maxRefs + 1)
	_ = w.Clone()
	assert.Equal(t, []string{"arc: weak count overflow"}, *reasons)
}

func TestDowngradeOverflowAborts(t *testing.T) {
	reasons := captureAborts(t)

	a := New(1)
	a.b.allocRefs.Store(locked - 1)
	_ = a.Downgrade()
	assert.Equal(t, []string{"arc: weak count overflow"}, *reasons)
}

func TestUpgradeOverflowAborts(t *testing.T) {
	reasons := captureAborts(t)

	a := New(1)
	w := a.Downgrade()
	a.b.dataRefs.Store(locked)
	_, _ = w.Upgrade()
	assert.Equal(t, []string{"arc: strong count overflow"}, *reasons)
}

func TestDowngradeWaitsForGetMut(t *testing.T) {
	a := New(1)
	blk := a.b
	blk.allocRefs.Store(locked)

	done := make(chan *Weak[int])
	go func() { done <- a.Downgrade() }()

	select {
	case <-done:
		t.Fatal("Downgrade completed while the count was locked")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Equal(t, uint64(0), a.WeakCount())

	blk.allocRefs.Store(1)
	w := <-done
	assert.Equal(t, uint64(1), a.WeakCount())
	w.Drop()
	a.Drop()
}

func TestUseAfterDropPanics(t *testing.T) {
	a := New(1)
	w := a.Downgrade()
	b := a.Clone()
	a.Drop()

	assert.PanicsWithValue(t, "arc: use of dropped Arc", func() { a.Get() })
	assert.PanicsWithValue(t, "arc: use of dropped Arc", func() { a.Drop() })

	w.Drop()
	assert.PanicsWithValue(t, "arc: use of dropped Weak", func() { w.Upgrade() })
	b.Drop()
}

func TestConcurrentChurn(t *testing.T) {
	const (
		workers    = 8
		iterations = 2000
	)
	var drops atomic.Int32
	root := New(counted{drops: &drops})
	weak := root.Downgrade()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		a := root.Clone()
		w := weak.Clone()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer a.Drop()
			defer w.Drop()
			for j := 0; j < iterations; j++ {
				c := a.Clone()
				cw := c.Downgrade()
				if up, ok := cw.Upgrade(); ok {
					_ = up.Get().name
					up.Drop()
				}
				cw.Drop()
				c.Drop()
				if _, ok := GetMut(a); ok {
					t.Error("GetMut succeeded while root is held")
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(1), root.StrongCount())
	assert.Equal(t, uint64(1), root.WeakCount())
	assert.Equal(t, int32(0), drops.Load())

	root.Drop()
	assert.Equal(t, int32(1), drops.Load())
	_, ok := weak.Upgrade()
	assert.False(t, ok)
	weak.Drop()
}

func TestTracedLifetimeIsOrdered(t *testing.T) {
	trace.Default.Reset()
	trace.Default.Enable()
	t.Cleanup(func() {
		trace.Default.Disable()
		trace.Default.Reset()
	})

	var drops atomic.Int32
	root := New(counted{drops: &drops, name: "traced"})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		a := root.Clone()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = a.Get().name
			a.Drop()
		}()
	}
	_ = root.Get().name
	root.Drop()
	wg.Wait()

	assert.Equal(t, int32(1), drops.Load())
	assert.Empty(t, trace.Default.Violations())
}

func TestTracedHandOffAfterGetMut(t *testing.T) {
	trace.Default.Reset()
	trace.Default.Enable()
	t.Cleanup(func() {
		trace.Default.Disable()
		trace.Default.Reset()
	})

	a := New(0)
	p, ok := GetMut(a)
	require.True(t, ok)
	*p = 1

	b := a.Clone()
	w := a.Downgrade()
	w2 := w.Clone()
	done := make(chan int, 3)
	go func() {
		done <- *b.Get()
		b.Drop()
	}()
	go func() {
		up, ok := w.Upgrade()
		if ok {
			done <- *up.Get()
			up.Drop()
		} else {
			done <- -1
		}
		w.Drop()
	}()
	go func() {
		up, ok := w2.Upgrade()
		if ok {
			done <- *up.Get()
			up.Drop()
		} else {
			done <- -1
		}
		w2.Drop()
	}()
	for i := 0; i < 3; i++ {
		assert.Equal(t, 1, <-done)
	}
	a.Drop()

	assert.Empty(t, trace.Default.Violations())
}

func TestDestroyRunsOnce(t *testing.T) {
	var drops atomic.Int32
	a := New(counted{drops: &drops})
	blk := a.b
	a.Drop()
	require.Equal(t, int32(1), drops.Load())

	// The slot is empty now; destroying it again is a no-op.
	blk.destroy()
	assert.Equal(t, int32(1), drops.Load())
}
