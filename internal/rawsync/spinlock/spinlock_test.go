package spinlock

import (
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/rawsync/internal/rawsync/epoch"
	"github.com/kolkov/rawsync/internal/rawsync/trace"
)

func TestCounter(t *testing.T) {
	tests := []struct {
		goroutines int
		increments int
	}{
		{1, 1},
		{2, 1000},
		{8, 10000},
		{32, 500},
	}
	for _, tt := range tests {
		l := New(0)
		var wg sync.WaitGroup
		for i := 0; i < tt.goroutines; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < tt.increments; j++ {
					g := l.Lock()
					*g.Value()++
					g.Unlock()
				}
			}()
		}
		wg.Wait()

		g := l.Lock()
		assert.Equal(t, tt.goroutines*tt.increments, *g.Value(),
			"%d goroutines x %d increments", tt.goroutines, tt.increments)
		g.Unlock()
	}
}

func TestCriticalSectionsDoNotInterleave(t *testing.T) {
	for run := 0; run < 200; run++ {
		l := New([]int{})
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			l.With(func(s *[]int) { *s = append(*s, 1) })
		}()
		go func() {
			defer wg.Done()
			g := l.Lock()
			v := g.Value()
			*v = append(*v, 2)
			*v = append(*v, 2)
			g.Unlock()
		}()
		wg.Wait()

		g := l.Lock()
		got := slices.Clone(*g.Value())
		g.Unlock()
		if !slices.Equal(got, []int{1, 2, 2}) && !slices.Equal(got, []int{2, 2, 1}) {
			t.Fatalf("run %d: got %v, want [1 2 2] or [2 2 1]", run, got)
		}
	}
}

func TestTryLock(t *testing.T) {
	var l SpinLock[string]

	g, ok := l.TryLock()
	require.True(t, ok)
	*g.Value() = "held"

	_, ok = l.TryLock()
	assert.False(t, ok)

	g.Unlock()
	g, ok = l.TryLock()
	require.True(t, ok)
	assert.Equal(t, "held", *g.Value())
	g.Unlock()
}

func TestWithReleasesOnPanic(t *testing.T) {
	l := New(0)

	assert.PanicsWithValue(t, "boom", func() {
		l.With(func(v *int) {
			*v = 1
			panic("boom")
		})
	})

	g, ok := l.TryLock()
	require.True(t, ok, "lock released by the deferred Unlock")
	assert.Equal(t, 1, *g.Value())
	g.Unlock()
}

func TestReleasedGuardPanics(t *testing.T) {
	l := New(0)
	g := l.Lock()
	g.Unlock()

	assert.PanicsWithValue(t, "spinlock: unlock of released Guard", func() { g.Unlock() })
	assert.PanicsWithValue(t, "spinlock: use of released Guard", func() { g.Value() })

	// The second Unlock must not have released anybody else's hold.
	g2 := l.Lock()
	assert.PanicsWithValue(t, "spinlock: unlock of released Guard", func() { g.Unlock() })
	_, ok := l.TryLock()
	assert.False(t, ok)
	g2.Unlock()
}

func TestTracedHoldersAreOrdered(t *testing.T) {
	trace.Default.Reset()
	trace.Default.Enable()
	t.Cleanup(func() {
		trace.Default.Disable()
		trace.Default.Reset()
	})

	l := New(0)
	var (
		mu    sync.Mutex
		exits []epoch.Epoch
		wg    sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				g := l.Lock()
				*g.Value()++

				// Every earlier holder's exit must happen before this entry.
				mu.Lock()
				for _, e := range exits {
					if !trace.Default.Ordered(e) {
						t.Errorf("holder exit %v not ordered before entry", e)
					}
				}
				mu.Unlock()

				e := trace.Default.Now()
				mu.Lock()
				exits = append(exits, e)
				mu.Unlock()
				g.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, trace.Default.Violations())
}
