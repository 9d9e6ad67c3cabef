package syncshadow

import (
	"sync"
	"testing"

	"github.com/kolkov/rawsync/internal/rawsync/goroutine"
)

// TestGetOrCreate_Cached verifies the same SyncVar is returned per address.
func TestGetOrCreate_Cached(t *testing.T) {
	shadow := New()
	sv1 := shadow.GetOrCreate(0x1234)
	sv2 := shadow.GetOrCreate(0x1234)
	if sv1 != sv2 {
		t.Error("GetOrCreate returned different SyncVar instances for same address")
	}
	if shadow.GetOrCreate(0x5678) == sv1 {
		t.Error("GetOrCreate returned same SyncVar for different addresses")
	}
	if sv1.releaseClockCopy() != nil {
		t.Error("expected nil release clock before first release")
	}
}

// TestGetOrCreate_Concurrent verifies racing creators agree.
func TestGetOrCreate_Concurrent(t *testing.T) {
	shadow := New()
	const n = 32
	got := make([]*SyncVar, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = shadow.GetOrCreate(0xbeef)
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if got[i] != got[0] {
			t.Fatalf("goroutine %d got a different SyncVar", i)
		}
	}
	if shadow.size() != 1 {
		t.Errorf("size() = %d, want 1", shadow.size())
	}
}

// TestReleaseAcquire verifies Unlock(m) -> Lock(m) ordering.
func TestReleaseAcquire(t *testing.T) {
	sv := &SyncVar{}
	t1 := goroutine.Alloc(1)
	t2 := goroutine.Alloc(2)

	t1.IncrementClock()
	before := t1.GetEpoch()
	sv.Release(t1)

	if before.HappensBefore(t2.C) {
		t.Fatal("t2 ordered after t1 before acquiring")
	}
	sv.Acquire(t2)
	if !before.HappensBefore(t2.C) {
		t.Error("t2 not ordered after t1's release")
	}
	if t1.C.Get(1) != 3 {
		t.Errorf("Release did not advance releaser: C[1] = %d, want 3", t1.C.Get(1))
	}
}

// TestReleaseMergeKeepsAllReleasers checks the Arc.Drop pattern: the last
// acquirer is ordered after every releaser, not just the latest.
func TestReleaseMergeKeepsAllReleasers(t *testing.T) {
	sv := &SyncVar{}
	a := goroutine.Alloc(1)
	b := goroutine.Alloc(2)
	last := goroutine.Alloc(3)

	ea, eb := a.GetEpoch(), b.GetEpoch()
	sv.ReleaseMerge(a)
	sv.ReleaseMerge(b)
	sv.Acquire(last)

	if !ea.HappensBefore(last.C) || !eb.HappensBefore(last.C) {
		t.Errorf("last acquirer clock %s misses a releaser", last.C)
	}
}

// TestReleaseOverwrites contrasts Release with ReleaseMerge.
func TestReleaseOverwrites(t *testing.T) {
	sv := &SyncVar{}
	a := goroutine.Alloc(1)
	b := goroutine.Alloc(2)
	c := goroutine.Alloc(3)

	ea := a.GetEpoch()
	sv.Release(a)
	sv.Release(b)
	sv.Acquire(c)

	if ea.HappensBefore(c.C) {
		t.Error("Release should overwrite, not merge, the previous releaser")
	}
}

func TestReset(t *testing.T) {
	shadow := New()
	shadow.GetOrCreate(1)
	shadow.GetOrCreate(2)
	shadow.Reset()
	if shadow.size() != 0 {
		t.Errorf("size() after Reset = %d, want 0", shadow.size())
	}
}

func TestForget(t *testing.T) {
	shadow := New()
	sv := shadow.GetOrCreate(7)
	shadow.Forget(7)
	if shadow.GetOrCreate(7) == sv {
		t.Error("Forget kept the old SyncVar")
	}
}
