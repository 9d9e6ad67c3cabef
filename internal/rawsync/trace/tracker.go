package trace

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/kolkov/rawsync/internal/logging"
	"github.com/kolkov/rawsync/internal/rawsync/epoch"
	"github.com/kolkov/rawsync/internal/rawsync/goroutine"
	"github.com/kolkov/rawsync/internal/rawsync/stackdepot"
	"github.com/kolkov/rawsync/internal/rawsync/syncshadow"
	"github.com/kolkov/rawsync/internal/rawsync/vectorclock"
)

// EnvVar enables the Default tracker at startup when set to a true value
// ("1", "true", ...).
const EnvVar = "RAWSYNC_TRACE"

// Default is the tracker the rawsync primitives report to.
var Default = New()

func init() {
	if on, err := strconv.ParseBool(os.Getenv(EnvVar)); err == nil && on {
		Default.Enable()
	}
}

// Tracker maintains happens-before state for traced goroutines,
// synchronization points and values.
//
// Components:
//   - contexts: goroutine ID -> *goroutine.Context (logical time)
//   - shadow: sync key -> release clock
//   - cells: data key -> last write / reads
//   - stacks: deduplicated access stacks for reports
//
// All methods are safe for concurrent use.
type Tracker struct {
	enabled atomic.Bool

	tidMu   sync.Mutex
	nextTID int

	contexts sync.Map // int64 goroutine ID -> *goroutine.Context
	cells    sync.Map // uint64 data key -> *cell
	shadow   *syncshadow.Shadow
	stacks   *stackdepot.Depot

	violMu     sync.Mutex
	violations []Violation
}

// New creates a disabled tracker.
func New() *Tracker {
	return &Tracker{
		shadow: syncshadow.New(),
		stacks: stackdepot.New(),
	}
}

// Enable turns tracing on.
func (t *Tracker) Enable() {
	t.enabled.Store(true)
}

// Disable turns tracing off. Recorded state is kept.
func (t *Tracker) Disable() {
	t.enabled.Store(false)
}

// Enabled reports whether tracing is on. Primitives check it before calling
// any hook so that disabled tracing costs one atomic load.
func (t *Tracker) Enabled() bool {
	return t.enabled.Load()
}

// context returns the calling goroutine's context, allocating a TID on
// first use. Returns nil when the tracker is disabled or out of TIDs.
func (t *Tracker) context() *goroutine.Context {
	if !t.enabled.Load() {
		return nil
	}
	gid := goroutine.ID()
	if v, ok := t.contexts.Load(gid); ok {
		return v.(*goroutine.Context)
	}

	t.tidMu.Lock()
	defer t.tidMu.Unlock()
	if t.nextTID >= vectorclock.MaxThreads {
		if t.enabled.CompareAndSwap(true, false) {
			logging.Logger().Warn("rawsync: tracer out of goroutine slots, tracing disabled",
				"limit", vectorclock.MaxThreads)
		}
		return nil
	}
	ctx := goroutine.Alloc(uint8(t.nextTID))
	t.nextTID++
	t.contexts.Store(gid, ctx)
	return ctx
}

// OnAcquire records that the calling goroutine acquired sync point key:
// Ct := Ct ⊔ Lkey.
func (t *Tracker) OnAcquire(key uint64) {
	if ctx := t.context(); ctx != nil {
		t.shadow.GetOrCreate(key).Acquire(ctx)
	}
}

// OnRelease records that the calling goroutine released sync point key:
// Lkey := Ct.
func (t *Tracker) OnRelease(key uint64) {
	if ctx := t.context(); ctx != nil {
		t.shadow.GetOrCreate(key).Release(ctx)
	}
}

// OnReleaseMerge records a release that must not forget earlier releasers
// of key: Lkey := Lkey ⊔ Ct.
func (t *Tracker) OnReleaseMerge(key uint64) {
	if ctx := t.context(); ctx != nil {
		t.shadow.GetOrCreate(key).ReleaseMerge(ctx)
	}
}

// OnWrite records a write to value key by the calling goroutine.
func (t *Tracker) OnWrite(key uint64) {
	ctx := t.context()
	if ctx == nil {
		return
	}
	stack := t.stacks.Capture(2)
	if c, ok := t.cell(key).onWrite(ctx, stack); ok {
		t.report(key, c, ctx.GetEpoch(), stack)
	}
}

// OnRead records a read of value key by the calling goroutine.
func (t *Tracker) OnRead(key uint64) {
	ctx := t.context()
	if ctx == nil {
		return
	}
	stack := t.stacks.Capture(2)
	if c, ok := t.cell(key).onRead(ctx, stack); ok {
		t.report(key, c, ctx.GetEpoch(), stack)
	}
}

// Forget drops all state about the given keys. Called when a primitive's
// storage is released.
func (t *Tracker) Forget(keys ...uint64) {
	for _, k := range keys {
		t.shadow.Forget(k)
		t.cells.Delete(k)
	}
}

// Now returns the calling goroutine's current epoch, or epoch.Zero when
// tracing is off.
func (t *Tracker) Now() epoch.Epoch {
	if ctx := t.context(); ctx != nil {
		return ctx.GetEpoch()
	}
	return epoch.Zero
}

// Ordered reports whether moment e (obtained from Now, possibly on another
// goroutine) happens before the calling goroutine's current moment. It
// returns true when tracing is off.
func (t *Tracker) Ordered(e epoch.Epoch) bool {
	ctx := t.context()
	if ctx == nil {
		return true
	}
	return e.HappensBefore(ctx.C)
}

// Violations returns a copy of the violations recorded so far.
func (t *Tracker) Violations() []Violation {
	t.violMu.Lock()
	defer t.violMu.Unlock()
	return append([]Violation(nil), t.violations...)
}

// Reset forgets all goroutines, sync points, values and violations. The
// enabled state is unchanged. Must not run concurrently with hooks.
func (t *Tracker) Reset() {
	t.tidMu.Lock()
	t.nextTID = 0
	t.tidMu.Unlock()

	t.contexts.Clear()
	t.cells.Clear()
	t.shadow.Reset()
	t.stacks.Reset()

	t.violMu.Lock()
	t.violations = nil
	t.violMu.Unlock()
}

func (t *Tracker) cell(key uint64) *cell {
	if v, ok := t.cells.Load(key); ok {
		return v.(*cell)
	}
	v, _ := t.cells.LoadOrStore(key, &cell{})
	return v.(*cell)
}

func (t *Tracker) report(key uint64, c conflict, curr epoch.Epoch, currStack uint64) {
	v := Violation{
		Kind:      c.kind,
		Key:       key,
		Prev:      c.prev,
		Curr:      curr,
		PrevStack: t.stacks.Get(c.stack).Format(),
		CurrStack: t.stacks.Get(currStack).Format(),
	}

	t.violMu.Lock()
	t.violations = append(t.violations, v)
	t.violMu.Unlock()

	logging.Logger().Warn("rawsync: unordered access",
		"kind", v.Kind,
		"key", v.Key,
		"prev", v.Prev.String(),
		"curr", v.Curr.String(),
		"stack", v.CurrStack)
}
