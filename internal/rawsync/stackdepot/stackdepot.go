// Package stackdepot stores deduplicated stack traces for tracer reports.
//
// Every traced access remembers where it happened as a 64-bit handle; the
// stack itself is stored once per unique call path. When the tracer reports
// an unordered pair of accesses, both handles are resolved back to frames.
//
// Usage:
//
//	d := stackdepot.New()
//	h := d.Capture(1)
//	...
//	fmt.Print(d.Get(h).Format())
package stackdepot

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"runtime"
	"strings"
	"sync"
)

// MaxFrames is the number of frames kept per stack.
const MaxFrames = 8

// StackTrace is a captured stack of at most MaxFrames program counters.
type StackTrace struct {
	PC [MaxFrames]uintptr
	N  int
}

// Depot deduplicates stack traces by FNV-1a hash of their program counters.
// It is safe for concurrent use.
type Depot struct {
	stacks sync.Map // uint64 -> *StackTrace
}

// New creates an empty depot.
func New() *Depot {
	return &Depot{}
}

// Capture records the caller's stack and returns its handle. skip counts
// frames above Capture's caller to omit (0 keeps the caller's frame).
// Returns 0 if no frames could be captured.
func (d *Depot) Capture(skip int) uint64 {
	var st StackTrace
	st.N = runtime.Callers(skip+2, st.PC[:])
	if st.N == 0 {
		return 0
	}

	h := hashStack(st.PC[:st.N])
	if _, ok := d.stacks.Load(h); !ok {
		d.stacks.LoadOrStore(h, &st)
	}
	return h
}

// Get resolves a handle, or returns nil for 0 and unknown handles.
func (d *Depot) Get(h uint64) *StackTrace {
	if h == 0 {
		return nil
	}
	v, ok := d.stacks.Load(h)
	if !ok {
		return nil
	}
	return v.(*StackTrace)
}

// Len returns the number of unique stacks stored.
func (d *Depot) Len() int {
	n := 0
	d.stacks.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Reset drops every stored stack.
func (d *Depot) Reset() {
	d.stacks.Clear()
}

func hashStack(pcs []uintptr) uint64 {
	h := fnv.New64a()
	var b [8]byte
	for _, pc := range pcs {
		binary.LittleEndian.PutUint64(b[:], uint64(pc))
		_, _ = h.Write(b[:])
	}
	return h.Sum64()
}

// Format renders the stack one frame per two lines, Go traceback style,
// skipping runtime frames.
func (st *StackTrace) Format() string {
	if st == nil || st.N == 0 {
		return "  <unknown>\n"
	}

	var buf strings.Builder
	frames := runtime.CallersFrames(st.PC[:st.N])
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") && frame.Function != "" {
			fmt.Fprintf(&buf, "  %s()\n", frame.Function)
			fmt.Fprintf(&buf, "      %s:%d\n", frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	if buf.Len() == 0 {
		return "  <runtime internal>\n"
	}
	return buf.String()
}
