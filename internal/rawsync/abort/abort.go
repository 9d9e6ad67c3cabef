// Package abort terminates the process when a primitive detects a state its
// invariants declare impossible (reference-count overflow, double release).
//
// Abort is not a panic and cannot be recovered. The reason and the calling
// goroutine's stack are logged, then the process exits with status 134
// (the conventional SIGABRT status).
package abort

import (
	"os"
	"runtime"
	"sync"

	"github.com/kolkov/rawsync/internal/logging"
)

// ExitCode is the status the process exits with on abort.
const ExitCode = 134

var (
	mu      sync.RWMutex
	handler = terminate
)

// Abort logs reason and terminates the process. It does not return unless a
// test has replaced the handler with Swap.
func Abort(reason string) {
	mu.RLock()
	h := handler
	mu.RUnlock()
	h(reason)
}

// Swap replaces the abort handler and returns a function restoring the
// previous one. Only tests should call it; a replacement that returns lets
// the caller continue past an aborted invariant.
func Swap(h func(reason string)) (restore func()) {
	mu.Lock()
	prev := handler
	handler = h
	mu.Unlock()
	return func() {
		mu.Lock()
		handler = prev
		mu.Unlock()
	}
}

func terminate(reason string) {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	logging.Logger().Error("rawsync: fatal invariant violation",
		"reason", reason,
		"stack", string(buf[:n]))
	os.Exit(ExitCode)
}
