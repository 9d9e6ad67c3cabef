package goroutine

// Parker blocks one goroutine until another goroutine grants it a wake-up
// token.
//
// It has the semantics of a thread park token: Unpark makes a token
// available (at most one is ever stored), Park consumes the token,
// blocking until one exists. A token granted before Park is not lost, and
// Park may return even though the condition its caller waits for is not
// yet true (a stale token from an earlier Unpark). Callers must re-check
// their condition in a loop.
//
// The zero value is not usable; create parkers with NewParker.
type Parker struct {
	token chan struct{}
}

// NewParker creates a parker with no token available.
func NewParker() *Parker {
	return &Parker{token: make(chan struct{}, 1)}
}

// Park blocks the calling goroutine until a token is available, then
// consumes it. The goroutine is descheduled while it waits.
func (p *Parker) Park() {
	<-p.token
}

// Unpark makes a token available, waking a goroutine blocked in Park. It
// never blocks; unparking twice before a Park leaves a single token.
func (p *Parker) Unpark() {
	select {
	case p.token <- struct{}{}:
	default:
	}
}
