package syncshadow

import "github.com/kolkov/rawsync/internal/rawsync/vectorclock"

// size returns the number of tracked synchronization points.
func (s *Shadow) size() int {
	n := 0
	s.vars.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// releaseClockCopy returns a copy of the release clock, or nil if the point
// was never released.
func (sv *SyncVar) releaseClockCopy() *vectorclock.VectorClock {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	if sv.releaseClock == nil {
		return nil
	}
	return sv.releaseClock.Clone()
}
