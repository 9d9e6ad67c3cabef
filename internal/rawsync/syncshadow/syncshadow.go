package syncshadow

import "sync"

// Shadow maps a synchronization point's tracer key to its SyncVar.
//
// SyncVars are created lazily on first use and live until Forget or Reset.
// All methods except Reset are safe for concurrent use.
type Shadow struct {
	vars sync.Map // uint64 key -> *SyncVar
}

// New creates an empty Shadow.
func New() *Shadow {
	return &Shadow{}
}

// GetOrCreate returns the SyncVar for key, creating it if needed. Racing
// creators agree on a single SyncVar through LoadOrStore.
func (s *Shadow) GetOrCreate(key uint64) *SyncVar {
	if v, ok := s.vars.Load(key); ok {
		return v.(*SyncVar)
	}
	v, _ := s.vars.LoadOrStore(key, &SyncVar{})
	return v.(*SyncVar)
}

// Reset forgets every SyncVar. The caller must ensure nothing else uses the
// shadow concurrently.
func (s *Shadow) Reset() {
	s.vars.Clear()
}

// Forget drops the SyncVar of key, if any.
func (s *Shadow) Forget(key uint64) {
	s.vars.Delete(key)
}
