// Package syncshadow keeps shadow state for every synchronization point the
// tracer has seen: spin locks, one-shot channels and Arc allocations.
//
// Each point has a SyncVar holding its release clock, the vector clock of
// the last goroutine(s) that released it:
//
//	Acquire(m):       Ct := Ct ⊔ Lm
//	                  Ct[t]++
//
//	Release(m):       Lm := Ct
//	                  Ct[t]++
//
//	ReleaseMerge(m):  Lm := Lm ⊔ Ct
//	                  Ct[t]++
//
// Release fits points with a single releaser at a time (spin lock unlock,
// one-shot send). ReleaseMerge fits points several goroutines release
// concurrently without excluding each other (Arc.Drop): the last dropper
// must happen after every earlier dropper, not just the latest one.
package syncshadow
