// Package goroutine carries the per-goroutine state rawsync needs:
//
//   - identity: ID() extracts the current goroutine ID, which the one-shot
//     channel records at Split time to bind the receiving end;
//   - blocking: Parker is the park/unpark primitive the one-shot receive
//     blocks on;
//   - logical time: Context holds the TID, vector clock and cached epoch the
//     tracer keeps for every traced goroutine.
//
// Invariant for Context: Epoch always equals epoch.New(TID, C[TID]). It is
// maintained by IncrementClock, the only method that advances C[TID].
package goroutine
