// Package spin provides the busy-wait hint shared by the spin lock and the
// Arc downgrade loop.
package spin

import "runtime"

// activeSpins is how many iterations Wait burns on the CPU before it starts
// yielding the processor to other goroutines.
const activeSpins = 16

// Wait is called once per failed attempt of a retry loop. spins counts the
// attempts so far and is advanced by Wait.
//
// The first activeSpins calls stay on the CPU (a short dependent loop, the
// closest Go has to a pause instruction). Later calls yield with
// runtime.Gosched so that a spinner cannot starve the holder when
// GOMAXPROCS is small. Neither branch parks the goroutine.
func Wait(spins *int) {
	if *spins < activeSpins {
		*spins++
		procYield(*spins)
		return
	}
	runtime.Gosched()
}

//go:noinline
func procYield(n int) int {
	x := 0
	for i := 0; i < n; i++ {
		x += i
	}
	return x
}
