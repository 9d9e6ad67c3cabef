// Package oneshot implements a single-message, single-use handoff between
// one sending and one receiving goroutine.
//
// A Channel is split into a Sender and a Receiver on the goroutine that
// will receive. The sender writes the message into the channel's slot,
// publishes it through the ready flag and wakes the receiver; the receiver
// blocks (it is descheduled, not spinning) until the flag is set, then
// takes the message out of the slot.
//
//	var ch oneshot.Channel[string]
//	tx, rx := ch.Split()
//	go tx.Send("hello")
//	msg := rx.Receive()
//
// Each endpoint is usable once: Send and Receive consume their endpoint and
// any further use panics. A channel may be split again after both endpoints
// of the previous pair are consumed.
//
// States:
//
//	Empty --Send--> Ready --Receive--> consumed
//
// Split resets the channel to Empty. If a message was sent but never
// received, Split and Drop destroy it (calling its Drop method when it
// implements Dropper).
package oneshot
