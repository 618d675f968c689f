// Package loop implements the cooperative, single-threaded run queue that
// underlies thread affinity in this module: a Loop is a FIFO of posted
// closures, and whichever goroutine calls Run becomes the thread that every
// Context bound to that Loop is affine to.
//
// A Context pairs an identity with the Loop it belongs to, standing in for
// the (thread_id, loop_handle) pair. Code that wants to know "am I running
// on my own loop right now" compares its Context against loop.Current(ctx),
// which is threaded through a context.Context value for the duration of
// Run - the Go-native substitute for a thread-local current-loop lookup.
package loop
