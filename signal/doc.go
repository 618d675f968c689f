// Package signal implements a typed publish/subscribe primitive with thread
// affinity: a Signal[T] holds an ordered list of connections and, on Emit,
// dispatches a snapshot of that list to each connected handler, either
// directly on the calling goroutine or queued onto the receiver's loop
// (see package loop), depending on the connection's mode and the handler's
// relationship to the emitting thread.
//
// Connections are made with Connect/ConnectAsync (receiver-bound) or
// ConnectFunc/ConnectFuncAsync (free callables, no receiver). A bound
// connection may be weak: the Signal then holds only a weak.Pointer to the
// receiver and drops the connection once the receiver is collected, rather
// than keeping it alive.
//
// Emit never blocks on a misbehaving handler: panics are recovered, handler
// errors are logged rather than propagated, and a handler with nowhere to
// run (no loop, weak receiver already collected) is dropped with a log line
// instead of failing the emitting call.
package signal
