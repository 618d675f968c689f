package signal

import (
	"context"
	"weak"

	"github.com/google/uuid"

	"github.com/tsignal-go/tsignal/loop"
)

// Mode controls how a connection's handler is invoked relative to the
// emitting goroutine.
type Mode int

const (
	// ModeAuto resolves to ModeDirect when the emit happens on the
	// receiver's own loop (or the receiver carries no loop at all), and to
	// ModeQueued otherwise. This is the default.
	ModeAuto Mode = iota
	// ModeDirect always invokes the handler synchronously on the emitting
	// goroutine.
	ModeDirect
	// ModeQueued always posts the handler invocation onto the receiver's
	// loop, regardless of which goroutine emits.
	ModeQueued
)

func (m Mode) String() string {
	switch m {
	case ModeDirect:
		return "direct"
	case ModeQueued:
		return "queued"
	default:
		return "auto"
	}
}

type handlerKind int

const (
	kindSync handlerKind = iota
	kindAsync
)

// Connection is the handle returned by a Connect call. Its only operation is
// Disconnect; everything else about the connection is internal bookkeeping.
type Connection struct {
	ID         uuid.UUID
	Mode       Mode
	OneShot    bool
	disconnect func()
}

// Disconnect removes this connection from its signal. It is safe to call
// more than once and safe to call on a nil *Connection.
func (c *Connection) Disconnect() {
	if c == nil || c.disconnect == nil {
		return
	}
	c.disconnect()
}

// ConnectOption configures a single Connect/ConnectAsync/ConnectFunc call.
type ConnectOption func(*connectOptions)

type connectOptions struct {
	mode    Mode
	oneShot bool
	weak    bool
	ctx     *loop.Context
}

func resolveConnectOptions(opts []ConnectOption) connectOptions {
	o := connectOptions{mode: ModeAuto}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithMode overrides the default ModeAuto resolution for this connection.
func WithMode(m Mode) ConnectOption {
	return func(o *connectOptions) { o.mode = m }
}

// WithOneShot disconnects this connection automatically once it has been
// dispatched to exactly once.
//
// Each Emit works from its own snapshot (see Signal.Emit), so two emits
// racing from different goroutines can both snapshot the record before
// either has removed it: the handler may then run twice before the removal
// lands. WithOneShot guarantees at-most-once delivery per emit, not across
// concurrent emits on the same Signal; serialize emits of a one-shot
// connection's Signal if exactly-once across goroutines is required.
func WithOneShot() ConnectOption {
	return func(o *connectOptions) { o.oneShot = true }
}

// WithWeak holds the receiver by a weak.Pointer instead of keeping it alive.
// The connection is dropped, lazily on the next emit or eagerly via a
// runtime cleanup, once the receiver is collected. WithWeak is inert (and
// logged as such) on connections with no receiver.
func WithWeak() ConnectOption {
	return func(o *connectOptions) { o.weak = true }
}

// WithExecutionContext overrides the loop a connection is affine to, instead
// of deriving it from the receiver's Receiver implementation. Required for
// ConnectFunc/ConnectFuncAsync connections that need ModeAuto or ModeQueued.
func WithExecutionContext(ctx *loop.Context) ConnectOption {
	return func(o *connectOptions) { o.ctx = ctx }
}

// Receiver is implemented by any receiver type that wants its connected
// handlers to run on a specific loop. A receiver that does not implement
// this interface has an undefined execution context, and its synchronous
// connections always resolve to ModeDirect under ModeAuto.
type Receiver interface {
	ExecutionContext() *loop.Context
}

func resolveReceiverContext[R any](receiver *R, override *loop.Context) *loop.Context {
	if override != nil {
		return override
	}
	if r, ok := any(receiver).(Receiver); ok {
		return r.ExecutionContext()
	}
	return nil
}

// receiverHandle resolves a connected receiver to its live object, or
// reports that it is gone.
type receiverHandle interface {
	resolve() (any, bool)
}

type strongHandle struct{ obj any }

func (h strongHandle) resolve() (any, bool) { return h.obj, true }

type weakHandle[R any] struct{ wp weak.Pointer[R] }

func (h weakHandle[R]) resolve() (any, bool) {
	p := h.wp.Value()
	if p == nil {
		return nil, false
	}
	return p, true
}

// record is a Connection Record: the full state the dispatcher needs to
// decide whether, how and where to deliver one emit to one handler.
type record[T any] struct {
	id      uuid.UUID
	kind    handlerKind
	mode    Mode
	oneShot bool

	recv    receiverHandle
	recvCtx *loop.Context

	syncFn  func(any, T)
	asyncFn func(context.Context, any, T) error

	freeSyncFn  func(T)
	freeAsyncFn func(context.Context, T) error
}
