package signal

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/google/uuid"

	"github.com/tsignal-go/tsignal/logutil"
)

// Option configures a Signal at construction time.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the structured logger a Signal uses for dispatch
// diagnostics. The default, logutil.Default, discards output unless
// TSIGNAL_DEBUG is set.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Stats is a snapshot of a Signal's emit/delivery counters, intended for
// health checks and debugging, never for correctness decisions.
type Stats struct {
	Emitted     int64
	Delivered   int64
	Dropped     int64
	Failed      int64
	Connections int
}

// Signal is a typed publish/subscribe point: receivers connect handlers to
// it, and Emit delivers a value to every connection live at the moment the
// emit snapshot is taken.
type Signal[T any] struct {
	mu     sync.Mutex
	conns  []*record[T]
	logger *slog.Logger

	emitted   atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

// New creates an empty Signal.
func New[T any](opts ...Option) *Signal[T] {
	o := &options{logger: logutil.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return &Signal[T]{logger: o.logger}
}

func (s *Signal[T]) addConn(rec *record[T]) *Connection {
	s.mu.Lock()
	s.conns = append(s.conns, rec)
	s.mu.Unlock()

	s.logger.Info("connected", logutil.ID("connection_id", rec.id), logutil.Key("mode", rec.mode.String()))

	return &Connection{
		ID:         rec.id,
		Mode:       rec.mode,
		OneShot:    rec.oneShot,
		disconnect: func() { s.removeByID(rec.id, false) },
	}
}

func (s *Signal[T]) removeByID(id uuid.UUID, viaCleanup bool) {
	s.mu.Lock()
	idx := -1
	for i, r := range s.conns {
		if r.id == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return
	}
	s.conns = append(s.conns[:idx], s.conns[idx+1:]...)
	s.mu.Unlock()

	if viaCleanup {
		s.logger.Debug("connection removed: receiver finalized", logutil.ID("connection_id", id))
	} else {
		s.logger.Info("disconnected", logutil.ID("connection_id", id))
	}
}

// ConnectFunc connects a synchronous free callable: a handler with no
// receiver, and therefore no identity for disconnect-by-receiver purposes.
func (s *Signal[T]) ConnectFunc(handler func(T), opts ...ConnectOption) (*Connection, error) {
	if handler == nil {
		return nil, ErrNotCallable
	}
	o := resolveConnectOptions(opts)
	if o.weak {
		s.logger.Warn("weak is inert on a free-callable connection", logutil.Component("signal"))
	}
	rec := &record[T]{
		id:         uuid.New(),
		kind:       kindSync,
		mode:       o.mode,
		oneShot:    o.oneShot,
		recvCtx:    o.ctx,
		freeSyncFn: handler,
	}
	return s.addConn(rec), nil
}

// ConnectFuncAsync connects a coroutine-producing free callable. Its mode
// always resolves to ModeQueued, so WithExecutionContext is required:
// without it the connection has no loop to queue onto, and every delivery
// is dropped and logged as NoLoop.
func (s *Signal[T]) ConnectFuncAsync(handler func(context.Context, T) error, opts ...ConnectOption) (*Connection, error) {
	if handler == nil {
		return nil, ErrNotCallable
	}
	o := resolveConnectOptions(opts)
	if o.weak {
		s.logger.Warn("weak is inert on a free-callable connection", logutil.Component("signal"))
	}
	rec := &record[T]{
		id:          uuid.New(),
		kind:        kindAsync,
		mode:        o.mode,
		oneShot:     o.oneShot,
		recvCtx:     o.ctx,
		freeAsyncFn: handler,
	}
	return s.addConn(rec), nil
}

// Connect connects a synchronous handler bound to receiver. If receiver
// implements Receiver, its ExecutionContext is used to resolve ModeAuto and
// ModeQueued delivery, unless overridden by WithExecutionContext.
//
// Connect is a free function, not a method, because it needs a second type
// parameter (R, the receiver type) that Go methods cannot introduce.
func Connect[T, R any](s *Signal[T], receiver *R, handler func(*R, T), opts ...ConnectOption) (*Connection, error) {
	if receiver == nil {
		return nil, ErrInvalidReceiver
	}
	if handler == nil {
		return nil, ErrNotCallable
	}
	o := resolveConnectOptions(opts)

	rec := &record[T]{
		id:      uuid.New(),
		kind:    kindSync,
		mode:    o.mode,
		oneShot: o.oneShot,
		recvCtx: resolveReceiverContext(receiver, o.ctx),
		syncFn:  func(recv any, v T) { handler(recv.(*R), v) },
	}
	if o.weak {
		rec.recv = weakHandle[R]{wp: weak.Make(receiver)}
	} else {
		rec.recv = strongHandle{obj: receiver}
	}

	conn := s.addConn(rec)
	if o.weak {
		registerCleanup(s, receiver, rec.id)
	}
	return conn, nil
}

// ConnectAsync connects a coroutine-producing handler bound to receiver.
// Its mode always resolves to ModeQueued.
func ConnectAsync[T, R any](s *Signal[T], receiver *R, handler func(context.Context, *R, T) error, opts ...ConnectOption) (*Connection, error) {
	if receiver == nil {
		return nil, ErrInvalidReceiver
	}
	if handler == nil {
		return nil, ErrNotCallable
	}
	o := resolveConnectOptions(opts)

	rec := &record[T]{
		id:      uuid.New(),
		kind:    kindAsync,
		mode:    o.mode,
		oneShot: o.oneShot,
		recvCtx: resolveReceiverContext(receiver, o.ctx),
		asyncFn: func(ctx context.Context, recv any, v T) error { return handler(ctx, recv.(*R), v) },
	}
	if o.weak {
		rec.recv = weakHandle[R]{wp: weak.Make(receiver)}
	} else {
		rec.recv = strongHandle{obj: receiver}
	}

	conn := s.addConn(rec)
	if o.weak {
		registerCleanup(s, receiver, rec.id)
	}
	return conn, nil
}

type cleanupArgs[T any] struct {
	sig *Signal[T]
	id  uuid.UUID
}

func registerCleanup[T, R any](s *Signal[T], receiver *R, id uuid.UUID) {
	runtime.AddCleanup(receiver, func(a cleanupArgs[T]) {
		a.sig.removeByID(a.id, true)
	}, cleanupArgs[T]{sig: s, id: id})
}

// DisconnectReceiver removes every live connection whose receiver is
// identical (by pointer) to receiver, and reports how many were removed.
func (s *Signal[T]) DisconnectReceiver(receiver any) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	kept := s.conns[:0]
	for _, r := range s.conns {
		if r.recv != nil {
			if obj, alive := r.recv.resolve(); alive && obj == receiver {
				n++
				continue
			}
		}
		kept = append(kept, r)
	}
	s.conns = kept
	return n
}

// DisconnectAll removes every connection and reports how many were removed.
func (s *Signal[T]) DisconnectAll() int {
	s.mu.Lock()
	n := len(s.conns)
	s.conns = nil
	s.mu.Unlock()
	return n
}

// Stats returns a snapshot of this Signal's emit/delivery counters.
func (s *Signal[T]) Stats() Stats {
	s.mu.Lock()
	n := len(s.conns)
	s.mu.Unlock()

	return Stats{
		Emitted:     s.emitted.Load(),
		Delivered:   s.delivered.Load(),
		Dropped:     s.dropped.Load(),
		Failed:      s.failed.Load(),
		Connections: n,
	}
}
