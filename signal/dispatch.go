package signal

import (
	"context"

	"github.com/tsignal-go/tsignal/logutil"
	"github.com/tsignal-go/tsignal/loop"
)

// Emit delivers value to every connection live at the moment the snapshot is
// taken (§ snapshot semantics: later connects/disconnects never affect an
// emit already in progress). Direct deliveries run inline on the calling
// goroutine; queued deliveries are posted and Emit does not wait for them.
// Emit never returns a handler's error; failures are logged.
func (s *Signal[T]) Emit(ctx context.Context, value T) {
	s.emitted.Add(1)
	for _, rec := range s.snapshot() {
		s.dispatchOne(ctx, rec, value)
	}
}

func (s *Signal[T]) snapshot() []*record[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*record[T], len(s.conns))
	copy(out, s.conns)
	return out
}

// resolveMode implements §4.3.b: coroutine-producing handlers always queue;
// an explicit mode is honored as-is; ModeAuto resolves to direct delivery
// when the receiver's loop is undefined or is the loop currently running,
// and to queued delivery otherwise.
func resolveMode(ctx context.Context, kind handlerKind, mode Mode, recvCtx *loop.Context) Mode {
	if kind == kindAsync {
		return ModeQueued
	}
	switch mode {
	case ModeDirect, ModeQueued:
		return mode
	default:
		if recvCtx == nil {
			return ModeDirect
		}
		if cur := loop.Current(ctx); cur != nil && cur.Equal(recvCtx) {
			return ModeDirect
		}
		return ModeQueued
	}
}

func (s *Signal[T]) dispatchOne(ctx context.Context, rec *record[T], value T) {
	var recvObj any
	if rec.recv != nil {
		obj, alive := rec.recv.resolve()
		if !alive {
			s.removeByID(rec.id, false)
			s.dropped.Add(1)
			s.logger.Debug("dropped emit: receiver collected", logutil.ID("connection_id", rec.id))
			return
		}
		recvObj = obj
	}

	mode := resolveMode(ctx, rec.kind, rec.mode, rec.recvCtx)

	switch mode {
	case ModeDirect:
		s.invoke(ctx, rec, recvObj, value)
	case ModeQueued:
		if rec.recvCtx == nil {
			s.failed.Add(1)
			s.logger.Error("no loop to queue delivery on", logutil.ID("connection_id", rec.id))
		} else if !rec.recvCtx.Schedule(func(runCtx context.Context) error {
			s.invoke(runCtx, rec, recvObj, value)
			return nil
		}) {
			s.failed.Add(1)
			s.logger.Warn("post failed: loop not accepting work", logutil.ID("connection_id", rec.id))
		}
	}

	if rec.oneShot {
		s.removeByID(rec.id, false)
	}
}

func (s *Signal[T]) invoke(ctx context.Context, rec *record[T], recvObj any, value T) {
	defer func() {
		if r := recover(); r != nil {
			s.failed.Add(1)
			s.logger.Error("handler panicked", logutil.Key("panic", r), logutil.ID("connection_id", rec.id), logutil.Stack())
		}
	}()

	var err error
	switch rec.kind {
	case kindSync:
		if rec.syncFn != nil {
			rec.syncFn(recvObj, value)
		} else if rec.freeSyncFn != nil {
			rec.freeSyncFn(value)
		}
	case kindAsync:
		if rec.asyncFn != nil {
			err = rec.asyncFn(ctx, recvObj, value)
		} else if rec.freeAsyncFn != nil {
			err = rec.freeAsyncFn(ctx, value)
		}
	}

	if err != nil {
		s.failed.Add(1)
		s.logger.Error("handler returned error", logutil.Error(err), logutil.ID("connection_id", rec.id))
		return
	}
	s.delivered.Add(1)
}
