package loop

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

type ctxKey struct{}

// Context identifies an Execution Context: a thread of control paired with
// the cooperative Loop bound to it.
type Context struct {
	id   uuid.UUID
	loop *Loop
}

// ID returns the identity of this Execution Context, stable for its lifetime.
func (c *Context) ID() uuid.UUID { return c.id }

// Equal reports whether two contexts name the same loop.
func (c *Context) Equal(other *Context) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.loop == other.loop
}

// Post enqueues fn to run on this context's loop and returns immediately.
// It reports false if the loop has been closed or its queue is full.
func (c *Context) Post(fn func(context.Context)) bool {
	return c.loop.enqueue(func(ctx context.Context) error {
		fn(ctx)
		return nil
	})
}

// Schedule enqueues a coroutine-producing task: fn runs to completion on
// this context's loop exactly like Post. The loop discards the error fn
// returns, so fn must log or record it itself. It reports false under the
// same conditions as Post.
func (c *Context) Schedule(fn func(context.Context) error) bool {
	return c.loop.enqueue(fn)
}

// Backlog returns the number of jobs currently buffered on this context's
// loop and not yet started.
func (c *Context) Backlog() int {
	return c.loop.Pending()
}

type job func(context.Context) error

// Loop is a cooperative, single-threaded run queue.
type Loop struct {
	jobs   chan job
	ctx    *Context
	closed atomic.Bool
}

// New creates a Loop whose job queue holds up to capacity pending entries.
func New(capacity int) *Loop {
	if capacity < 1 {
		capacity = 1
	}
	l := &Loop{jobs: make(chan job, capacity)}
	l.ctx = &Context{id: uuid.New(), loop: l}
	return l
}

// Context returns the Execution Context bound to this loop.
func (l *Loop) Context() *Context { return l.ctx }

// Pending returns the number of jobs currently buffered and not yet started.
func (l *Loop) Pending() int { return len(l.jobs) }

func (l *Loop) enqueue(j job) bool {
	if l.closed.Load() {
		return false
	}
	select {
	case l.jobs <- j:
		return true
	default:
		return false
	}
}

// Run drains the job queue on the calling goroutine until Close stops it and
// every already-buffered job has run. This goroutine is, for the duration of
// the call, the thread every Context bound to this loop is affine to.
//
// Run deliberately does not stop on ctx cancellation: Close, not context
// cancellation, is the drain trigger, so that a cancelled ctx can never race
// with buffered-but-not-yet-run jobs and cause them to be abandoned. ctx is
// still threaded through to every job (via WithContext/Current) so jobs can
// observe and honor cancellation themselves.
func (l *Loop) Run(ctx context.Context) error {
	runCtx := WithContext(ctx, l.ctx)
	for j := range l.jobs {
		_ = j(runCtx)
	}
	return nil
}

// Close stops the loop from accepting new jobs and is the signal Run uses to
// know it has seen the last job: once closed, Run drains whatever is still
// buffered and then returns. It is idempotent.
func (l *Loop) Close() {
	if l.closed.CompareAndSwap(false, true) {
		close(l.jobs)
	}
}

// WithContext attaches c as the current Execution Context of ctx.
func WithContext(ctx context.Context, c *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// Current returns the Execution Context bound to ctx by a Loop's Run, or nil
// if ctx carries none.
func Current(ctx context.Context) *Context {
	c, _ := ctx.Value(ctxKey{}).(*Context)
	return c
}
