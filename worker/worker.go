package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/tsignal-go/tsignal/logutil"
	"github.com/tsignal-go/tsignal/loop"
)

// State is a Worker's position in its Created -> Starting -> Running ->
// Stopping -> Stopped lifecycle.
type State int32

const (
	StateCreated State = iota
	StateStarting
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "created"
	}
}

// Stats reports a Worker's task accounting for observability and
// healthchecks.
type Stats struct {
	TasksProcessed int64
	TasksFailed    int64
	ActiveTasks    int32
	QueueDepth     int
	State          State
}

// RunFunc is the contract for the function Start invokes on its calling
// goroutine while the worker's loop runs on its own: it must periodically
// check done and return promptly once it is closed.
type RunFunc func(ctx context.Context, done <-chan struct{}) error

// Worker hosts a cooperative event loop on a dedicated goroutine with an
// explicit lifecycle and a FIFO task queue.
type Worker struct {
	id uuid.UUID
	lp *loop.Loop

	queueCapacity   int
	shutdownTimeout time.Duration
	logger          *slog.Logger

	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc

	state atomic.Int32

	tasksProcessed atomic.Int64
	tasksFailed    atomic.Int64
	activeTasks    atomic.Int32
}

// New creates a Worker in the Created state.
func New(opts ...Option) *Worker {
	o := &workerOptions{
		queueCapacity:   64,
		shutdownTimeout: 30 * time.Second,
		logger:          logutil.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return &Worker{
		id:              uuid.New(),
		lp:              loop.New(o.queueCapacity),
		queueCapacity:   o.queueCapacity,
		shutdownTimeout: o.shutdownTimeout,
		logger:          o.logger,
	}
}

// ID returns this worker's stable identity.
func (w *Worker) ID() uuid.UUID { return w.id }

// ExecutionContext returns the loop Context this worker's connections
// should be bound to, satisfying signal.Receiver.
func (w *Worker) ExecutionContext() *loop.Context { return w.lp.Context() }

// QueueTask posts fn onto the worker's loop. It returns ErrNotRunning unless
// the worker is Starting or Running, and ErrQueueFull if the loop's queue
// has no free capacity.
func (w *Worker) QueueTask(fn func(context.Context) error) error {
	switch State(w.state.Load()) {
	case StateRunning, StateStarting:
	default:
		return ErrNotRunning
	}

	wrapped := func(ctx context.Context) (err error) {
		w.activeTasks.Add(1)
		start := time.Now()
		defer func() {
			w.activeTasks.Add(-1)
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in task: %v", r)
			}
			if err != nil {
				w.tasksFailed.Add(1)
				w.logger.ErrorContext(ctx, "task failed", logutil.Error(err), logutil.Duration(time.Since(start)))
				return
			}
			w.tasksProcessed.Add(1)
			w.logger.DebugContext(ctx, "task completed", logutil.Duration(time.Since(start)))
		}()
		return fn(ctx)
	}

	if !w.lp.Context().Schedule(wrapped) {
		return ErrQueueFull
	}
	return nil
}

// Start transitions the worker from Created to Running and runs the loop on
// a goroutine of its own. If run is non-nil it is invoked on the calling
// goroutine with a stop handle; Start blocks until run returns (or, if run
// is nil, until ctx is cancelled or Stop is called), then closes the loop -
// which drains every task still buffered in the queue before the loop
// goroutine exits - and transitions through Stopping to Stopped before
// returning. Start waits at most the shutdown timeout for that drain.
func (w *Worker) Start(ctx context.Context, run RunFunc) error {
	if !w.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return ErrAlreadyStarted
	}

	w.mu.Lock()
	w.ctx, w.cancel = context.WithCancel(ctx)
	runCtx := w.ctx
	w.mu.Unlock()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = w.lp.Run(runCtx)
	}()

	w.state.Store(int32(StateRunning))
	w.logger.InfoContext(runCtx, "worker started", logutil.ID("worker_id", w.id))

	var runErr error
	if run != nil {
		runErr = run(runCtx, runCtx.Done())
	} else {
		<-runCtx.Done()
	}

	w.state.Store(int32(StateStopping))
	w.lp.Close()

	select {
	case <-loopDone:
	case <-time.After(w.shutdownTimeout):
		w.logger.WarnContext(context.Background(), "shutdown timeout exceeded", logutil.ID("worker_id", w.id))
	}

	w.state.Store(int32(StateStopped))
	w.logger.InfoContext(context.Background(), "worker stopped", logutil.ID("worker_id", w.id))
	return runErr
}

// Stop requests a graceful shutdown by cancelling the context Start derived
// from the one it was given. It does not block until the worker has fully stopped; wait on
// Start's return (or Run's) for that.
func (w *Worker) Stop() error {
	w.mu.RLock()
	cancel := w.cancel
	w.mu.RUnlock()

	if cancel == nil {
		return ErrNotStarted
	}
	cancel()
	return nil
}

// Run adapts Start/Stop to the errgroup convention: the returned function
// starts the worker, waits for either ctx cancellation or Start's return,
// and performs a graceful Stop in the former case.
func (w *Worker) Run(ctx context.Context, run RunFunc) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() { errCh <- w.Start(ctx, run) }()

		select {
		case <-ctx.Done():
			_ = w.Stop()
			<-errCh
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// Stats returns a snapshot of this worker's task accounting and state.
func (w *Worker) Stats() Stats {
	return Stats{
		TasksProcessed: w.tasksProcessed.Load(),
		TasksFailed:    w.tasksFailed.Load(),
		ActiveTasks:    w.activeTasks.Load(),
		QueueDepth:     w.lp.Context().Backlog(),
		State:          State(w.state.Load()),
	}
}

// Healthcheck reports whether the worker is running and not backed up. The
// loop processes tasks strictly serially, so ActiveTasks is never more than
// 1; the meaningful overload signal is the number of tasks still buffered in
// the queue, not the one that happens to be in flight.
func (w *Worker) Healthcheck(ctx context.Context) error {
	stats := w.Stats()
	if stats.State != StateRunning {
		return errors.Join(ErrHealthcheckFailed, ErrNotRunning)
	}
	if w.queueCapacity > 0 && stats.QueueDepth >= w.queueCapacity {
		return errors.Join(ErrHealthcheckFailed, ErrOverloaded)
	}
	return nil
}
