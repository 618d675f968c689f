package worker

import "errors"

var (
	// ErrAlreadyStarted is returned by Start when the worker has already
	// left the Created state.
	ErrAlreadyStarted = errors.New("worker: already started")

	// ErrNotStarted is returned by Stop when the worker was never started.
	ErrNotStarted = errors.New("worker: not started")

	// ErrNotRunning is returned by QueueTask when the worker's loop is not
	// accepting new work.
	ErrNotRunning = errors.New("worker: not running")

	// ErrQueueFull is returned by QueueTask when the loop's task queue has
	// no free capacity.
	ErrQueueFull = errors.New("worker: task queue full")

	// ErrHealthcheckFailed wraps the specific reason a Healthcheck failed.
	ErrHealthcheckFailed = errors.New("worker: healthcheck failed")

	// ErrOverloaded indicates every queue slot is occupied by a pending task
	// at healthcheck time; the task in flight is not counted.
	ErrOverloaded = errors.New("worker: overloaded")
)
