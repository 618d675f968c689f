package worker

import (
	"log/slog"
	"time"

	"github.com/tsignal-go/tsignal/config"
)

// Option configures a Worker at construction time.
type Option func(*workerOptions)

type workerOptions struct {
	queueCapacity   int
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// WithQueueCapacity sets the capacity of the worker's task queue.
func WithQueueCapacity(n int) Option {
	return func(o *workerOptions) {
		if n > 0 {
			o.queueCapacity = n
		}
	}
}

// WithShutdownTimeout bounds how long Start waits for the loop to drain
// once a stop has been requested.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *workerOptions) { o.shutdownTimeout = d }
}

// WithLogger sets the structured logger the worker uses for lifecycle and
// task diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *workerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// FromDefaults applies config.WorkerDefaults as options, so callers can
// load tuning knobs from the environment and still override individual
// ones with explicit options passed after it.
func FromDefaults(d config.WorkerDefaults) Option {
	return func(o *workerOptions) {
		if d.QueueCapacity > 0 {
			o.queueCapacity = d.QueueCapacity
		}
		if d.ShutdownTimeout > 0 {
			o.shutdownTimeout = d.ShutdownTimeout
		}
	}
}
