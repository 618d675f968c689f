package config

import "time"

// Debug controls the package-wide verbosity toggle: setting TSIGNAL_DEBUG=true
// raises the level of every signal/worker logger created without an explicit
// WithLogger override to slog.LevelDebug.
type Debug struct {
	Enabled bool `env:"TSIGNAL_DEBUG" envDefault:"false"`
}

// WorkerDefaults carries tuning knobs loaded from the environment, which
// worker.FromDefaults applies as options. worker.New does not load it by
// itself: without FromDefaults it uses its own built-in defaults.
type WorkerDefaults struct {
	QueueCapacity   int           `env:"TSIGNAL_WORKER_QUEUE_CAPACITY" envDefault:"64"`
	ShutdownTimeout time.Duration `env:"TSIGNAL_WORKER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}
