// Package logutil provides slog.Attr helpers used by the signal and worker
// packages. The helpers that take an error or an arbitrary value (Error, ID,
// Key) follow the empty-Attr pattern for nil safety: called with nil they
// return an empty Attr rather than requiring the caller to guard it.
package logutil

import (
	"log/slog"
	"runtime"
	"time"
)

// Error creates an attribute for a single error under the key "error".
// Returns an empty Attr for a nil error, enabling safe unconditional use.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Duration creates an attribute for a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Elapsed creates an attribute for the duration since start under "duration".
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("duration", time.Since(start))
}

// ID creates a generic identifier attribute with a custom key. Returns an
// empty Attr for a nil value.
func ID(key string, value any) slog.Attr {
	if value == nil {
		return slog.Attr{}
	}
	return slog.Any(key, value)
}

// Component creates an attribute naming the emitting component.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Key creates a generic key-value attribute. Returns an empty Attr for a
// nil value.
func Key(key string, value any) slog.Attr {
	if value == nil {
		return slog.Attr{}
	}
	return slog.Any(key, value)
}

// Count creates a generic counter attribute.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Stack captures and returns the current goroutine's stack trace, for use
// when logging a recovered panic.
func Stack() slog.Attr {
	const size = 32 << 10
	buf := make([]byte, size)
	buf = buf[:runtime.Stack(buf, false)]
	return slog.String("stack", string(buf))
}
