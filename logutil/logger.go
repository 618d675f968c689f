package logutil

import (
	"io"
	"log/slog"
	"os"

	"github.com/tsignal-go/tsignal/config"
)

// Default returns the package-wide default logger every signal.Signal and
// worker.Worker falls back to when constructed without an explicit
// WithLogger option. It discards output unless config.Debug (TSIGNAL_DEBUG)
// is set, matching the teacher's convention of a quiet-by-default logger
// that an environment toggle turns on.
func Default() *slog.Logger {
	var dbg config.Debug
	_ = config.Load(&dbg)

	if !dbg.Enabled {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
