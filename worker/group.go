package worker

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunAll runs several Run-style functions concurrently via errgroup and
// returns the first non-nil error once every fn has returned. The fns take
// no context, so an error from one does not stop the others; each stops on
// whatever context it was built with. Intended for coordinating
// multiple Worker.Run calls (or a Worker.Run alongside other errgroup-style
// services) under a single shutdown signal.
func RunAll(ctx context.Context, fns ...func() error) error {
	g, _ := errgroup.WithContext(ctx)
	for _, fn := range fns {
		g.Go(fn)
	}
	return g.Wait()
}
