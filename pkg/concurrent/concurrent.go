package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ParallelMap applies mapFn to each item with at most workers goroutines, preserving order.
// Failures are reported per position and never stop the other items.
// Items not yet started when ctx is done fail with ctx.Err().
func ParallelMap[T any, R any](ctx context.Context, items []T, workers int, mapFn func(context.Context, T) (R, error)) ([]R, []error) {
	out := make([]R, len(items))
	errs := make([]error, len(items))

	errGroup := errgroup.Group{}
	if workers > 0 {
		errGroup.SetLimit(workers)
	}
	for idx, item := range items {
		errGroup.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[idx] = err
				return nil
			}
			out[idx], errs[idx] = mapFn(ctx, item)
			return nil
		})
	}
	_ = errGroup.Wait()

	return out, errs
}
