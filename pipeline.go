package voxmotion

import "golang.org/x/sync/errgroup"

// task runs fn over data on at most workersCount goroutines and returns the
// first error.
func task[T any](workersCount int, data []T, fn func(data T) error) error {
	var g errgroup.Group
	g.SetLimit(max(DEFAULT_WORKERS, workersCount))

	for _, d := range data {
		g.Go(func() error {
			return fn(d)
		})
	}
	return g.Wait()
}
