package app

import (
	"context"
	"sync"
)

// PartialResult holds a result or an error for partial success patterns.
type PartialResult[T any] struct {
	Value T
	Err   error
}

// ParallelPartial2 runs two functions concurrently and returns both
// outcomes. Unlike an errgroup, one failure neither cancels the other nor
// hides its result.
//
// Example:
//
//	favs, quote := ParallelPartial2(ctx, repo.Load, client.FetchQuote)
//	if favs.Err != nil { ... }
func ParallelPartial2[T1, T2 any](
	ctx context.Context,
	fn1 func(context.Context) (T1, error),
	fn2 func(context.Context) (T2, error),
) (r1 PartialResult[T1], r2 PartialResult[T2]) {
	var wg sync.WaitGroup

	wg.Go(func() {
		r1.Value, r1.Err = fn1(ctx)
	})

	wg.Go(func() {
		r2.Value, r2.Err = fn2(ctx)
	})

	wg.Wait()

	return r1, r2
}
