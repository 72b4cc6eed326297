package snapshotservice

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Pool is one of two execution pools: a nil weight means "unbounded"
// (network/file I/O), a positive weight caps in-flight work at that
// size (CPU-bound serialization and ledger application). Modeled
// after the fixed-size worker pool the wider codebase's execution
// helpers already use, expressed here with golang.org/x/sync's
// weighted semaphore instead of a hand-rolled worker-goroutine ring.
type Pool struct {
	sem *semaphore.Weighted
}

// NewBoundedPool returns a pool that runs at most size tasks at once.
func NewBoundedPool(size int) *Pool {
	return &Pool{sem: semaphore.NewWeighted(int64(size))}
}

// NewUnboundedPool returns a pool with no concurrency ceiling.
func NewUnboundedPool() *Pool {
	return &Pool{}
}

// Run executes fn, blocking the caller until it completes; attemptSnapshot
// suspends at every pool hop. Acquiring a slot on a bounded pool
// respects ctx cancellation.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	if p.sem != nil {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		defer p.sem.Release(1)
	}
	return fn()
}

// RunAll fans fns out across the pool concurrently and waits for all
// of them, returning the first error encountered (if any). Used by
// applySnapshot (step 10) to apply each checkpoint block's effects in
// parallel while still respecting the bounded pool's concurrency cap.
func (p *Pool) RunAll(ctx context.Context, fns ...func() error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		fn := fn
		g.Go(func() error {
			return p.Run(gctx, fn)
		})
	}
	return g.Wait()
}
