// Package parallel runs closures with a bounded number in flight.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// Semaphore is a counting semaphore.
type Semaphore struct {
	slots chan struct{}
}

// NewSemaphore returns a semaphore with n slots. n below 1 is raised to 1.
func NewSemaphore(n int) *Semaphore {
	return &Semaphore{slots: make(chan struct{}, max(n, 1))}
}

// Acquire blocks until a slot is free or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context) error {
	select {
	case s.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (s *Semaphore) Release() {
	<-s.slots
}

// Cap returns the number of slots.
func (s *Semaphore) Cap() int {
	return cap(s.slots)
}

// Pool starts one goroutine per submitted closure but lets at most Size of
// them run at a time.
type Pool struct {
	wg  sync.WaitGroup
	sem *Semaphore
}

// Start returns a pool for numWorkers concurrent closures. numWorkers below
// 1 selects GOMAXPROCS.
func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	return &Pool{sem: NewSemaphore(numWorkers)}
}

// Size returns the concurrency limit.
func (p *Pool) Size() int {
	return p.sem.Cap()
}

// Do waits for a free slot, then runs f on its own goroutine. The slot is
// released when f returns or panics. If ctx ends first f is not run and the
// context error is returned.
func (p *Pool) Do(ctx context.Context, f func()) error {
	if err := p.sem.Acquire(ctx); err != nil {
		return err
	}

	p.wg.Go(func() {
		defer p.sem.Release()
		f()
	})
	return nil
}

// Wait blocks until every closure started by Do has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}
