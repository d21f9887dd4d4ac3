package card

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool runs fire-and-forget background tasks with a bounded number of
// concurrent workers. Submission never blocks the caller; tasks queue on
// the semaphore inside their own goroutine.
type Pool struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

// NewPool creates a pool allowing at most size concurrent tasks.
func NewPool(size int64) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(size)}
}

// Submit schedules a task. Panics are recovered and logged so one bad task
// cannot take the process down; tasks that need failure state persisted
// must record it themselves.
func (p *Pool) Submit(name string, task func(ctx context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("background task panicked", "task", name, "panic", r)
			}
		}()

		// Dispatched work is never cancelled from outside; each network
		// call inside the task carries its own timeout.
		ctx := context.Background()
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return
		}
		defer p.sem.Release(1)

		task(ctx)
	}()
}

// Wait blocks until every submitted task has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}
