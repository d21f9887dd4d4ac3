package card

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolBoundsConcurrency(t *testing.T) {
	p := NewPool(2)

	var running, peak int64
	for i := 0; i < 10; i++ {
		p.Submit("task", func(_ context.Context) {
			n := atomic.AddInt64(&running, 1)
			for {
				old := atomic.LoadInt64(&peak)
				if n <= old || atomic.CompareAndSwapInt64(&peak, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&running, -1)
		})
	}
	p.Wait()

	if got := atomic.LoadInt64(&peak); got > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", got)
	}
}

func TestPoolRecoversPanics(t *testing.T) {
	p := NewPool(1)

	done := false
	p.Submit("boom", func(_ context.Context) { panic("boom") })
	p.Submit("after", func(_ context.Context) { done = true })
	p.Wait()

	if !done {
		t.Error("task after a panicking task never ran")
	}
}

func TestPoolWaitReturnsWhenIdle(t *testing.T) {
	p := NewPool(3)
	p.Wait() // no tasks submitted; must not block
}
