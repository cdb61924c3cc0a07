package parallel

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolRunsAllSubmittedTasks(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Shutdown()

	ctx := context.Background()
	var completed int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		if err := pool.Submit(ctx, func() {
			defer wg.Done()
			atomic.AddInt64(&completed, 1)
		}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	wg.Wait()

	if got := atomic.LoadInt64(&completed); got != 50 {
		t.Fatalf("completed = %d, want 50", got)
	}
}

func TestWorkerPoolDefaultsWorkerCountWhenNonPositive(t *testing.T) {
	pool := NewWorkerPool(0)
	defer pool.Shutdown()

	ctx := context.Background()
	done := make(chan struct{})
	if err := pool.Submit(ctx, func() { close(done) }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("task never ran")
	}
}

func TestWorkerPoolSubmitRespectsContextCancellation(t *testing.T) {
	// A single-worker pool with a small queue: fill the one worker with
	// a blocking task, then fill the queue, then expect the next Submit
	// to respect an already-cancelled context rather than block forever.
	pool := NewWorkerPool(1)
	defer pool.Shutdown()

	block := make(chan struct{})
	defer close(block)

	ctx := context.Background()
	if err := pool.Submit(ctx, func() { <-block }); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Drain the queue's buffer so the next Submit would otherwise block.
	for i := 0; i < 2; i++ {
		_ = pool.Submit(ctx, func() { <-block })
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pool.Submit(cancelled, func() {}); err == nil {
		t.Fatalf("expected Submit to report the cancelled context")
	}
}

func TestWorkerPoolSubmitAfterShutdownFails(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Shutdown()

	if err := pool.Submit(context.Background(), func() {}); err != ErrPoolShutdown {
		t.Fatalf("Submit after Shutdown = %v, want ErrPoolShutdown", err)
	}
}

func TestWorkerPoolShutdownIsIdempotent(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Shutdown()
	pool.Shutdown() // must not panic or deadlock
}

func TestWorkerPoolRecoversFromPanickingTask(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Shutdown()

	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Add(1)
	if err := pool.Submit(ctx, func() {
		defer wg.Done()
		panic("branch exploded")
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	wg.Wait()

	// The pool should still be usable after a task panics.
	done := make(chan struct{})
	if err := pool.Submit(ctx, func() { close(done) }); err != nil {
		t.Fatalf("Submit after panic: %v", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("pool stopped processing tasks after a panic")
	}
}

func BenchmarkWorkerPool(b *testing.B) {
	pool := NewWorkerPool(4)
	defer pool.Shutdown()

	ctx := context.Background()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			var wg sync.WaitGroup
			wg.Add(1)
			pool.Submit(ctx, func() {
				defer wg.Done()
				time.Sleep(time.Millisecond)
			})
			wg.Wait()
		}
	})
}
