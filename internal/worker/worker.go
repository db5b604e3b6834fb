package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var ErrStopped = errors.New("worker pool stopped")

type ProcessFunc[T any] func(ctx context.Context, job T) error

// WorkerPool runs a fixed number of goroutines draining a buffered job
// queue. Stop processes whatever is still queued unless the context passed
// to Start has been cancelled.
type WorkerPool[T any] struct {
	name       string
	numWorkers int
	jobs       chan T
	processor  ProcessFunc[T]
	wg         sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

func NewWorkerPool[T any](name string, numWorkers int, bufferSize int, processor ProcessFunc[T]) *WorkerPool[T] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &WorkerPool[T]{
		name:       name,
		numWorkers: numWorkers,
		jobs:       make(chan T, bufferSize),
		processor:  processor,
	}
}

func (wp *WorkerPool[T]) Start(ctx context.Context) {
	for i := 1; i <= wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool[T]) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			if err := wp.processor(ctx, job); err != nil {
				slog.Warn("job failed", "pool", wp.name, "worker", id, "error", err)
			}
		}
	}
}

// Submit queues a job, blocking while the queue is full. It gives up when
// ctx is done or the pool has been stopped.
func (wp *WorkerPool[T]) Submit(ctx context.Context, job T) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.stopped {
		return ErrStopped
	}

	select {
	case wp.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (wp *WorkerPool[T]) Stop() {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	close(wp.jobs)
	wp.mu.Unlock()

	wp.wg.Wait()
}
