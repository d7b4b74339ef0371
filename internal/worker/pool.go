// Package worker provides the bounded worker pool and the interval scheduler
// that drive the periodic monitoring sweeps.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

// Pool executes submitted jobs on a fixed number of workers. Jobs queue up to
// the channel capacity; a full queue rejects the submit instead of blocking
// the scheduler.
type Pool struct {
	numWorkers int

	mu     sync.Mutex
	closed bool
	jobs   chan Job
}

func NewPool(numWorkers, queueSize int) *Pool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &Pool{
		numWorkers: numWorkers,
		jobs:       make(chan Job, queueSize),
	}
}

// Submit enqueues a job. It fails fast when the pool is shut down, the queue
// is full, or the context is already cancelled. The mutex orders the send
// against the channel close in Start.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("worker pool closed")
	}

	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("submit cancelled: %w", ctx.Err())
	default:
		return fmt.Errorf("job queue full (%d pending)", len(p.jobs))
	}
}

// Start runs the workers until the context is cancelled, then closes the
// queue, lets the workers drain it, and signals the managing wait group.
func (p *Pool) Start(ctx context.Context, managerWg *sync.WaitGroup) {
	defer managerWg.Done()

	var workerWg sync.WaitGroup
	for i := range p.numWorkers {
		workerWg.Add(1)
		go p.worker(ctx, &workerWg, i+1)
	}

	<-ctx.Done()
	p.mu.Lock()
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	workerWg.Wait()
	slog.Info("Worker pool stopped", "workers", p.numWorkers)
}

func (p *Pool) worker(ctx context.Context, wg *sync.WaitGroup, id int) {
	defer wg.Done()

	for job := range p.jobs {
		p.safeExecute(ctx, job, id)
	}
}

// safeExecute isolates worker goroutines from panicking jobs.
func (p *Pool) safeExecute(ctx context.Context, job Job, workerID int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered in scheduled job", "worker", workerID, "panic", r)
		}
	}()

	if err := job(ctx); err != nil {
		slog.Error("scheduled job failed", "worker", workerID, "error", err)
	}
}
