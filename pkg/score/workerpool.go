package score

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Job is a unit of work run by a WorkerPool.
type Job func(ctx context.Context) error

// ErrPoolClosed is returned when submitting to a closed pool.
var ErrPoolClosed = errors.New("worker pool closed")

// PoolError wraps an error raised by a job.
type PoolError struct {
	Err error
}

func (e *PoolError) Error() string { return fmt.Sprintf("worker job failed: %v", e.Err) }

func (e *PoolError) Unwrap() error { return e.Err }

// WorkerPoolInterface is what the Scorer needs from a pool. Tests substitute
// their own implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// WorkerPool runs jobs on a fixed number of goroutines.
type WorkerPool struct {
	workers int
	jobs    chan Job

	// OnError receives job errors wrapped in *PoolError. Nil drops them.
	OnError func(error)

	mu     sync.RWMutex
	closed bool
	stop   chan struct{} // closed first by Close to release blocked submitters
	drain  chan struct{} // closed once no submitter can enqueue anymore
	once   sync.Once
	wg     sync.WaitGroup
}

// NewWorkerPool creates a pool with the given number of workers and queue size.
func NewWorkerPool(workers, queue int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if queue < 0 {
		queue = 0
	}
	return &WorkerPool{
		workers: workers,
		jobs:    make(chan Job, queue),
		stop:    make(chan struct{}),
		drain:   make(chan struct{}),
	}
}

// Start launches the workers. They exit when ctx is done or, after Close,
// once the queue is empty.
func (p *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work(ctx)
	}
}

func (p *WorkerPool) work(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			p.run(ctx, job)
		case <-p.drain:
			for {
				select {
				case job := <-p.jobs:
					p.run(ctx, job)
				default:
					return
				}
			}
		}
	}
}

func (p *WorkerPool) run(ctx context.Context, job Job) {
	if err := job(ctx); err != nil && p.OnError != nil {
		p.OnError(&PoolError{Err: err})
	}
}

// Submit enqueues a job, blocking while the queue is full.
func (p *WorkerPool) Submit(job Job) error {
	return p.SubmitCtx(context.Background(), job)
}

// SubmitCtx enqueues a job, giving up when ctx is done or the pool closes.
func (p *WorkerPool) SubmitCtx(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.jobs <- job:
		return nil
	case <-p.stop:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs, runs what is already queued and waits for
// the workers to exit.
func (p *WorkerPool) Close() {
	p.once.Do(func() {
		close(p.stop)
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.drain)
		p.wg.Wait()
	})
}
