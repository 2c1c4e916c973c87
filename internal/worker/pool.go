package worker

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrQueueFull signals that the pool cannot accept more work right now.
// Callers decide how to surface the backpressure.
var ErrQueueFull = errors.New("worker queue is full")

type Job func()

// Pool runs submitted jobs on a fixed number of workers over a bounded
// queue. It caps concurrent pipeline runs (and with them, concurrent
// calls to the generation service) and gives the submission path a
// non-blocking enqueue.
type Pool struct {
	jobs    chan Job
	group   *errgroup.Group
	workers int
	logger  *zap.Logger
}

func NewPool(workers, queueSize int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		jobs:    make(chan Job, queueSize),
		workers: workers,
		logger:  logger,
	}
}

func (p *Pool) Start() {
	p.group = &errgroup.Group{}
	for i := 0; i < p.workers; i++ {
		p.group.Go(func() error {
			for job := range p.jobs {
				job()
			}
			return nil
		})
	}
	p.logger.Info("worker pool started",
		zap.Int("workers", p.workers),
		zap.Int("queue_size", cap(p.jobs)))
}

// Submit enqueues a job without blocking. Returns ErrQueueFull when the
// queue is saturated.
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for in-flight jobs to drain, or for
// the context to expire.
func (p *Pool) Stop(ctx context.Context) error {
	close(p.jobs)

	done := make(chan struct{})
	go func() {
		p.group.Wait() //nolint:errcheck // workers never return errors
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool drained")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// QueueDepth reports the number of jobs waiting to run.
func (p *Pool) QueueDepth() int {
	return len(p.jobs)
}
