package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type HandlerFunc func(ctx context.Context, job Job) error

// Pool runs a fixed number of consumers against one queue and dispatches
// each job to the handler registered for its kind.
type Pool struct {
	queue      Queue
	workers    int
	pollWait   time.Duration
	jobTimeout time.Duration
	log        *zap.Logger

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewPool(queue Queue, workers int, log *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		queue:      queue,
		workers:    workers,
		pollWait:   time.Second,
		jobTimeout: 30 * time.Second,
		log:        log.With(zap.String("component", "worker_pool")),
		handlers:   make(map[string]HandlerFunc),
	}
}

func (p *Pool) Register(kind string, handler HandlerFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[kind] = handler
}

// Run blocks until ctx is cancelled or the queue is closed.
func (p *Pool) Run(ctx context.Context) error {
	p.log.Info("Worker pool started", zap.Int("workers", p.workers))
	defer p.log.Info("Worker pool stopped")

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		id := i
		g.Go(func() error {
			return p.consume(ctx, id)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrQueueClosed) {
		return nil
	}
	return err
}

func (p *Pool) consume(ctx context.Context, id int) error {
	log := p.log.With(zap.Int("worker", id))

	for {
		job, err := p.queue.Dequeue(ctx, p.pollWait)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, ErrQueueClosed) {
				return err
			}
			log.Error("Dequeue failed", zap.Error(err))
			if !sleep(ctx, p.pollWait) {
				return ctx.Err()
			}
			continue
		}
		if job == nil {
			continue
		}

		p.Handle(ctx, *job)
	}
}

// Handle runs one job synchronously. Handler failures are logged, not returned.
func (p *Pool) Handle(ctx context.Context, job Job) {
	p.mu.RLock()
	handler, ok := p.handlers[job.Kind]
	p.mu.RUnlock()

	log := p.log.With(zap.String("job_id", job.ID), zap.String("kind", job.Kind))
	if !ok {
		log.Warn("No handler for job kind, dropping")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.jobTimeout)
	defer cancel()

	start := time.Now()
	if err := safeRun(ctx, handler, job); err != nil {
		log.Error("Job failed", zap.Error(err), zap.Duration("took", time.Since(start)))
		return
	}
	log.Debug("Job done", zap.Duration("took", time.Since(start)))
}

func safeRun(ctx context.Context, handler HandlerFunc, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v\n%s", r, debug.Stack())
		}
	}()
	return handler(ctx, job)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
