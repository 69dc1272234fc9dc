// Package worker consumes matching triggers and drives the engine.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/mingle/internal/domain/model"
	"github.com/okian/mingle/internal/domain/types"
	"github.com/okian/mingle/pkg/logger"
	"github.com/okian/mingle/pkg/metrics"
)

// Trigger is what workers read off the queue.
type Trigger = model.Trigger

const (
	defaultWorkerCount    = 2
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Runner executes one matching cycle. A single cycle satisfies every
// trigger that arrived before it, which is why workers coalesce.
type Runner interface {
	RunMatching(ctx context.Context) (types.MatchSummary, error)
}

// Queue defines how workers receive triggers.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Trigger
	Len(ctx context.Context) int
}

// Worker consumes triggers until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker over an in-memory trigger queue.
type InMemoryWorker struct {
	queue  Queue
	runner Runner
	name   string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(queue Queue, runner Runner, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		runner:   runner,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	triggers := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-triggers:
			if !ok {
				return
			}

			// Coalesce the backlog: one matching cycle covers every
			// trigger already queued, so drain them before running.
			coalesced := 1
		drain:
			for {
				select {
				case _, open := <-triggers:
					if !open {
						break drain
					}
					metrics.RecordTriggerProcessed()
					coalesced++
				default:
					break drain
				}
			}

			if err := w.process(ctx, t, coalesced); err != nil {
				w.logger.Error(ctx, "matching run failed", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process runs one matching cycle on behalf of a trigger and everything
// coalesced behind it.
func (w *InMemoryWorker) process(ctx context.Context, t Trigger, coalesced int) error {
	metrics.RecordTriggerProcessed()

	summary, err := w.runner.RunMatching(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("worker", "matching_failed")
		w.logger.Error(ctx, "matching cycle aborted",
			logger.String("triggerID", t.ID),
			logger.String("reason", t.Reason),
			logger.Error(err),
		)
		return fmt.Errorf("matching cycle for trigger %s: %w", t.ID, err)
	}

	w.logger.Info(ctx, "matching cycle complete",
		logger.String("triggerID", t.ID),
		logger.String("reason", t.Reason),
		logger.Int("coalesced", coalesced),
		logger.Int("groupsCreated", summary.GroupsCreated),
		logger.Int("groupsSplit", summary.GroupsSplit),
		logger.Int("groupsMerged", summary.GroupsMerged),
		logger.Int("failures", len(summary.Failures)),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a worker pool. Matching cycles serialize inside the
// engine, so the pool stays small; extra workers only keep the queue
// drained while a cycle runs.
func NewPool(workerCount int, queue Queue, runner Runner) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			runner,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, worker := range p.workers {
		select {
		case <-worker.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
