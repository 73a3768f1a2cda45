// Package worker scores queued subject files on a pool of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/epiclock/internal/adapters/mq/queue"
	"github.com/okian/epiclock/internal/report"
	"github.com/okian/epiclock/pkg/logger"
	"github.com/okian/epiclock/pkg/metrics"
)

// Result is the outcome of one job. Exactly one of Report and Err is set.
type Result struct {
	Job    queue.Job
	Report report.Report
	Err    error
}

// Scorer scores one subject file. Its errors already name the path.
type Scorer interface {
	ScoreFile(ctx context.Context, path string) (report.Report, error)
}

// Collector receives results. It is called from several workers at once.
type Collector interface {
	Collect(ctx context.Context, r Result)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until its queue is drained.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	scorer    Scorer
	collector Collector
	name      string
	metrics   *metrics.Manager

	// Shutdown control
	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, scorer Scorer, collector Collector, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		scorer:    scorer,
		collector: collector,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Nop(),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)
	w.metrics.AddActiveWorkers(1)
	defer w.metrics.AddActiveWorkers(-1)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, j)
		}
	}
}

// Shutdown stops the worker and waits for it to return.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) {
	start := time.Now()
	defer func() {
		w.metrics.ObserveJob(time.Since(start))
	}()

	rep, err := w.scorer.ScoreFile(ctx, j.Path)
	if err != nil {
		w.logger.Error(ctx, "scoring failed for subject",
			logger.String("path", j.Path),
			logger.Error(err),
		)
	} else {
		w.logger.Debug(ctx, "subject scored",
			logger.String("path", j.Path),
			logger.Duration("elapsed", time.Since(start)),
		)
	}
	w.collector.Collect(ctx, Result{Job: j, Report: rep, Err: err})
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	logger  logger.Logger
	wg      sync.WaitGroup
}

// NewPool creates a pool of workerCount workers. A count below one selects
// one worker per CPU. opts apply to every worker.
func NewPool(workerCount int, q Queue, scorer Scorer, collector Collector, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	base := &InMemoryWorker{logger: logger.Nop()}
	for _, opt := range opts {
		opt(base)
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		logger:  base.logger.Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, scorer, collector, wopts...)
	}
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *InMemoryWorker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Shutdown stops every worker after its current job.
func (p *Pool) Shutdown(ctx context.Context) error {
	var firstErr error
	for i, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
