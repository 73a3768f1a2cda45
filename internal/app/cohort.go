package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/okian/epiclock/internal/adapters/mq/queue"
	"github.com/okian/epiclock/internal/adapters/mq/worker"
	"github.com/okian/epiclock/internal/report"
	"github.com/okian/epiclock/pkg/logger"
)

// ErrCohortQueue reports a subject file the cohort queue refused.
var ErrCohortQueue = errors.New("cohort queue rejected subject")

// ScoreFiles scores every path and returns the reports in input order. Files
// are spread over a pool of workers; workers below one selects one per CPU.
// The first failure cancels the remaining files and is returned.
func (s *Service) ScoreFiles(ctx context.Context, paths []string, workers int) ([]report.Report, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	if len(paths) == 1 {
		rep, err := s.ScoreFile(ctx, paths[0])
		if err != nil {
			return nil, err
		}
		return []report.Report{rep}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	q := queue.NewInMemoryQueue(queue.WithCapacity(len(paths)), queue.WithMetrics(s.metrics))
	for i, p := range paths {
		// The queue holds every path, so a rejected job means ctx is done.
		if !q.Enqueue(ctx, queue.Job{Index: i, Path: p}) {
			_ = q.Close()
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s", ErrCohortQueue, p)
		}
	}
	_ = q.Close()

	if workers < 1 {
		workers = runtime.NumCPU()
	}
	c := &cohort{reports: make([]report.Report, len(paths)), cancel: cancel}
	pool := worker.NewPool(min(workers, len(paths)), q, s, c,
		worker.WithLogger(s.logger),
		worker.WithMetrics(s.metrics),
	)
	s.logger.Debug(ctx, "scoring cohort",
		logger.Int("subjects", len(paths)),
		logger.Int("workers", pool.Size()),
	)
	pool.Start(ctx)
	pool.Wait()

	if c.err != nil {
		return nil, c.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.reports, nil
}

// cohort gathers worker results by input position.
type cohort struct {
	mu      sync.Mutex
	reports []report.Report
	err     error
	cancel  context.CancelFunc
}

func (c *cohort) Collect(_ context.Context, r worker.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r.Err != nil {
		if c.err == nil {
			c.err = r.Err
			c.cancel()
		}
		return
	}
	c.reports[r.Job.Index] = r.Report
}
