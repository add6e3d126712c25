package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// pool runs job handlers. With concurrency > 0 a fixed set of workers drains
// a bounded queue; with concurrency == 0 every job gets its own goroutine.
type pool struct {
	logger      *slog.Logger
	concurrency int
	jobsChan    chan string
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	handle      func(ctx context.Context, jobID string)
	discarded   atomic.Int64
}

func newPool(logger *slog.Logger, concurrency, queueSize int, handle func(ctx context.Context, jobID string)) *pool {
	p := &pool{
		logger:      logger,
		concurrency: concurrency,
		stopChan:    make(chan struct{}),
		handle:      handle,
	}
	if concurrency > 0 {
		p.jobsChan = make(chan string, queueSize)
	}
	return p
}

// start spawns the worker goroutines
func (p *pool) start(ctx context.Context) {
	if p.concurrency == 0 {
		p.logger.Info("Worker pool unbounded, each job runs in its own goroutine")
		return
	}

	p.logger.Info("Spawning worker pool",
		slog.Int("concurrency", p.concurrency),
		slog.Int("queue_size", cap(p.jobsChan)),
	)

	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go p.workerLoop(ctx, i)
	}
}

// trySubmit hands jobID to the pool without blocking. It reports false when
// no worker or queue slot is free.
func (p *pool) trySubmit(ctx context.Context, jobID string) bool {
	if p.concurrency == 0 {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.handle(ctx, jobID)
		}()
		return true
	}

	select {
	case p.jobsChan <- jobID:
		return true
	default:
		return false
	}
}

// queued returns the number of jobs that never reached a worker, whether
// still in the queue or dropped after stop
func (p *pool) queued() int {
	n := int(p.discarded.Load())
	if p.jobsChan != nil {
		n += len(p.jobsChan)
	}
	return n
}

func (p *pool) stopping(ctx context.Context) bool {
	select {
	case <-p.stopChan:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (p *pool) workerLoop(ctx context.Context, workerNum int) {
	defer p.wg.Done()

	workerName := fmt.Sprintf("worker-%d", workerNum)
	p.logger.Debug("Worker goroutine started", slog.String("worker_name", workerName))

	for {
		select {
		case <-p.stopChan:
			p.logger.Debug("Worker goroutine stopping - stopChan closed",
				slog.String("worker_name", workerName),
			)
			return

		case <-ctx.Done():
			p.logger.Debug("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case jobID := <-p.jobsChan:
			// select picks randomly among ready cases, so a job can be
			// received after stop; it must stay pending.
			if p.stopping(ctx) {
				p.discarded.Add(1)
				p.logger.Debug("Worker dropped job received after stop",
					slog.String("worker_name", workerName),
					slog.String("job_id", jobID),
				)
				return
			}

			p.logger.Debug("Worker received job",
				slog.String("worker_name", workerName),
				slog.String("job_id", jobID),
			)
			p.handle(ctx, jobID)
		}
	}
}

// stop tells workers to exit after their current job
func (p *pool) stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
}

// wait blocks until every worker and in-flight job has returned
func (p *pool) wait() {
	p.wg.Wait()
}
