// Package worker hosts the fixed pool of goroutines that pull job ids off
// the queue and drive them through the pipeline.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"media-analyzer/internal/model"
	"media-analyzer/internal/pipeline"
	"media-analyzer/internal/queue"
	"media-analyzer/internal/store"
)

// Pool runs a configurable number of workers. Each worker owns exactly one
// job at a time; the queue's single-delivery guarantee is the only
// concurrency control needed for job ownership.
type Pool struct {
	queue    queue.Queue
	store    store.JobStore
	executor *pipeline.Executor
	size     int
	logger   *slog.Logger
	wg       sync.WaitGroup
}

func NewPool(q queue.Queue, s store.JobStore, e *pipeline.Executor, size int, logger *slog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{queue: q, store: s, executor: e, size: size, logger: logger}
}

// Start launches the workers. They stop accepting new jobs when ctx is
// cancelled; a job already dequeued still runs to its terminal state.
func (p *Pool) Start(ctx context.Context) {
	for i := 1; i <= p.size; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()
	logger := p.logger.With("worker", id)
	logger.Info("worker starting")

	for {
		jobID, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, queue.ErrClosed) {
				logger.Info("worker stopping")
				return
			}
			logger.Error("dequeue failed", "error", err)
			time.Sleep(time.Second)
			continue
		}

		// Shutdown must not abort a job mid-pipeline.
		p.process(context.WithoutCancel(ctx), logger, jobID)
	}
}

// process runs one job end-to-end. Panics and per-job errors are contained
// here so one bad job never takes the worker down.
func (p *Pool) process(ctx context.Context, logger *slog.Logger, jobID string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing job", "job_id", jobID, "panic", r)
			p.markPanicked(ctx, jobID)
		}
	}()

	job, err := p.store.Get(ctx, jobID)
	if err != nil {
		logger.Error("failed to load job", "job_id", jobID, "error", err)
		return
	}
	if job.Terminal() {
		logger.Warn("skipping job already in terminal state", "job_id", jobID, "status", job.Status)
		return
	}

	logger.Info("processing job", "job_id", jobID, "source", job.SourceRef)
	if err := p.executor.Run(ctx, job); err != nil {
		logger.Error("job processing hit infrastructure error", "job_id", jobID, "error", err)
	}
}

// markPanicked records a panic as a terminal failure of whatever stage the
// job was in, best-effort.
func (p *Pool) markPanicked(ctx context.Context, jobID string) {
	job, err := p.store.Get(ctx, jobID)
	if err != nil || job.Terminal() {
		return
	}
	s := model.StageForStatus(job.Status)
	if err := p.store.CompleteWithError(ctx, jobID, s, "internal error while processing job"); err != nil {
		p.logger.Error("failed to mark panicked job", "job_id", jobID, "error", err)
	}
}
