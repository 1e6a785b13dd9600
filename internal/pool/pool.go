package pool

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
	"github.com/Harsh-BH/sentinel-judge/internal/metrics"
)

// JobHandler judges one job. It returns true when the job was a duplicate.
type JobHandler interface {
	Execute(ctx context.Context, job *domain.JudgeJob) (bool, error)
}

// WorkerPool manages a fixed-size pool of goroutines that drain judge jobs.
// Concurrent judging is bounded by the judge admission controller, not by the pool size.
type WorkerPool struct {
	size    int
	jobs    <-chan *domain.JobMessage
	handler JobHandler
	logger  *zap.Logger
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new fixed-size worker pool.
func NewWorkerPool(size int, jobs <-chan *domain.JobMessage, handler JobHandler, logger *zap.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    jobs,
		handler: handler,
		logger:  logger,
	}
}

// Start launches all worker goroutines. Call Stop to wait for them to finish.
func (p *WorkerPool) Start(ctx context.Context) {
	p.logger.Info("Starting worker pool", zap.Int("pool_size", p.size))

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop waits for all workers to finish their current jobs and exit.
func (p *WorkerPool) Stop() {
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	p.logger.Debug("Worker started", zap.Int("worker_id", id))

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("Worker shutting down", zap.Int("worker_id", id))
			return
		case msg, ok := <-p.jobs:
			if !ok {
				p.logger.Debug("Job channel closed", zap.Int("worker_id", id))
				return
			}
			p.process(ctx, id, msg)
		}
	}
}

// process handles one message. A panic is contained to the message so the worker
// keeps serving the queue.
func (p *WorkerPool) process(ctx context.Context, workerID int, msg *domain.JobMessage) {
	subID := msg.Job.SubmissionID.String()

	metrics.WorkersActive.Inc()
	defer metrics.WorkersActive.Dec()

	isDuplicate, err := p.handle(ctx, msg.Job)

	if err != nil {
		p.logger.Error("Judge job failed",
			zap.Int("worker_id", workerID),
			zap.String("submission_id", subID),
			zap.Error(err),
		)

		// Nack without requeue so failed jobs go to the DLQ.
		// Requeuing a deterministic failure would loop forever.
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Error("Failed to NACK message",
				zap.String("submission_id", subID),
				zap.Error(nackErr),
			)
		}
		return
	}

	if isDuplicate {
		p.logger.Debug("Duplicate job skipped",
			zap.Int("worker_id", workerID),
			zap.String("submission_id", subID),
		)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		p.logger.Error("Failed to ACK message",
			zap.String("submission_id", subID),
			zap.Error(ackErr),
		)
	}
}

func (p *WorkerPool) handle(ctx context.Context, job *domain.JudgeJob) (dup bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Worker panic recovered",
				zap.String("submission_id", job.SubmissionID.String()),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			err = fmt.Errorf("pool: panic: %v", r)
		}
	}()
	return p.handler.Execute(ctx, job)
}
