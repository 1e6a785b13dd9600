package publisher

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
)

// ErrClosed is returned when publishing to a closed local queue.
var ErrClosed = errors.New("publisher: closed")

// LocalPublisher hands jobs to an in-process worker pool over a buffered channel.
type LocalPublisher struct {
	jobs   chan *domain.JobMessage
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewLocalPublisher creates a publisher whose queue holds up to capacity jobs.
func NewLocalPublisher(capacity int, logger *zap.Logger) *LocalPublisher {
	if capacity < 1 {
		capacity = 1
	}
	return &LocalPublisher{
		jobs:   make(chan *domain.JobMessage, capacity),
		logger: logger,
	}
}

// Jobs is the channel drained by the worker pool.
func (p *LocalPublisher) Jobs() <-chan *domain.JobMessage {
	return p.jobs
}

// Publish enqueues the job. It blocks only while the queue is full and gives up when
// ctx is done.
func (p *LocalPublisher) Publish(ctx context.Context, job *domain.JudgeJob) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	msg := &domain.JobMessage{
		Job: job,
		Ack: func() error { return nil },
		Nack: func(requeue bool) error {
			p.logger.Warn("Local judge job rejected",
				zap.String("submission_id", job.SubmissionID.String()),
				zap.Bool("requeue", requeue),
			)
			return nil
		},
	}

	select {
	case p.jobs <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs and closes the channel so workers drain and exit.
func (p *LocalPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	return nil
}
