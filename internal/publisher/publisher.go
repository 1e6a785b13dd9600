package publisher

import (
	"context"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
)

// Publisher hands judge jobs to whatever drains them. Publish returns once the job
// is accepted for delivery; it never waits for judging.
type Publisher interface {
	Publish(ctx context.Context, job *domain.JudgeJob) error
	Close() error
}
