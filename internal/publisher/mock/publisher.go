package mock

import (
	"context"
	"sync"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
	"github.com/Harsh-BH/sentinel-judge/internal/publisher"
)

var _ publisher.Publisher = (*MockPublisher)(nil)

// MockPublisher is a mock job publisher for testing.
type MockPublisher struct {
	mu        sync.Mutex
	Published []*domain.JudgeJob
	PublishFn func(ctx context.Context, job *domain.JudgeJob) error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, job *domain.JudgeJob) error {
	if m.PublishFn != nil {
		return m.PublishFn(ctx, job)
	}
	m.mu.Lock()
	m.Published = append(m.Published, job)
	m.mu.Unlock()
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

// Count returns the number of published jobs.
func (m *MockPublisher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Published)
}
