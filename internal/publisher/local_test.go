package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
)

func TestLocalPublisher_DeliversInOrder(t *testing.T) {
	p := NewLocalPublisher(4, zap.NewNop())
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	for _, id := range ids {
		if err := p.Publish(context.Background(), &domain.JudgeJob{SubmissionID: id}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	for i, id := range ids {
		msg := <-p.Jobs()
		if msg.Job.SubmissionID != id {
			t.Errorf("message %d: got %s, want %s", i, msg.Job.SubmissionID, id)
		}
		if err := msg.Ack(); err != nil {
			t.Errorf("ack: %v", err)
		}
		if err := msg.Nack(false); err != nil {
			t.Errorf("nack: %v", err)
		}
	}
}

func TestLocalPublisher_FullQueueRespectsContext(t *testing.T) {
	p := NewLocalPublisher(1, zap.NewNop())
	p.Publish(context.Background(), &domain.JudgeJob{SubmissionID: uuid.New()})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := p.Publish(ctx, &domain.JudgeJob{SubmissionID: uuid.New()})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestLocalPublisher_Close(t *testing.T) {
	p := NewLocalPublisher(2, zap.NewNop())
	p.Publish(context.Background(), &domain.JudgeJob{SubmissionID: uuid.New()})

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := p.Publish(context.Background(), &domain.JudgeJob{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}

	// Buffered jobs remain readable, then the channel reports closed.
	if _, ok := <-p.Jobs(); !ok {
		t.Fatal("expected buffered job")
	}
	if _, ok := <-p.Jobs(); ok {
		t.Fatal("expected closed channel")
	}
}
