package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
	"github.com/Harsh-BH/sentinel-judge/internal/publisher"
	"github.com/Harsh-BH/sentinel-judge/internal/repository"
)

const recoveryBatchSize = 500

// RecoveryReport summarises a startup recovery pass.
type RecoveryReport struct {
	Interrupted  int
	Redispatched int
}

// RecoverSubmissionsUsecase closes out submissions orphaned by a previous process.
type RecoverSubmissionsUsecase struct {
	submissions repository.SubmissionRepository
	publisher   publisher.Publisher
	logger      *zap.Logger
	now         func() time.Time
}

// NewRecoverSubmissionsUsecase creates a new RecoverSubmissionsUsecase.
// pub is only used by Execute and may be nil for a sweep-only instance.
func NewRecoverSubmissionsUsecase(submissions repository.SubmissionRepository, pub publisher.Publisher, logger *zap.Logger) *RecoverSubmissionsUsecase {
	return &RecoverSubmissionsUsecase{
		submissions: submissions,
		publisher:   pub,
		logger:      logger,
		now:         time.Now,
	}
}

// Execute re-dispatches pending submissions. When interruptRunning is set, running
// submissions are moved to runtime_error first; only do that when this process is
// the sole judge, since a remote worker may still own them.
func (uc *RecoverSubmissionsUsecase) Execute(ctx context.Context, interruptRunning bool) (*RecoveryReport, error) {
	report := &RecoveryReport{}

	if interruptRunning {
		n, err := uc.interruptRunning(ctx, time.Time{}, "judging interrupted by restart")
		report.Interrupted = n
		if err != nil {
			return report, err
		}
	}

	pending, err := uc.submissions.ListByStatus(ctx, domain.StatusPending, recoveryBatchSize)
	if err != nil {
		return report, fmt.Errorf("recover: list pending: %w", err)
	}
	for _, sub := range pending {
		if err := uc.publisher.Publish(ctx, &domain.JudgeJob{SubmissionID: sub.ID}); err != nil {
			return report, fmt.Errorf("recover: redispatch %s: %w", sub.ID, err)
		}
		report.Redispatched++
	}

	if report.Interrupted > 0 || report.Redispatched > 0 {
		uc.logger.Info("Recovered orphaned submissions",
			zap.Int("interrupted", report.Interrupted),
			zap.Int("redispatched", report.Redispatched),
		)
	}
	return report, nil
}

// InterruptStale closes out running submissions whose claim is older than olderThan.
// A worker that died mid-judge leaves its submission running, and its redelivered job
// is skipped while the idempotency lock lives, so olderThan should match the lock TTL.
func (uc *RecoverSubmissionsUsecase) InterruptStale(ctx context.Context, olderThan time.Duration) (int, error) {
	n, err := uc.interruptRunning(ctx, uc.now().Add(-olderThan), "judging abandoned by its worker")
	if n > 0 {
		uc.logger.Warn("Closed out stale running submissions", zap.Int("count", n))
	}
	return n, err
}

// SweepStale runs InterruptStale every interval until ctx is done.
func (uc *RecoverSubmissionsUsecase) SweepStale(ctx context.Context, olderThan, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := uc.InterruptStale(ctx, olderThan); err != nil {
			uc.logger.Error("Stale submission sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// interruptRunning forces runtime_error on running submissions claimed before cutoff.
// A zero cutoff matches every running submission.
func (uc *RecoverSubmissionsUsecase) interruptRunning(ctx context.Context, cutoff time.Time, reason string) (int, error) {
	running, err := uc.submissions.ListByStatus(ctx, domain.StatusRunning, recoveryBatchSize)
	if err != nil {
		return 0, fmt.Errorf("recover: list running: %w", err)
	}

	interrupted := 0
	for _, sub := range running {
		if !cutoff.IsZero() && !sub.UpdatedAt.Before(cutoff) {
			continue
		}
		verdict := &domain.Verdict{
			Status:          domain.StatusRuntimeError,
			TestCaseResults: erroredResults(sub.TotalTestCases, reason),
			JudgeError:      reason,
			EvaluatedAt:     uc.now().UTC(),
		}
		if err := uc.submissions.SaveVerdict(ctx, sub.ID, verdict); err != nil {
			uc.logger.Error("Failed to close out interrupted submission",
				zap.String("submission_id", sub.ID.String()),
				zap.Error(err),
			)
			continue
		}
		interrupted++
	}
	return interrupted, nil
}
