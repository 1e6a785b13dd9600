package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
	"github.com/Harsh-BH/sentinel-judge/internal/metrics"
	"github.com/Harsh-BH/sentinel-judge/internal/repository"
)

// UpdateStatisticsUsecase applies a terminal verdict to problem or contest aggregates.
// It is best-effort: failures are logged and never undo the stored verdict.
type UpdateStatisticsUsecase struct {
	problems repository.ProblemRepository
	contests repository.ContestRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewUpdateStatisticsUsecase creates a new UpdateStatisticsUsecase.
func NewUpdateStatisticsUsecase(problems repository.ProblemRepository, contests repository.ContestRepository, logger *zap.Logger) *UpdateStatisticsUsecase {
	return &UpdateStatisticsUsecase{
		problems: problems,
		contests: contests,
		logger:   logger,
		now:      time.Now,
	}
}

// Execute updates the counters owned by the submission's problem or contest.
func (uc *UpdateStatisticsUsecase) Execute(ctx context.Context, sub *domain.Submission, verdict *domain.Verdict) {
	if sub == nil || verdict == nil {
		return
	}
	solved := verdict.Status == domain.StatusAccepted
	log := uc.logger.With(zap.String("submission_id", sub.ID.String()))

	if sub.ContestID == nil {
		if err := uc.problems.IncrementStats(ctx, sub.ProblemID, solved); err != nil {
			uc.fail(log, "problem stats", err)
		}
		return
	}

	contestID := *sub.ContestID
	if err := uc.contests.IncrementProblemStats(ctx, contestID, sub.ProblemID, solved); err != nil {
		uc.fail(log, "contest problem stats", err)
	}
	if err := uc.updateParticipant(ctx, contestID, sub, verdict.Score); err != nil {
		uc.fail(log, "participant score", err)
	}
}

// updateParticipant keeps the best score across attempts. Only a strictly higher
// score moves the best score and its timestamp; every attempt is counted.
func (uc *UpdateStatisticsUsecase) updateParticipant(ctx context.Context, contestID uuid.UUID, sub *domain.Submission, score int) error {
	current, err := uc.contests.GetParticipantScore(ctx, contestID, sub.UserID, sub.ProblemID)
	if err != nil {
		return err
	}

	now := uc.now().UTC()
	next := domain.ParticipantScore{
		ContestID: contestID,
		UserID:    sub.UserID,
		ProblemID: sub.ProblemID,
	}
	if current != nil {
		next = *current
	}
	next.Attempts++
	next.LastAttemptAt = &now

	delta := 0
	if current == nil || score > current.BestScore {
		delta = score - next.BestScore
		next.BestScore = score
		next.BestAt = &now
	}

	return uc.contests.SaveParticipantScore(ctx, &next, delta)
}

func (uc *UpdateStatisticsUsecase) fail(log *zap.Logger, what string, err error) {
	metrics.StatisticsFailures.Inc()
	log.Warn("Statistics update failed", zap.String("target", what), zap.Error(err))
}
