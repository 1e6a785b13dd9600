package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/admission"
	"github.com/Harsh-BH/sentinel-judge/internal/domain"
	"github.com/Harsh-BH/sentinel-judge/internal/judge"
	"github.com/Harsh-BH/sentinel-judge/internal/metrics"
	"github.com/Harsh-BH/sentinel-judge/internal/repository"
)

// Evaluator runs a submission against its test cases.
type Evaluator interface {
	Evaluate(ctx context.Context, req judge.Request) (*judge.Evaluation, error)
}

// JudgeSubmissionUsecase drives one submission from pending to a terminal status.
type JudgeSubmissionUsecase struct {
	submissions repository.SubmissionRepository
	idempotent  repository.IdempotencyStore
	tests       *testSetLoader
	admission   *admission.Controller
	evaluator   Evaluator
	stats       *UpdateStatisticsUsecase
	logger      *zap.Logger
	now         func() time.Time
}

// NewJudgeSubmissionUsecase creates a new JudgeSubmissionUsecase.
func NewJudgeSubmissionUsecase(
	submissions repository.SubmissionRepository,
	problems repository.ProblemRepository,
	contests repository.ContestRepository,
	idempotent repository.IdempotencyStore,
	ctrl *admission.Controller,
	evaluator Evaluator,
	stats *UpdateStatisticsUsecase,
	maxScore int,
	logger *zap.Logger,
) *JudgeSubmissionUsecase {
	return &JudgeSubmissionUsecase{
		submissions: submissions,
		idempotent:  idempotent,
		tests:       &testSetLoader{problems: problems, contests: contests, maxScore: maxScore},
		admission:   ctrl,
		evaluator:   evaluator,
		stats:       stats,
		logger:      logger,
		now:         time.Now,
	}
}

// Execute judges the submission named by job: idempotency lock, judge slot,
// pending → running, evaluation, terminal verdict, slot release, statistics.
// Returns (isDuplicate, error). Once the submission is running it always ends in a
// terminal status, even when judging fails or panics.
func (uc *JudgeSubmissionUsecase) Execute(ctx context.Context, job *domain.JudgeJob) (bool, error) {
	id := job.SubmissionID
	log := uc.logger.With(zap.String("submission_id", id.String()))

	acquired, err := uc.idempotent.AcquireLock(ctx, id)
	if err != nil {
		log.Error("Failed to acquire idempotency lock", zap.Error(err))
		return false, err
	}
	if !acquired {
		log.Info("Duplicate judge job detected, skipping")
		return true, nil
	}

	var (
		claimed bool
		sub     *domain.Submission
		verdict *domain.Verdict
	)
	err = uc.admission.Do(ctx, func(ctx context.Context) error {
		var claimErr error
		claimed, claimErr = uc.submissions.MarkRunning(ctx, id)
		if claimErr != nil || !claimed {
			return claimErr
		}
		sub, verdict, claimErr = uc.judge(ctx, id)
		return claimErr
	})

	lockCtx := context.WithoutCancel(ctx)
	if !claimed {
		if err != nil {
			// Never claimed: let a redelivery or the startup recovery try again.
			if delErr := uc.idempotent.DeleteLock(lockCtx, id); delErr != nil {
				log.Warn("Failed to delete idempotency lock", zap.Error(delErr))
			}
			log.Error("Failed to claim submission", zap.Error(err))
			return false, err
		}
		uc.releaseLock(lockCtx, log, id)
		log.Info("Submission is no longer pending, skipping")
		return true, nil
	}
	uc.releaseLock(lockCtx, log, id)

	if err != nil {
		return false, err
	}

	uc.stats.Execute(lockCtx, sub, verdict)
	return false, nil
}

func (uc *JudgeSubmissionUsecase) releaseLock(ctx context.Context, log *zap.Logger, id uuid.UUID) {
	if err := uc.idempotent.ReleaseLock(ctx, id); err != nil {
		log.Warn("Failed to release idempotency lock", zap.Error(err))
	}
}

// judge evaluates a claimed submission and persists its verdict. The deferred
// finalizer turns any error or panic into a runtime_error verdict.
func (uc *JudgeSubmissionUsecase) judge(ctx context.Context, id uuid.UUID) (sub *domain.Submission, verdict *domain.Verdict, err error) {
	start := time.Now()
	language := "unknown"
	total := 0

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("judge: panic: %v", r)
			uc.logger.Error("Judging panicked",
				zap.String("submission_id", id.String()),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
		if err != nil {
			uc.forceRuntimeError(ctx, id, language, total, err)
			return
		}
		metrics.JudgeDuration.WithLabelValues(language).Observe(time.Since(start).Seconds())
	}()

	sub, err = uc.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("judge: load submission: %w", err)
	}
	language = string(sub.Language)
	total = sub.TotalTestCases

	set, err := uc.tests.load(ctx, sub.ProblemID, sub.ContestID)
	if err != nil {
		return nil, nil, fmt.Errorf("judge: %w", err)
	}

	eval, err := uc.evaluator.Evaluate(ctx, judge.Request{
		SubmissionID:  sub.ID,
		Language:      sub.Language,
		Code:          sub.Code,
		TestCases:     set.cases,
		TimeLimitMs:   set.timeLimitMs,
		MemoryLimitKB: set.memoryLimitKB,
	})
	if err != nil {
		return nil, nil, err
	}

	maxScore := sub.MaxScore
	if maxScore <= 0 {
		maxScore = set.maxScore
	}
	verdict = uc.buildVerdict(eval, len(set.cases), maxScore)

	if err := uc.submissions.SaveVerdict(context.WithoutCancel(ctx), id, verdict); err != nil {
		return nil, nil, fmt.Errorf("judge: save verdict: %w", err)
	}
	metrics.VerdictsTotal.WithLabelValues(language, string(verdict.Status)).Inc()

	uc.logger.Info("Submission judged",
		zap.String("submission_id", id.String()),
		zap.String("status", string(verdict.Status)),
		zap.Int("passed", verdict.PassedTestCases),
		zap.Int("total", len(set.cases)),
		zap.Int("score", verdict.Score),
		zap.Int64("time_ms", verdict.ExecutionTimeMs),
	)
	return sub, verdict, nil
}

func (uc *JudgeSubmissionUsecase) buildVerdict(eval *judge.Evaluation, total, maxScore int) *domain.Verdict {
	passed := eval.Passed()
	v := &domain.Verdict{
		Status:          DeriveStatus(eval.Results, total),
		PassedTestCases: passed,
		Score:           Score(passed, total, maxScore),
		ExecutionTimeMs: eval.TotalTimeMs(),
		MemoryUsedBytes: eval.PeakMemoryBytes(),
		TestCaseResults: eval.Results,
		EvaluatedAt:     uc.now().UTC(),
	}
	if v.Status == domain.StatusCompilationError {
		v.CompilationOutput = eval.CompilationOutput
	}
	if eval.ConfigurationFault != "" {
		v.JudgeError = "toolchain unavailable: " + eval.ConfigurationFault
	}
	return v
}

// forceRuntimeError writes the fallback verdict. It runs detached from ctx so a
// shutting-down worker still leaves no submission in running.
func (uc *JudgeSubmissionUsecase) forceRuntimeError(ctx context.Context, id uuid.UUID, language string, total int, cause error) {
	verdict := &domain.Verdict{
		Status:          domain.StatusRuntimeError,
		TestCaseResults: erroredResults(total, cause.Error()),
		JudgeError:      cause.Error(),
		EvaluatedAt:     uc.now().UTC(),
	}
	if err := uc.submissions.SaveVerdict(context.WithoutCancel(ctx), id, verdict); err != nil {
		uc.logger.Error("Failed to write fallback verdict",
			zap.String("submission_id", id.String()),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return
	}
	metrics.VerdictsTotal.WithLabelValues(language, string(domain.StatusRuntimeError)).Inc()
	uc.logger.Error("Submission forced to runtime_error",
		zap.String("submission_id", id.String()),
		zap.Error(cause),
	)
}
