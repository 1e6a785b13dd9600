package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
	"github.com/Harsh-BH/sentinel-judge/internal/publisher"
	"github.com/Harsh-BH/sentinel-judge/internal/repository"
	"github.com/Harsh-BH/sentinel-judge/internal/toolchain"
)

const maxSourceCodeSize = 1 << 20 // 1 MB

// Toolchains is the part of the toolchain registry the usecases depend on.
type Toolchains interface {
	Resolve(id string) (toolchain.Spec, error)
	Available(id string) bool
}

// SubmitSubmissionUsecase validates a submission, stores it as pending and dispatches
// it for judging without waiting for a verdict.
type SubmitSubmissionUsecase struct {
	submissions repository.SubmissionRepository
	contests    repository.ContestRepository
	tests       *testSetLoader
	toolchains  Toolchains
	publisher   publisher.Publisher
	logger      *zap.Logger
	now         func() time.Time
}

// NewSubmitSubmissionUsecase creates a new SubmitSubmissionUsecase. maxScore applies to
// standalone problems; contest problems use their configured points.
func NewSubmitSubmissionUsecase(
	submissions repository.SubmissionRepository,
	problems repository.ProblemRepository,
	contests repository.ContestRepository,
	toolchains Toolchains,
	pub publisher.Publisher,
	maxScore int,
	logger *zap.Logger,
) *SubmitSubmissionUsecase {
	return &SubmitSubmissionUsecase{
		submissions: submissions,
		contests:    contests,
		tests:       &testSetLoader{problems: problems, contests: contests, maxScore: maxScore},
		toolchains:  toolchains,
		publisher:   pub,
		logger:      logger,
		now:         time.Now,
	}
}

// Execute validates the request, creates the submission and publishes the judge job.
func (uc *SubmitSubmissionUsecase) Execute(ctx context.Context, req *domain.SubmitRequest) (*domain.SubmitResponse, error) {
	if err := validateSubmitRequest(req); err != nil {
		return nil, err
	}

	if _, err := uc.toolchains.Resolve(string(req.Language)); err != nil {
		return nil, domain.ErrInvalidLanguage
	}
	if !uc.toolchains.Available(string(req.Language)) {
		return nil, domain.ErrToolchainUnavailable
	}

	if req.ContestID != nil {
		if err := uc.checkContest(ctx, req); err != nil {
			return nil, err
		}
	}

	set, err := uc.tests.load(ctx, req.ProblemID, req.ContestID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProblemNotFound):
			return nil, domain.ErrProblemNotFound
		case errors.Is(err, domain.ErrContestNotFound):
			return nil, domain.ErrContestNotFound
		}
		return nil, fmt.Errorf("submit: %w", err)
	}
	if !set.allows(req.Language) {
		return nil, domain.ErrLanguageNotAllowed
	}
	if len(set.cases) == 0 {
		return nil, domain.ErrNoTestCases
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate UUIDv7: %w", err)
	}

	sub := &domain.Submission{
		ID:             id,
		UserID:         req.UserID,
		ProblemID:      req.ProblemID,
		ContestID:      req.ContestID,
		Code:           req.Code,
		Language:       req.Language,
		Status:         domain.StatusPending,
		TotalTestCases: len(set.cases),
		MaxScore:       set.maxScore,
		SubmittedAt:    uc.now().UTC(),
	}

	if err := uc.submissions.Create(ctx, sub); err != nil {
		uc.logger.Error("Failed to create submission", zap.Error(err), zap.String("submission_id", id.String()))
		return nil, fmt.Errorf("create submission: %w", err)
	}

	if err := uc.publisher.Publish(ctx, &domain.JudgeJob{SubmissionID: id}); err != nil {
		uc.logger.Error("Failed to dispatch submission", zap.Error(err), zap.String("submission_id", id.String()))
		// The job will never be judged, so close it out instead of leaving it pending.
		judgeErr := "dispatch failed: " + err.Error()
		verdict := &domain.Verdict{
			Status:          domain.StatusRuntimeError,
			TestCaseResults: erroredResults(len(set.cases), judgeErr),
			JudgeError:      judgeErr,
			EvaluatedAt:     uc.now().UTC(),
		}
		if saveErr := uc.submissions.SaveVerdict(context.WithoutCancel(ctx), id, verdict); saveErr != nil {
			uc.logger.Error("Failed to close out undispatched submission", zap.Error(saveErr), zap.String("submission_id", id.String()))
		}
		return nil, domain.ErrPublishFailed
	}

	uc.logger.Info("Submission accepted",
		zap.String("submission_id", id.String()),
		zap.String("user_id", req.UserID),
		zap.String("problem_id", req.ProblemID.String()),
		zap.String("language", string(req.Language)),
		zap.Int("test_cases", len(set.cases)),
	)

	return &domain.SubmitResponse{
		SubmissionID:   id,
		Status:         domain.StatusPending,
		TotalTestCases: len(set.cases),
	}, nil
}

func (uc *SubmitSubmissionUsecase) checkContest(ctx context.Context, req *domain.SubmitRequest) error {
	contest, err := uc.contests.GetContest(ctx, *req.ContestID)
	if err != nil {
		if errors.Is(err, domain.ErrContestNotFound) {
			return domain.ErrContestNotFound
		}
		return fmt.Errorf("submit: load contest: %w", err)
	}
	if !contest.IsActive(uc.now()) {
		return domain.ErrContestNotActive
	}

	registered, err := uc.contests.IsRegistered(ctx, contest.ID, req.UserID)
	if err != nil {
		return fmt.Errorf("submit: check registration: %w", err)
	}
	if !registered {
		return domain.ErrNotRegistered
	}
	return nil
}

func validateSubmitRequest(req *domain.SubmitRequest) error {
	switch {
	case strings.TrimSpace(req.UserID) == "":
		return fmt.Errorf("%w: user_id", domain.ErrMissingField)
	case req.ProblemID == uuid.Nil:
		return fmt.Errorf("%w: problem_id", domain.ErrMissingField)
	case req.Language == "":
		return fmt.Errorf("%w: language", domain.ErrMissingField)
	case strings.TrimSpace(req.Code) == "":
		return domain.ErrEmptySourceCode
	case len(req.Code) > maxSourceCodeSize:
		return domain.ErrPayloadTooLarge
	}
	return nil
}
