package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
)

// SubmissionRepository persists submissions and their verdicts.
// Implementations must be safe for concurrent use.
type SubmissionRepository interface {
	// Create inserts a new submission in the pending state.
	Create(ctx context.Context, sub *domain.Submission) error

	// GetByID retrieves a submission by its UUID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error)

	// MarkRunning moves a pending submission to running. It returns false when the
	// submission was not pending, e.g. because it was already judged.
	MarkRunning(ctx context.Context, id uuid.UUID) (bool, error)

	// SaveVerdict writes the terminal status and results.
	SaveVerdict(ctx context.Context, id uuid.UUID, verdict *domain.Verdict) error

	// ListByStatus returns up to limit submissions in the given status, oldest first.
	ListByStatus(ctx context.Context, status domain.SubmissionStatus, limit int) ([]*domain.Submission, error)
}

// ProblemRepository reads standalone problems and maintains their counters.
type ProblemRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Problem, error)

	// IncrementStats bumps the submission counter, and the solved counter when solved is set.
	IncrementStats(ctx context.Context, id uuid.UUID, solved bool) error
}

// ContestRepository reads contest configuration and maintains contest aggregates.
type ContestRepository interface {
	GetContest(ctx context.Context, id uuid.UUID) (*domain.Contest, error)
	GetContestProblem(ctx context.Context, contestID, problemID uuid.UUID) (*domain.ContestProblem, error)
	IsRegistered(ctx context.Context, contestID uuid.UUID, userID string) (bool, error)

	// IncrementProblemStats bumps the contest-level attempt and solve counters for a problem.
	IncrementProblemStats(ctx context.Context, contestID, problemID uuid.UUID, solved bool) error

	// GetParticipantScore returns nil without error when the participant has no record yet.
	GetParticipantScore(ctx context.Context, contestID uuid.UUID, userID string, problemID uuid.UUID) (*domain.ParticipantScore, error)

	// SaveParticipantScore upserts the per-problem record and adds delta to the
	// participant's contest total.
	SaveParticipantScore(ctx context.Context, score *domain.ParticipantScore, delta int) error
}

// IdempotencyStore defines the interface for distributed deduplication locks.
type IdempotencyStore interface {
	// AcquireLock attempts to acquire an exclusive processing lock for a submission.
	// Returns true if the lock was acquired (first time), false if already locked (duplicate).
	AcquireLock(ctx context.Context, submissionID uuid.UUID) (bool, error)

	// ReleaseLock sets a TTL on the lock so it expires eventually.
	ReleaseLock(ctx context.Context, submissionID uuid.UUID) error

	// DeleteLock drops the lock immediately so the job can be picked up again. Used
	// when a worker gives up before claiming the submission.
	DeleteLock(ctx context.Context, submissionID uuid.UUID) error
}
