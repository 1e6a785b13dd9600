package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
	"github.com/Harsh-BH/sentinel-judge/internal/repository"
)

// ---- SubmissionRepository mock ----

var _ repository.SubmissionRepository = (*SubmissionRepository)(nil)

// SubmissionRepository is an in-memory test double for repository.SubmissionRepository.
// Without hooks it behaves like a small store keyed by id.
type SubmissionRepository struct {
	mu    sync.Mutex
	store map[uuid.UUID]*domain.Submission

	CreateFn       func(ctx context.Context, sub *domain.Submission) error
	GetByIDFn      func(ctx context.Context, id uuid.UUID) (*domain.Submission, error)
	MarkRunningFn  func(ctx context.Context, id uuid.UUID) (bool, error)
	SaveVerdictFn  func(ctx context.Context, id uuid.UUID, v *domain.Verdict) error
	ListByStatusFn func(ctx context.Context, status domain.SubmissionStatus, limit int) ([]*domain.Submission, error)

	// Recorded calls for assertions.
	Created  []*domain.Submission
	Running  []uuid.UUID
	Verdicts []VerdictUpdate
}

type VerdictUpdate struct {
	ID      uuid.UUID
	Verdict *domain.Verdict
}

// Put seeds the store.
func (m *SubmissionRepository) Put(sub *domain.Submission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		m.store = make(map[uuid.UUID]*domain.Submission)
	}
	cp := *sub
	m.store[sub.ID] = &cp
}

func (m *SubmissionRepository) Create(ctx context.Context, sub *domain.Submission) error {
	if m.CreateFn != nil {
		if err := m.CreateFn(ctx, sub); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Created = append(m.Created, sub)
	m.mu.Unlock()
	m.Put(sub)
	return nil
}

func (m *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Submission, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.store[id]
	if !ok {
		return nil, domain.ErrSubmissionNotFound
	}
	cp := *sub
	return &cp, nil
}

func (m *SubmissionRepository) MarkRunning(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	m.Running = append(m.Running, id)
	m.mu.Unlock()
	if m.MarkRunningFn != nil {
		return m.MarkRunningFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.store[id]
	if !ok {
		return false, domain.ErrSubmissionNotFound
	}
	if sub.Status != domain.StatusPending {
		return false, nil
	}
	sub.Status = domain.StatusRunning
	sub.UpdatedAt = time.Now()
	return true, nil
}

func (m *SubmissionRepository) SaveVerdict(ctx context.Context, id uuid.UUID, v *domain.Verdict) error {
	m.mu.Lock()
	m.Verdicts = append(m.Verdicts, VerdictUpdate{ID: id, Verdict: v})
	m.mu.Unlock()
	if m.SaveVerdictFn != nil {
		return m.SaveVerdictFn(ctx, id, v)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.store[id]; ok {
		evaluated := v.EvaluatedAt
		sub.Status = v.Status
		sub.PassedTestCases = v.PassedTestCases
		sub.Score = v.Score
		sub.ExecutionTimeMs = v.ExecutionTimeMs
		sub.MemoryUsedBytes = v.MemoryUsedBytes
		sub.TestCaseResults = v.TestCaseResults
		sub.CompilationOutput = v.CompilationOutput
		sub.JudgeError = v.JudgeError
		sub.EvaluatedAt = &evaluated
		sub.UpdatedAt = evaluated
	}
	return nil
}

func (m *SubmissionRepository) ListByStatus(ctx context.Context, status domain.SubmissionStatus, limit int) ([]*domain.Submission, error) {
	if m.ListByStatusFn != nil {
		return m.ListByStatusFn(ctx, status, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Submission
	for _, sub := range m.store {
		if sub.Status == status && len(out) < limit {
			cp := *sub
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Status returns the stored status of a submission.
func (m *SubmissionRepository) Status(id uuid.UUID) domain.SubmissionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.store[id]; ok {
		return sub.Status
	}
	return ""
}

// VerdictCount returns how many verdicts were recorded.
func (m *SubmissionRepository) VerdictCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Verdicts)
}

// ---- ProblemRepository mock ----

var _ repository.ProblemRepository = (*ProblemRepository)(nil)

// ProblemRepository is a test double for repository.ProblemRepository.
type ProblemRepository struct {
	mu sync.Mutex

	Problems map[uuid.UUID]*domain.Problem

	GetByIDFn        func(ctx context.Context, id uuid.UUID) (*domain.Problem, error)
	IncrementStatsFn func(ctx context.Context, id uuid.UUID, solved bool) error

	StatsCalls []StatsCall
}

type StatsCall struct {
	ContestID uuid.UUID
	ProblemID uuid.UUID
	Solved    bool
}

func (m *ProblemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Problem, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Problems[id]
	if !ok {
		return nil, domain.ErrProblemNotFound
	}
	return p, nil
}

func (m *ProblemRepository) IncrementStats(ctx context.Context, id uuid.UUID, solved bool) error {
	m.mu.Lock()
	m.StatsCalls = append(m.StatsCalls, StatsCall{ProblemID: id, Solved: solved})
	m.mu.Unlock()
	if m.IncrementStatsFn != nil {
		return m.IncrementStatsFn(ctx, id, solved)
	}
	return nil
}

// ---- ContestRepository mock ----

var _ repository.ContestRepository = (*ContestRepository)(nil)

// ContestRepository is a test double for repository.ContestRepository.
type ContestRepository struct {
	mu sync.Mutex

	Contests    map[uuid.UUID]*domain.Contest
	Problems    map[uuid.UUID]*domain.ContestProblem // keyed by problem id
	Registered  map[string]bool                      // keyed by user id
	Scores      map[string]*domain.ParticipantScore  // keyed by user id + problem id
	TotalScores map[string]int                       // keyed by user id

	GetParticipantScoreFn  func(ctx context.Context, contestID uuid.UUID, userID string, problemID uuid.UUID) (*domain.ParticipantScore, error)
	SaveParticipantScoreFn func(ctx context.Context, score *domain.ParticipantScore, delta int) error
	IncrementStatsFn       func(ctx context.Context, contestID, problemID uuid.UUID, solved bool) error

	StatsCalls []StatsCall
	ScoreSaves int
}

func scoreKey(userID string, problemID uuid.UUID) string {
	return userID + "/" + problemID.String()
}

func (m *ContestRepository) GetContest(ctx context.Context, id uuid.UUID) (*domain.Contest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Contests[id]
	if !ok {
		return nil, domain.ErrContestNotFound
	}
	return c, nil
}

func (m *ContestRepository) GetContestProblem(ctx context.Context, contestID, problemID uuid.UUID) (*domain.ContestProblem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, ok := m.Problems[problemID]
	if !ok || cp.ContestID != contestID {
		return nil, domain.ErrContestNotFound
	}
	return cp, nil
}

func (m *ContestRepository) IsRegistered(ctx context.Context, contestID uuid.UUID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Registered[userID], nil
}

func (m *ContestRepository) IncrementProblemStats(ctx context.Context, contestID, problemID uuid.UUID, solved bool) error {
	m.mu.Lock()
	m.StatsCalls = append(m.StatsCalls, StatsCall{ContestID: contestID, ProblemID: problemID, Solved: solved})
	m.mu.Unlock()
	if m.IncrementStatsFn != nil {
		return m.IncrementStatsFn(ctx, contestID, problemID, solved)
	}
	return nil
}

func (m *ContestRepository) GetParticipantScore(ctx context.Context, contestID uuid.UUID, userID string, problemID uuid.UUID) (*domain.ParticipantScore, error) {
	if m.GetParticipantScoreFn != nil {
		return m.GetParticipantScoreFn(ctx, contestID, userID, problemID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Scores[scoreKey(userID, problemID)]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *ContestRepository) SaveParticipantScore(ctx context.Context, score *domain.ParticipantScore, delta int) error {
	if m.SaveParticipantScoreFn != nil {
		return m.SaveParticipantScoreFn(ctx, score, delta)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Scores == nil {
		m.Scores = make(map[string]*domain.ParticipantScore)
	}
	if m.TotalScores == nil {
		m.TotalScores = make(map[string]int)
	}
	cp := *score
	m.Scores[scoreKey(score.UserID, score.ProblemID)] = &cp
	m.TotalScores[score.UserID] += delta
	m.ScoreSaves++
	return nil
}

// ---- IdempotencyStore mock ----

var _ repository.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore is a test double for repository.IdempotencyStore.
type IdempotencyStore struct {
	mu sync.Mutex

	AcquireLockFn func(ctx context.Context, id uuid.UUID) (bool, error)
	ReleaseLockFn func(ctx context.Context, id uuid.UUID) error

	AcquireCalls []uuid.UUID
	ReleaseCalls []uuid.UUID
	DeleteCalls  []uuid.UUID
}

func (m *IdempotencyStore) AcquireLock(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	m.AcquireCalls = append(m.AcquireCalls, id)
	m.mu.Unlock()
	if m.AcquireLockFn != nil {
		return m.AcquireLockFn(ctx, id)
	}
	return true, nil // default: lock acquired
}

func (m *IdempotencyStore) ReleaseLock(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	m.ReleaseCalls = append(m.ReleaseCalls, id)
	m.mu.Unlock()
	if m.ReleaseLockFn != nil {
		return m.ReleaseLockFn(ctx, id)
	}
	return nil
}

func (m *IdempotencyStore) DeleteLock(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	m.DeleteCalls = append(m.DeleteCalls, id)
	m.mu.Unlock()
	return nil
}
