package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
	"github.com/Harsh-BH/sentinel-judge/internal/judge"
	"github.com/Harsh-BH/sentinel-judge/internal/repository/mock"
	"github.com/Harsh-BH/sentinel-judge/internal/toolchain"
)

// fakeToolchains resolves a fixed language set; languages in missing resolve but are unavailable.
type fakeToolchains struct {
	known   map[string]bool
	missing map[string]bool
}

func newFakeToolchains(langs ...string) *fakeToolchains {
	ft := &fakeToolchains{known: map[string]bool{}, missing: map[string]bool{}}
	for _, l := range langs {
		ft.known[l] = true
	}
	return ft
}

func (f *fakeToolchains) Resolve(id string) (toolchain.Spec, error) {
	if !f.known[id] {
		return toolchain.Spec{}, toolchain.ErrUnknownLanguage
	}
	return toolchain.Spec{ID: id, SourceExtension: "." + id, RunCmd: id + " {src}"}, nil
}

func (f *fakeToolchains) Available(id string) bool {
	return f.known[id] && !f.missing[id]
}

// fakeEvaluator returns canned evaluations and records requests.
type fakeEvaluator struct {
	mu         sync.Mutex
	EvaluateFn func(ctx context.Context, req judge.Request) (*judge.Evaluation, error)
	Requests   []judge.Request
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, req judge.Request) (*judge.Evaluation, error) {
	f.mu.Lock()
	f.Requests = append(f.Requests, req)
	f.mu.Unlock()
	if f.EvaluateFn != nil {
		return f.EvaluateFn(ctx, req)
	}
	return allPassed(req), nil
}

func allPassed(req judge.Request) *judge.Evaluation {
	eval := &judge.Evaluation{}
	for i, tc := range req.TestCases {
		eval.Results = append(eval.Results, domain.TestCaseResult{
			Index:           i,
			Input:           tc.Input,
			ExpectedOutput:  tc.ExpectedOutput,
			ActualOutput:    tc.ExpectedOutput,
			Status:          domain.CasePassed,
			ExecutionTimeMs: 10,
		})
	}
	return eval
}

func withStatuses(req judge.Request, statuses ...domain.TestCaseResult) *judge.Evaluation {
	eval := &judge.Evaluation{}
	for i := range req.TestCases {
		r := statuses[i%len(statuses)]
		r.Index = i
		eval.Results = append(eval.Results, r)
	}
	return eval
}

func testCases(n int) []domain.TestCase {
	out := make([]domain.TestCase, n)
	for i := range out {
		out[i] = domain.TestCase{Input: "in", ExpectedOutput: "out", Hidden: i%2 == 1}
	}
	return out
}

type fixture struct {
	submissions *mock.SubmissionRepository
	problems    *mock.ProblemRepository
	contests    *mock.ContestRepository
	idempotent  *mock.IdempotencyStore

	problem        *domain.Problem
	contest        *domain.Contest
	contestProblem *domain.ContestProblem
}

func newFixture() *fixture {
	problem := &domain.Problem{ID: uuid.New(), Title: "A + B", TestCases: testCases(3), TimeLimitMs: 1000}
	contest := &domain.Contest{
		ID:        uuid.New(),
		StartTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
	}
	cp := &domain.ContestProblem{
		ContestID:        contest.ID,
		ProblemID:        problem.ID,
		Points:           250,
		AllowedLanguages: []domain.Language{"python", "cpp"},
		TestCases:        testCases(4),
		TimeLimitMs:      2000,
		MemoryLimitKB:    65536,
	}

	return &fixture{
		submissions: &mock.SubmissionRepository{},
		problems:    &mock.ProblemRepository{Problems: map[uuid.UUID]*domain.Problem{problem.ID: problem}},
		contests: &mock.ContestRepository{
			Contests:   map[uuid.UUID]*domain.Contest{contest.ID: contest},
			Problems:   map[uuid.UUID]*domain.ContestProblem{problem.ID: cp},
			Registered: map[string]bool{"alice": true},
		},
		idempotent:     &mock.IdempotencyStore{},
		problem:        problem,
		contest:        contest,
		contestProblem: cp,
	}
}

// seed stores a pending submission for the fixture problem.
func (f *fixture) seed(contest bool) *domain.Submission {
	sub := &domain.Submission{
		ID:             uuid.New(),
		UserID:         "alice",
		ProblemID:      f.problem.ID,
		Code:           "print(input())",
		Language:       "python",
		Status:         domain.StatusPending,
		TotalTestCases: len(f.problem.TestCases),
		MaxScore:       100,
		SubmittedAt:    time.Now(),
	}
	if contest {
		id := f.contest.ID
		sub.ContestID = &id
		sub.TotalTestCases = len(f.contestProblem.TestCases)
		sub.MaxScore = f.contestProblem.Points
	}
	f.submissions.Put(sub)
	return sub
}
