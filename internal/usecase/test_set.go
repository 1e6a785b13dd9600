package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
	"github.com/Harsh-BH/sentinel-judge/internal/repository"
)

// DefaultMaxScore is the score of a fully accepted standalone problem.
const DefaultMaxScore = 100

// testSet is everything needed to judge a submission against a problem.
type testSet struct {
	cases            []domain.TestCase
	timeLimitMs      int
	memoryLimitKB    int
	maxScore         int
	allowedLanguages []domain.Language
}

// testSetLoader resolves the applicable test set for a standalone or contest problem.
// Hidden cases are always included.
type testSetLoader struct {
	problems repository.ProblemRepository
	contests repository.ContestRepository
	maxScore int
}

func (l *testSetLoader) load(ctx context.Context, problemID uuid.UUID, contestID *uuid.UUID) (*testSet, error) {
	if contestID != nil {
		cp, err := l.contests.GetContestProblem(ctx, *contestID, problemID)
		if err != nil {
			return nil, fmt.Errorf("load contest problem: %w", err)
		}
		return &testSet{
			cases:            cp.TestCases,
			timeLimitMs:      cp.TimeLimitMs,
			memoryLimitKB:    cp.MemoryLimitKB,
			maxScore:         cp.Points,
			allowedLanguages: cp.AllowedLanguages,
		}, nil
	}

	p, err := l.problems.GetByID(ctx, problemID)
	if err != nil {
		return nil, fmt.Errorf("load problem: %w", err)
	}
	maxScore := l.maxScore
	if maxScore <= 0 {
		maxScore = DefaultMaxScore
	}
	return &testSet{
		cases:         p.TestCases,
		timeLimitMs:   p.TimeLimitMs,
		memoryLimitKB: p.MemoryLimitKB,
		maxScore:      maxScore,
	}, nil
}

// allows applies the contest allow-list. Standalone problems accept every language.
func (s *testSet) allows(lang domain.Language) bool {
	cp := domain.ContestProblem{AllowedLanguages: s.allowedLanguages}
	return cp.AllowsLanguage(lang)
}
