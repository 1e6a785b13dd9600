package domain

import (
	"time"

	"github.com/google/uuid"
)

// Problem is a standalone judged problem.
type Problem struct {
	ID                    uuid.UUID  `json:"id"`
	Title                 string     `json:"title"`
	TestCases             []TestCase `json:"test_cases"`
	TimeLimitMs           int        `json:"time_limit_ms"`
	MemoryLimitKB         int        `json:"memory_limit_kb"`
	Visibility            string     `json:"visibility"`
	TotalSubmissions      int        `json:"total_submissions"`
	SuccessfulSubmissions int        `json:"successful_submissions"`
}

// Contest is a timed set of problems.
type Contest struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// IsActive reports whether submissions are accepted at t.
func (c *Contest) IsActive(t time.Time) bool {
	return !t.Before(c.StartTime) && !t.After(c.EndTime)
}

// ContestProblem is a problem as configured inside a contest.
type ContestProblem struct {
	ContestID        uuid.UUID  `json:"contest_id"`
	ProblemID        uuid.UUID  `json:"problem_id"`
	Points           int        `json:"points"`
	AllowedLanguages []Language `json:"allowed_languages,omitempty"`
	TestCases        []TestCase `json:"test_cases"`
	TimeLimitMs      int        `json:"time_limit_ms"`
	MemoryLimitKB    int        `json:"memory_limit_kb"`
}

// AllowsLanguage reports whether lang may be used. An empty allow-list permits all.
func (cp *ContestProblem) AllowsLanguage(lang Language) bool {
	if len(cp.AllowedLanguages) == 0 {
		return true
	}
	for _, l := range cp.AllowedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// ParticipantScore is a participant's best-of-attempts record for one contest problem.
type ParticipantScore struct {
	ContestID     uuid.UUID  `json:"contest_id"`
	UserID        string     `json:"user_id"`
	ProblemID     uuid.UUID  `json:"problem_id"`
	BestScore     int        `json:"best_score"`
	Attempts      int        `json:"attempts"`
	BestAt        *time.Time `json:"best_at,omitempty"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
}
