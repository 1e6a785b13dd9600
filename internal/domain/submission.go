package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus represents the lifecycle state of a judged submission.
type SubmissionStatus string

const (
	StatusPending             SubmissionStatus = "pending"
	StatusRunning             SubmissionStatus = "running"
	StatusAccepted            SubmissionStatus = "accepted"
	StatusWrongAnswer         SubmissionStatus = "wrong_answer"
	StatusCompilationError    SubmissionStatus = "compilation_error"
	StatusRuntimeError        SubmissionStatus = "runtime_error"
	StatusTimeLimitExceeded   SubmissionStatus = "time_limit_exceeded"
	StatusMemoryLimitExceeded SubmissionStatus = "memory_limit_exceeded"
)

// IsTerminal returns true if the status represents a final verdict.
func (s SubmissionStatus) IsTerminal() bool {
	switch s {
	case StatusAccepted, StatusWrongAnswer, StatusCompilationError, StatusRuntimeError,
		StatusTimeLimitExceeded, StatusMemoryLimitExceeded:
		return true
	}
	return false
}

// Language is a toolchain identifier such as "python" or "cpp".
type Language string

// TestCase is one input/expected-output pair of a problem.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	Hidden         bool   `json:"hidden,omitempty"`
}

// TestCaseStatus is the per-case verdict.
type TestCaseStatus string

const (
	CasePassed  TestCaseStatus = "passed"
	CaseFailed  TestCaseStatus = "failed"
	CaseError   TestCaseStatus = "error"
	CaseTimeout TestCaseStatus = "timeout"
)

// ErrorType qualifies a CaseError or CaseTimeout result.
type ErrorType string

const (
	ErrorTypeNone          ErrorType = ""
	ErrorTypeCompilation   ErrorType = "compilation"
	ErrorTypeRuntime       ErrorType = "runtime"
	ErrorTypeTimeout       ErrorType = "timeout"
	ErrorTypeOutputLimit   ErrorType = "output_limit"
	ErrorTypeMemory        ErrorType = "memory"
	ErrorTypeConfiguration ErrorType = "configuration"
)

// TestCaseResult is the outcome of running one test case.
type TestCaseResult struct {
	Index           int            `json:"index"`
	Input           string         `json:"input"`
	ExpectedOutput  string         `json:"expected_output"`
	ActualOutput    string         `json:"actual_output"`
	Status          TestCaseStatus `json:"status"`
	ErrorType       ErrorType      `json:"error_type,omitempty"`
	ExecutionTimeMs int64          `json:"execution_time_ms"`
	MemoryUsedBytes int64          `json:"memory_used_bytes"`
	ErrorMessage    string         `json:"error_message,omitempty"`
}

// Submission is a user's code judged against a problem's test cases.
type Submission struct {
	ID                uuid.UUID        `json:"id"`
	UserID            string           `json:"user_id"`
	ProblemID         uuid.UUID        `json:"problem_id"`
	ContestID         *uuid.UUID       `json:"contest_id,omitempty"`
	Code              string           `json:"code"`
	Language          Language         `json:"language"`
	Status            SubmissionStatus `json:"status"`
	TotalTestCases    int              `json:"total_test_cases"`
	PassedTestCases   int              `json:"passed_test_cases"`
	Score             int              `json:"score"`
	MaxScore          int              `json:"max_score"`
	ExecutionTimeMs   int64            `json:"execution_time_ms"`
	MemoryUsedBytes   int64            `json:"memory_used_bytes"`
	TestCaseResults   []TestCaseResult `json:"test_case_results"`
	CompilationOutput string           `json:"compilation_output,omitempty"`
	JudgeError        string           `json:"judge_error,omitempty"`
	SubmittedAt       time.Time        `json:"submitted_at"`
	EvaluatedAt       *time.Time       `json:"evaluated_at,omitempty"`
	// UpdatedAt is the last state change; for a running submission, when it was claimed.
	UpdatedAt time.Time `json:"updated_at"`
}

// Verdict is the terminal state written back for a submission.
type Verdict struct {
	Status            SubmissionStatus
	PassedTestCases   int
	Score             int
	ExecutionTimeMs   int64
	MemoryUsedBytes   int64
	TestCaseResults   []TestCaseResult
	CompilationOutput string
	JudgeError        string
	EvaluatedAt       time.Time
}

// SubmitRequest represents an incoming submission from the API.
type SubmitRequest struct {
	UserID    string     `json:"user_id" binding:"required"`
	ProblemID uuid.UUID  `json:"problem_id" binding:"required"`
	ContestID *uuid.UUID `json:"contest_id,omitempty"`
	Language  Language   `json:"language" binding:"required"`
	Code      string     `json:"code" binding:"required"`
}

// SubmitResponse is the acknowledgement returned before judging starts.
type SubmitResponse struct {
	SubmissionID   uuid.UUID        `json:"submission_id"`
	Status         SubmissionStatus `json:"status"`
	TotalTestCases int              `json:"total_test_cases"`
}
