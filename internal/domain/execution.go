package domain

import "github.com/google/uuid"

// OutcomeKind classifies a single compile or run process invocation.
type OutcomeKind string

const (
	KindSuccess      OutcomeKind = "success"
	KindCompileError OutcomeKind = "compile_error"
	KindRuntimeError OutcomeKind = "runtime_error"
	KindTimeout      OutcomeKind = "timeout"
)

// Fault names the failure class behind a non-success outcome.
type Fault string

const (
	FaultNone          Fault = ""
	FaultConfiguration Fault = "configuration"
	FaultCompile       Fault = "compile"
	FaultRuntime       Fault = "runtime"
	FaultTimeout       Fault = "timeout"
	FaultOutputLimit   Fault = "output_limit"
)

// ExecutionOutcome is the raw result of one process invocation.
type ExecutionOutcome struct {
	Kind          OutcomeKind `json:"kind"`
	Fault         Fault       `json:"fault,omitempty"`
	Stdout        string      `json:"stdout"`
	Stderr        string      `json:"stderr"`
	ExitCode      int         `json:"exit_code"`
	ElapsedMillis int64       `json:"elapsed_ms"`
	MemoryBytes   int64       `json:"memory_bytes"`
}

// JudgeJob is the message handed from the submit path to the judging workers.
type JudgeJob struct {
	SubmissionID uuid.UUID `json:"submission_id"`
}

// JobMessage wraps a JudgeJob with transport acknowledgement callbacks.
type JobMessage struct {
	Job  *JudgeJob
	Ack  func() error
	Nack func(requeue bool) error
}

// CompileRunRequest is an ad-hoc "run my code" request outside formal judging.
type CompileRunRequest struct {
	Language Language `json:"language" binding:"required"`
	Code     string   `json:"code" binding:"required"`
	Stdin    string   `json:"stdin"`
}

// CompileRunResponse reports what the program printed.
type CompileRunResponse struct {
	Status    OutcomeKind `json:"status"`
	Stdout    string      `json:"stdout"`
	Stderr    string      `json:"stderr"`
	ElapsedMs int64       `json:"elapsed_ms"`
}

// LanguageInfo describes a supported language.
type LanguageInfo struct {
	Name      Language `json:"name"`
	Display   string   `json:"display"`
	Version   string   `json:"version"`
	Compiler  string   `json:"compiler,omitempty"`
	Available bool     `json:"available"`
}
