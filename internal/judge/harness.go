package judge

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
	"github.com/Harsh-BH/sentinel-judge/internal/executor"
	"github.com/Harsh-BH/sentinel-judge/internal/toolchain"
	"github.com/Harsh-BH/sentinel-judge/internal/workspace"
)

// maxMessageBytes bounds the diagnostic text stored per test case.
const maxMessageBytes = 4096

// Resolver looks up a toolchain by language id.
type Resolver interface {
	Resolve(id string) (toolchain.Spec, error)
}

// Runner prepares a workspace and drives compile and run steps inside it.
type Runner interface {
	Prepare(spec toolchain.Spec, source string) (*workspace.Workspace, error)
	Cleanup(ws *workspace.Workspace)
	Compile(ctx context.Context, ws *workspace.Workspace, spec toolchain.Spec) domain.ExecutionOutcome
	Run(ctx context.Context, ws *workspace.Workspace, spec toolchain.Spec, stdin string, budget time.Duration) domain.ExecutionOutcome
}

var _ Runner = (*executor.ProcessExecutor)(nil)

// Request is one submission to be judged.
type Request struct {
	SubmissionID  uuid.UUID
	Language      domain.Language
	Code          string
	TestCases     []domain.TestCase
	TimeLimitMs   int
	MemoryLimitKB int
}

// Evaluation is the harness output for one submission.
type Evaluation struct {
	Results []domain.TestCaseResult

	// CompileFailed is set when the compile step rejected the source.
	CompileFailed     bool
	CompilationOutput string

	// ConfigurationFault carries the detail when a toolchain binary was missing.
	ConfigurationFault string
}

// Passed counts the cases that passed.
func (e *Evaluation) Passed() int {
	n := 0
	for _, r := range e.Results {
		if r.Status == domain.CasePassed {
			n++
		}
	}
	return n
}

// TotalTimeMs sums the per-case execution times.
func (e *Evaluation) TotalTimeMs() int64 {
	var total int64
	for _, r := range e.Results {
		total += r.ExecutionTimeMs
	}
	return total
}

// PeakMemoryBytes is the largest per-case memory reading.
func (e *Evaluation) PeakMemoryBytes() int64 {
	var peak int64
	for _, r := range e.Results {
		if r.MemoryUsedBytes > peak {
			peak = r.MemoryUsedBytes
		}
	}
	return peak
}

// Harness runs a submission against its ordered test cases in a single workspace.
type Harness struct {
	resolver Resolver
	runner   Runner
	logger   *zap.Logger
}

// NewHarness creates a new Harness.
func NewHarness(resolver Resolver, runner Runner, logger *zap.Logger) *Harness {
	return &Harness{resolver: resolver, runner: runner, logger: logger}
}

// Evaluate compiles the submission once and runs every test case sequentially.
// The result slice always has one entry per test case. An error is returned only
// when no workspace could be set up.
func (h *Harness) Evaluate(ctx context.Context, req Request) (*Evaluation, error) {
	spec, err := h.resolver.Resolve(string(req.Language))
	if err != nil {
		return nil, fmt.Errorf("judge: resolve %q: %w", req.Language, err)
	}

	ws, err := h.runner.Prepare(spec, req.Code)
	if err != nil {
		return nil, fmt.Errorf("judge: prepare workspace: %w", err)
	}
	defer h.runner.Cleanup(ws)

	log := h.logger.With(
		zap.String("submission_id", req.SubmissionID.String()),
		zap.String("language", spec.ID),
		zap.String("workspace", ws.ID),
	)

	eval := &Evaluation{Results: make([]domain.TestCaseResult, len(req.TestCases))}

	compiled := h.runner.Compile(ctx, ws, spec)
	if compiled.Kind != domain.KindSuccess {
		h.failAll(eval, req.TestCases, compiled)
		log.Info("Compile step failed",
			zap.String("fault", string(compiled.Fault)),
			zap.Int("test_cases", len(req.TestCases)),
		)
		return eval, nil
	}

	budget := time.Duration(req.TimeLimitMs) * time.Millisecond
	for i, tc := range req.TestCases {
		out := h.runner.Run(ctx, ws, spec, tc.Input, budget)
		eval.Results[i] = classify(i, tc, out, req)
		if out.Fault == domain.FaultConfiguration && eval.ConfigurationFault == "" {
			eval.ConfigurationFault = out.Stderr
		}
	}

	log.Debug("Evaluation finished",
		zap.Int("passed", eval.Passed()),
		zap.Int("total", len(req.TestCases)),
		zap.Int64("time_ms", eval.TotalTimeMs()),
	)
	return eval, nil
}

// failAll marks every case as an error without running it. A missing compiler is a
// configuration fault rather than a compilation error.
func (h *Harness) failAll(eval *Evaluation, cases []domain.TestCase, compiled domain.ExecutionOutcome) {
	errType := domain.ErrorTypeCompilation
	message := "compilation failed"
	if compiled.Fault == domain.FaultConfiguration {
		errType = domain.ErrorTypeConfiguration
		message = compiled.Stderr
		eval.ConfigurationFault = compiled.Stderr
	} else {
		eval.CompileFailed = true
		eval.CompilationOutput = compiled.Stderr
	}

	for i, tc := range cases {
		eval.Results[i] = domain.TestCaseResult{
			Index:          i,
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			Status:         domain.CaseError,
			ErrorType:      errType,
			ErrorMessage:   message,
		}
	}
}

func classify(index int, tc domain.TestCase, out domain.ExecutionOutcome, req Request) domain.TestCaseResult {
	res := domain.TestCaseResult{
		Index:           index,
		Input:           tc.Input,
		ExpectedOutput:  tc.ExpectedOutput,
		ActualOutput:    out.Stdout,
		ExecutionTimeMs: out.ElapsedMillis,
		MemoryUsedBytes: out.MemoryBytes,
	}

	switch out.Kind {
	case domain.KindSuccess:
		if executor.Matches(out.Stdout, tc.ExpectedOutput) {
			res.Status = domain.CasePassed
		} else {
			res.Status = domain.CaseFailed
		}
	case domain.KindTimeout:
		res.Status = domain.CaseTimeout
		res.ErrorType = domain.ErrorTypeTimeout
		res.ErrorMessage = fmt.Sprintf("time limit exceeded after %d ms", out.ElapsedMillis)
	default:
		res.Status = domain.CaseError
		res.ErrorType = errorTypeFor(out.Fault)
		res.ErrorMessage = truncate(describe(out))
	}

	if exceedsMemory(out.MemoryBytes, req.MemoryLimitKB) && res.Status != domain.CaseTimeout {
		res.Status = domain.CaseError
		res.ErrorType = domain.ErrorTypeMemory
		res.ErrorMessage = fmt.Sprintf("memory limit exceeded: used %d KB, limit %d KB", out.MemoryBytes/1024, req.MemoryLimitKB)
	}
	return res
}

func errorTypeFor(f domain.Fault) domain.ErrorType {
	switch f {
	case domain.FaultOutputLimit:
		return domain.ErrorTypeOutputLimit
	case domain.FaultConfiguration:
		return domain.ErrorTypeConfiguration
	default:
		return domain.ErrorTypeRuntime
	}
}

func describe(out domain.ExecutionOutcome) string {
	if msg := strings.TrimSpace(out.Stderr); msg != "" {
		return msg
	}
	return fmt.Sprintf("process exited with code %d", out.ExitCode)
}

func exceedsMemory(usedBytes int64, limitKB int) bool {
	return limitKB > 0 && usedBytes > int64(limitKB)*1024
}

func truncate(s string) string {
	if len(s) <= maxMessageBytes {
		return s
	}
	cut := maxMessageBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n... (truncated)"
}
