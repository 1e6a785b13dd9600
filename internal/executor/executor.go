package executor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
	"github.com/Harsh-BH/sentinel-judge/internal/metrics"
	"github.com/Harsh-BH/sentinel-judge/internal/toolchain"
	"github.com/Harsh-BH/sentinel-judge/internal/workspace"
)

const (
	// DefaultMaxOutputBytes caps stdout/stderr to prevent memory exhaustion.
	DefaultMaxOutputBytes = 1 << 20 // 1 MB

	DefaultCompileTimeout = 30 * time.Second
	DefaultRunTimeout     = 10 * time.Second

	// waitDelay bounds how long pipes are drained after the process exits.
	waitDelay = 500 * time.Millisecond

	stepCompile = "compile"
	stepRun     = "run"
)

// Limits are the per-process bounds applied by the executor.
type Limits struct {
	CompileTimeout time.Duration
	RunTimeout     time.Duration
	MaxOutputBytes int
}

func (l Limits) withDefaults() Limits {
	if l.CompileTimeout <= 0 {
		l.CompileTimeout = DefaultCompileTimeout
	}
	if l.RunTimeout <= 0 {
		l.RunTimeout = DefaultRunTimeout
	}
	if l.MaxOutputBytes <= 0 {
		l.MaxOutputBytes = DefaultMaxOutputBytes
	}
	return l
}

// ProcessExecutor compiles and runs programs as host processes inside a workspace.
type ProcessExecutor struct {
	workspaces *workspace.Manager
	limits     Limits
	logger     *zap.Logger
}

// NewProcessExecutor creates a new process executor.
func NewProcessExecutor(workspaces *workspace.Manager, limits Limits, logger *zap.Logger) *ProcessExecutor {
	return &ProcessExecutor{
		workspaces: workspaces,
		limits:     limits.withDefaults(),
		logger:     logger,
	}
}

// Limits returns the effective limits.
func (e *ProcessExecutor) Limits() Limits { return e.limits }

// Prepare allocates a workspace holding the source for one execution attempt.
func (e *ProcessExecutor) Prepare(spec toolchain.Spec, source string) (*workspace.Workspace, error) {
	return e.workspaces.Create(spec, source)
}

// Cleanup destroys a workspace created by Prepare.
func (e *ProcessExecutor) Cleanup(ws *workspace.Workspace) {
	e.workspaces.Destroy(ws)
}

// Execute is a one-shot compile and run. The workspace never outlives the call.
func (e *ProcessExecutor) Execute(ctx context.Context, spec toolchain.Spec, source, stdin string, budget time.Duration) (domain.ExecutionOutcome, error) {
	ws, err := e.Prepare(spec, source)
	if err != nil {
		return domain.ExecutionOutcome{}, fmt.Errorf("executor: prepare: %w", err)
	}
	defer e.Cleanup(ws)

	compiled := e.Compile(ctx, ws, spec)
	if compiled.Kind != domain.KindSuccess {
		return compiled, nil
	}
	return e.Run(ctx, ws, spec, stdin, budget), nil
}

// Compile runs the toolchain's compile step, if it has one, under the compile budget.
// Any failure, including a missing compiler, is reported as KindCompileError.
func (e *ProcessExecutor) Compile(ctx context.Context, ws *workspace.Workspace, spec toolchain.Spec) domain.ExecutionOutcome {
	if !spec.Compiled() {
		return domain.ExecutionOutcome{Kind: domain.KindSuccess}
	}

	argv, err := spec.CompileCommand(ws.Paths())
	if err != nil {
		return domain.ExecutionOutcome{
			Kind:   domain.KindCompileError,
			Fault:  domain.FaultConfiguration,
			Stderr: err.Error(),
		}
	}

	res := e.runProcess(ctx, argv, ws.Dir, "", e.limits.CompileTimeout)
	out := res.outcome()

	switch {
	case res.startErr != nil:
		out.Kind = domain.KindCompileError
		out.Fault = startFault(res.startErr)
		out.Stderr = describeStartError(argv[0], res.startErr)
	case res.overflow:
		out.Kind = domain.KindCompileError
		out.Fault = domain.FaultOutputLimit
		out.Stderr += fmt.Sprintf("\ncompiler output exceeded %d bytes", e.limits.MaxOutputBytes)
	case res.timedOut:
		out.Kind = domain.KindCompileError
		out.Fault = domain.FaultTimeout
		out.Stderr += fmt.Sprintf("\ncompilation timed out after %s", e.limits.CompileTimeout)
	case res.waitErr != nil:
		out.Kind = domain.KindCompileError
		out.Fault = domain.FaultCompile
		if strings.TrimSpace(out.Stderr) == "" {
			out.Stderr = out.Stdout
		}
	default:
		out.Kind = domain.KindSuccess
	}

	e.record(spec.ID, stepCompile, out)
	return out
}

// Run executes the compiled or interpreted program with stdin piped in.
func (e *ProcessExecutor) Run(ctx context.Context, ws *workspace.Workspace, spec toolchain.Spec, stdin string, budget time.Duration) domain.ExecutionOutcome {
	if budget <= 0 {
		budget = e.limits.RunTimeout
	}

	argv, err := spec.RunCommand(ws.Paths())
	if err != nil {
		return domain.ExecutionOutcome{
			Kind:   domain.KindRuntimeError,
			Fault:  domain.FaultConfiguration,
			Stderr: err.Error(),
		}
	}

	res := e.runProcess(ctx, argv, ws.Dir, stdin, budget)
	out := res.outcome()

	switch {
	case res.startErr != nil:
		out.Kind = domain.KindRuntimeError
		out.Fault = startFault(res.startErr)
		out.Stderr = describeStartError(argv[0], res.startErr)
	case res.overflow:
		out.Kind = domain.KindRuntimeError
		out.Fault = domain.FaultOutputLimit
		out.Stderr += fmt.Sprintf("\noutput exceeded %d bytes", e.limits.MaxOutputBytes)
	case res.timedOut:
		out.Kind = domain.KindTimeout
		out.Fault = domain.FaultTimeout
	case res.waitErr != nil:
		out.Kind = domain.KindRuntimeError
		out.Fault = domain.FaultRuntime
	default:
		out.Kind = domain.KindSuccess
	}

	e.record(spec.ID, stepRun, out)
	return out
}

type processResult struct {
	stdout      string
	stderr      string
	exitCode    int
	elapsed     time.Duration
	memoryBytes int64
	timedOut    bool
	overflow    bool
	startErr    error
	waitErr     error
}

func (r processResult) outcome() domain.ExecutionOutcome {
	return domain.ExecutionOutcome{
		Stdout:        r.stdout,
		Stderr:        r.stderr,
		ExitCode:      r.exitCode,
		ElapsedMillis: r.elapsed.Milliseconds(),
		MemoryBytes:   r.memoryBytes,
	}
}

func (e *ProcessExecutor) runProcess(ctx context.Context, argv []string, dir, stdin string, budget time.Duration) processResult {
	// Once dispatched a process runs to completion or to its budget; the caller going away
	// does not kill it.
	timeoutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), budget)
	defer cancel()
	procCtx, abort := context.WithCancel(timeoutCtx)
	defer abort()

	cmd := exec.CommandContext(procCtx, argv[0], argv[1:]...)
	cmd.Dir = dir
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = waitDelay

	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var res processResult
	stdout := newCappedBuffer(e.limits.MaxOutputBytes, abort)
	stderr := newCappedBuffer(e.limits.MaxOutputBytes, abort)
	capture, err := newOutputCapture(stdout, stderr)
	if err != nil {
		res.startErr = err
		res.exitCode = -1
		return res
	}
	defer capture.close()
	cmd.Stdout = capture.stdoutW
	cmd.Stderr = capture.stderrW

	start := time.Now()
	if err := cmd.Start(); err != nil {
		res.startErr = err
		res.exitCode = -1
		return res
	}
	capture.start()

	err = cmd.Wait()
	res.elapsed = time.Since(start)

	// Children left behind by the program still hold the output pipes.
	if kerr := killProcessGroup(cmd); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
		e.logger.Debug("Failed to kill leftover processes", zap.String("program", argv[0]), zap.Error(kerr))
	}
	capture.drain(waitDelay)

	// Wait gives up on the stdin copy when an orphan keeps the pipe open; the
	// program itself still exited cleanly.
	if errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil && cmd.ProcessState.Success() {
		err = nil
	}

	res.stdout = stdout.String()
	res.stderr = stderr.String()
	res.overflow = stdout.Overflowed() || stderr.Overflowed()
	res.timedOut = errors.Is(timeoutCtx.Err(), context.DeadlineExceeded)
	res.waitErr = err
	res.memoryBytes = maxRSS(cmd.ProcessState)

	if cmd.ProcessState != nil {
		res.exitCode = cmd.ProcessState.ExitCode()
	}
	if res.timedOut || res.overflow {
		res.exitCode = -1
	}

	e.logger.Debug("Process finished",
		zap.String("program", argv[0]),
		zap.Duration("elapsed", res.elapsed),
		zap.Int("exit_code", res.exitCode),
		zap.Bool("timed_out", res.timedOut),
		zap.Bool("output_overflow", res.overflow),
		zap.Int64("memory_bytes", res.memoryBytes),
	)
	return res
}

func (e *ProcessExecutor) record(language, step string, out domain.ExecutionOutcome) {
	metrics.ExecutionsTotal.WithLabelValues(language, step, string(out.Kind)).Inc()
	metrics.ExecutionDuration.WithLabelValues(language, step).Observe(float64(out.ElapsedMillis) / 1000)
	if out.Fault == domain.FaultConfiguration {
		metrics.ToolchainFaults.WithLabelValues(language).Inc()
		e.logger.Error("Toolchain binary unavailable",
			zap.String("language", language),
			zap.String("step", step),
			zap.String("detail", out.Stderr),
		)
	}
}

// startFault separates a missing toolchain binary from other spawn failures.
func startFault(err error) domain.Fault {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return domain.FaultConfiguration
	}
	return domain.FaultRuntime
}

func describeStartError(program string, err error) string {
	if startFault(err) == domain.FaultConfiguration {
		return fmt.Sprintf("toolchain binary %q not found: %v", program, err)
	}
	return fmt.Sprintf("failed to start %q: %v", program, err)
}
