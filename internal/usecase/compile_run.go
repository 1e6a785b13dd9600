package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/admission"
	"github.com/Harsh-BH/sentinel-judge/internal/domain"
	"github.com/Harsh-BH/sentinel-judge/internal/toolchain"
)

// OneShotRunner compiles and runs a program in a throwaway workspace.
type OneShotRunner interface {
	Execute(ctx context.Context, spec toolchain.Spec, source, stdin string, budget time.Duration) (domain.ExecutionOutcome, error)
}

// CompileRunUsecase serves interactive "run my code" requests behind the compile
// admission controller.
type CompileRunUsecase struct {
	toolchains Toolchains
	runner     OneShotRunner
	admission  *admission.Controller
	budget     time.Duration
	logger     *zap.Logger
}

// NewCompileRunUsecase creates a new CompileRunUsecase. budget is the run-step time limit.
func NewCompileRunUsecase(toolchains Toolchains, runner OneShotRunner, ctrl *admission.Controller, budget time.Duration, logger *zap.Logger) *CompileRunUsecase {
	return &CompileRunUsecase{
		toolchains: toolchains,
		runner:     runner,
		admission:  ctrl,
		budget:     budget,
		logger:     logger,
	}
}

// Execute waits for a compile slot, then runs the program once with the given stdin.
// A caller that goes away while still queued gets the context error; once the slot is
// granted the run completes regardless.
func (uc *CompileRunUsecase) Execute(ctx context.Context, req *domain.CompileRunRequest) (*domain.CompileRunResponse, error) {
	if req.Language == "" {
		return nil, fmt.Errorf("%w: language", domain.ErrMissingField)
	}
	if strings.TrimSpace(req.Code) == "" {
		return nil, domain.ErrEmptySourceCode
	}
	if len(req.Code) > maxSourceCodeSize {
		return nil, domain.ErrPayloadTooLarge
	}

	spec, err := uc.toolchains.Resolve(string(req.Language))
	if err != nil {
		return nil, domain.ErrInvalidLanguage
	}
	if !uc.toolchains.Available(spec.ID) {
		return nil, domain.ErrToolchainUnavailable
	}

	var out domain.ExecutionOutcome
	err = uc.admission.Do(ctx, func(ctx context.Context) error {
		var runErr error
		out, runErr = uc.runner.Execute(ctx, spec, req.Code, req.Stdin, uc.budget)
		return runErr
	})
	if err != nil {
		return nil, fmt.Errorf("compile and run: %w", err)
	}

	uc.logger.Debug("Interactive run finished",
		zap.String("language", spec.ID),
		zap.String("kind", string(out.Kind)),
		zap.Int64("elapsed_ms", out.ElapsedMillis),
	)

	return &domain.CompileRunResponse{
		Status:    out.Kind,
		Stdout:    out.Stdout,
		Stderr:    out.Stderr,
		ElapsedMs: out.ElapsedMillis,
	}, nil
}
