package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/admission"
	"github.com/Harsh-BH/sentinel-judge/internal/domain"
	"github.com/Harsh-BH/sentinel-judge/internal/toolchain"
	"github.com/Harsh-BH/sentinel-judge/internal/usecase"
)

type fakeOneShot struct {
	mu      sync.Mutex
	calls   int
	budgets []time.Duration
	fn      func(ctx context.Context, spec toolchain.Spec, source, stdin string) (domain.ExecutionOutcome, error)
}

func (f *fakeOneShot) Execute(ctx context.Context, spec toolchain.Spec, source, stdin string, budget time.Duration) (domain.ExecutionOutcome, error) {
	f.mu.Lock()
	f.calls++
	f.budgets = append(f.budgets, budget)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(ctx, spec, source, stdin)
	}
	return domain.ExecutionOutcome{Kind: domain.KindSuccess, Stdout: stdin, ElapsedMillis: 12}, nil
}

func TestCompileRun_Success(t *testing.T) {
	runner := &fakeOneShot{}
	ctrl := admission.New("compile", 1, zap.NewNop())
	uc := usecase.NewCompileRunUsecase(newFakeToolchains("python"), runner, ctrl, 3*time.Second, zap.NewNop())

	resp, err := uc.Execute(context.Background(), &domain.CompileRunRequest{Language: "python", Code: "print(input())", Stdin: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != domain.KindSuccess || resp.Stdout != "hi" || resp.ElapsedMs != 12 {
		t.Errorf("unexpected response %+v", resp)
	}
	if runner.budgets[0] != 3*time.Second {
		t.Errorf("expected configured budget, got %s", runner.budgets[0])
	}
	if ctrl.InFlight() != 0 {
		t.Error("compile slot leaked")
	}
}

func TestCompileRun_CompileErrorIsAResponse(t *testing.T) {
	runner := &fakeOneShot{
		fn: func(ctx context.Context, spec toolchain.Spec, source, stdin string) (domain.ExecutionOutcome, error) {
			return domain.ExecutionOutcome{Kind: domain.KindCompileError, Fault: domain.FaultCompile, Stderr: "syntax error"}, nil
		},
	}
	uc := usecase.NewCompileRunUsecase(newFakeToolchains("cpp"), runner, admission.New("compile", 1, zap.NewNop()), time.Second, zap.NewNop())

	resp, err := uc.Execute(context.Background(), &domain.CompileRunRequest{Language: "cpp", Code: "int main( {"})
	if err != nil {
		t.Fatalf("compile failures are not request errors: %v", err)
	}
	if resp.Status != domain.KindCompileError || resp.Stderr != "syntax error" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestCompileRun_Validation(t *testing.T) {
	tc := newFakeToolchains("python", "cpp")
	tc.missing["cpp"] = true
	runner := &fakeOneShot{}
	uc := usecase.NewCompileRunUsecase(tc, runner, admission.New("compile", 1, zap.NewNop()), time.Second, zap.NewNop())

	tests := []struct {
		req  domain.CompileRunRequest
		want error
	}{
		{domain.CompileRunRequest{Code: "x"}, domain.ErrMissingField},
		{domain.CompileRunRequest{Language: "python", Code: "  "}, domain.ErrEmptySourceCode},
		{domain.CompileRunRequest{Language: "brainfuck", Code: "+"}, domain.ErrInvalidLanguage},
		{domain.CompileRunRequest{Language: "cpp", Code: "int main(){}"}, domain.ErrToolchainUnavailable},
	}
	for _, tt := range tests {
		if _, err := uc.Execute(context.Background(), &tt.req); !errors.Is(err, tt.want) {
			t.Errorf("%+v: expected %v, got %v", tt.req, tt.want, err)
		}
	}
	if runner.calls != 0 {
		t.Error("invalid requests must not reach the runner")
	}
}

func TestCompileRun_BoundedByAdmission(t *testing.T) {
	const limit = 2
	var (
		mu      sync.Mutex
		current int
		peak    int
	)
	runner := &fakeOneShot{
		fn: func(ctx context.Context, spec toolchain.Spec, source, stdin string) (domain.ExecutionOutcome, error) {
			mu.Lock()
			current++
			peak = max(peak, current)
			mu.Unlock()
			time.Sleep(20 * time.Millisecond)
			mu.Lock()
			current--
			mu.Unlock()
			return domain.ExecutionOutcome{Kind: domain.KindSuccess}, nil
		},
	}
	uc := usecase.NewCompileRunUsecase(newFakeToolchains("python"), runner, admission.New("compile", limit, zap.NewNop()), time.Second, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			uc.Execute(context.Background(), &domain.CompileRunRequest{Language: "python", Code: "pass"})
		}()
	}
	wg.Wait()

	if peak > limit {
		t.Errorf("observed %d concurrent runs, limit %d", peak, limit)
	}
}

func TestCompileRun_CallerGoneWhileQueued(t *testing.T) {
	ctrl := admission.New("compile", 1, zap.NewNop())
	ctrl.Acquire(context.Background())
	defer ctrl.Release()
	runner := &fakeOneShot{}
	uc := usecase.NewCompileRunUsecase(newFakeToolchains("python"), runner, ctrl, time.Second, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if _, err := uc.Execute(ctx, &domain.CompileRunRequest{Language: "python", Code: "pass"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if runner.calls != 0 {
		t.Error("runner must not be invoked without a slot")
	}
}
