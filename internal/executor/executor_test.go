package executor

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/domain"
	"github.com/Harsh-BH/sentinel-judge/internal/toolchain"
	"github.com/Harsh-BH/sentinel-judge/internal/workspace"
)

// Shell-backed toolchains keep these tests independent of installed compilers.
var (
	shInterpreted = toolchain.Spec{ID: "sh", SourceExtension: ".sh", RunCmd: "sh {src}"}
	shCompiled    = toolchain.Spec{ID: "sh-checked", SourceExtension: ".sh", CompileCmd: "sh -n {src}", RunCmd: "sh {src}"}
	missingTool   = toolchain.Spec{ID: "ghost", SourceExtension: ".g", CompileCmd: "sentinel-no-such-compiler {src}", RunCmd: "{bin}"}
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func newTestExecutor(t *testing.T, limits Limits) (*ProcessExecutor, string) {
	t.Helper()
	requireShell(t)
	root := filepath.Join(t.TempDir(), "ws")
	return NewProcessExecutor(workspace.NewManager(root, zap.NewNop()), limits, zap.NewNop()), root
}

func leftovers(t *testing.T, root string) []string {
	t.Helper()
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read root: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRun_SuccessWithStdin(t *testing.T) {
	exe, _ := newTestExecutor(t, Limits{})

	out, err := exe.Execute(context.Background(), shInterpreted, "read x\necho \"got $x\"", "5\n", time.Second)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.Kind != domain.KindSuccess {
		t.Fatalf("expected success, got %s (%s)", out.Kind, out.Stderr)
	}
	if strings.TrimSpace(out.Stdout) != "got 5" {
		t.Errorf("unexpected stdout %q", out.Stdout)
	}
}

func TestRun_RuntimeError(t *testing.T) {
	exe, _ := newTestExecutor(t, Limits{})

	out, _ := exe.Execute(context.Background(), shInterpreted, "echo oops >&2\nexit 3", "", time.Second)
	if out.Kind != domain.KindRuntimeError || out.Fault != domain.FaultRuntime {
		t.Fatalf("expected runtime error, got %s/%s", out.Kind, out.Fault)
	}
	if out.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", out.ExitCode)
	}
	if !strings.Contains(out.Stderr, "oops") {
		t.Errorf("expected stderr captured, got %q", out.Stderr)
	}
}

func TestRun_TimeoutKillsProcess(t *testing.T) {
	exe, _ := newTestExecutor(t, Limits{})

	start := time.Now()
	out, _ := exe.Execute(context.Background(), shInterpreted, "sleep 5", "", 200*time.Millisecond)
	elapsed := time.Since(start)

	if out.Kind != domain.KindTimeout {
		t.Fatalf("expected timeout, got %s", out.Kind)
	}
	if elapsed > 3*time.Second {
		t.Errorf("process was not killed promptly: %s", elapsed)
	}
}

func TestRun_TimeoutKillsProcessGroup(t *testing.T) {
	exe, _ := newTestExecutor(t, Limits{})

	start := time.Now()
	out, _ := exe.Execute(context.Background(), shInterpreted, "sleep 5 &\nsleep 5 &\nwait", "", 200*time.Millisecond)

	if out.Kind != domain.KindTimeout {
		t.Fatalf("expected timeout, got %s", out.Kind)
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("children kept the run alive: %s", time.Since(start))
	}
}

func TestRun_BackgroundChildDoesNotFailCleanExit(t *testing.T) {
	exe, _ := newTestExecutor(t, Limits{})

	start := time.Now()
	out, err := exe.Execute(context.Background(), shInterpreted, "sleep 5 &\necho hi", "", 10*time.Second)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.Kind != domain.KindSuccess {
		t.Fatalf("expected success, got %s/%s (%s)", out.Kind, out.Fault, out.Stderr)
	}
	if strings.TrimSpace(out.Stdout) != "hi" {
		t.Errorf("unexpected stdout %q", out.Stdout)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("background child held the run open: %s", elapsed)
	}
}

func TestRun_BackgroundChildKilledAfterExit(t *testing.T) {
	exe, _ := newTestExecutor(t, Limits{})
	marker := filepath.Join(t.TempDir(), "marker")

	out, _ := exe.Execute(context.Background(), shInterpreted, "(sleep 1; echo late > "+marker+") &\necho done", "", 5*time.Second)
	if out.Kind != domain.KindSuccess {
		t.Fatalf("expected success, got %s (%s)", out.Kind, out.Stderr)
	}

	time.Sleep(1500 * time.Millisecond)
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Errorf("background child survived the run (stat err: %v)", err)
	}
}

func TestRun_OutputLimit(t *testing.T) {
	exe, _ := newTestExecutor(t, Limits{MaxOutputBytes: 1024})

	start := time.Now()
	out, _ := exe.Execute(context.Background(), shInterpreted, "while :; do echo aaaaaaaaaaaaaaaa; done", "", 5*time.Second)

	if out.Kind != domain.KindRuntimeError || out.Fault != domain.FaultOutputLimit {
		t.Fatalf("expected output limit runtime error, got %s/%s", out.Kind, out.Fault)
	}
	if len(out.Stdout) > 1024 {
		t.Errorf("captured %d bytes, cap is 1024", len(out.Stdout))
	}
	if time.Since(start) > 4*time.Second {
		t.Errorf("overflowing process was not stopped early")
	}
}

func TestRun_CallerCancellationDoesNotKill(t *testing.T) {
	exe, _ := newTestExecutor(t, Limits{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, _ := exe.Execute(ctx, shInterpreted, "sleep 0.2\necho done", "", 2*time.Second)
	if out.Kind != domain.KindSuccess || strings.TrimSpace(out.Stdout) != "done" {
		t.Fatalf("expected run to complete despite cancelled caller, got %s %q", out.Kind, out.Stdout)
	}
}

func TestCompile_SyntaxError(t *testing.T) {
	exe, _ := newTestExecutor(t, Limits{})

	out, _ := exe.Execute(context.Background(), shCompiled, "echo (", "", time.Second)
	if out.Kind != domain.KindCompileError || out.Fault != domain.FaultCompile {
		t.Fatalf("expected compile error, got %s/%s", out.Kind, out.Fault)
	}
	if strings.TrimSpace(out.Stderr) == "" {
		t.Error("expected compiler diagnostics")
	}
}

func TestCompile_ThenRun(t *testing.T) {
	exe, _ := newTestExecutor(t, Limits{})

	out, _ := exe.Execute(context.Background(), shCompiled, "echo compiled", "", time.Second)
	if out.Kind != domain.KindSuccess || strings.TrimSpace(out.Stdout) != "compiled" {
		t.Fatalf("expected success, got %s %q", out.Kind, out.Stdout)
	}
}

func TestCompile_MissingToolchainIsConfigurationFault(t *testing.T) {
	exe, _ := newTestExecutor(t, Limits{})

	out, err := exe.Execute(context.Background(), missingTool, "whatever", "", time.Second)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out.Kind != domain.KindCompileError || out.Fault != domain.FaultConfiguration {
		t.Fatalf("expected configuration fault, got %s/%s", out.Kind, out.Fault)
	}
	if !strings.Contains(out.Stderr, "sentinel-no-such-compiler") {
		t.Errorf("expected missing binary named in stderr, got %q", out.Stderr)
	}
}

func TestCompile_InterpretedIsNoop(t *testing.T) {
	exe, _ := newTestExecutor(t, Limits{})

	ws, err := exe.Prepare(shInterpreted, "echo hi")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	defer exe.Cleanup(ws)

	if out := exe.Compile(context.Background(), ws, shInterpreted); out.Kind != domain.KindSuccess {
		t.Fatalf("expected no-op success, got %s", out.Kind)
	}
}

// Every exit path must leave the shared root empty.
func TestExecute_CleansUpOnEveryPath(t *testing.T) {
	exe, root := newTestExecutor(t, Limits{MaxOutputBytes: 256})

	cases := []struct {
		name   string
		spec   toolchain.Spec
		source string
		budget time.Duration
	}{
		{"success", shInterpreted, "echo ok", time.Second},
		{"compile error", shCompiled, "echo (", time.Second},
		{"runtime error", shInterpreted, "exit 1", time.Second},
		{"timeout", shInterpreted, "sleep 5", 100 * time.Millisecond},
		{"output limit", shInterpreted, "while :; do echo xxxxxxxx; done", 2 * time.Second},
		{"missing toolchain", missingTool, "x", time.Second},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := exe.Execute(context.Background(), tc.spec, tc.source, "", tc.budget); err != nil {
				t.Fatalf("execute: %v", err)
			}
			if left := leftovers(t, root); len(left) != 0 {
				t.Errorf("workspace leak: %v", left)
			}
		})
	}
}

func TestLimitsDefaults(t *testing.T) {
	l := Limits{}.withDefaults()
	if l.CompileTimeout != DefaultCompileTimeout || l.RunTimeout != DefaultRunTimeout || l.MaxOutputBytes != DefaultMaxOutputBytes {
		t.Errorf("unexpected defaults %+v", l)
	}
}
