package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/toolchain"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(filepath.Join(t.TempDir(), "judge"), zap.NewNop())
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestCreate_FlatLanguage(t *testing.T) {
	m := newTestManager(t)
	spec, _ := toolchain.NewRegistry().Resolve("python")

	ws, err := m.Create(spec, "print(input())")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if filepath.Dir(ws.SourcePath) != m.Root() {
		t.Errorf("expected source directly under root, got %s", ws.SourcePath)
	}
	if !strings.HasSuffix(ws.SourcePath, ".py") {
		t.Errorf("expected .py source, got %s", ws.SourcePath)
	}
	data, err := os.ReadFile(ws.SourcePath)
	if err != nil || string(data) != "print(input())" {
		t.Fatalf("unexpected source contents %q (%v)", data, err)
	}
	if ws.Entry != ws.ID {
		t.Errorf("expected entry to be workspace id, got %s", ws.Entry)
	}

	m.Destroy(ws)
	if exists(ws.SourcePath) {
		t.Error("source survived destroy")
	}
	if !exists(m.Root()) {
		t.Error("shared root must not be removed")
	}
}

func TestCreate_CompiledLanguageRemovesExecutable(t *testing.T) {
	m := newTestManager(t)
	spec, _ := toolchain.NewRegistry().Resolve("cpp")

	ws, err := m.Create(spec, "int main(){}")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Simulate compiler output.
	if err := os.WriteFile(ws.ExecutablePath, []byte("bin"), 0o755); err != nil {
		t.Fatalf("write executable: %v", err)
	}

	m.Destroy(ws)
	if exists(ws.SourcePath) || exists(ws.ExecutablePath) {
		t.Error("workspace files survived destroy")
	}
}

func TestCreate_JavaDedicatedDirectory(t *testing.T) {
	m := newTestManager(t)
	spec, _ := toolchain.NewRegistry().Resolve("java")

	ws, err := m.Create(spec, "public class Solution { public static void main(String[] a) {} }")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if ws.Dir == m.Root() || filepath.Dir(ws.Dir) != m.Root() {
		t.Errorf("expected dedicated subdirectory, got %s", ws.Dir)
	}
	if filepath.Base(ws.SourcePath) != "Solution.java" {
		t.Errorf("expected Solution.java, got %s", ws.SourcePath)
	}
	if ws.Entry != "Solution" {
		t.Errorf("expected entry Solution, got %s", ws.Entry)
	}

	// Simulate javac output.
	if err := os.WriteFile(filepath.Join(ws.Dir, "Solution.class"), []byte{0xCA, 0xFE}, 0o644); err != nil {
		t.Fatalf("write class: %v", err)
	}

	m.Destroy(ws)
	if exists(ws.Dir) {
		t.Error("java workspace directory survived destroy")
	}
}

func TestCreate_JavaSynthesizesMain(t *testing.T) {
	m := newTestManager(t)
	spec, _ := toolchain.NewRegistry().Resolve("java")

	ws, err := m.Create(spec, `System.out.println("hi");`)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer m.Destroy(ws)

	if filepath.Base(ws.SourcePath) != "Main.java" {
		t.Errorf("expected Main.java, got %s", ws.SourcePath)
	}
	data, _ := os.ReadFile(ws.SourcePath)
	if !strings.Contains(string(data), "public class Main") {
		t.Error("expected synthesized Main wrapper")
	}
}

func TestCreate_UniquePaths(t *testing.T) {
	m := newTestManager(t)
	r := toolchain.NewRegistry()
	python, _ := r.Resolve("python")
	java, _ := r.Resolve("java")

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		spec := python
		if i%2 == 0 {
			spec = java
		}
		ws, err := m.Create(spec, "public class A {}")
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if seen[ws.SourcePath] {
			t.Fatalf("duplicate workspace path %s", ws.SourcePath)
		}
		seen[ws.SourcePath] = true
		defer m.Destroy(ws)
	}
}

func TestDestroy_Idempotent(t *testing.T) {
	m := newTestManager(t)
	spec, _ := toolchain.NewRegistry().Resolve("java")
	ws, err := m.Create(spec, "class A {}")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	m.Destroy(ws)
	m.Destroy(ws)
	m.Destroy(nil)

	if exists(ws.Dir) {
		t.Error("directory survived destroy")
	}
}
