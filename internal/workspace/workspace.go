// Package workspace allocates and destroys the per-attempt filesystem area.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Harsh-BH/sentinel-judge/internal/metrics"
	"github.com/Harsh-BH/sentinel-judge/internal/toolchain"
)

// Workspace is the filesystem area owned by exactly one execution attempt.
type Workspace struct {
	ID             string
	Root           string
	Dir            string
	SourcePath     string
	ExecutablePath string
	Entry          string
	dedicated      bool
}

// Paths returns the values substituted into the toolchain's command templates.
func (w *Workspace) Paths() toolchain.Paths {
	return toolchain.Paths{
		Source:     w.SourcePath,
		Executable: w.ExecutablePath,
		Dir:        w.Dir,
		Entry:      w.Entry,
	}
}

// Manager creates workspaces under a shared root.
type Manager struct {
	root   string
	logger *zap.Logger
}

// NewManager creates a workspace manager rooted at root.
func NewManager(root string, logger *zap.Logger) *Manager {
	if root == "" {
		root = filepath.Join(os.TempDir(), "sentinel-judge")
	}
	return &Manager{root: root, logger: logger}
}

// Root returns the shared temp root.
func (m *Manager) Root() string { return m.root }

// Create allocates a fresh workspace and writes the (possibly synthesized) source.
func (m *Manager) Create(spec toolchain.Spec, source string) (*Workspace, error) {
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return nil, fmt.Errorf("workspace: create root: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("workspace: generate id: %w", err)
	}
	stem := "ws_" + id.String()

	entry, text := toolchain.PrepareSource(spec, stem, source)

	ws := &Workspace{
		ID:        stem,
		Root:      m.root,
		Entry:     entry,
		dedicated: spec.Dedicated,
	}

	if spec.Dedicated {
		// The class file name must match the entry point, so each attempt gets its own directory.
		ws.Dir = filepath.Join(m.root, stem)
		if err := os.Mkdir(ws.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("workspace: create dir: %w", err)
		}
		ws.SourcePath = filepath.Join(ws.Dir, entry+spec.SourceExtension)
		ws.ExecutablePath = filepath.Join(ws.Dir, entry)
	} else {
		ws.Dir = m.root
		ws.SourcePath = filepath.Join(m.root, stem+spec.SourceExtension)
		ws.ExecutablePath = filepath.Join(m.root, stem+executableSuffix())
	}

	if err := os.WriteFile(ws.SourcePath, []byte(text), 0o644); err != nil {
		m.Destroy(ws)
		return nil, fmt.Errorf("workspace: write source: %w", err)
	}

	m.logger.Debug("Workspace created",
		zap.String("workspace_id", ws.ID),
		zap.String("language", spec.ID),
		zap.String("source_path", ws.SourcePath),
	)
	return ws, nil
}

// Destroy removes everything the workspace owns. Failures are logged, never returned,
// and calling it again on the same workspace is harmless.
func (m *Manager) Destroy(ws *Workspace) {
	if ws == nil {
		return
	}

	var targets []string
	if ws.dedicated {
		targets = []string{ws.Dir}
	} else {
		targets = []string{ws.SourcePath, ws.ExecutablePath}
		if !strings.HasSuffix(ws.ExecutablePath, ".exe") {
			targets = append(targets, ws.ExecutablePath+".exe")
		}
	}

	for _, path := range targets {
		if path == "" || path == m.root {
			continue
		}
		if err := os.RemoveAll(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			metrics.WorkspaceCleanupFailures.Inc()
			m.logger.Warn("Failed to remove workspace path",
				zap.String("workspace_id", ws.ID),
				zap.String("path", path),
				zap.Error(err),
			)
		}
	}

	m.logger.Debug("Workspace destroyed", zap.String("workspace_id", ws.ID))
}

func executableSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}
