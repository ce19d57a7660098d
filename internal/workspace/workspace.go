package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/williamdemeo/docpages/internal/logfields"
)

// Manager handles the publish workspace directory. The workspace is
// acquired fresh per run: any pre-existing directory at the path is
// removed first, so a stale tree can never corrupt the staging step.
type Manager struct {
	path          string
	keepOnFailure bool
	acquired      bool
}

// NewManager creates a workspace manager rooted at a fixed path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// NewEphemeralManager creates a workspace manager with a timestamped
// directory under baseDir (os.TempDir when empty).
func NewEphemeralManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	timestamp := time.Now().Format("20060102-150405")
	return &Manager{path: filepath.Join(baseDir, fmt.Sprintf("docpages-%s", timestamp))}
}

// WithKeepOnFailure configures the manager to leave the workspace behind
// when Release is told the run failed, for post-mortem inspection.
func (m *Manager) WithKeepOnFailure(keep bool) *Manager {
	m.keepOnFailure = keep
	return m
}

// Acquire removes any pre-existing directory at the workspace path and
// creates it fresh.
func (m *Manager) Acquire() error {
	if err := os.RemoveAll(m.path); err != nil {
		return fmt.Errorf("failed to remove pre-existing workspace: %w", err)
	}
	if err := os.MkdirAll(m.path, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	m.acquired = true
	slog.Info("Created workspace", logfields.Path(m.path))
	return nil
}

// Path returns the path to the workspace directory.
func (m *Manager) Path() string {
	return m.path
}

// Release removes the workspace directory. When the run failed and
// keep-on-failure is set, the directory is left behind instead.
func (m *Manager) Release(failed bool) error {
	if !m.acquired {
		return nil
	}

	if failed && m.keepOnFailure {
		slog.Warn("Keeping workspace for inspection after failure", logfields.Path(m.path))
		return nil
	}

	if err := os.RemoveAll(m.path); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}

	slog.Info("Cleaned up workspace", logfields.Path(m.path))
	m.acquired = false
	return nil
}
