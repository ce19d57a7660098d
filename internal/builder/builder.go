// Package builder invokes the external documentation generator and
// verifies its artifacts. The build itself is delegated entirely to the
// external tool; its output is treated as opaque.
package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/williamdemeo/docpages/internal/config"
)

// ErrToolNotFound indicates the required build tool is not on PATH.
var ErrToolNotFound = errors.New("build tool not found")

// ExitError carries the exit code of a failed external build so callers
// can propagate it as the process exit status.
type ExitError struct {
	Code  int
	Cause error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("build command exited with code %d: %v", e.Code, e.Cause)
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// Builder runs the configured external documentation build.
type Builder struct {
	cfg       config.BuilderConfig
	sourceDir string
}

// New creates a Builder for the given source tree and builder config.
func New(sourceDir string, cfg config.BuilderConfig) *Builder {
	return &Builder{cfg: cfg, sourceDir: sourceDir}
}

// CheckTool verifies the configured build tool is discoverable on PATH.
// The returned error wraps ErrToolNotFound and includes the remediation
// hint from configuration.
func (b *Builder) CheckTool() error {
	if _, err := exec.LookPath(b.cfg.Tool); err != nil {
		return fmt.Errorf("%w: %s is not installed (%s)", ErrToolNotFound, b.cfg.Tool, b.cfg.Remediation)
	}
	return nil
}

// Run executes the external build command inside the source directory.
// A non-zero exit is returned as *ExitError carrying the child's code.
func (b *Builder) Run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, b.cfg.Command, b.cfg.Args...)
	cmd.Dir = b.sourceDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Info("Running documentation build",
		"command", b.cfg.Command,
		"args", b.cfg.Args,
		"dir", b.sourceDir)

	err := cmd.Run()

	// Always surface generator output when non-empty to diagnose issues
	if out := stdout.String(); out != "" {
		slog.Debug("build stdout", "output", out)
	}
	if errOut := stderr.String(); errOut != "" {
		slog.Warn("build stderr", "error_output", errOut)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode(), Cause: err}
		}
		return fmt.Errorf("build command failed: %w", err)
	}

	return nil
}

// HTMLDir returns the absolute path of the generated HTML tree.
func (b *Builder) HTMLDir() string {
	return filepath.Join(b.sourceDir, b.cfg.HTMLDir)
}

// PDFPath returns the absolute path of the generated PDF.
func (b *Builder) PDFPath() string {
	return filepath.Join(b.sourceDir, b.cfg.PDFPath)
}

// VerifyArtifacts checks that the build produced a non-empty HTML tree
// and the PDF file.
func (b *Builder) VerifyArtifacts() error {
	htmlDir := b.HTMLDir()
	entries, err := os.ReadDir(htmlDir)
	if err != nil {
		return fmt.Errorf("HTML output directory not readable: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("HTML output directory is empty: %s", htmlDir)
	}

	pdfPath := b.PDFPath()
	info, err := os.Stat(pdfPath)
	if err != nil {
		return fmt.Errorf("PDF artifact not found: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("PDF artifact path is a directory: %s", pdfPath)
	}

	return nil
}
