// Package artifacts stages build output into the publish workspace.
// Artifacts are opaque blobs: the HTML tree is copied wholesale and the
// PDF is placed next to it, nothing is rewritten.
package artifacts

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/williamdemeo/docpages/internal/logfields"
)

// Stage copies the contents of the built HTML tree into dst, then copies
// the PDF file into dst's root. Returns the number of files staged.
func Stage(htmlDir, pdfPath, dst string) (int, error) {
	count, err := copyDirContents(htmlDir, dst)
	if err != nil {
		return 0, fmt.Errorf("failed to stage HTML tree: %w", err)
	}

	pdfDst := filepath.Join(dst, filepath.Base(pdfPath))
	if err := copyFile(pdfPath, pdfDst); err != nil {
		return 0, fmt.Errorf("failed to stage PDF: %w", err)
	}
	count++

	slog.Info("Staged build artifacts", logfields.Path(dst), slog.Int("files", count))
	return count, nil
}

// vcsDirs are metadata directories that must never reach the published
// tree; the commit step stages everything in the workspace.
var vcsDirs = map[string]bool{
	".git": true,
	".hg":  true,
	".svn": true,
}

// copyDirContents recursively copies the contents of src into dst,
// which must already exist. VCS metadata directories are skipped.
// Returns the number of files copied.
func copyDirContents(src, dst string) (int, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() && vcsDirs[entry.Name()] {
			continue
		}

		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			srcInfo, err := os.Stat(srcPath)
			if err != nil {
				return count, err
			}
			if err := os.MkdirAll(dstPath, srcInfo.Mode()); err != nil {
				return count, err
			}
			n, err := copyDirContents(srcPath, dstPath)
			count += n
			if err != nil {
				return count, err
			}
		} else {
			if err := copyFile(srcPath, dstPath); err != nil {
				return count, err
			}
			count++
		}
	}

	return count, nil
}

// copyFile copies a single file from src to dst, preserving permissions.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = dstFile.Close()
	}()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, srcInfo.Mode())
}
