package daemon

import (
	"path/filepath"
	"strings"

	"github.com/williamdemeo/docpages/internal/config"
)

// WatchIgnoreDirs derives the watcher's ignore set from configuration:
// the build output roots, the publish workspace, and any extra dirs
// from watch.ignore. Generators write scratch data (doctrees, caches)
// next to the named outputs, so the whole top-level build root is
// ignored rather than just the HTML and PDF directories; otherwise a
// rebuild's own output would retrigger the watcher.
func WatchIgnoreDirs(cfg *config.Config) []string {
	candidates := []string{
		topSegment(cfg.Builder.HTMLDir),
		topSegment(filepath.Dir(cfg.Builder.PDFPath)),
		cfg.Publish.WorkspaceDir,
	}
	candidates = append(candidates, cfg.Watch.Ignore...)

	seen := make(map[string]bool, len(candidates))
	dirs := make([]string, 0, len(candidates))
	for _, dir := range candidates {
		if dir == "" || dir == "." || seen[dir] {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	return dirs
}

// topSegment returns the first path element of a relative path, or the
// path unchanged when it cannot be safely truncated (absolute, or
// escaping the source tree).
func topSegment(p string) string {
	clean := filepath.ToSlash(filepath.Clean(p))
	if clean == "." || filepath.IsAbs(p) || strings.HasPrefix(clean, "..") {
		return p
	}
	if i := strings.Index(clean, "/"); i > 0 {
		return clean[:i]
	}
	return clean
}
