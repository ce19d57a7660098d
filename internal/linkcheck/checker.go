// Package linkcheck scans a staged HTML tree for broken relative links
// before the tree is published. Only links that resolve within the tree
// are checked; external URLs and fragment-only anchors are ignored.
package linkcheck

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/williamdemeo/docpages/internal/logfields"
)

// BrokenLink describes a relative link whose target is missing from the tree.
type BrokenLink struct {
	SourceFile string // HTML file containing the link, relative to the tree root
	Target     string // link target as written
	Resolved   string // resolved path relative to the tree root
}

func (b BrokenLink) String() string {
	return fmt.Sprintf("%s -> %s (resolved %s)", b.SourceFile, b.Target, b.Resolved)
}

// Checker verifies relative links across an HTML tree rooted at a directory.
type Checker struct {
	root string
}

// New creates a Checker for the given tree root.
func New(root string) *Checker {
	return &Checker{root: root}
}

// Run walks the tree, parses every .html file and reports links whose
// resolved targets do not exist.
func (c *Checker) Run() ([]BrokenLink, error) {
	var broken []BrokenLink

	err := filepath.WalkDir(c.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}

		rel, err := filepath.Rel(c.root, p)
		if err != nil {
			return err
		}

		links, err := extractTargets(p)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", rel, err)
		}

		for _, target := range links {
			resolved, checkable := c.resolve(rel, target)
			if !checkable {
				continue
			}
			if _, err := os.Stat(filepath.Join(c.root, filepath.FromSlash(resolved))); err != nil {
				broken = append(broken, BrokenLink{SourceFile: rel, Target: target, Resolved: resolved})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(broken) > 0 {
		for _, b := range broken {
			slog.Warn("Broken link", logfields.Path(b.SourceFile), slog.String("target", b.Target))
		}
	}
	return broken, nil
}

// resolve maps a link target to a tree-relative path. The second return
// value is false when the link is not checkable (external, anchor-only,
// special protocol, or absolute to an unknown site root).
func (c *Checker) resolve(sourceRel, target string) (string, bool) {
	if target == "" || strings.HasPrefix(target, "#") {
		return "", false
	}
	if strings.HasPrefix(target, "//") {
		return "", false
	}
	for _, prefix := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(target, prefix) {
			return "", false
		}
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", false
	}
	if u.Scheme != "" || u.Host != "" {
		return "", false
	}

	p := u.Path
	if p == "" {
		return "", false
	}

	var resolved string
	if strings.HasPrefix(p, "/") {
		// Site-absolute: resolve against the tree root.
		resolved = path.Clean(strings.TrimPrefix(p, "/"))
	} else {
		resolved = path.Join(path.Dir(filepath.ToSlash(sourceRel)), p)
	}

	// Directory links resolve to their index page.
	if strings.HasSuffix(p, "/") {
		resolved = path.Join(resolved, "index.html")
	}

	if resolved == "." || strings.HasPrefix(resolved, "..") {
		return "", false
	}
	return resolved, true
}

// extractTargets collects href/src attribute values from an HTML file.
func extractTargets(htmlPath string) ([]string, error) {
	file, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = file.Close()
	}()

	doc, err := html.Parse(file)
	if err != nil {
		return nil, err
	}

	var targets []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a", "link":
				if href := getAttr(n, "href"); href != "" {
					targets = append(targets, href)
				}
			case "img", "script", "video", "audio", "source":
				if src := getAttr(n, "src"); src != "" {
					targets = append(targets, src)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return targets, nil
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
