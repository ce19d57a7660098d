package linkcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestRun_CleanTree(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.html": `<html><body>
			<a href="chapter/one.html">ch1</a>
			<a href="docs.pdf">pdf</a>
			<link href="_static/style.css" rel="stylesheet">
		</body></html>`,
		"chapter/one.html": `<html><body>
			<a href="../index.html">home</a>
			<img src="../_static/logo.png">
		</body></html>`,
		"_static/style.css": "body{}",
		"_static/logo.png":  "png",
		"docs.pdf":          "%PDF",
	})

	broken, err := New(root).Run()
	require.NoError(t, err)
	assert.Empty(t, broken)
}

func TestRun_ReportsBrokenRelativeLinks(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.html": `<html><body>
			<a href="missing.html">gone</a>
			<img src="img/nope.png">
		</body></html>`,
	})

	broken, err := New(root).Run()
	require.NoError(t, err)
	require.Len(t, broken, 2)

	targets := []string{broken[0].Resolved, broken[1].Resolved}
	assert.Contains(t, targets, "missing.html")
	assert.Contains(t, targets, "img/nope.png")
	assert.Equal(t, "index.html", broken[0].SourceFile)
}

func TestRun_ResolvesRelativeToSourceFile(t *testing.T) {
	root := writeTree(t, map[string]string{
		"chapter/one.html": `<a href="two.html">next</a>`,
	})

	broken, err := New(root).Run()
	require.NoError(t, err)
	require.Len(t, broken, 1)
	assert.Equal(t, "chapter/two.html", broken[0].Resolved)
}

func TestRun_SiteAbsoluteResolvesFromRoot(t *testing.T) {
	root := writeTree(t, map[string]string{
		"chapter/one.html":  `<a href="/_static/style.css">css</a><a href="/missing.css">gone</a>`,
		"_static/style.css": "body{}",
	})

	broken, err := New(root).Run()
	require.NoError(t, err)
	require.Len(t, broken, 1)
	assert.Equal(t, "missing.css", broken[0].Resolved)
}

func TestRun_DirectoryLinksResolveToIndex(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.html":         `<a href="chapter/">chapter</a><a href="other/">other</a>`,
		"chapter/index.html": "<html></html>",
	})

	broken, err := New(root).Run()
	require.NoError(t, err)
	require.Len(t, broken, 1)
	assert.Equal(t, "other/index.html", broken[0].Resolved)
}

func TestRun_IgnoresUncheckableTargets(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.html": `<html><body>
			<a href="https://example.com/page">external</a>
			<a href="//cdn.example.com/lib.js">protocol-relative</a>
			<a href="#section">anchor</a>
			<a href="mailto:docs@example.com">mail</a>
			<a href="javascript:void(0)">js</a>
			<a href="../escapes-root.html">outside</a>
		</body></html>`,
	})

	broken, err := New(root).Run()
	require.NoError(t, err)
	assert.Empty(t, broken)
}

func TestRun_FragmentOnTargetIsStripped(t *testing.T) {
	root := writeTree(t, map[string]string{
		"index.html": `<a href="chapter/one.html#intro">ch1</a>`,
	})

	broken, err := New(root).Run()
	require.NoError(t, err)
	require.Len(t, broken, 1)
	assert.Equal(t, "chapter/one.html", broken[0].Resolved)
}

func TestRun_SkipsNonHTMLFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"search.js": `href="not-a-real-link.html"`,
		"docs.pdf":  "%PDF",
	})

	broken, err := New(root).Run()
	require.NoError(t, err)
	assert.Empty(t, broken)
}

func TestBrokenLink_String(t *testing.T) {
	b := BrokenLink{SourceFile: "index.html", Target: "x.html", Resolved: "x.html"}
	assert.Equal(t, "index.html -> x.html (resolved x.html)", b.String())
}
