package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williamdemeo/docpages/internal/builder"
	"github.com/williamdemeo/docpages/internal/config"
	"github.com/williamdemeo/docpages/internal/history"
)

// testEnv wires a runner against prebuilt artifacts, a throwaway
// workspace and a local bare repository acting as the remote.
type testEnv struct {
	cfg       *config.Config
	remoteDir string
	store     *history.SQLiteStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sourceDir := t.TempDir()
	writeArtifact(t, sourceDir, "_build/html/index.html",
		`<html><body><a href="chapter/one.html">ch1</a><a href="docs.pdf">pdf</a></body></html>`)
	writeArtifact(t, sourceDir, "_build/html/chapter/one.html", "<html></html>")
	writeArtifact(t, sourceDir, "_build/latex/docs.pdf", "%PDF-1.4")

	remoteDir := t.TempDir()
	_, err := git.PlainInit(remoteDir, true)
	require.NoError(t, err)

	store, err := history.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	cfg := config.Default()
	cfg.Source.Dir = sourceDir
	cfg.Builder.Tool = "sh"
	cfg.Builder.Command = "true"
	cfg.Builder.Args = nil
	cfg.Builder.PDFPath = "_build/latex/docs.pdf"
	cfg.Publish.WorkspaceDir = filepath.Join(t.TempDir(), "deploy")

	return &testEnv{cfg: cfg, remoteDir: remoteDir, store: store}
}

func writeArtifact(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func remoteBranchHash(t *testing.T, remoteDir, branch string) string {
	t.Helper()
	repo, err := git.PlainOpen(remoteDir)
	require.NoError(t, err)
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	require.NoError(t, err)
	return ref.Hash().String()
}

func TestPublish_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	runner := NewRunner(env.cfg, nil, env.store)

	result, err := runner.Publish(context.Background(), Request{
		Account:   "leanprover",
		Repo:      "docs",
		RemoteURL: env.remoteDir,
		Message:   "Site update test",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 3, result.Files)
	assert.Equal(t, result.Commit, remoteBranchHash(t, env.remoteDir, "gh-pages"))

	// Workspace removed after a successful run
	_, statErr := os.Stat(env.cfg.Publish.WorkspaceDir)
	assert.True(t, os.IsNotExist(statErr))

	// History records the run
	runs, err := env.store.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, result.RunID, runs[0].ID)
	assert.Equal(t, history.OutcomeSuccess, runs[0].Outcome)
	assert.Equal(t, result.Commit, runs[0].Commit)
	assert.Equal(t, 3, runs[0].Files)
}

func TestPublish_SecondRunSupersedesFirst(t *testing.T) {
	env := newTestEnv(t)
	runner := NewRunner(env.cfg, nil, nil)

	req := Request{Account: "leanprover", Repo: "docs", RemoteURL: env.remoteDir}

	first, err := runner.Publish(context.Background(), req)
	require.NoError(t, err)

	// Content change between runs
	writeArtifact(t, env.cfg.Source.Dir, "_build/html/index.html",
		`<html><body><a href="chapter/one.html">updated</a></body></html>`)

	second, err := runner.Publish(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, first.Commit, second.Commit)
	assert.Equal(t, second.Commit, remoteBranchHash(t, env.remoteDir, "gh-pages"))
}

func TestPublish_BranchOverride(t *testing.T) {
	env := newTestEnv(t)
	runner := NewRunner(env.cfg, nil, nil)

	result, err := runner.Publish(context.Background(), Request{
		Account:   "leanprover",
		Repo:      "docs",
		Branch:    "preview",
		RemoteURL: env.remoteDir,
	})
	require.NoError(t, err)
	assert.Equal(t, result.Commit, remoteBranchHash(t, env.remoteDir, "preview"))
}

func TestPublish_BuildFailureStopsPipeline(t *testing.T) {
	env := newTestEnv(t)

	script := filepath.Join(t.TempDir(), "fail.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 3\n"), 0o755))
	env.cfg.Builder.Command = script

	runner := NewRunner(env.cfg, nil, env.store)
	_, err := runner.Publish(context.Background(), Request{
		Account:   "leanprover",
		Repo:      "docs",
		RemoteURL: env.remoteDir,
	})
	require.Error(t, err)

	var exitErr *builder.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)

	// Nothing was pushed
	repo, openErr := git.PlainOpen(env.remoteDir)
	require.NoError(t, openErr)
	_, refErr := repo.Reference(plumbing.NewBranchReferenceName("gh-pages"), true)
	assert.Error(t, refErr)

	// The failure is recorded
	runs, err := env.store.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, history.OutcomeFailed, runs[0].Outcome)
	assert.Empty(t, runs[0].Commit)
	assert.NotEmpty(t, runs[0].Error)
}

func TestPublish_BrokenLinksBlockPublish(t *testing.T) {
	env := newTestEnv(t)
	writeArtifact(t, env.cfg.Source.Dir, "_build/html/index.html",
		`<html><body><a href="missing.html">gone</a></body></html>`)

	runner := NewRunner(env.cfg, nil, nil)
	_, err := runner.Publish(context.Background(), Request{
		Account:   "leanprover",
		Repo:      "docs",
		RemoteURL: env.remoteDir,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken links")

	// Workspace removed on failure without keep-on-failure
	_, statErr := os.Stat(env.cfg.Publish.WorkspaceDir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPublish_KeepOnFailureLeavesWorkspace(t *testing.T) {
	env := newTestEnv(t)
	writeArtifact(t, env.cfg.Source.Dir, "_build/html/index.html",
		`<html><body><a href="missing.html">gone</a></body></html>`)

	runner := NewRunner(env.cfg, nil, nil)
	_, err := runner.Publish(context.Background(), Request{
		Account:       "leanprover",
		Repo:          "docs",
		RemoteURL:     env.remoteDir,
		KeepOnFailure: true,
	})
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(env.cfg.Publish.WorkspaceDir, "index.html"))
	assert.NoError(t, statErr)
}

func TestPublish_SkipLinkcheckAllowsBrokenLinks(t *testing.T) {
	env := newTestEnv(t)
	writeArtifact(t, env.cfg.Source.Dir, "_build/html/index.html",
		`<html><body><a href="missing.html">gone</a></body></html>`)

	runner := NewRunner(env.cfg, nil, nil)
	_, err := runner.Publish(context.Background(), Request{
		Account:       "leanprover",
		Repo:          "docs",
		RemoteURL:     env.remoteDir,
		SkipLinkcheck: true,
	})
	assert.NoError(t, err)
}
