package gitops

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"

	appcfg "github.com/williamdemeo/docpages/internal/config"
	"github.com/williamdemeo/docpages/internal/logfields"
)

// ErrNothingToCommit indicates the staged workspace produced an empty commit.
var ErrNothingToCommit = errors.New("nothing to commit in publish workspace")

// Publisher wraps a throwaway git repository in the publish workspace.
type Publisher struct {
	dir  string
	repo *git.Repository
	auth *appcfg.AuthConfig
}

// NewPublisher creates a Publisher for the given workspace directory.
func NewPublisher(dir string, auth *appcfg.AuthConfig) *Publisher {
	return &Publisher{dir: dir, auth: auth}
}

// RemoteURL builds the SSH-style remote URL for the target repository.
func RemoteURL(host, account, repo string) string {
	return fmt.Sprintf("git@%s:%s/%s", host, account, repo)
}

// InitRepo initializes a fresh git repository in the workspace.
func (p *Publisher) InitRepo() error {
	repo, err := git.PlainInit(p.dir, false)
	if err != nil {
		return fmt.Errorf("failed to init publish repository: %w", err)
	}
	p.repo = repo
	slog.Debug("Initialized publish repository", logfields.Path(p.dir))
	return nil
}

// CommitAll stages every file in the workspace and creates exactly one
// commit with the given message. Returns the commit hash.
func (p *Publisher) CommitAll(message string) (string, error) {
	if p.repo == nil {
		return "", errors.New("publish repository not initialized")
	}

	worktree, err := p.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("failed to stage artifacts: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return "", fmt.Errorf("failed to read worktree status: %w", err)
	}
	if status.IsClean() {
		return "", ErrNothingToCommit
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "docpages",
			Email: "docpages@localhost",
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit artifacts: %w", err)
	}

	slog.Info("Committed artifacts", slog.String("commit", hash.String()[:8]))
	return hash.String(), nil
}

// ForcePush overwrites refs/heads/<branch> on the remote with the local
// HEAD unconditionally. Remote history is discarded, not merged.
func (p *Publisher) ForcePush(ctx context.Context, remoteURL, branch string) error {
	if p.repo == nil {
		return errors.New("publish repository not initialized")
	}

	head, err := p.repo.Head()
	if err != nil {
		return fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	if _, err := p.repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{remoteURL},
	}); err != nil {
		return fmt.Errorf("failed to create remote: %w", err)
	}

	refSpec := gitconfig.RefSpec(fmt.Sprintf("+%s:refs/heads/%s", head.Name(), branch))

	pushOptions := &git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{refSpec},
		Force:      true,
	}

	if p.auth != nil {
		auth, err := getAuth(p.auth)
		if err != nil {
			return fmt.Errorf("failed to setup authentication: %w", err)
		}
		pushOptions.Auth = auth
	}

	slog.Info("Force-pushing artifacts",
		slog.String("remote", remoteURL),
		logfields.Branch(branch))

	err = p.repo.PushContext(ctx, pushOptions)
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("failed to push to %s: %w", remoteURL, err)
	}

	if err == git.NoErrAlreadyUpToDate {
		slog.Info("Remote branch already up to date", logfields.Branch(branch))
	} else {
		slog.Info("Pushed artifacts", slog.String("remote", remoteURL), logfields.Branch(branch))
	}

	return nil
}
