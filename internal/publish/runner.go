// Package publish orchestrates the full build-and-publish run: tool
// check, external build, artifact staging, optional link check, single
// commit and force-push, with scoped workspace cleanup and history
// recording around the pipeline.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/williamdemeo/docpages/internal/artifacts"
	"github.com/williamdemeo/docpages/internal/builder"
	"github.com/williamdemeo/docpages/internal/config"
	"github.com/williamdemeo/docpages/internal/gitops"
	"github.com/williamdemeo/docpages/internal/history"
	"github.com/williamdemeo/docpages/internal/linkcheck"
	"github.com/williamdemeo/docpages/internal/logfields"
	"github.com/williamdemeo/docpages/internal/metrics"
	"github.com/williamdemeo/docpages/internal/pipeline"
	"github.com/williamdemeo/docpages/internal/workspace"
)

// Request describes one publish invocation.
type Request struct {
	Account string
	Repo    string
	Branch  string // overrides config when non-empty
	Message string // overrides the default dated commit message
	// RemoteURL overrides the SSH-style URL derived from the configured
	// host and the account/repo pair. Any URL go-git accepts works,
	// including local paths.
	RemoteURL string

	SkipBuild     bool
	SkipLinkcheck bool
	KeepOnFailure bool // in addition to the config setting
}

// Result summarizes a successful publish run.
type Result struct {
	RunID    string
	Commit   string
	Files    int
	Duration time.Duration
}

// Runner executes publish runs against a fixed configuration.
type Runner struct {
	cfg      *config.Config
	recorder metrics.Recorder
	store    history.Store
}

// NewRunner creates a Runner. Recorder and store may be nil.
func NewRunner(cfg *config.Config, recorder metrics.Recorder, store history.Store) *Runner {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Runner{cfg: cfg, recorder: recorder, store: store}
}

// Publish runs the full pipeline. The workspace is released on every
// exit path; when the run failed and keep-on-failure is set it is left
// behind for inspection instead.
func (r *Runner) Publish(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.NewString()
	startedAt := time.Now()

	branch := r.cfg.Publish.Branch
	if req.Branch != "" {
		branch = req.Branch
	}
	message := req.Message
	if message == "" {
		message = fmt.Sprintf("Site update %s", startedAt.Format(time.RFC1123))
	}
	remoteURL := req.RemoteURL
	if remoteURL == "" {
		remoteURL = gitops.RemoteURL(r.cfg.Publish.RemoteHost, req.Account, req.Repo)
	}

	slog.Info("Starting publish run",
		logfields.RunID(runID),
		logfields.Account(req.Account),
		logfields.Repository(req.Repo),
		logfields.Branch(branch))

	b := builder.New(r.cfg.Source.Dir, r.cfg.Builder)
	ws := workspace.NewManager(r.cfg.Publish.WorkspaceDir).
		WithKeepOnFailure(req.KeepOnFailure || r.cfg.Publish.KeepOnFailure)
	pub := gitops.NewPublisher(ws.Path(), r.cfg.Publish.Auth)

	var files int
	var commitHash string

	p := pipeline.New(r.recorder)
	p.Add(pipeline.Step{
		Name: "check-tool",
		Run: func(context.Context) error {
			return b.CheckTool()
		},
	})
	p.Add(pipeline.Step{
		Name: "build",
		Skip: func() bool { return req.SkipBuild },
		Run: func(ctx context.Context) error {
			return b.Run(ctx)
		},
	})
	p.Add(pipeline.Step{
		Name: "verify-artifacts",
		Run: func(context.Context) error {
			return b.VerifyArtifacts()
		},
	})
	p.Add(pipeline.Step{
		Name: "prepare-workspace",
		Run: func(context.Context) error {
			return ws.Acquire()
		},
	})
	p.Add(pipeline.Step{
		Name: "stage",
		Run: func(context.Context) error {
			n, err := artifacts.Stage(b.HTMLDir(), b.PDFPath(), ws.Path())
			files = n
			return err
		},
	})
	p.Add(pipeline.Step{
		Name: "linkcheck",
		Skip: func() bool { return req.SkipLinkcheck || !r.cfg.Publish.LinkcheckEnabled() },
		Run: func(context.Context) error {
			broken, err := linkcheck.New(ws.Path()).Run()
			if err != nil {
				return err
			}
			if len(broken) > 0 {
				return fmt.Errorf("found %d broken links in staged site", len(broken))
			}
			return nil
		},
	})
	p.Add(pipeline.Step{
		Name: "commit",
		Run: func(context.Context) error {
			if err := pub.InitRepo(); err != nil {
				return err
			}
			hash, err := pub.CommitAll(message)
			commitHash = hash
			return err
		},
	})
	p.Add(pipeline.Step{
		Name: "push",
		Run: func(ctx context.Context) error {
			return pub.ForcePush(ctx, remoteURL, branch)
		},
	})

	runErr := p.Run(ctx)
	elapsed := time.Since(startedAt)

	if err := ws.Release(runErr != nil); err != nil {
		slog.Warn("Failed to cleanup workspace", logfields.Error(err))
	}

	outcome := history.OutcomeSuccess
	outcomeLabel := "success"
	errText := ""
	if runErr != nil {
		outcome = history.OutcomeFailed
		outcomeLabel = "failed"
		errText = runErr.Error()
	}

	r.recorder.ObservePublishDuration(elapsed)
	r.recorder.IncPublishOutcome(outcomeLabel)

	if r.store != nil {
		rec := history.Run{
			ID:        runID,
			Account:   req.Account,
			Repo:      req.Repo,
			Branch:    branch,
			StartedAt: startedAt,
			Duration:  elapsed,
			Outcome:   outcome,
			Commit:    commitHash,
			Files:     files,
			Error:     errText,
		}
		if err := r.store.Record(ctx, rec); err != nil {
			slog.Warn("Failed to record publish run", logfields.RunID(runID), logfields.Error(err))
		}
	}

	if runErr != nil {
		return nil, runErr
	}

	slog.Info("Publish run completed",
		logfields.RunID(runID),
		slog.String("commit", commitHash[:8]),
		slog.Int("files", files),
		logfields.DurationMS(float64(elapsed.Milliseconds())))

	return &Result{RunID: runID, Commit: commitHash, Files: files, Duration: elapsed}, nil
}
