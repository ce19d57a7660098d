package commands

import (
	"context"
	"fmt"

	"github.com/williamdemeo/docpages/internal/publish"
)

// PublishCmd implements the 'publish' command.
type PublishCmd struct {
	Account string `arg:"" help:"Account or organization owning the target repository"`
	Repo    string `arg:"" help:"Target repository name"`

	Branch        string `help:"Remote branch to overwrite" default:"gh-pages"`
	Remote        string `help:"Override the remote URL derived from account/repo"`
	Message       string `short:"m" help:"Commit message (defaults to a dated message)"`
	SkipBuild     bool   `help:"Publish existing build artifacts without rebuilding"`
	NoLinkcheck   bool   `name:"no-linkcheck" help:"Skip the broken-link scan of the staged site"`
	KeepOnFailure bool   `name:"keep-on-failure" help:"Leave the publish workspace behind when the run fails"`
}

func (p *PublishCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store := openHistory(cfg)
	if store != nil {
		defer func() {
			_ = store.Close()
		}()
	}

	runner := publish.NewRunner(cfg, nil, store)
	result, err := runner.Publish(context.Background(), publish.Request{
		Account:       p.Account,
		Repo:          p.Repo,
		Branch:        p.Branch,
		RemoteURL:     p.Remote,
		Message:       p.Message,
		SkipBuild:     p.SkipBuild,
		SkipLinkcheck: p.NoLinkcheck,
		KeepOnFailure: p.KeepOnFailure,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Published %d files to %s/%s (%s) as %s\n",
		result.Files, p.Account, p.Repo, p.Branch, result.Commit[:8])
	return nil
}
