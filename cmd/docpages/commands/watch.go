package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/williamdemeo/docpages/internal/builder"
	"github.com/williamdemeo/docpages/internal/daemon"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct{}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	bld := builder.New(cfg.Source.Dir, cfg.Builder)
	if err := bld.CheckTool(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Never watch the generator's output roots or the publish workspace.
	ignore := daemon.WatchIgnoreDirs(cfg)

	watcher, err := daemon.NewWatcher(cfg.Source.Dir, ignore, cfg.Watch.DebounceDuration(), func(ctx context.Context) error {
		return bld.Run(ctx)
	})
	if err != nil {
		return err
	}

	return watcher.Run(ctx)
}
