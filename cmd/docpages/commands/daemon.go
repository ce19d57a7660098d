package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/williamdemeo/docpages/internal/daemon"
	"github.com/williamdemeo/docpages/internal/metrics"
	"github.com/williamdemeo/docpages/internal/publish"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Account string `arg:"" help:"Account or organization owning the target repository"`
	Repo    string `arg:"" help:"Target repository name"`
}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create main context for the daemon
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)

	store := openHistory(cfg)
	if store != nil {
		defer func() {
			_ = store.Close()
		}()
	}

	runner := publish.NewRunner(cfg, recorder, store)
	req := publish.Request{Account: d.Account, Repo: d.Repo}

	dmn, err := daemon.New(cfg, runner, req, reg)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	// Start daemon in a goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- dmn.Start(ctx)
	}()

	slog.Info("Daemon started, waiting for shutdown signal...")

	// Wait for either error or shutdown signal
	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("daemon error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping daemon...")
	}

	// Stop daemon gracefully
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	if err := dmn.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}

	slog.Info("Daemon stopped successfully")
	return nil
}
