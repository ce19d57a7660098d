// Package daemon runs scheduled republishes and exposes Prometheus
// metrics over HTTP.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/williamdemeo/docpages/internal/config"
	"github.com/williamdemeo/docpages/internal/logfields"
	"github.com/williamdemeo/docpages/internal/metrics"
	"github.com/williamdemeo/docpages/internal/publish"
)

// Daemon republishes the documentation on a fixed interval.
type Daemon struct {
	cfg       *config.Config
	req       publish.Request
	runner    *publish.Runner
	scheduler gocron.Scheduler
	server    *http.Server
}

// New creates a Daemon for the given target. The runner's recorder
// should be the Prometheus recorder registered on reg so scheduled runs
// show up on /metrics.
func New(cfg *config.Config, runner *publish.Runner, req publish.Request, reg *prom.Registry) (*Daemon, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &Daemon{
		cfg:       cfg,
		req:       req,
		runner:    runner,
		scheduler: scheduler,
		server:    &http.Server{Addr: cfg.Daemon.Listen, Handler: mux, ReadHeaderTimeout: 10 * time.Second},
	}, nil
}

// Start schedules the periodic publish job and serves metrics until ctx
// is canceled or the HTTP server fails.
func (d *Daemon) Start(ctx context.Context) error {
	interval := d.cfg.Daemon.IntervalDuration()

	_, err := d.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(d.executePublish, ctx),
		gocron.WithName("scheduled-publish"),
	)
	if err != nil {
		return fmt.Errorf("failed to create periodic publish job: %w", err)
	}

	slog.Info("Starting scheduler", slog.Duration("interval", interval))
	d.scheduler.Start()

	errChan := make(chan error, 1)
	go func() {
		slog.Info("Serving metrics", slog.String("listen", d.cfg.Daemon.Listen))
		if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("metrics server failed: %w", err)
	case <-ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the scheduler and the metrics server.
func (d *Daemon) Stop(ctx context.Context) error {
	slog.Info("Stopping scheduler")
	if err := d.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	if err := d.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop metrics server: %w", err)
	}
	return nil
}

// executePublish is called by gocron to run a scheduled publish.
func (d *Daemon) executePublish(ctx context.Context) {
	slog.Info("Executing scheduled publish",
		logfields.Account(d.req.Account),
		logfields.Repository(d.req.Repo))

	if _, err := d.runner.Publish(ctx, d.req); err != nil {
		slog.Error("Scheduled publish failed", logfields.Error(err))
	}
}
