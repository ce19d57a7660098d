package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/williamdemeo/docpages/internal/config"
	"github.com/williamdemeo/docpages/internal/history"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docpages.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Publish PublishCmd `cmd:"" help:"Build the documentation and force-push the artifacts to the pages branch"`
	Build   BuildCmd   `cmd:"" help:"Run only the documentation build"`
	Doctor  DoctorCmd  `cmd:"" help:"Verify the external build tooling is available"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	History HistoryCmd `cmd:"" help:"List recent publish runs"`
	Daemon  DaemonCmd  `cmd:"" help:"Republish on a schedule and serve Prometheus metrics"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild the documentation when the source tree changes"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig loads the configuration file. When the file is absent at
// the default path, built-in defaults apply; an explicitly given path
// must exist.
func loadConfig(root *CLI) (*config.Config, error) {
	if _, err := os.Stat(root.Config); os.IsNotExist(err) && root.Config == "docpages.yaml" {
		slog.Debug("No configuration file found, using defaults")
		return config.Default(), nil
	}
	return config.Load(root.Config)
}

// openHistory opens the publish history store, or returns nil when the
// store is disabled. A store that fails to open is reported but not
// fatal: publishing must not depend on local bookkeeping.
func openHistory(cfg *config.Config) history.Store {
	if cfg.History.Disabled {
		return nil
	}
	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		slog.Warn("Could not open history store", "path", cfg.History.Path, "error", err)
		return nil
	}
	return store
}
