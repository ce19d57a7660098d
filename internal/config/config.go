package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Builder BuilderConfig `yaml:"builder"`
	Publish PublishConfig `yaml:"publish"`
	History HistoryConfig `yaml:"history"`
	Daemon  DaemonConfig  `yaml:"daemon"`
	Watch   WatchConfig   `yaml:"watch"`
}

// SourceConfig locates the documentation source tree.
type SourceConfig struct {
	Dir string `yaml:"dir"`
}

// BuilderConfig describes the external documentation generator.
type BuilderConfig struct {
	Tool        string   `yaml:"tool"`    // binary checked on PATH before building
	Command     string   `yaml:"command"` // command actually invoked to build
	Args        []string `yaml:"args"`
	HTMLDir     string   `yaml:"html_dir"` // relative to source dir
	PDFPath     string   `yaml:"pdf_path"` // relative to source dir
	Remediation string   `yaml:"remediation,omitempty"`
}

// PublishConfig controls the commit-and-force-push step.
type PublishConfig struct {
	Branch        string      `yaml:"branch"`
	RemoteHost    string      `yaml:"remote_host"`
	WorkspaceDir  string      `yaml:"workspace_dir"`
	KeepOnFailure bool        `yaml:"keep_on_failure"`
	Linkcheck     *bool       `yaml:"linkcheck,omitempty"`
	Auth          *AuthConfig `yaml:"auth,omitempty"`
}

// AuthConfig represents git authentication configuration
type AuthConfig struct {
	Type     string `yaml:"type"` // "ssh", "token", "basic"
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Token    string `yaml:"token,omitempty"`
	KeyPath  string `yaml:"key_path,omitempty"`
}

// HistoryConfig controls the publish history store.
type HistoryConfig struct {
	Path     string `yaml:"path"`
	Disabled bool   `yaml:"disabled"`
}

// DaemonConfig controls the scheduled republish daemon.
type DaemonConfig struct {
	Interval string `yaml:"interval"` // time.ParseDuration format, e.g. "1h"
	Listen   string `yaml:"listen"`
}

// WatchConfig controls the rebuild-on-change watcher.
type WatchConfig struct {
	Debounce string   `yaml:"debounce"`         // time.ParseDuration format, e.g. "2s"
	Ignore   []string `yaml:"ignore,omitempty"` // extra dirs (relative to source) to ignore
}

// IntervalDuration parses the configured republish interval, falling back
// to one hour when unset or invalid.
func (d *DaemonConfig) IntervalDuration() time.Duration {
	if dur, err := time.ParseDuration(d.Interval); err == nil && dur > 0 {
		return dur
	}
	return time.Hour
}

// DebounceDuration parses the configured watch debounce, falling back to
// two seconds when unset or invalid.
func (w *WatchConfig) DebounceDuration() time.Duration {
	if dur, err := time.ParseDuration(w.Debounce); err == nil && dur > 0 {
		return dur
	}
	return 2 * time.Second
}

// LinkcheckEnabled reports whether the staged HTML should be link-checked
// before publishing. Defaults to true when unset.
func (p *PublishConfig) LinkcheckEnabled() bool {
	if p.Linkcheck == nil {
		return true
	}
	return *p.Linkcheck
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just log it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

// Default returns a configuration with all defaults applied, for use when
// no configuration file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Source.Dir == "" {
		c.Source.Dir = "."
	}
	if c.Builder.Tool == "" {
		c.Builder.Tool = "sphinx-build"
	}
	if c.Builder.Command == "" {
		c.Builder.Command = "make"
	}
	if len(c.Builder.Args) == 0 {
		c.Builder.Args = []string{"html", "latexpdf"}
	}
	if c.Builder.HTMLDir == "" {
		c.Builder.HTMLDir = "_build/html"
	}
	if c.Builder.PDFPath == "" {
		c.Builder.PDFPath = "_build/latex/docpages.pdf"
	}
	if c.Builder.Remediation == "" {
		c.Builder.Remediation = "install it with: pip install sphinx"
	}
	if c.Publish.Branch == "" {
		c.Publish.Branch = "gh-pages"
	}
	if c.Publish.RemoteHost == "" {
		c.Publish.RemoteHost = "github.com"
	}
	if c.Publish.WorkspaceDir == "" {
		c.Publish.WorkspaceDir = "deploy"
	}
	if c.History.Path == "" {
		c.History.Path = ".docpages/history.db"
	}
	if c.Daemon.Interval == "" {
		c.Daemon.Interval = "1h"
	}
	if c.Daemon.Listen == "" {
		c.Daemon.Listen = ":9180"
	}
	if c.Watch.Debounce == "" {
		c.Watch.Debounce = "2s"
	}
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Source: SourceConfig{Dir: "."},
		Builder: BuilderConfig{
			Tool:        "sphinx-build",
			Command:     "make",
			Args:        []string{"html", "latexpdf"},
			HTMLDir:     "_build/html",
			PDFPath:     "_build/latex/docpages.pdf",
			Remediation: "install it with: pip install sphinx",
		},
		Publish: PublishConfig{
			Branch:       "gh-pages",
			RemoteHost:   "github.com",
			WorkspaceDir: "deploy",
		},
		History: HistoryConfig{Path: ".docpages/history.db"},
		Daemon:  DaemonConfig{Interval: "1h", Listen: ":9180"},
		Watch:   WatchConfig{Debounce: "2s"},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
